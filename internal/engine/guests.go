package engine

import (
	"fmt"

	"github.com/tabsplit/tabsplit/internal/models"
)

// selfDisplayName is the fixed label for the synthetic self guest.
const selfDisplayName = "Me"

// GuestIDs returns the distinct guest ids present in the item collection,
// in first-seen order, with the synthetic self id appended when any item
// has no guest. Purely derived on every call; the guest set is never stored.
func (e *Engine) GuestIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.guestIDsLocked()
}

func (e *Engine) guestIDsLocked() []string {
	var ids []string
	seen := make(map[string]bool)
	hasSelf := false
	for _, it := range e.items {
		if it.GuestID == "" {
			hasSelf = true
			continue
		}
		if !seen[it.GuestID] {
			seen[it.GuestID] = true
			ids = append(ids, it.GuestID)
		}
	}
	if hasSelf {
		ids = append(ids, models.GuestSelf)
	}
	return ids
}

// GuestName resolves a display name for the given guest id. The self guest
// maps to a fixed label; otherwise the name comes from the first item
// carrying that guest id and a non-empty guest name, with a templated
// fallback when no item supplies one.
func (e *Engine) GuestName(guestID string) string {
	if guestID == models.GuestSelf || guestID == "" {
		return selfDisplayName
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, it := range e.items {
		if it.GuestID == guestID && it.GuestName != "" {
			return it.GuestName
		}
	}
	return fmt.Sprintf("Guest %s", guestID)
}
