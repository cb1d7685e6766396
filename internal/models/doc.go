// Package models defines the core domain models for the table-ordering engine.
//
// # Models
//
//   - OrderItem: a single line item on the table's order
//   - ItemStatus: lifecycle of an item (cart -> kitchen -> paid)
//   - GuestSplit: one guest's percentage allocation of the bill
//   - SplitMethod: the active bill-splitting strategy
//   - TipOption: a preset tip percentage or the custom sentinel
//   - CartState: the snapshot persisted after every mutation
//   - Receipt: a read-only snapshot for downstream consumers (printing, QR)
//
// Guests are identified by opaque string ids. Items carrying no guest id
// belong to the synthetic guest "self"; GuestSelf is appended to the derived
// guest set whenever such items exist.
//
// # Design principles
//
//  1. Models are plain data: all derived values (counts, subtotals, owed
//     amounts) are computed by internal/calculator and internal/engine,
//     never cached on the structs.
//  2. The guest set is always derived from the item collection; it is never
//     stored or persisted independently.
//  3. JSON tags mirror the persisted cart blob layout, so CartState can be
//     written to and restored from the key-value store verbatim.
package models
