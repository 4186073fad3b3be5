// Package models defines the domain records owned by the group layer.
//
// # Models
//
//   - Group: a named, ordered set of participants plus their expense history
//   - Expense: one purchase paid by a member and shared equally by beneficiaries
//
// Participants are identified by name strings, unique within a group.
//
// # Design Principles
//
// 1. **Immutable expenses**: an expense is never edited in place; replacing it
// and recomputing balances is the only update path
// 2. **Snapshots**: readers receive deep copies (Clone) so balance computation
// never races with edits
// 3. **Derived values are not stored**: balances and transfers are recomputed
// from the expense history on every request
package models
