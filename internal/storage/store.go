// Package storage provides abstractions for group and expense storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/settleup/internal/models"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrGroupExists     = errors.New("group already exists")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrMemberExists    = errors.New("member already in group")
)

// Store defines the interface for group storage operations.
// Every group returned is a snapshot: callers may read it freely while other
// requests edit the same group.
type Store interface {
	// CreateGroup persists a new group. ID and CreatedAt are filled in by the
	// store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a snapshot of a group by its ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups returns snapshots of all groups in creation order.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// DeleteGroup removes a group and its expenses.
	DeleteGroup(ctx context.Context, groupID string) error

	// Update applies fn to a private copy of the group and stores the copy
	// only if fn returns nil. No other write to the same store interleaves.
	Update(ctx context.Context, groupID string, fn func(group *models.Group) error) error

	// AddGroupMember appends a member. A name already in the group is
	// rejected with ErrMemberExists.
	AddGroupMember(ctx context.Context, groupID, name string) error

	// RemoveGroupMember drops a member. Expenses that still reference the
	// member are kept; balance computation reports them.
	RemoveGroupMember(ctx context.Context, groupID, name string) error

	// AddExpense appends an expense, assigning ID and CreatedAt when empty.
	// Expenses whose payer or beneficiaries are not members, whose amount is
	// not positive, or that have no beneficiaries are rejected with a
	// *calculator.ValidationError.
	AddExpense(ctx context.Context, groupID string, expense *models.Expense) error

	// ReplaceExpense swaps the expense with the same ID for the given one.
	// The replacement is validated the same way as in AddExpense.
	ReplaceExpense(ctx context.Context, groupID string, expense *models.Expense) error

	// DeleteExpense removes an expense by ID.
	DeleteExpense(ctx context.Context, groupID, expenseID string) error

	// Close releases any resources held by the store.
	Close() error
}
