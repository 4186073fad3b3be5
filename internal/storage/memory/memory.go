// Package memory provides an in-process implementation of storage.Store.
//
// Groups are copy-on-write: readers get deep copies and writers replace the
// stored group with an edited copy, so a balance computation never observes a
// half-applied edit.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps groups in memory.
type Store struct {
	mu     sync.RWMutex
	groups map[string]*models.Group
	order  []string
	now    func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		groups: make(map[string]*models.Group),
		now:    time.Now,
	}
}

// Close is a no-op; it exists to satisfy storage.Store.
func (s *Store) Close() error {
	return nil
}

// CreateGroup persists a new group.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = s.now().Unix()
	}
	for i := range group.Expenses {
		s.stamp(&group.Expenses[i])
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[group.ID]; exists {
		return fmt.Errorf("%w: %s", storage.ErrGroupExists, group.ID)
	}
	s.groups[group.ID] = group.Clone()
	s.order = append(s.order, group.ID)
	return nil
}

// GetGroup retrieves a snapshot of a group.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	group, exists := s.groups[groupID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", storage.ErrGroupNotFound, groupID)
	}
	return group.Clone(), nil
}

// ListGroups returns snapshots of every group in creation order.
func (s *Store) ListGroups(ctx context.Context) ([]*models.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]*models.Group, 0, len(s.order))
	for _, id := range s.order {
		groups = append(groups, s.groups[id].Clone())
	}
	return groups, nil
}

// DeleteGroup removes a group by ID.
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[groupID]; !exists {
		return fmt.Errorf("%w: %s", storage.ErrGroupNotFound, groupID)
	}
	delete(s.groups, groupID)
	for i, id := range s.order {
		if id == groupID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Update runs fn against a copy of the group and commits the copy on success.
func (s *Store) Update(ctx context.Context, groupID string, fn func(group *models.Group) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.groups[groupID]
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrGroupNotFound, groupID)
	}

	draft := current.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	draft.ID = current.ID
	draft.CreatedAt = current.CreatedAt
	s.groups[groupID] = draft
	return nil
}

// AddGroupMember appends a member to the end of the member list.
func (s *Store) AddGroupMember(ctx context.Context, groupID, name string) error {
	return s.Update(ctx, groupID, func(group *models.Group) error {
		if group.HasMember(name) {
			return fmt.Errorf("%w: %s", storage.ErrMemberExists, name)
		}
		group.Members = append(group.Members, name)
		return nil
	})
}

// RemoveGroupMember drops a member from the group.
func (s *Store) RemoveGroupMember(ctx context.Context, groupID, name string) error {
	return s.Update(ctx, groupID, func(group *models.Group) error {
		for i, m := range group.Members {
			if m == name {
				group.Members = append(group.Members[:i], group.Members[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", storage.ErrMemberNotFound, name)
	})
}

// AddExpense appends an expense to the group's history.
func (s *Store) AddExpense(ctx context.Context, groupID string, expense *models.Expense) error {
	s.stamp(expense)
	return s.Update(ctx, groupID, func(group *models.Group) error {
		if err := calculator.ValidateExpense(group.Members, expense.ForCalculator()); err != nil {
			return err
		}
		group.Expenses = append(group.Expenses, expense.Clone())
		return nil
	})
}

// ReplaceExpense swaps an existing expense for a new version.
// The original CreatedAt is kept when the replacement does not set one.
func (s *Store) ReplaceExpense(ctx context.Context, groupID string, expense *models.Expense) error {
	return s.Update(ctx, groupID, func(group *models.Group) error {
		i := group.ExpenseIndex(expense.ID)
		if i < 0 {
			return fmt.Errorf("%w: %s", storage.ErrExpenseNotFound, expense.ID)
		}
		if err := calculator.ValidateExpense(group.Members, expense.ForCalculator()); err != nil {
			return err
		}
		if expense.CreatedAt == 0 {
			expense.CreatedAt = group.Expenses[i].CreatedAt
		}
		group.Expenses[i] = expense.Clone()
		return nil
	})
}

// DeleteExpense removes an expense by ID.
func (s *Store) DeleteExpense(ctx context.Context, groupID, expenseID string) error {
	return s.Update(ctx, groupID, func(group *models.Group) error {
		i := group.ExpenseIndex(expenseID)
		if i < 0 {
			return fmt.Errorf("%w: %s", storage.ErrExpenseNotFound, expenseID)
		}
		group.Expenses = append(group.Expenses[:i], group.Expenses[i+1:]...)
		return nil
	})
}

// stamp fills in generated fields on a new expense.
func (s *Store) stamp(expense *models.Expense) {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = s.now().Unix()
	}
}
