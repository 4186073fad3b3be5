package models

import "github.com/mmynk/settleup/internal/calculator"

// Group represents a set of people sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Members is the ordered list of participant names.
	// Order matters for display only.
	Members []string

	// Expenses is the expense history in the order it was recorded.
	Expenses []Expense

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether name belongs to the group.
func (g *Group) HasMember(name string) bool {
	for _, m := range g.Members {
		if m == name {
			return true
		}
	}
	return false
}

// ExpenseIndex returns the position of the expense with the given ID, or -1.
func (g *Group) ExpenseIndex(expenseID string) int {
	for i := range g.Expenses {
		if g.Expenses[i].ID == expenseID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy that shares no slices with g.
func (g *Group) Clone() *Group {
	out := *g
	out.Members = append([]string(nil), g.Members...)
	out.Expenses = make([]Expense, len(g.Expenses))
	for i, e := range g.Expenses {
		out.Expenses[i] = e.Clone()
	}
	return &out
}

// Ledger converts the group into the calculator's input shape.
func (g *Group) Ledger() calculator.Ledger {
	ledger := calculator.Ledger{
		Members:  append([]string(nil), g.Members...),
		Expenses: make([]calculator.Expense, len(g.Expenses)),
	}
	for i, e := range g.Expenses {
		ledger.Expenses[i] = e.ForCalculator()
	}
	return ledger
}
