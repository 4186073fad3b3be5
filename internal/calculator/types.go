package calculator

import (
	"sort"

	"github.com/mmynk/settleup/pkg/money"
)

// Tolerance is the smallest magnitude treated as a real balance.
// Anything strictly below it counts as settled.
const Tolerance money.Amount = 1

// Ledger is the read-only view of a group the calculator works on.
type Ledger struct {
	Members  []string
	Expenses []Expense
}

// Expense is one purchase split equally among its beneficiaries.
type Expense struct {
	ID            string
	Payer         string
	Amount        money.Amount
	Description   string
	Beneficiaries []string
}

// Balances maps a participant to their net position.
// Positive = is owed money, negative = owes money.
type Balances map[string]money.Amount

// Total returns the sum of all balances. A sum that leaves the int64 range
// is reported as a *ValidationError wrapping money.ErrOverflow.
func (b Balances) Total() (money.Amount, error) {
	var total money.Amount
	for _, name := range b.Names() {
		var err error
		if total, err = money.Add(total, b[name]); err != nil {
			return 0, &ValidationError{ExpenseIndex: -1, Participant: name, Err: err}
		}
	}
	return total, nil
}

// Names returns the participants in ascending order.
func (b Balances) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for name, amount := range b {
		out[name] = amount
	}
	return out
}

// MemberBalance is the per-member breakdown behind a net balance.
type MemberBalance struct {
	MemberName string
	NetBalance money.Amount // Positive = owed money, Negative = owes money
	TotalPaid  money.Amount // Sum of expenses this member paid for
	TotalOwed  money.Amount // Sum of this member's shares across expenses
}

// Position is a non-zero participant on one side of the settlement.
// Amount is always positive: what a creditor is owed or a debtor owes.
type Position struct {
	Name   string
	Amount money.Amount
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount money.Amount
}

// Transfer is a proposed payment from a debtor to a creditor.
type Transfer struct {
	From   string
	To     string
	Amount money.Amount
}

// Summary is the balance report for a ledger.
type Summary struct {
	Members    []MemberBalance // in ledger member order
	Creditors  []Position      // largest first
	Debtors    []Position      // largest first
	TotalSpent money.Amount    // sum of every expense amount
}

func settled(a money.Amount) bool {
	return a.Abs() < Tolerance
}
