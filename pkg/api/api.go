// Package api defines the request and response messages of the settleup
// GroupService. Messages are plain structs encoded as JSON on the wire.
//
// Amounts are money.Amount values and travel as two-place decimal strings
// ("45.00"). Balances follow the usual sign convention: positive means the
// member is owed money, negative means the member owes money.
package api

import "github.com/mmynk/settleup/pkg/money"

// Group is a group with its full expense history.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	Expenses  []Expense `json:"expenses"`
	CreatedAt int64     `json:"created_at"`
}

// Expense is one recorded purchase.
type Expense struct {
	ID            string       `json:"id"`
	Payer         string       `json:"payer"`
	Amount        money.Amount `json:"amount"`
	Description   string       `json:"description"`
	Beneficiaries []string     `json:"beneficiaries"`
	// Shares is how much each beneficiary is charged for this expense.
	Shares    map[string]money.Amount `json:"shares,omitempty"`
	CreatedAt int64                   `json:"created_at"`
}

// MemberBalance is one member's position.
type MemberBalance struct {
	MemberName string       `json:"member_name"`
	NetBalance money.Amount `json:"net_balance"`
	TotalPaid  money.Amount `json:"total_paid"`
	TotalOwed  money.Amount `json:"total_owed"`
}

// Position is a creditor's claim or a debtor's debt, always positive.
type Position struct {
	MemberName string       `json:"member_name"`
	Amount     money.Amount `json:"amount"`
}

// DebtEdge is a pairwise debt before simplification.
type DebtEdge struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Amount money.Amount `json:"amount"`
}

// Transfer is a proposed settling payment.
type Transfer struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Amount money.Amount `json:"amount"`
}

// Efficiency compares the raw debt graph with the simplified transfers.
type Efficiency struct {
	OriginalDebts    int          `json:"original_debts"`
	Transfers        int          `json:"transfers"`
	ReductionPercent string       `json:"reduction_percent"`
	TotalTransferred money.Amount `json:"total_transferred"`
}

// GroupStats summarizes a group's spending.
type GroupStats struct {
	TotalSpent     money.Amount `json:"total_spent"`
	ExpenseCount   int          `json:"expense_count"`
	FirstExpenseAt int64        `json:"first_expense_at,omitempty"`
	LastExpenseAt  int64        `json:"last_expense_at,omitempty"`

	// AverageDailySpend is TotalSpent over the number of distinct days with
	// at least one expense.
	AverageDailySpend money.Amount `json:"average_daily_spend"`
}

type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type AddMemberRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

type RemoveMemberResponse struct {
	Group *Group `json:"group"`
}

type AddExpenseRequest struct {
	GroupID       string       `json:"group_id"`
	Payer         string       `json:"payer"`
	Amount        money.Amount `json:"amount"`
	Description   string       `json:"description"`
	Beneficiaries []string     `json:"beneficiaries"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ReplaceExpenseRequest struct {
	GroupID       string       `json:"group_id"`
	ExpenseID     string       `json:"expense_id"`
	Payer         string       `json:"payer"`
	Amount        money.Amount `json:"amount"`
	Description   string       `json:"description"`
	Beneficiaries []string     `json:"beneficiaries"`
}

type ReplaceExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type RemoveExpenseRequest struct {
	GroupID   string `json:"group_id"`
	ExpenseID string `json:"expense_id"`
}

type RemoveExpenseResponse struct{}

type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetBalancesResponse struct {
	MemberBalances []*MemberBalance `json:"member_balances"`
	Creditors      []*Position      `json:"creditors"`
	Debtors        []*Position      `json:"debtors"`
	// Conserved is true whenever balances are returned; a failed
	// conservation check is reported as an Internal error instead.
	Conserved bool        `json:"conserved"`
	Stats     *GroupStats `json:"stats"`
}

type SimplifyDebtsRequest struct {
	GroupID string `json:"group_id"`
}

type SimplifyDebtsResponse struct {
	Transfers  []*Transfer `json:"transfers"`
	DebtMatrix []*DebtEdge `json:"debt_matrix"`
	Efficiency *Efficiency `json:"efficiency"`
}

type SimplifyBalancesRequest struct {
	Balances map[string]money.Amount `json:"balances"`
}

type SimplifyBalancesResponse struct {
	Transfers []*Transfer `json:"transfers"`
}
