package calculator

import (
	"sort"

	"github.com/mmynk/settleup/pkg/money"
)

// ComputeBalances derives every member's net balance from the ledger.
//
// Algorithm:
// - every member starts at zero
// - the payer of an expense is credited the full amount
// - each beneficiary is debited their share (amount / beneficiaries)
//
// A payer who is also a beneficiary therefore nets amount - share.
// The result always sums to zero; if it does not, a *ConsistencyFault is
// returned instead of the balances.
func ComputeBalances(ledger Ledger) (Balances, error) {
	members, _, err := tally(ledger)
	if err != nil {
		return nil, err
	}

	balances := make(Balances, len(members))
	for _, m := range members {
		balances[m.MemberName] = m.NetBalance
	}

	if err := CheckConservation(balances); err != nil {
		return nil, err
	}
	return balances, nil
}

// CheckConservation verifies that balances sum to zero within Tolerance.
// Balances too large to sum are a *ValidationError, not a fault.
func CheckConservation(balances Balances) error {
	total, err := balances.Total()
	if err != nil {
		return err
	}
	if !settled(total) {
		return &ConsistencyFault{Stage: StageBalances, Residual: total}
	}
	return nil
}

// Summarize computes the per-member breakdown plus the creditor and debtor
// lists for a ledger.
func Summarize(ledger Ledger) (*Summary, error) {
	members, spent, err := tally(ledger)
	if err != nil {
		return nil, err
	}

	balances := make(Balances, len(members))
	for _, m := range members {
		balances[m.MemberName] = m.NetBalance
	}
	if err := CheckConservation(balances); err != nil {
		return nil, err
	}

	creditors, debtors := Partition(balances)
	return &Summary{
		Members:    members,
		Creditors:  creditors,
		Debtors:    debtors,
		TotalSpent: spent,
	}, nil
}

// tally walks every expense once and accumulates paid and owed totals in
// ledger member order, plus the total spent. Every running sum is overflow
// checked; paid and owed stay non-negative, so their difference always fits.
func tally(ledger Ledger) ([]MemberBalance, money.Amount, error) {
	set, err := memberSet(ledger.Members)
	if err != nil {
		return nil, 0, err
	}

	members := make([]MemberBalance, len(ledger.Members))
	index := make(map[string]int, len(ledger.Members))
	for i, name := range ledger.Members {
		members[i] = MemberBalance{MemberName: name}
		index[name] = i
	}

	var spent money.Amount
	for i, exp := range ledger.Expenses {
		shares, err := expenseShares(i, exp, set)
		if err != nil {
			return nil, 0, err
		}
		overflow := func(participant string, err error) error {
			return &ValidationError{ExpenseIndex: i, ExpenseID: exp.ID, Participant: participant, Err: err}
		}

		if spent, err = money.Add(spent, exp.Amount); err != nil {
			return nil, 0, overflow("", err)
		}
		payer := &members[index[exp.Payer]]
		if payer.TotalPaid, err = money.Add(payer.TotalPaid, exp.Amount); err != nil {
			return nil, 0, overflow(exp.Payer, err)
		}
		for j, b := range exp.Beneficiaries {
			owed := &members[index[b]]
			if owed.TotalOwed, err = money.Add(owed.TotalOwed, shares[j]); err != nil {
				return nil, 0, overflow(b, err)
			}
		}
	}

	for i := range members {
		members[i].NetBalance = members[i].TotalPaid - members[i].TotalOwed
	}
	return members, spent, nil
}

// PairwiseDebts lists who owes whom before any simplification, for auditing.
// Each beneficiary owes the payer their share; debts in opposite directions
// between the same two people are netted. Edges come back sorted by debtor,
// then creditor.
func PairwiseDebts(ledger Ledger) ([]DebtEdge, error) {
	set, err := memberSet(ledger.Members)
	if err != nil {
		return nil, err
	}

	// debts[debtor][creditor] = amount
	debts := make(map[string]map[string]money.Amount)
	for i, exp := range ledger.Expenses {
		shares, err := expenseShares(i, exp, set)
		if err != nil {
			return nil, err
		}
		for j, b := range exp.Beneficiaries {
			if b == exp.Payer {
				continue
			}
			if _, exists := debts[b]; !exists {
				debts[b] = make(map[string]money.Amount)
			}
			debts[b][exp.Payer] += shares[j]
		}
	}

	var edges []DebtEdge
	for debtor, creditors := range debts {
		for creditor, amount := range creditors {
			net := amount - debts[creditor][debtor]
			if net.IsPositive() && !settled(net) {
				edges = append(edges, DebtEdge{From: debtor, To: creditor, Amount: net})
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges, nil
}
