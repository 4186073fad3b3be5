package calculator

import (
	"container/heap"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// Partition splits balances into creditors and debtors, dropping anyone
// already settled. Both lists are ordered largest first, ties by name.
func Partition(balances Balances) (creditors, debtors []Position) {
	for name, amount := range balances {
		switch {
		case settled(amount):
		case amount > 0:
			creditors = append(creditors, Position{Name: name, Amount: amount})
		default:
			debtors = append(debtors, Position{Name: name, Amount: -amount})
		}
	}
	sort.Slice(creditors, func(i, j int) bool { return before(creditors[i], creditors[j]) })
	sort.Slice(debtors, func(i, j int) bool { return before(debtors[i], debtors[j]) })
	return creditors, debtors
}

func before(a, b Position) bool {
	if a.Amount != b.Amount {
		return a.Amount > b.Amount
	}
	return a.Name < b.Name
}

// positionHeap is a max-heap of positions ordered by before.
type positionHeap []Position

func (h positionHeap) Len() int           { return len(h) }
func (h positionHeap) Less(i, j int) bool { return before(h[i], h[j]) }
func (h positionHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *positionHeap) Push(x any) { *h = append(*h, x.(Position)) }

func (h *positionHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}

// Simplify turns net balances into an ordered list of transfers that settles
// everyone.
//
// Greedy matching: take the largest remaining creditor and the largest
// remaining debtor, move min(owed, owing) between them, drop whoever reaches
// zero, and repeat. Every step zeroes at least one participant, so at most
// n-1 transfers are produced for n unsettled participants. The result is
// short but not guaranteed to be the global minimum.
//
// The input is not modified. Balances that do not sum to zero are a
// *ConsistencyFault; balances too large to sum are a *ValidationError.
func Simplify(balances Balances) ([]Transfer, error) {
	total, err := balances.Total()
	if err != nil {
		return nil, err
	}
	if !settled(total) {
		return nil, &ConsistencyFault{Stage: StageSimplifyInput, Residual: total}
	}

	creditors, debtors := Partition(balances)
	credit := positionHeap(creditors)
	debit := positionHeap(debtors)
	heap.Init(&credit)
	heap.Init(&debit)

	transfers := make([]Transfer, 0, max(len(creditors)+len(debtors)-1, 0))
	for credit.Len() > 0 && debit.Len() > 0 {
		creditor := &credit[0]
		debtor := &debit[0]

		amount := money.Min(creditor.Amount, debtor.Amount)
		transfers = append(transfers, Transfer{
			From:   debtor.Name,
			To:     creditor.Name,
			Amount: amount,
		})

		creditor.Amount -= amount
		debtor.Amount -= amount

		if settled(creditor.Amount) {
			heap.Pop(&credit)
		} else {
			heap.Fix(&credit, 0)
		}
		if settled(debtor.Amount) {
			heap.Pop(&debit)
		} else {
			heap.Fix(&debit, 0)
		}
	}

	for _, leftover := range [][]Position{credit, debit} {
		if len(leftover) > 0 {
			return nil, &ConsistencyFault{
				Stage:       StageSimplifyResidue,
				Participant: leftover[0].Name,
				Residual:    leftover[0].Amount,
			}
		}
	}

	residual := ApplyTransfers(balances, transfers)
	for _, name := range residual.Names() {
		if amount := residual[name]; !settled(amount) {
			return nil, &ConsistencyFault{Stage: StageSimplifyResidue, Participant: name, Residual: amount}
		}
	}

	return transfers, nil
}

// ApplyTransfers returns the balances left after every transfer is paid.
// Paying moves the debtor up toward zero and the creditor down toward zero.
func ApplyTransfers(balances Balances, transfers []Transfer) Balances {
	out := balances.Clone()
	for _, t := range transfers {
		out[t.From] += t.Amount
		out[t.To] -= t.Amount
	}
	return out
}

// Efficiency describes how much simplification reduced the payment count.
type Efficiency struct {
	OriginalDebts    int
	Transfers        int
	ReductionPercent decimal.Decimal // one decimal place, never negative
	TotalTransferred money.Amount
}

// MeasureEfficiency compares the pairwise debt graph with the simplified
// transfer list.
func MeasureEfficiency(pairwise []DebtEdge, transfers []Transfer) Efficiency {
	eff := Efficiency{
		OriginalDebts:    len(pairwise),
		Transfers:        len(transfers),
		ReductionPercent: decimal.Zero,
	}
	for _, t := range transfers {
		eff.TotalTransferred += t.Amount
	}

	if eff.OriginalDebts > 0 && eff.Transfers < eff.OriginalDebts {
		saved := decimal.NewFromInt(int64(eff.OriginalDebts - eff.Transfers))
		eff.ReductionPercent = saved.Mul(hundred).DivRound(decimal.NewFromInt(int64(eff.OriginalDebts)), 1)
	}
	return eff
}
