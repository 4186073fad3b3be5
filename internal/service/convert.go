package service

import (
	"time"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	pb "github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/money"
)

func toAPIGroup(group *models.Group) *pb.Group {
	expenses := make([]pb.Expense, len(group.Expenses))
	for i, e := range group.Expenses {
		expenses[i] = *toAPIExpense(group.Members, e)
	}
	return &pb.Group{
		ID:        group.ID,
		Name:      group.Name,
		Members:   group.Members,
		Expenses:  expenses,
		CreatedAt: group.CreatedAt,
	}
}

// toAPIExpense includes the per-beneficiary shares when the expense is still
// valid against the current member list.
func toAPIExpense(members []string, e models.Expense) *pb.Expense {
	out := &pb.Expense{
		ID:            e.ID,
		Payer:         e.Payer,
		Amount:        e.Amount,
		Description:   e.Description,
		Beneficiaries: e.Beneficiaries,
		CreatedAt:     e.CreatedAt,
	}
	if shares, err := calculator.Shares(members, e.ForCalculator()); err == nil {
		out.Shares = shares
	}
	return out
}

func toAPIMemberBalances(members []calculator.MemberBalance) []*pb.MemberBalance {
	out := make([]*pb.MemberBalance, len(members))
	for i, m := range members {
		out[i] = &pb.MemberBalance{
			MemberName: m.MemberName,
			NetBalance: m.NetBalance,
			TotalPaid:  m.TotalPaid,
			TotalOwed:  m.TotalOwed,
		}
	}
	return out
}

func toAPIPositions(positions []calculator.Position) []*pb.Position {
	out := make([]*pb.Position, len(positions))
	for i, p := range positions {
		out[i] = &pb.Position{MemberName: p.Name, Amount: p.Amount}
	}
	return out
}

func toAPITransfers(transfers []calculator.Transfer) []*pb.Transfer {
	out := make([]*pb.Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = &pb.Transfer{From: t.From, To: t.To, Amount: t.Amount}
	}
	return out
}

func toAPIDebts(edges []calculator.DebtEdge) []*pb.DebtEdge {
	out := make([]*pb.DebtEdge, len(edges))
	for i, d := range edges {
		out[i] = &pb.DebtEdge{From: d.From, To: d.To, Amount: d.Amount}
	}
	return out
}

func toAPIEfficiency(eff calculator.Efficiency) *pb.Efficiency {
	return &pb.Efficiency{
		OriginalDebts:    eff.OriginalDebts,
		Transfers:        eff.Transfers,
		ReductionPercent: eff.ReductionPercent.StringFixed(1),
		TotalTransferred: eff.TotalTransferred,
	}
}

// groupStats summarizes spending over the group's expense history. The daily
// average spreads the total over the distinct UTC days that have expenses.
func groupStats(group *models.Group, totalSpent money.Amount) *pb.GroupStats {
	stats := &pb.GroupStats{
		TotalSpent:   totalSpent,
		ExpenseCount: len(group.Expenses),
	}

	days := make(map[string]struct{})
	for _, e := range group.Expenses {
		days[time.Unix(e.CreatedAt, 0).UTC().Format(time.DateOnly)] = struct{}{}
		if stats.FirstExpenseAt == 0 || e.CreatedAt < stats.FirstExpenseAt {
			stats.FirstExpenseAt = e.CreatedAt
		}
		if e.CreatedAt > stats.LastExpenseAt {
			stats.LastExpenseAt = e.CreatedAt
		}
	}
	stats.AverageDailySpend = totalSpent.DivRound(len(days))
	return stats
}
