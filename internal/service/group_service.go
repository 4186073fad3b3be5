package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	pb "github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
	"github.com/mmynk/settleup/pkg/money"
)

// Ensure GroupService implements the Connect handler interface
var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[pb.CreateGroupRequest]) (*connect.Response[pb.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name required"))
	}

	members := cleanNames(req.Msg.Members)
	if err := calculator.ValidateMembers(members); err != nil {
		return nil, s.calcError(err, false)
	}

	group := &models.Group{
		Name:    name,
		Members: members,
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&pb.CreateGroupResponse{
		Group: toAPIGroup(group),
	}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[pb.GetGroupRequest]) (*connect.Response[pb.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}

	return connect.NewResponse(&pb.GetGroupResponse{
		Group: toAPIGroup(group),
	}), nil
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[pb.ListGroupsRequest]) (*connect.Response[pb.ListGroupsResponse], error) {
	slog.Info("ListGroups request received")

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, storeError(err)
	}

	out := make([]*pb.Group, len(groups))
	for i, group := range groups {
		out[i] = toAPIGroup(group)
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&pb.ListGroupsResponse{
		Groups: out,
	}), nil
}

// DeleteGroup removes a group by ID.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[pb.DeleteGroupRequest]) (*connect.Response[pb.DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Error("DeleteGroup failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)

	return connect.NewResponse(&pb.DeleteGroupResponse{}), nil
}

// AddMember adds a participant to a group.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[pb.AddMemberRequest]) (*connect.Response[pb.AddMemberResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID, "name", name)

	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, calculator.ErrEmptyMemberName)
	}

	if err := s.store.AddGroupMember(ctx, req.Msg.GroupID, name); err != nil {
		slog.Error("AddMember failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, storeError(err)
	}

	slog.Info("Member added", "group_id", group.ID, "name", name)

	return connect.NewResponse(&pb.AddMemberResponse{
		Group: toAPIGroup(group),
	}), nil
}

// RemoveMember drops a participant from a group. Expenses that still name
// the member are kept and make balance computation fail until they are
// replaced or removed.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[pb.RemoveMemberRequest]) (*connect.Response[pb.RemoveMemberResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	slog.Info("RemoveMember request received", "group_id", req.Msg.GroupID, "name", name)

	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, calculator.ErrEmptyMemberName)
	}

	if err := s.store.RemoveGroupMember(ctx, req.Msg.GroupID, name); err != nil {
		slog.Error("RemoveMember failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, storeError(err)
	}

	return connect.NewResponse(&pb.RemoveMemberResponse{
		Group: toAPIGroup(group),
	}), nil
}

// AddExpense records a new expense in a group.
func (s *GroupService) AddExpense(ctx context.Context, req *connect.Request[pb.AddExpenseRequest]) (*connect.Response[pb.AddExpenseResponse], error) {
	slog.Info("AddExpense request received",
		"group_id", req.Msg.GroupID,
		"payer", req.Msg.Payer,
		"amount", req.Msg.Amount,
		"beneficiaries_count", len(req.Msg.Beneficiaries),
	)

	expense := newExpense(req.Msg.Payer, req.Msg.Amount, req.Msg.Description, req.Msg.Beneficiaries)

	// Save to storage (validates, generates ID and CreatedAt)
	if err := s.store.AddExpense(ctx, req.Msg.GroupID, expense); err != nil {
		slog.Error("AddExpense failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, s.writeError(err)
	}

	slog.Info("Expense added", "group_id", req.Msg.GroupID, "expense_id", expense.ID)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, storeError(err)
	}

	return connect.NewResponse(&pb.AddExpenseResponse{
		Expense: toAPIExpense(group.Members, *expense),
	}), nil
}

// ReplaceExpense swaps an expense for a corrected version.
// Balances are recomputed from the new history on the next read.
func (s *GroupService) ReplaceExpense(ctx context.Context, req *connect.Request[pb.ReplaceExpenseRequest]) (*connect.Response[pb.ReplaceExpenseResponse], error) {
	slog.Info("ReplaceExpense request received",
		"group_id", req.Msg.GroupID,
		"expense_id", req.Msg.ExpenseID,
	)

	if req.Msg.ExpenseID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("expense_id required"))
	}

	expense := newExpense(req.Msg.Payer, req.Msg.Amount, req.Msg.Description, req.Msg.Beneficiaries)
	expense.ID = req.Msg.ExpenseID

	if err := s.store.ReplaceExpense(ctx, req.Msg.GroupID, expense); err != nil {
		slog.Error("ReplaceExpense failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, s.writeError(err)
	}

	slog.Info("Expense replaced", "group_id", req.Msg.GroupID, "expense_id", expense.ID)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, storeError(err)
	}

	return connect.NewResponse(&pb.ReplaceExpenseResponse{
		Expense: toAPIExpense(group.Members, *expense),
	}), nil
}

// RemoveExpense deletes an expense from a group.
func (s *GroupService) RemoveExpense(ctx context.Context, req *connect.Request[pb.RemoveExpenseRequest]) (*connect.Response[pb.RemoveExpenseResponse], error) {
	slog.Info("RemoveExpense request received",
		"group_id", req.Msg.GroupID,
		"expense_id", req.Msg.ExpenseID,
	)

	if err := s.store.DeleteExpense(ctx, req.Msg.GroupID, req.Msg.ExpenseID); err != nil {
		slog.Error("RemoveExpense failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}

	return connect.NewResponse(&pb.RemoveExpenseResponse{}), nil
}

// GetBalances calculates every member's net balance in a group.
func (s *GroupService) GetBalances(ctx context.Context, req *connect.Request[pb.GetBalancesRequest]) (*connect.Response[pb.GetBalancesResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("GetBalances request received", "group_id", groupID)

	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group_id required"))
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Error("GetBalances failed - group not found", "group_id", groupID, "error", err)
		return nil, storeError(err)
	}

	summary, err := calculator.Summarize(group.Ledger())
	if err != nil {
		slog.Error("GetBalances failed - calculation error", "group_id", groupID, "error", err)
		return nil, s.calcError(err, true)
	}

	slog.Info("GetBalances successful",
		"group_id", groupID,
		"expenses_count", len(group.Expenses),
		"creditors_count", len(summary.Creditors),
		"debtors_count", len(summary.Debtors),
	)

	return connect.NewResponse(&pb.GetBalancesResponse{
		MemberBalances: toAPIMemberBalances(summary.Members),
		Creditors:      toAPIPositions(summary.Creditors),
		Debtors:        toAPIPositions(summary.Debtors),
		Conserved:      true,
		Stats:          groupStats(group, summary.TotalSpent),
	}), nil
}

// SimplifyDebts computes the settling transfers for a group.
func (s *GroupService) SimplifyDebts(ctx context.Context, req *connect.Request[pb.SimplifyDebtsRequest]) (*connect.Response[pb.SimplifyDebtsResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("SimplifyDebts request received", "group_id", groupID)

	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group_id required"))
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Error("SimplifyDebts failed - group not found", "group_id", groupID, "error", err)
		return nil, storeError(err)
	}

	ledger := group.Ledger()

	balances, err := calculator.ComputeBalances(ledger)
	if err != nil {
		slog.Error("SimplifyDebts failed - balance error", "group_id", groupID, "error", err)
		return nil, s.calcError(err, true)
	}

	transfers, err := calculator.Simplify(balances)
	if err != nil {
		slog.Error("SimplifyDebts failed - simplification error", "group_id", groupID, "error", err)
		return nil, s.calcError(err, true)
	}

	pairwise, err := calculator.PairwiseDebts(ledger)
	if err != nil {
		return nil, s.calcError(err, true)
	}

	eff := calculator.MeasureEfficiency(pairwise, transfers)
	metrics.TransfersPerSimplification.Observe(float64(len(transfers)))

	slog.Info("SimplifyDebts successful",
		"group_id", groupID,
		"original_debts", eff.OriginalDebts,
		"transfers", eff.Transfers,
		"reduction_percent", eff.ReductionPercent.StringFixed(1),
	)

	return connect.NewResponse(&pb.SimplifyDebtsResponse{
		Transfers:  toAPITransfers(transfers),
		DebtMatrix: toAPIDebts(pairwise),
		Efficiency: toAPIEfficiency(eff),
	}), nil
}

// SimplifyBalances settles a caller-provided balance mapping without
// touching any stored group.
func (s *GroupService) SimplifyBalances(ctx context.Context, req *connect.Request[pb.SimplifyBalancesRequest]) (*connect.Response[pb.SimplifyBalancesResponse], error) {
	slog.Info("SimplifyBalances request received", "participants_count", len(req.Msg.Balances))

	balances := make(calculator.Balances, len(req.Msg.Balances))
	for raw, amount := range req.Msg.Balances {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, calculator.ErrEmptyMemberName)
		}
		if _, dup := balances[name]; dup {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", calculator.ErrDuplicateMember, name))
		}
		if amount > money.MaxAmount || amount < -money.MaxAmount {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", money.ErrOverflow, name))
		}
		balances[name] = amount
	}

	// An unbalanced mapping here is the caller's mistake, not ours.
	if err := calculator.CheckConservation(balances); err != nil {
		if calculator.IsValidation(err) {
			return nil, s.calcError(err, false)
		}
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("balances must sum to zero: %w", err))
	}

	transfers, err := calculator.Simplify(balances)
	if err != nil {
		slog.Error("SimplifyBalances failed", "error", err)
		return nil, s.calcError(err, false)
	}
	metrics.TransfersPerSimplification.Observe(float64(len(transfers)))

	return connect.NewResponse(&pb.SimplifyBalancesResponse{
		Transfers: toAPITransfers(transfers),
	}), nil
}

func newExpense(payer string, amount money.Amount, description string, beneficiaries []string) *models.Expense {
	description = strings.TrimSpace(description)
	if description == "" {
		description = models.DefaultDescription
	}
	return &models.Expense{
		Payer:         strings.TrimSpace(payer),
		Amount:        amount,
		Description:   description,
		Beneficiaries: cleanNames(beneficiaries),
	}
}

// cleanNames trims surrounding whitespace from every name.
func cleanNames(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = strings.TrimSpace(name)
	}
	return out
}
