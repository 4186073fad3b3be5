package service

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/storage/memory"
	pb "github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
	"github.com/mmynk/settleup/pkg/money"
)

// setupTestServer serves a GroupService backed by a fresh in-memory store.
func setupTestServer(t *testing.T) *apiconnect.GroupServiceClient {
	t.Helper()

	store := memory.New()
	path, handler := apiconnect.NewGroupServiceHandler(
		NewGroupService(store),
		connect.WithInterceptors(middleware.MetricsInterceptor(), middleware.LoggingInterceptor(nil)),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL)
}

func createGroup(t *testing.T, client *apiconnect.GroupServiceClient, name string, members ...string) *pb.Group {
	t.Helper()
	resp, err := client.CreateGroup(context.Background(), connect.NewRequest(&pb.CreateGroupRequest{
		Name:    name,
		Members: members,
	}))
	require.NoError(t, err)
	return resp.Msg.Group
}

func addExpense(t *testing.T, client *apiconnect.GroupServiceClient, groupID, payer, amount string, beneficiaries ...string) *pb.Expense {
	t.Helper()
	resp, err := client.AddExpense(context.Background(), connect.NewRequest(&pb.AddExpenseRequest{
		GroupID:       groupID,
		Payer:         payer,
		Amount:        money.MustParse(amount),
		Beneficiaries: beneficiaries,
	}))
	require.NoError(t, err)
	return resp.Msg.Expense
}

func TestCreateGroup(t *testing.T) {
	client := setupTestServer(t)

	group := createGroup(t, client, "Roommates", "Alice", " Bob ", "Charlie")

	assert.NotEmpty(t, group.ID)
	assert.Equal(t, "Roommates", group.Name)
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, group.Members)
	assert.NotZero(t, group.CreatedAt)
}

func TestCreateGroup_Invalid(t *testing.T) {
	client := setupTestServer(t)

	tests := []struct {
		name string
		req  *pb.CreateGroupRequest
	}{
		{name: "empty name", req: &pb.CreateGroupRequest{Name: "  ", Members: []string{"Alice"}}},
		{name: "duplicate member", req: &pb.CreateGroupRequest{Name: "Dupes", Members: []string{"Alice", "Alice"}}},
		{name: "blank member", req: &pb.CreateGroupRequest{Name: "Blank", Members: []string{"Alice", ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateGroup(context.Background(), connect.NewRequest(tt.req))
			require.Error(t, err)
			assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
		})
	}
}

func TestGetGroup_NotFound(t *testing.T) {
	client := setupTestServer(t)

	_, err := client.GetGroup(context.Background(), connect.NewRequest(&pb.GetGroupRequest{
		GroupID: "nonexistent-id",
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestListAndDeleteGroups(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	first := createGroup(t, client, "First", "A", "B")
	createGroup(t, client, "Second", "C")

	list, err := client.ListGroups(ctx, connect.NewRequest(&pb.ListGroupsRequest{}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Groups, 2)
	assert.Equal(t, "First", list.Msg.Groups[0].Name)

	_, err = client.DeleteGroup(ctx, connect.NewRequest(&pb.DeleteGroupRequest{GroupID: first.ID}))
	require.NoError(t, err)

	list, err = client.ListGroups(ctx, connect.NewRequest(&pb.ListGroupsRequest{}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Groups, 1)
	assert.Equal(t, "Second", list.Msg.Groups[0].Name)

	_, err = client.DeleteGroup(ctx, connect.NewRequest(&pb.DeleteGroupRequest{GroupID: first.ID}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestMembers(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()
	group := createGroup(t, client, "Trip", "Alice")

	resp, err := client.AddMember(ctx, connect.NewRequest(&pb.AddMemberRequest{GroupID: group.ID, Name: "Bob"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, resp.Msg.Group.Members)

	_, err = client.AddMember(ctx, connect.NewRequest(&pb.AddMemberRequest{GroupID: group.ID, Name: "Bob"}))
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))

	_, err = client.AddMember(ctx, connect.NewRequest(&pb.AddMemberRequest{GroupID: group.ID, Name: " "}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	removed, err := client.RemoveMember(ctx, connect.NewRequest(&pb.RemoveMemberRequest{GroupID: group.ID, Name: "Alice"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, removed.Msg.Group.Members)

	_, err = client.RemoveMember(ctx, connect.NewRequest(&pb.RemoveMemberRequest{GroupID: group.ID, Name: "Alice"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestEqualThreeWaySplit(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	group := createGroup(t, client, "Dinner Club", "Alice", "Bob", "Charlie")
	dinner := addExpense(t, client, group.ID, "Alice", "90", "Alice", "Bob", "Charlie")
	addExpense(t, client, group.ID, "Bob", "45", "Alice", "Bob", "Charlie")

	assert.Equal(t, "Untitled expense", dinner.Description)
	assert.Equal(t, "30.00", dinner.Shares["Charlie"].String())

	balances, err := client.GetBalances(ctx, connect.NewRequest(&pb.GetBalancesRequest{GroupID: group.ID}))
	require.NoError(t, err)

	got := map[string]string{}
	for _, b := range balances.Msg.MemberBalances {
		got[b.MemberName] = b.NetBalance.String()
	}
	assert.Equal(t, map[string]string{"Alice": "45.00", "Bob": "0.00", "Charlie": "-45.00"}, got)
	assert.True(t, balances.Msg.Conserved)
	require.Len(t, balances.Msg.Creditors, 1)
	assert.Equal(t, "Alice", balances.Msg.Creditors[0].MemberName)
	require.Len(t, balances.Msg.Debtors, 1)
	assert.Equal(t, "Charlie", balances.Msg.Debtors[0].MemberName)
	assert.Equal(t, "135.00", balances.Msg.Stats.TotalSpent.String())
	assert.Equal(t, 2, balances.Msg.Stats.ExpenseCount)

	simplified, err := client.SimplifyDebts(ctx, connect.NewRequest(&pb.SimplifyDebtsRequest{GroupID: group.ID}))
	require.NoError(t, err)
	require.Len(t, simplified.Msg.Transfers, 1)
	assert.Equal(t, "Charlie", simplified.Msg.Transfers[0].From)
	assert.Equal(t, "Alice", simplified.Msg.Transfers[0].To)
	assert.Equal(t, "45.00", simplified.Msg.Transfers[0].Amount.String())

	// Bob->Alice 30 and Alice->Bob 15 net to Bob->Alice 15; Charlie owes both.
	assert.Len(t, simplified.Msg.DebtMatrix, 3)
	assert.Equal(t, 3, simplified.Msg.Efficiency.OriginalDebts)
	assert.Equal(t, 1, simplified.Msg.Efficiency.Transfers)
	assert.Equal(t, "66.7", simplified.Msg.Efficiency.ReductionPercent)
	assert.Equal(t, "45.00", simplified.Msg.Efficiency.TotalTransferred.String())
}

func TestCycleCancels(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	group := createGroup(t, client, "Cycle", "A", "B", "C")
	addExpense(t, client, group.ID, "A", "20", "A", "B")
	addExpense(t, client, group.ID, "B", "20", "B", "C")
	addExpense(t, client, group.ID, "C", "20", "C", "A")

	simplified, err := client.SimplifyDebts(ctx, connect.NewRequest(&pb.SimplifyDebtsRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Empty(t, simplified.Msg.Transfers)
	assert.Equal(t, "100.0", simplified.Msg.Efficiency.ReductionPercent)
}

func TestAddExpense_Invalid(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()
	group := createGroup(t, client, "Strict", "Alice", "Bob")

	before := testutil.ToFloat64(metrics.ValidationErrors)

	tests := []struct {
		name string
		req  *pb.AddExpenseRequest
	}{
		{name: "non-member beneficiary", req: &pb.AddExpenseRequest{Payer: "Alice", Amount: 1000, Beneficiaries: []string{"Alice", "Dave"}}},
		{name: "non-member payer", req: &pb.AddExpenseRequest{Payer: "Eve", Amount: 1000, Beneficiaries: []string{"Alice"}}},
		{name: "no beneficiaries", req: &pb.AddExpenseRequest{Payer: "Alice", Amount: 1000}},
		{name: "zero amount", req: &pb.AddExpenseRequest{Payer: "Alice", Amount: 0, Beneficiaries: []string{"Bob"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.GroupID = group.ID
			_, err := client.AddExpense(ctx, connect.NewRequest(tt.req))
			require.Error(t, err)
			assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
		})
	}

	assert.Equal(t, before+float64(len(tests)), testutil.ToFloat64(metrics.ValidationErrors))

	got, err := client.GetGroup(ctx, connect.NewRequest(&pb.GetGroupRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Empty(t, got.Msg.Group.Expenses)

	_, err = client.AddExpense(ctx, connect.NewRequest(&pb.AddExpenseRequest{
		GroupID: "missing", Payer: "Alice", Amount: 100, Beneficiaries: []string{"Alice"},
	}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestReplaceAndRemoveExpense(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	group := createGroup(t, client, "Flat", "Alice", "Bob")
	rent := addExpense(t, client, group.ID, "Alice", "100", "Alice", "Bob")

	replaced, err := client.ReplaceExpense(ctx, connect.NewRequest(&pb.ReplaceExpenseRequest{
		GroupID:       group.ID,
		ExpenseID:     rent.ID,
		Payer:         "Alice",
		Amount:        money.MustParse("100"),
		Description:   "Rent",
		Beneficiaries: []string{"Bob"},
	}))
	require.NoError(t, err)
	assert.Equal(t, rent.ID, replaced.Msg.Expense.ID)
	assert.Equal(t, "Rent", replaced.Msg.Expense.Description)
	assert.Equal(t, rent.CreatedAt, replaced.Msg.Expense.CreatedAt)

	simplified, err := client.SimplifyDebts(ctx, connect.NewRequest(&pb.SimplifyDebtsRequest{GroupID: group.ID}))
	require.NoError(t, err)
	require.Len(t, simplified.Msg.Transfers, 1)
	assert.Equal(t, "100.00", simplified.Msg.Transfers[0].Amount.String())

	_, err = client.ReplaceExpense(ctx, connect.NewRequest(&pb.ReplaceExpenseRequest{
		GroupID:       group.ID,
		ExpenseID:     rent.ID,
		Payer:         "Alice",
		Amount:        money.MustParse("100"),
		Beneficiaries: []string{"Zed"},
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.ReplaceExpense(ctx, connect.NewRequest(&pb.ReplaceExpenseRequest{GroupID: group.ID}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.RemoveExpense(ctx, connect.NewRequest(&pb.RemoveExpenseRequest{GroupID: group.ID, ExpenseID: rent.ID}))
	require.NoError(t, err)

	simplified, err = client.SimplifyDebts(ctx, connect.NewRequest(&pb.SimplifyDebtsRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Empty(t, simplified.Msg.Transfers)

	_, err = client.RemoveExpense(ctx, connect.NewRequest(&pb.RemoveExpenseRequest{GroupID: group.ID, ExpenseID: rent.ID}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestBalances_MemberRemovedWhileReferenced(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	group := createGroup(t, client, "Leavers", "Alice", "Bob")
	addExpense(t, client, group.ID, "Alice", "10", "Alice", "Bob")

	_, err := client.RemoveMember(ctx, connect.NewRequest(&pb.RemoveMemberRequest{GroupID: group.ID, Name: "Bob"}))
	require.NoError(t, err)

	_, err = client.GetBalances(ctx, connect.NewRequest(&pb.GetBalancesRequest{GroupID: group.ID}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = client.SimplifyDebts(ctx, connect.NewRequest(&pb.SimplifyDebtsRequest{GroupID: group.ID}))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	got, err := client.GetGroup(ctx, connect.NewRequest(&pb.GetGroupRequest{GroupID: group.ID}))
	require.NoError(t, err)
	require.Len(t, got.Msg.Group.Expenses, 1)
	assert.Nil(t, got.Msg.Group.Expenses[0].Shares)
}

func TestBalances_MissingGroupID(t *testing.T) {
	client := setupTestServer(t)

	_, err := client.GetBalances(context.Background(), connect.NewRequest(&pb.GetBalancesRequest{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.SimplifyDebts(context.Background(), connect.NewRequest(&pb.SimplifyDebtsRequest{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestSimplifyBalances(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	resp, err := client.SimplifyBalances(ctx, connect.NewRequest(&pb.SimplifyBalancesRequest{
		Balances: map[string]money.Amount{
			"Alice":   money.MustParse("50"),
			"Bob":     money.MustParse("30"),
			"Charlie": money.MustParse("-40"),
			"Diana":   money.MustParse("-40"),
		},
	}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Transfers, 3)
	assert.Equal(t, pb.Transfer{From: "Charlie", To: "Alice", Amount: money.MustParse("40")}, *resp.Msg.Transfers[0])
	assert.Equal(t, pb.Transfer{From: "Diana", To: "Bob", Amount: money.MustParse("30")}, *resp.Msg.Transfers[1])
	assert.Equal(t, pb.Transfer{From: "Diana", To: "Alice", Amount: money.MustParse("10")}, *resp.Msg.Transfers[2])

	_, err = client.SimplifyBalances(ctx, connect.NewRequest(&pb.SimplifyBalancesRequest{
		Balances: map[string]money.Amount{"Alice": 100, "Bob": -99},
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	empty, err := client.SimplifyBalances(ctx, connect.NewRequest(&pb.SimplifyBalancesRequest{}))
	require.NoError(t, err)
	assert.Empty(t, empty.Msg.Transfers)
}

func TestNamesAreTrimmed(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	group := createGroup(t, client, "Spaces", " Alice ", "Bob")
	expense := addExpense(t, client, group.ID, " Alice", "30", " Alice ", "Bob\t")

	assert.Equal(t, "Alice", expense.Payer)
	assert.Equal(t, []string{"Alice", "Bob"}, expense.Beneficiaries)
	assert.Equal(t, "15.00", expense.Shares["Bob"].String())

	_, err := client.RemoveMember(ctx, connect.NewRequest(&pb.RemoveMemberRequest{GroupID: group.ID, Name: "  "}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	removed, err := client.RemoveMember(ctx, connect.NewRequest(&pb.RemoveMemberRequest{GroupID: group.ID, Name: " Bob "}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, removed.Msg.Group.Members)

	simplified, err := client.SimplifyBalances(ctx, connect.NewRequest(&pb.SimplifyBalancesRequest{
		Balances: map[string]money.Amount{" Alice ": 1000, "Bob": -1000},
	}))
	require.NoError(t, err)
	require.Len(t, simplified.Msg.Transfers, 1)
	assert.Equal(t, pb.Transfer{From: "Bob", To: "Alice", Amount: 1000}, *simplified.Msg.Transfers[0])

	_, err = client.SimplifyBalances(ctx, connect.NewRequest(&pb.SimplifyBalancesRequest{
		Balances: map[string]money.Amount{"Alice": 1000, " Alice": 1000, "Bob": -2000},
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestAmountsOutOfRange(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()
	group := createGroup(t, client, "Whales", "A", "B")

	faultsBefore := testutil.ToFloat64(metrics.ConsistencyFaults)

	for _, amount := range []money.Amount{money.MaxAmount + 1, math.MaxInt64/2 + 1} {
		_, err := client.AddExpense(ctx, connect.NewRequest(&pb.AddExpenseRequest{
			GroupID: group.ID, Payer: "A", Amount: amount, Beneficiaries: []string{"B"},
		}))
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err), "amount %s", amount)
	}

	got, err := client.GetGroup(ctx, connect.NewRequest(&pb.GetGroupRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Empty(t, got.Msg.Group.Expenses)

	// Sums to zero only after int64 wraparound.
	_, err = client.SimplifyBalances(ctx, connect.NewRequest(&pb.SimplifyBalancesRequest{
		Balances: map[string]money.Amount{"A": 1 << 62, "B": 1 << 62, "C": math.MinInt64},
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.SimplifyBalances(ctx, connect.NewRequest(&pb.SimplifyBalancesRequest{
		Balances: map[string]money.Amount{"A": money.MaxAmount, "B": -money.MaxAmount},
	}))
	require.NoError(t, err)

	assert.Equal(t, faultsBefore, testutil.ToFloat64(metrics.ConsistencyFaults))
}
