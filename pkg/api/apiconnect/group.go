// Package apiconnect wires the api messages to Connect handlers and clients
// for the settleup GroupService.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/pkg/api"
)

// GroupServiceName is the fully-qualified name of the GroupService.
const GroupServiceName = "settleup.v1.GroupService"

// Procedure paths, in the form /<service>/<method>.
const (
	GroupServiceCreateGroupProcedure      = "/settleup.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure         = "/settleup.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure       = "/settleup.v1.GroupService/ListGroups"
	GroupServiceDeleteGroupProcedure      = "/settleup.v1.GroupService/DeleteGroup"
	GroupServiceAddMemberProcedure        = "/settleup.v1.GroupService/AddMember"
	GroupServiceRemoveMemberProcedure     = "/settleup.v1.GroupService/RemoveMember"
	GroupServiceAddExpenseProcedure       = "/settleup.v1.GroupService/AddExpense"
	GroupServiceReplaceExpenseProcedure   = "/settleup.v1.GroupService/ReplaceExpense"
	GroupServiceRemoveExpenseProcedure    = "/settleup.v1.GroupService/RemoveExpense"
	GroupServiceGetBalancesProcedure      = "/settleup.v1.GroupService/GetBalances"
	GroupServiceSimplifyDebtsProcedure    = "/settleup.v1.GroupService/SimplifyDebts"
	GroupServiceSimplifyBalancesProcedure = "/settleup.v1.GroupService/SimplifyBalances"
)

// GroupServiceHandler is implemented by the server side of the GroupService.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error)
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	ReplaceExpense(context.Context, *connect.Request[api.ReplaceExpenseRequest]) (*connect.Response[api.ReplaceExpenseResponse], error)
	RemoveExpense(context.Context, *connect.Request[api.RemoveExpenseRequest]) (*connect.Response[api.RemoveExpenseResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	SimplifyDebts(context.Context, *connect.Request[api.SimplifyDebtsRequest]) (*connect.Response[api.SimplifyDebtsResponse], error)
	SimplifyBalances(context.Context, *connect.Request[api.SimplifyBalancesRequest]) (*connect.Response[api.SimplifyBalancesResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler for every GroupService
// procedure. It returns the path prefix to mount the handler on.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	handlers := map[string]http.Handler{
		GroupServiceCreateGroupProcedure:      connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...),
		GroupServiceGetGroupProcedure:         connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...),
		GroupServiceListGroupsProcedure:       connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...),
		GroupServiceDeleteGroupProcedure:      connect.NewUnaryHandler(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts...),
		GroupServiceAddMemberProcedure:        connect.NewUnaryHandler(GroupServiceAddMemberProcedure, svc.AddMember, opts...),
		GroupServiceRemoveMemberProcedure:     connect.NewUnaryHandler(GroupServiceRemoveMemberProcedure, svc.RemoveMember, opts...),
		GroupServiceAddExpenseProcedure:       connect.NewUnaryHandler(GroupServiceAddExpenseProcedure, svc.AddExpense, opts...),
		GroupServiceReplaceExpenseProcedure:   connect.NewUnaryHandler(GroupServiceReplaceExpenseProcedure, svc.ReplaceExpense, opts...),
		GroupServiceRemoveExpenseProcedure:    connect.NewUnaryHandler(GroupServiceRemoveExpenseProcedure, svc.RemoveExpense, opts...),
		GroupServiceGetBalancesProcedure:      connect.NewUnaryHandler(GroupServiceGetBalancesProcedure, svc.GetBalances, opts...),
		GroupServiceSimplifyDebtsProcedure:    connect.NewUnaryHandler(GroupServiceSimplifyDebtsProcedure, svc.SimplifyDebts, opts...),
		GroupServiceSimplifyBalancesProcedure: connect.NewUnaryHandler(GroupServiceSimplifyBalancesProcedure, svc.SimplifyBalances, opts...),
	}

	return "/" + GroupServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// GroupServiceClient is a client for the GroupService.
type GroupServiceClient struct {
	createGroup      *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	getGroup         *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listGroups       *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	deleteGroup      *connect.Client[api.DeleteGroupRequest, api.DeleteGroupResponse]
	addMember        *connect.Client[api.AddMemberRequest, api.AddMemberResponse]
	removeMember     *connect.Client[api.RemoveMemberRequest, api.RemoveMemberResponse]
	addExpense       *connect.Client[api.AddExpenseRequest, api.AddExpenseResponse]
	replaceExpense   *connect.Client[api.ReplaceExpenseRequest, api.ReplaceExpenseResponse]
	removeExpense    *connect.Client[api.RemoveExpenseRequest, api.RemoveExpenseResponse]
	getBalances      *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
	simplifyDebts    *connect.Client[api.SimplifyDebtsRequest, api.SimplifyDebtsResponse]
	simplifyBalances *connect.Client[api.SimplifyBalancesRequest, api.SimplifyBalancesResponse]
}

// NewGroupServiceClient constructs a client for the GroupService at baseURL
// (for example, http://localhost:8080).
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)

	return &GroupServiceClient{
		createGroup:      connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:         connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:       connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		deleteGroup:      connect.NewClient[api.DeleteGroupRequest, api.DeleteGroupResponse](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
		addMember:        connect.NewClient[api.AddMemberRequest, api.AddMemberResponse](httpClient, baseURL+GroupServiceAddMemberProcedure, opts...),
		removeMember:     connect.NewClient[api.RemoveMemberRequest, api.RemoveMemberResponse](httpClient, baseURL+GroupServiceRemoveMemberProcedure, opts...),
		addExpense:       connect.NewClient[api.AddExpenseRequest, api.AddExpenseResponse](httpClient, baseURL+GroupServiceAddExpenseProcedure, opts...),
		replaceExpense:   connect.NewClient[api.ReplaceExpenseRequest, api.ReplaceExpenseResponse](httpClient, baseURL+GroupServiceReplaceExpenseProcedure, opts...),
		removeExpense:    connect.NewClient[api.RemoveExpenseRequest, api.RemoveExpenseResponse](httpClient, baseURL+GroupServiceRemoveExpenseProcedure, opts...),
		getBalances:      connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](httpClient, baseURL+GroupServiceGetBalancesProcedure, opts...),
		simplifyDebts:    connect.NewClient[api.SimplifyDebtsRequest, api.SimplifyDebtsResponse](httpClient, baseURL+GroupServiceSimplifyDebtsProcedure, opts...),
		simplifyBalances: connect.NewClient[api.SimplifyBalancesRequest, api.SimplifyBalancesResponse](httpClient, baseURL+GroupServiceSimplifyBalancesProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ReplaceExpense(ctx context.Context, req *connect.Request[api.ReplaceExpenseRequest]) (*connect.Response[api.ReplaceExpenseResponse], error) {
	return c.replaceExpense.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RemoveExpense(ctx context.Context, req *connect.Request[api.RemoveExpenseRequest]) (*connect.Response[api.RemoveExpenseResponse], error) {
	return c.removeExpense.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *GroupServiceClient) SimplifyDebts(ctx context.Context, req *connect.Request[api.SimplifyDebtsRequest]) (*connect.Response[api.SimplifyDebtsResponse], error) {
	return c.simplifyDebts.CallUnary(ctx, req)
}

func (c *GroupServiceClient) SimplifyBalances(ctx context.Context, req *connect.Request[api.SimplifyBalancesRequest]) (*connect.Response[api.SimplifyBalancesResponse], error) {
	return c.simplifyBalances.CallUnary(ctx, req)
}
