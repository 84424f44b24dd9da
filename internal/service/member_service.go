package service

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/shelfkeeper/internal/membership"
	"github.com/mmynk/shelfkeeper/internal/models"
)

const MemberServiceName = "library.v1.MemberService"

const (
	MemberRegisterMemberProcedure     = "/" + MemberServiceName + "/RegisterMember"
	MemberGetMemberProcedure          = "/" + MemberServiceName + "/GetMember"
	MemberListMembersProcedure        = "/" + MemberServiceName + "/ListMembers"
	MemberUpdateMemberStatusProcedure = "/" + MemberServiceName + "/UpdateMemberStatus"
	MemberDeleteMemberProcedure       = "/" + MemberServiceName + "/DeleteMember"
	MemberGetMemberStatusProcedure    = "/" + MemberServiceName + "/GetMemberStatus"
)

// RegisterMemberRequest is checked again by the registry; the tags here
// reject obviously malformed input before it reaches storage.
type RegisterMemberRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	MaxBooks int    `json:"max_books,omitempty"`
}

type MemberResponse struct {
	Member *Member `json:"member"`
}

type GetMemberRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

type ListMembersRequest struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=active suspended expired"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}

type UpdateMemberStatusRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	Status   string `json:"status" validate:"required,oneof=active suspended expired"`
}

type DeleteMemberRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

type DeleteMemberResponse struct{}

type GetMemberStatusRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

// GetMemberStatusResponse is the borrowing overview of a member.
type GetMemberStatusResponse struct {
	Member               *Member        `json:"member"`
	CurrentBorrowedCount int            `json:"current_borrowed_count"`
	MaxBooks             int            `json:"max_books"`
	OverdueCount         int            `json:"overdue_count"`
	CanBorrow            bool           `json:"can_borrow"`
	Reasons              []string       `json:"reasons"`
	OutstandingFines     string         `json:"outstanding_fines"`
	ActiveTransactions   []*Transaction `json:"active_transactions"`
}

// MemberService implements the MemberService RPC interface.
type MemberService struct {
	registry *membership.Registry
	now      func() time.Time
}

// NewMemberService creates a new member service.
func NewMemberService(registry *membership.Registry) *MemberService {
	return &MemberService{registry: registry, now: time.Now}
}

// NewMemberServiceHandler builds the HTTP handler serving every
// MemberService procedure.
func NewMemberServiceHandler(svc *MemberService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, MemberRegisterMemberProcedure, svc.RegisterMember, opts)
	route(mux, MemberGetMemberProcedure, svc.GetMember, opts)
	route(mux, MemberListMembersProcedure, svc.ListMembers, opts)
	route(mux, MemberUpdateMemberStatusProcedure, svc.UpdateMemberStatus, opts)
	route(mux, MemberDeleteMemberProcedure, svc.DeleteMember, opts)
	route(mux, MemberGetMemberStatusProcedure, svc.GetMemberStatus, opts)
	return "/" + MemberServiceName + "/", mux
}

// RegisterMember creates an active member.
func (s *MemberService) RegisterMember(ctx context.Context, req *connect.Request[RegisterMemberRequest]) (*connect.Response[MemberResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	member, err := s.registry.Register(ctx, membership.NewMember{
		Name:     req.Msg.Name,
		Email:    req.Msg.Email,
		Phone:    req.Msg.Phone,
		Address:  req.Msg.Address,
		MaxBooks: req.Msg.MaxBooks,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&MemberResponse{Member: memberMsg(member)}), nil
}

// GetMember retrieves a member.
func (s *MemberService) GetMember(ctx context.Context, req *connect.Request[GetMemberRequest]) (*connect.Response[MemberResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	member, err := s.registry.GetMember(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&MemberResponse{Member: memberMsg(member)}), nil
}

// ListMembers lists members, optionally by status.
func (s *MemberService) ListMembers(ctx context.Context, req *connect.Request[ListMembersRequest]) (*connect.Response[ListMembersResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	members, err := s.registry.ListMembers(ctx, models.MemberStatus(req.Msg.Status))
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &ListMembersResponse{Members: make([]*Member, len(members))}
	for i, m := range members {
		resp.Members[i] = memberMsg(m)
	}
	return connect.NewResponse(resp), nil
}

// UpdateMemberStatus suspends, expires or reactivates a member.
func (s *MemberService) UpdateMemberStatus(ctx context.Context, req *connect.Request[UpdateMemberStatusRequest]) (*connect.Response[MemberResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	member, err := s.registry.UpdateStatus(ctx, req.Msg.MemberID, models.MemberStatus(req.Msg.Status))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&MemberResponse{Member: memberMsg(member)}), nil
}

// DeleteMember removes a member without open loans.
func (s *MemberService) DeleteMember(ctx context.Context, req *connect.Request[DeleteMemberRequest]) (*connect.Response[DeleteMemberResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	if err := s.registry.DeleteMember(ctx, req.Msg.MemberID); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&DeleteMemberResponse{}), nil
}

// GetMemberStatus reports what a member has out and whether they may borrow.
func (s *MemberService) GetMemberStatus(ctx context.Context, req *connect.Request[GetMemberStatusRequest]) (*connect.Response[GetMemberStatusResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}
	now := s.now()

	st, err := s.registry.Status(ctx, req.Msg.MemberID, now)
	if err != nil {
		return nil, toConnectError(err)
	}

	reasons := st.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return connect.NewResponse(&GetMemberStatusResponse{
		Member:               memberMsg(st.Member),
		CurrentBorrowedCount: st.CurrentBorrowed,
		MaxBooks:             st.MaxBooks,
		OverdueCount:         st.OverdueCount,
		CanBorrow:            st.CanBorrow,
		Reasons:              reasons,
		OutstandingFines:     money(st.Outstanding),
		ActiveTransactions:   loansMsg(st.ActiveTransactions, now),
	}), nil
}
