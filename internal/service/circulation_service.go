package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/shelfkeeper/internal/circulation"
)

const CirculationServiceName = "library.v1.CirculationService"

const (
	CirculationCheckoutProcedure               = "/" + CirculationServiceName + "/Checkout"
	CirculationCheckinProcedure                = "/" + CirculationServiceName + "/Checkin"
	CirculationRenewProcedure                  = "/" + CirculationServiceName + "/Renew"
	CirculationMarkLostProcedure               = "/" + CirculationServiceName + "/MarkLost"
	CirculationSweepOverdueProcedure           = "/" + CirculationServiceName + "/SweepOverdue"
	CirculationGetTransactionProcedure         = "/" + CirculationServiceName + "/GetTransaction"
	CirculationListMemberTransactionsProcedure = "/" + CirculationServiceName + "/ListMemberTransactions"
	CirculationPayFineProcedure                = "/" + CirculationServiceName + "/PayFine"
	CirculationWaiveFineProcedure              = "/" + CirculationServiceName + "/WaiveFine"
	CirculationDisputeFineProcedure            = "/" + CirculationServiceName + "/DisputeFine"
	CirculationListFinesProcedure              = "/" + CirculationServiceName + "/ListFines"
	CirculationPlaceHoldProcedure              = "/" + CirculationServiceName + "/PlaceHold"
	CirculationCancelHoldProcedure             = "/" + CirculationServiceName + "/CancelHold"
	CirculationListHoldsProcedure              = "/" + CirculationServiceName + "/ListHolds"
)

type CheckoutRequest struct {
	MemberID   string     `json:"member_id" validate:"required"`
	BookCopyID string     `json:"book_copy_id" validate:"required"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	Notes      string     `json:"notes,omitempty" validate:"max=1000"`
}

type CheckoutResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type CheckinRequest struct {
	TransactionID string     `json:"transaction_id" validate:"required"`
	ReturnedDate  *time.Time `json:"returned_date,omitempty"`
	Notes         string     `json:"notes,omitempty" validate:"max=1000"`
}

// CheckinResponse carries the closed loan and the fine it produced, if any.
type CheckinResponse struct {
	Transaction *Transaction `json:"transaction"`
	Fine        *Fine        `json:"fine,omitempty"`
}

type RenewRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}

type RenewResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type MarkLostRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	Notes         string `json:"notes,omitempty" validate:"max=1000"`
}

type MarkLostResponse struct {
	Transaction *Transaction `json:"transaction"`
	Fine        *Fine        `json:"fine"`
}

// SweepOverdueRequest runs the sweep as of AsOf, or now when unset.
type SweepOverdueRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

type SweepOverdueResponse struct {
	Transitioned   int      `json:"transitioned"`
	Skipped        int      `json:"skipped"`
	TransactionIDs []string `json:"transaction_ids"`
}

type GetTransactionRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}

type GetTransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type ListMemberTransactionsRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	OpenOnly bool   `json:"open_only,omitempty"`
}

type ListMemberTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}

type FineRequest struct {
	FineID string `json:"fine_id" validate:"required"`
	Notes  string `json:"notes,omitempty" validate:"max=1000"`
}

type FineResponse struct {
	Fine *Fine `json:"fine"`
}

type ListFinesRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

type ListFinesResponse struct {
	Fines       []*Fine `json:"fines"`
	Outstanding string  `json:"outstanding"`
	Paid        string  `json:"paid"`
	Waived      string  `json:"waived"`
}

type PlaceHoldRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	BookID   string `json:"book_id" validate:"required"`
}

type PlaceHoldResponse struct {
	Reservation *Reservation `json:"reservation"`
}

type CancelHoldRequest struct {
	ReservationID string `json:"reservation_id" validate:"required"`
}

type CancelHoldResponse struct{}

type ListHoldsRequest struct {
	BookID string `json:"book_id" validate:"required"`
}

type ListHoldsResponse struct {
	Reservations []*Reservation `json:"reservations"`
}

// CirculationService implements the CirculationService RPC interface.
type CirculationService struct {
	engine *circulation.Engine
	now    func() time.Time
}

// NewCirculationService creates a new circulation service.
func NewCirculationService(engine *circulation.Engine) *CirculationService {
	return &CirculationService{engine: engine, now: time.Now}
}

// NewCirculationServiceHandler builds the HTTP handler serving every
// CirculationService procedure. It returns the path to mount it on.
func NewCirculationServiceHandler(svc *CirculationService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, CirculationCheckoutProcedure, svc.Checkout, opts)
	route(mux, CirculationCheckinProcedure, svc.Checkin, opts)
	route(mux, CirculationRenewProcedure, svc.Renew, opts)
	route(mux, CirculationMarkLostProcedure, svc.MarkLost, opts)
	route(mux, CirculationSweepOverdueProcedure, svc.SweepOverdue, opts)
	route(mux, CirculationGetTransactionProcedure, svc.GetTransaction, opts)
	route(mux, CirculationListMemberTransactionsProcedure, svc.ListMemberTransactions, opts)
	route(mux, CirculationPayFineProcedure, svc.PayFine, opts)
	route(mux, CirculationWaiveFineProcedure, svc.WaiveFine, opts)
	route(mux, CirculationDisputeFineProcedure, svc.DisputeFine, opts)
	route(mux, CirculationListFinesProcedure, svc.ListFines, opts)
	route(mux, CirculationPlaceHoldProcedure, svc.PlaceHold, opts)
	route(mux, CirculationCancelHoldProcedure, svc.CancelHold, opts)
	route(mux, CirculationListHoldsProcedure, svc.ListHolds, opts)
	return "/" + CirculationServiceName + "/", mux
}

// Checkout lends a copy to a member.
func (s *CirculationService) Checkout(ctx context.Context, req *connect.Request[CheckoutRequest]) (*connect.Response[CheckoutResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}
	now := s.now()

	loan, err := s.engine.Checkout(ctx, circulation.CheckoutRequest{
		MemberID: req.Msg.MemberID,
		CopyID:   req.Msg.BookCopyID,
		DueDate:  req.Msg.DueDate,
		Notes:    req.Msg.Notes,
		At:       now,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CheckoutResponse{Transaction: loanMsg(loan, now)}), nil
}

// Checkin returns a borrowed copy, assessing a late fee when due.
func (s *CirculationService) Checkin(ctx context.Context, req *connect.Request[CheckinRequest]) (*connect.Response[CheckinResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}
	now := s.now()

	res, err := s.engine.Checkin(ctx, circulation.CheckinRequest{
		TransactionID: req.Msg.TransactionID,
		ReturnedDate:  req.Msg.ReturnedDate,
		Notes:         req.Msg.Notes,
		At:            now,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CheckinResponse{
		Transaction: loanMsg(res.Loan, now),
		Fine:        fineMsg(res.Fine),
	}), nil
}

// Renew extends the due date of an open loan.
func (s *CirculationService) Renew(ctx context.Context, req *connect.Request[RenewRequest]) (*connect.Response[RenewResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	loan, err := s.engine.Renew(ctx, req.Msg.TransactionID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&RenewResponse{Transaction: loanMsg(loan, s.now())}), nil
}

// MarkLost closes a loan as lost and assesses the replacement fee.
func (s *CirculationService) MarkLost(ctx context.Context, req *connect.Request[MarkLostRequest]) (*connect.Response[MarkLostResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}
	now := s.now()

	res, err := s.engine.MarkLost(ctx, circulation.MarkLostRequest{
		TransactionID: req.Msg.TransactionID,
		Notes:         req.Msg.Notes,
		At:            now,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&MarkLostResponse{
		Transaction: loanMsg(res.Loan, now),
		Fine:        fineMsg(res.Fine),
	}), nil
}

// SweepOverdue flags active loans past due.
func (s *CirculationService) SweepOverdue(ctx context.Context, req *connect.Request[SweepOverdueRequest]) (*connect.Response[SweepOverdueResponse], error) {
	asOf := s.now()
	if req.Msg.AsOf != nil {
		asOf = *req.Msg.AsOf
	}

	res, err := s.engine.SweepOverdue(ctx, asOf)
	if err != nil {
		slog.Error("Overdue sweep failed", "error", err)
		return nil, toConnectError(err)
	}

	ids := res.Overdue
	if ids == nil {
		ids = []string{}
	}
	return connect.NewResponse(&SweepOverdueResponse{
		Transitioned:   res.Transitioned,
		Skipped:        res.Skipped,
		TransactionIDs: ids,
	}), nil
}

// GetTransaction retrieves one loan.
func (s *CirculationService) GetTransaction(ctx context.Context, req *connect.Request[GetTransactionRequest]) (*connect.Response[GetTransactionResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	loan, err := s.engine.GetTransaction(ctx, req.Msg.TransactionID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetTransactionResponse{Transaction: loanMsg(loan, s.now())}), nil
}

// ListMemberTransactions lists a member's loans, newest first.
func (s *CirculationService) ListMemberTransactions(ctx context.Context, req *connect.Request[ListMemberTransactionsRequest]) (*connect.Response[ListMemberTransactionsResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	loans, err := s.engine.ListMemberTransactions(ctx, req.Msg.MemberID, req.Msg.OpenOnly)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&ListMemberTransactionsResponse{Transactions: loansMsg(loans, s.now())}), nil
}

// PayFine settles a fine as paid.
func (s *CirculationService) PayFine(ctx context.Context, req *connect.Request[FineRequest]) (*connect.Response[FineResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	fine, err := s.engine.PayFine(ctx, req.Msg.FineID, s.now())
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&FineResponse{Fine: fineMsg(fine)}), nil
}

// WaiveFine forgives a fine.
func (s *CirculationService) WaiveFine(ctx context.Context, req *connect.Request[FineRequest]) (*connect.Response[FineResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	fine, err := s.engine.WaiveFine(ctx, req.Msg.FineID, req.Msg.Notes)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&FineResponse{Fine: fineMsg(fine)}), nil
}

// DisputeFine marks a fine as contested.
func (s *CirculationService) DisputeFine(ctx context.Context, req *connect.Request[FineRequest]) (*connect.Response[FineResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	fine, err := s.engine.DisputeFine(ctx, req.Msg.FineID, req.Msg.Notes)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&FineResponse{Fine: fineMsg(fine)}), nil
}

// ListFines lists a member's fines with their balance.
func (s *CirculationService) ListFines(ctx context.Context, req *connect.Request[ListFinesRequest]) (*connect.Response[ListFinesResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	fines, err := s.engine.ListFines(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, toConnectError(err)
	}
	bal, err := s.engine.FineBalance(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &ListFinesResponse{
		Fines:       make([]*Fine, len(fines)),
		Outstanding: money(bal.Outstanding),
		Paid:        money(bal.Paid),
		Waived:      money(bal.Waived),
	}
	for i, f := range fines {
		resp.Fines[i] = fineMsg(f)
	}
	return connect.NewResponse(resp), nil
}

// PlaceHold queues a member for a book.
func (s *CirculationService) PlaceHold(ctx context.Context, req *connect.Request[PlaceHoldRequest]) (*connect.Response[PlaceHoldResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	hold, err := s.engine.PlaceHold(ctx, req.Msg.MemberID, req.Msg.BookID, s.now())
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&PlaceHoldResponse{Reservation: reservationMsg(hold)}), nil
}

// CancelHold withdraws a pending hold.
func (s *CirculationService) CancelHold(ctx context.Context, req *connect.Request[CancelHoldRequest]) (*connect.Response[CancelHoldResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	if err := s.engine.CancelHold(ctx, req.Msg.ReservationID, s.now()); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CancelHoldResponse{}), nil
}

// ListHolds lists the pending holds of a book in service order.
func (s *CirculationService) ListHolds(ctx context.Context, req *connect.Request[ListHoldsRequest]) (*connect.Response[ListHoldsResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	holds, err := s.engine.ListHolds(ctx, req.Msg.BookID)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &ListHoldsResponse{Reservations: make([]*Reservation, len(holds))}
	for i, h := range holds {
		resp.Reservations[i] = reservationMsg(h)
	}
	return connect.NewResponse(resp), nil
}
