package service

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/shelfkeeper/internal/analytics"
	"github.com/mmynk/shelfkeeper/internal/report"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

const AnalyticsServiceName = "library.v1.AnalyticsService"

const (
	AnalyticsPopularBooksProcedure   = "/" + AnalyticsServiceName + "/PopularBooks"
	AnalyticsMemberActivityProcedure = "/" + AnalyticsServiceName + "/MemberActivity"
	AnalyticsLibraryStatsProcedure   = "/" + AnalyticsServiceName + "/LibraryStats"
	AnalyticsDashboardProcedure      = "/" + AnalyticsServiceName + "/Dashboard"
	AnalyticsExportReportProcedure   = "/" + AnalyticsServiceName + "/ExportReport"
)

type PopularBooksRequest struct {
	Timeframe string `json:"timeframe,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type PopularBook struct {
	BookID          string `json:"book_id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	BorrowCount     int    `json:"borrow_count"`
	UniqueBorrowers int    `json:"unique_borrowers"`
}

type PopularBooksResponse struct {
	Timeframe string         `json:"timeframe"`
	Books     []*PopularBook `json:"books"`
}

type MemberActivityRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

type MemberActivityResponse struct {
	MemberID       string `json:"member_id"`
	Name           string `json:"name"`
	TotalBorrows   int    `json:"total_borrows"`
	CurrentBorrows int    `json:"current_borrows"`
	OverdueCount   int    `json:"overdue_count"`
	ReturnedCount  int    `json:"returned_count"`
	LostCount      int    `json:"lost_count"`
	UnpaidFines    string `json:"unpaid_fines"`
}

type LibraryStatsRequest struct{}

type LibraryStats struct {
	TotalBooks        int            `json:"total_books"`
	TotalCopies       int            `json:"total_copies"`
	CopiesByStatus    map[string]int `json:"copies_by_status"`
	TotalMembers      int            `json:"total_members"`
	MembersByStatus   map[string]int `json:"members_by_status"`
	TotalTransactions int            `json:"total_transactions"`
	ActiveBorrows     int            `json:"active_borrows"`
	Overdue           int            `json:"overdue"`
	UnpaidFines       string         `json:"unpaid_fines"`
}

type LibraryStatsResponse struct {
	Stats *LibraryStats `json:"stats"`
}

type DashboardRequest struct{}

type MemberLoad struct {
	MemberID  string `json:"member_id"`
	Name      string `json:"name"`
	MaxBooks  int    `json:"max_books"`
	OpenLoans int    `json:"open_loans"`
}

type Alerts struct {
	OverdueTransactions []*Transaction `json:"overdue_transactions"`
	MembersAtLimit      []*MemberLoad  `json:"members_at_limit"`
	CopiesInMaintenance []*Copy        `json:"copies_in_maintenance"`
}

type DashboardResponse struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	Summary        *LibraryStats  `json:"summary"`
	RecentActivity []*Transaction `json:"recent_activity"`
	Alerts         *Alerts        `json:"alerts"`
}

type ExportReportRequest struct {
	Timeframe string `json:"timeframe,omitempty"`
}

// ExportReportResponse carries an .xlsx workbook.
type ExportReportResponse struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// AnalyticsService implements the AnalyticsService RPC interface.
type AnalyticsService struct {
	engine *analytics.Engine
	now    func() time.Time
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(engine *analytics.Engine) *AnalyticsService {
	return &AnalyticsService{engine: engine, now: time.Now}
}

// NewAnalyticsServiceHandler builds the HTTP handler serving every
// AnalyticsService procedure.
func NewAnalyticsServiceHandler(svc *AnalyticsService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, AnalyticsPopularBooksProcedure, svc.PopularBooks, opts)
	route(mux, AnalyticsMemberActivityProcedure, svc.MemberActivity, opts)
	route(mux, AnalyticsLibraryStatsProcedure, svc.LibraryStats, opts)
	route(mux, AnalyticsDashboardProcedure, svc.Dashboard, opts)
	route(mux, AnalyticsExportReportProcedure, svc.ExportReport, opts)
	return "/" + AnalyticsServiceName + "/", mux
}

// PopularBooks ranks books by borrows in a timeframe.
func (s *AnalyticsService) PopularBooks(ctx context.Context, req *connect.Request[PopularBooksRequest]) (*connect.Response[PopularBooksResponse], error) {
	tf, err := analytics.ParseTimeframe(req.Msg.Timeframe)
	if err != nil {
		return nil, toConnectError(err)
	}

	books, err := s.engine.PopularBooks(ctx, tf, req.Msg.Limit, s.now())
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&PopularBooksResponse{
		Timeframe: string(tf),
		Books:     popularMsg(books),
	}), nil
}

func (s *AnalyticsService) MemberActivity(ctx context.Context, req *connect.Request[MemberActivityRequest]) (*connect.Response[MemberActivityResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	act, err := s.engine.MemberActivity(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&MemberActivityResponse{
		MemberID:       act.MemberID,
		Name:           act.Name,
		TotalBorrows:   act.TotalBorrows,
		CurrentBorrows: act.CurrentBorrows,
		OverdueCount:   act.OverdueCount,
		ReturnedCount:  act.ReturnedCount,
		LostCount:      act.LostCount,
		UnpaidFines:    money(act.UnpaidFines),
	}), nil
}

func (s *AnalyticsService) LibraryStats(ctx context.Context, req *connect.Request[LibraryStatsRequest]) (*connect.Response[LibraryStatsResponse], error) {
	stats, err := s.engine.LibraryStats(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&LibraryStatsResponse{Stats: statsMsg(stats)}), nil
}

// Dashboard returns the librarian landing view.
func (s *AnalyticsService) Dashboard(ctx context.Context, req *connect.Request[DashboardRequest]) (*connect.Response[DashboardResponse], error) {
	now := s.now()
	d, err := s.engine.Dashboard(ctx, now)
	if err != nil {
		return nil, toConnectError(err)
	}

	alerts := &Alerts{
		OverdueTransactions: make([]*Transaction, len(d.Alerts.OverdueLoans)),
		MembersAtLimit:      make([]*MemberLoad, len(d.Alerts.MembersAtLimit)),
		CopiesInMaintenance: copiesMsg(d.Alerts.CopiesInMaintenance),
	}
	for i, o := range d.Alerts.OverdueLoans {
		alerts.OverdueTransactions[i] = loanMsg(o.Loan, now)
	}
	for i, m := range d.Alerts.MembersAtLimit {
		alerts.MembersAtLimit[i] = &MemberLoad{
			MemberID:  m.MemberID,
			Name:      m.Name,
			MaxBooks:  m.MaxBooks,
			OpenLoans: m.OpenLoans,
		}
	}

	return connect.NewResponse(&DashboardResponse{
		GeneratedAt:    d.GeneratedAt,
		Summary:        statsMsg(d.Summary),
		RecentActivity: loansMsg(d.RecentActivity, now),
		Alerts:         alerts,
	}), nil
}

// ExportReport renders the dashboard and popularity ranking as a workbook.
func (s *AnalyticsService) ExportReport(ctx context.Context, req *connect.Request[ExportReportRequest]) (*connect.Response[ExportReportResponse], error) {
	tf, err := analytics.ParseTimeframe(req.Msg.Timeframe)
	if err != nil {
		return nil, toConnectError(err)
	}
	now := s.now()

	d, err := s.engine.Dashboard(ctx, now)
	if err != nil {
		return nil, toConnectError(err)
	}
	popular, err := s.engine.PopularBooks(ctx, tf, analytics.MaxPopularLimit, now)
	if err != nil {
		return nil, toConnectError(err)
	}

	var buf bytes.Buffer
	if err := report.WriteDashboard(&buf, d, popular); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&ExportReportResponse{
		Filename: "library-report-" + now.UTC().Format("2006-01-02") + ".xlsx",
		Content:  buf.Bytes(),
	}), nil
}

func popularMsg(books []storage.PopularBook) []*PopularBook {
	out := make([]*PopularBook, len(books))
	for i, b := range books {
		out[i] = &PopularBook{
			BookID:          b.BookID,
			Title:           b.Title,
			Author:          b.Author,
			BorrowCount:     b.BorrowCount,
			UniqueBorrowers: b.UniqueBorrowers,
		}
	}
	return out
}

func statsMsg(st *analytics.LibraryStats) *LibraryStats {
	out := &LibraryStats{
		TotalBooks:        st.TotalBooks,
		TotalCopies:       st.TotalCopies,
		CopiesByStatus:    make(map[string]int, len(st.CopiesByStatus)),
		TotalMembers:      st.TotalMembers,
		MembersByStatus:   make(map[string]int, len(st.MembersByStatus)),
		TotalTransactions: st.TotalTransactions,
		ActiveBorrows:     st.ActiveBorrows,
		Overdue:           st.Overdue,
		UnpaidFines:       money(st.UnpaidFines),
	}
	for status, n := range st.CopiesByStatus {
		out.CopiesByStatus[string(status)] = n
	}
	for status, n := range st.MembersByStatus {
		out.MembersByStatus[string(status)] = n
	}
	return out
}
