package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/shelfkeeper/internal/catalog"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

const CatalogServiceName = "library.v1.CatalogService"

const (
	CatalogAddBookProcedure             = "/" + CatalogServiceName + "/AddBook"
	CatalogGetBookProcedure             = "/" + CatalogServiceName + "/GetBook"
	CatalogUpdateBookProcedure          = "/" + CatalogServiceName + "/UpdateBook"
	CatalogListBooksProcedure           = "/" + CatalogServiceName + "/ListBooks"
	CatalogDeleteBookProcedure          = "/" + CatalogServiceName + "/DeleteBook"
	CatalogAddCopyProcedure             = "/" + CatalogServiceName + "/AddCopy"
	CatalogGetCopyProcedure             = "/" + CatalogServiceName + "/GetCopy"
	CatalogListCopiesProcedure          = "/" + CatalogServiceName + "/ListCopies"
	CatalogListAvailableCopiesProcedure = "/" + CatalogServiceName + "/ListAvailableCopies"
	CatalogSetCopyStatusProcedure       = "/" + CatalogServiceName + "/SetCopyStatus"
	CatalogSetCopyConditionProcedure    = "/" + CatalogServiceName + "/SetCopyCondition"
)

type BookInput struct {
	Title           string `json:"title" validate:"required,max=500"`
	Author          string `json:"author" validate:"required,max=300"`
	ISBN            string `json:"isbn,omitempty" validate:"omitempty,max=20"`
	Genre           string `json:"genre,omitempty" validate:"max=100"`
	PublicationYear int    `json:"publication_year,omitempty" validate:"gte=0"`
	Description     string `json:"description,omitempty"`
}

func (in BookInput) newBook() catalog.NewBook {
	return catalog.NewBook{
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		Genre:           in.Genre,
		PublicationYear: in.PublicationYear,
		Description:     in.Description,
	}
}

type AddBookRequest struct {
	Book BookInput `json:"book"`
}

type BookResponse struct {
	Book *Book `json:"book"`
}

type GetBookRequest struct {
	BookID string `json:"book_id" validate:"required"`
}

type UpdateBookRequest struct {
	BookID string    `json:"book_id" validate:"required"`
	Book   BookInput `json:"book"`
}

type ListBooksRequest struct {
	Query  string `json:"query,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Limit  int    `json:"limit,omitempty" validate:"gte=0,lte=500"`
	Offset int    `json:"offset,omitempty" validate:"gte=0"`
}

type ListBooksResponse struct {
	Books []*Book `json:"books"`
}

type DeleteBookRequest struct {
	BookID string `json:"book_id" validate:"required"`
}

type DeleteBookResponse struct{}

type AddCopyRequest struct {
	BookID    string `json:"book_id" validate:"required"`
	Condition string `json:"condition,omitempty" validate:"omitempty,oneof=excellent good fair poor"`
}

type CopyResponse struct {
	Copy *Copy `json:"copy"`
}

type GetCopyRequest struct {
	CopyID string `json:"copy_id" validate:"required"`
}

type ListCopiesRequest struct {
	BookID string `json:"book_id" validate:"required"`
}

type ListCopiesResponse struct {
	Copies []*Copy `json:"copies"`
}

type SetCopyStatusRequest struct {
	CopyID string `json:"copy_id" validate:"required"`
	Status string `json:"status" validate:"required"`
}

type SetCopyConditionRequest struct {
	CopyID    string `json:"copy_id" validate:"required"`
	Condition string `json:"condition" validate:"required,oneof=excellent good fair poor"`
}

// CatalogService implements the CatalogService RPC interface.
type CatalogService struct {
	catalog *catalog.Catalog
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(c *catalog.Catalog) *CatalogService {
	return &CatalogService{catalog: c}
}

// NewCatalogServiceHandler builds the HTTP handler serving every
// CatalogService procedure.
func NewCatalogServiceHandler(svc *CatalogService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, CatalogAddBookProcedure, svc.AddBook, opts)
	route(mux, CatalogGetBookProcedure, svc.GetBook, opts)
	route(mux, CatalogUpdateBookProcedure, svc.UpdateBook, opts)
	route(mux, CatalogListBooksProcedure, svc.ListBooks, opts)
	route(mux, CatalogDeleteBookProcedure, svc.DeleteBook, opts)
	route(mux, CatalogAddCopyProcedure, svc.AddCopy, opts)
	route(mux, CatalogGetCopyProcedure, svc.GetCopy, opts)
	route(mux, CatalogListCopiesProcedure, svc.ListCopies, opts)
	route(mux, CatalogListAvailableCopiesProcedure, svc.ListAvailableCopies, opts)
	route(mux, CatalogSetCopyStatusProcedure, svc.SetCopyStatus, opts)
	route(mux, CatalogSetCopyConditionProcedure, svc.SetCopyCondition, opts)
	return "/" + CatalogServiceName + "/", mux
}

func (s *CatalogService) AddBook(ctx context.Context, req *connect.Request[AddBookRequest]) (*connect.Response[BookResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	book, err := s.catalog.AddBook(ctx, req.Msg.Book.newBook())
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&BookResponse{Book: bookMsg(book)}), nil
}

func (s *CatalogService) GetBook(ctx context.Context, req *connect.Request[GetBookRequest]) (*connect.Response[BookResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	book, err := s.catalog.GetBook(ctx, req.Msg.BookID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&BookResponse{Book: bookMsg(book)}), nil
}

func (s *CatalogService) UpdateBook(ctx context.Context, req *connect.Request[UpdateBookRequest]) (*connect.Response[BookResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	book, err := s.catalog.UpdateBook(ctx, req.Msg.BookID, req.Msg.Book.newBook())
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&BookResponse{Book: bookMsg(book)}), nil
}

func (s *CatalogService) ListBooks(ctx context.Context, req *connect.Request[ListBooksRequest]) (*connect.Response[ListBooksResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	books, err := s.catalog.ListBooks(ctx, storage.BookFilter{
		Query:  req.Msg.Query,
		Genre:  req.Msg.Genre,
		Limit:  req.Msg.Limit,
		Offset: req.Msg.Offset,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &ListBooksResponse{Books: make([]*Book, len(books))}
	for i, b := range books {
		resp.Books[i] = bookMsg(b)
	}
	return connect.NewResponse(resp), nil
}

// DeleteBook removes a book that has no copy out on loan.
func (s *CatalogService) DeleteBook(ctx context.Context, req *connect.Request[DeleteBookRequest]) (*connect.Response[DeleteBookResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	if err := s.catalog.DeleteBook(ctx, req.Msg.BookID); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&DeleteBookResponse{}), nil
}

// AddCopy registers a new physical copy with the next copy number.
func (s *CatalogService) AddCopy(ctx context.Context, req *connect.Request[AddCopyRequest]) (*connect.Response[CopyResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	c, err := s.catalog.AddCopy(ctx, req.Msg.BookID, models.CopyCondition(req.Msg.Condition))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CopyResponse{Copy: copyMsg(c)}), nil
}

func (s *CatalogService) GetCopy(ctx context.Context, req *connect.Request[GetCopyRequest]) (*connect.Response[CopyResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	c, err := s.catalog.GetCopy(ctx, req.Msg.CopyID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CopyResponse{Copy: copyMsg(c)}), nil
}

func (s *CatalogService) ListCopies(ctx context.Context, req *connect.Request[ListCopiesRequest]) (*connect.Response[ListCopiesResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	copies, err := s.catalog.ListCopies(ctx, req.Msg.BookID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&ListCopiesResponse{Copies: copiesMsg(copies)}), nil
}

func (s *CatalogService) ListAvailableCopies(ctx context.Context, req *connect.Request[ListCopiesRequest]) (*connect.Response[ListCopiesResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	copies, err := s.catalog.ListAvailableCopies(ctx, req.Msg.BookID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&ListCopiesResponse{Copies: copiesMsg(copies)}), nil
}

// SetCopyStatus moves a copy between available and maintenance.
func (s *CatalogService) SetCopyStatus(ctx context.Context, req *connect.Request[SetCopyStatusRequest]) (*connect.Response[CopyResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	if err := s.catalog.SetCopyStatus(ctx, req.Msg.CopyID, models.CopyStatus(req.Msg.Status)); err != nil {
		return nil, toConnectError(err)
	}
	c, err := s.catalog.GetCopy(ctx, req.Msg.CopyID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CopyResponse{Copy: copyMsg(c)}), nil
}

func (s *CatalogService) SetCopyCondition(ctx context.Context, req *connect.Request[SetCopyConditionRequest]) (*connect.Response[CopyResponse], error) {
	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	if err := s.catalog.SetCopyCondition(ctx, req.Msg.CopyID, models.CopyCondition(req.Msg.Condition)); err != nil {
		return nil, toConnectError(err)
	}
	c, err := s.catalog.GetCopy(ctx, req.Msg.CopyID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CopyResponse{Copy: copyMsg(c)}), nil
}
