package service

import (
	"errors"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/shelfkeeper/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Header keys carrying structured error detail.
const (
	reasonsHeader = "Library-Reasons"
	idsHeader     = "Library-Blocking-Ids"
)

// toConnectError maps a component error onto a Connect error. Domain errors
// keep their reasons and blocking ids as error metadata.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) {
		return connect.NewError(connect.CodeInternal, err)
	}

	code := connect.CodeInternal
	switch domainErr.Kind {
	case apperr.NotFound:
		code = connect.CodeNotFound
	case apperr.Validation:
		code = connect.CodeInvalidArgument
	case apperr.Eligibility:
		code = connect.CodeFailedPrecondition
	case apperr.StateConflict:
		code = connect.CodeAborted
	}

	cerr := connect.NewError(code, err)
	if len(domainErr.Reasons) > 0 {
		cerr.Meta().Set(reasonsHeader, strings.Join(domainErr.Reasons, ","))
	}
	if len(domainErr.IDs) > 0 {
		cerr.Meta().Set(idsHeader, strings.Join(domainErr.IDs, ","))
	}
	return cerr
}

// validateMsg checks a request's validate tags.
func validateMsg(msg any) error {
	err := validate.Struct(msg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fe.Field() + " " + fe.Tag()
	}
	return connect.NewError(connect.CodeInvalidArgument, errors.New("invalid request: "+strings.Join(fields, ", ")))
}
