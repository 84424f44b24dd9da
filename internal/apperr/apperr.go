// Package apperr is the error taxonomy shared by the catalog, membership,
// circulation and analytics packages. Every failure a caller can act on is
// an *Error carrying a Kind; anything else is an infrastructure error.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a domain error.
type Kind string

const (
	// NotFound: an entity id is unknown.
	NotFound Kind = "not_found"
	// Validation: malformed input such as dates or out-of-range values.
	Validation Kind = "validation"
	// Eligibility: the member may not borrow.
	Eligibility Kind = "eligibility"
	// StateConflict: the entity is in a state that forbids the operation.
	StateConflict Kind = "state_conflict"
)

// Error is a structured domain error.
type Error struct {
	Kind   Kind
	Op     string
	Reason string

	// Reasons carries every sub-reason when several checks failed at once.
	Reasons []string

	// IDs lists the entities blocking the operation, if any.
	IDs []string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.IDs, ", "))
	}
	return b.String()
}

// Is matches any *Error with the same Kind and Reason, so sentinel values
// can be compared with errors.Is regardless of Op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// New builds an error of the given kind.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundf reports an unknown entity.
func NotFoundf(op, format string, args ...any) *Error {
	return New(NotFound, op, format, args...)
}

// Invalidf reports malformed input.
func Invalidf(op, format string, args ...any) *Error {
	return New(Validation, op, format, args...)
}

// Conflictf reports a state conflict.
func Conflictf(op, format string, args ...any) *Error {
	return New(StateConflict, op, format, args...)
}

// Ineligible reports every reason a member may not borrow.
func Ineligible(op string, reasons []string) *Error {
	return &Error{
		Kind:    Eligibility,
		Op:      op,
		Reason:  "member not eligible: " + strings.Join(reasons, ", "),
		Reasons: reasons,
	}
}

// Blocked reports a state conflict caused by the listed entities.
func Blocked(op, reason string, ids []string) *Error {
	return &Error{Kind: StateConflict, Op: op, Reason: reason, IDs: ids}
}

// At returns a copy of e attributed to op, optionally naming the entities
// involved. The copy still matches e with errors.Is.
func (e *Error) At(op string, ids ...string) *Error {
	c := *e
	c.Op = op
	if len(ids) > 0 {
		c.IDs = ids
	}
	return &c
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when
// err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is a domain error of kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
