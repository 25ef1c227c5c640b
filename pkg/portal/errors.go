package portal

import (
	"fmt"
	"strings"
)

type LoginErrorKind int

const (
	// the first page fetched was not the username/password page
	INVALID_PASSWORD_PAGE LoginErrorKind = iota + 1
	// the otp method selection page could not be completed
	INVALID_OTP_PAGE
	// the page after the password (or otp) step was not the matrix page,
	// usually the password was wrong
	INVALID_MATRIXCODE_PAGE
	// the page after the matrix step was not the resource list,
	// usually the matrix answers were wrong
	INVALID_RESOURCE_LIST_PAGE
	// the otp method page does not offer matrix authentication
	NO_MATRIXCODE_OPTION
	// the matrix page did not contain any challenged cells
	FAILED_MATRIX_PARSE
	// the session was already authenticated before any form was submitted
	ALREADY_LOGGED_IN
)

var loginErrorKindNames = map[LoginErrorKind]string{
	INVALID_PASSWORD_PAGE:      "invalid password page",
	INVALID_OTP_PAGE:           "invalid otp page",
	INVALID_MATRIXCODE_PAGE:    "invalid matrixcode page",
	INVALID_RESOURCE_LIST_PAGE: "invalid resource list page",
	NO_MATRIXCODE_OPTION:       "no matrixcode option",
	FAILED_MATRIX_PARSE:        "failed matrix parse",
	ALREADY_LOGGED_IN:          "already logged in",
}

func (k LoginErrorKind) String() string {
	name, ok := loginErrorKindNames[k]
	if !ok {
		return "unknown login error"
	}
	return name
}

// LoginError is returned whenever the portal answers with something other than
// what the login flow expects at that point.
type LoginError struct {
	Kind LoginErrorKind
	// Matrices is set on INVALID_RESOURCE_LIST_PAGE, it holds the cells that
	// were answered.
	Matrices []Matrix
	// Html is the page that failed validation, set when available.
	Html string
}

func (e *LoginError) Error() string {
	if len(e.Matrices) == 0 {
		return fmt.Sprintf("portal login: %s", e.Kind)
	}
	cells := make([]string, len(e.Matrices))
	for i, m := range e.Matrices {
		cells[i] = m.String()
	}
	return fmt.Sprintf("portal login: %s (matrices: %s)", e.Kind, strings.Join(cells, ", "))
}

// Is makes errors.Is match any LoginError of the same kind, so callers can
// compare against the sentinel values below.
func (e *LoginError) Is(target error) bool {
	t, ok := target.(*LoginError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidPasswordPage     = &LoginError{Kind: INVALID_PASSWORD_PAGE}
	ErrInvalidOtpPage          = &LoginError{Kind: INVALID_OTP_PAGE}
	ErrInvalidMatrixcodePage   = &LoginError{Kind: INVALID_MATRIXCODE_PAGE}
	ErrInvalidResourceListPage = &LoginError{Kind: INVALID_RESOURCE_LIST_PAGE}
	ErrNoMatrixcodeOption      = &LoginError{Kind: NO_MATRIXCODE_OPTION}
	ErrFailedMatrixParse       = &LoginError{Kind: FAILED_MATRIX_PARSE}
	ErrAlreadyLoggedIn         = &LoginError{Kind: ALREADY_LOGGED_IN}
)

func newLoginError(kind LoginErrorKind, html string) *LoginError {
	return &LoginError{Kind: kind, Html: html}
}
