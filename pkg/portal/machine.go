package portal

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_flow_transport     = "flow.transport"
	report_flow_parse         = "flow.parse"
	report_flow_unknown_page  = "flow.unknown-page"
	report_flow_inject        = "flow.inject"
	report_flow_missing_cells = "flow.missing-secrets"
)

type state int

const (
	stateFetchPassword state = iota
	stateValidatePassword
	stateSubmitPassword
	// stateBranchOtp decides whether the portal asks for an otp method
	// before the matrix page
	stateBranchOtp
	stateSubmitOtp
	stateValidateMatrix
	stateParseMatrix
	stateSubmitMatrix
	stateValidateResourceList
	stateDone
)

var stateNames = map[state]string{
	stateFetchPassword:        "fetch-password",
	stateValidatePassword:     "validate-password",
	stateSubmitPassword:       "submit-password",
	stateBranchOtp:            "branch-otp",
	stateSubmitOtp:            "submit-otp",
	stateValidateMatrix:       "validate-matrix",
	stateParseMatrix:          "parse-matrix",
	stateSubmitMatrix:         "submit-matrix",
	stateValidateResourceList: "validate-resource-list",
	stateDone:                 "done",
}

func (s state) String() string {
	name, ok := stateNames[s]
	if !ok {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return name
}

// flow is a single pass through the login pages. Every step only reads what
// previous steps stored on it, so a flow can be stopped at any state and
// inspected, which is what CheckCredentials and FetchCurrentMatrix do.
type flow struct {
	client  *Client
	account Account

	passwordPage string
	// submitPage is the answer to the password submission
	submitPage string
	matrixPage string
	matrixForm Form
	matrices   []Matrix
	finalPage  string
}

func newFlow(client *Client, account Account) *flow {
	return &flow{client: client, account: account}
}

func (f *flow) step(ctx context.Context, s state) (state, error) {
	switch s {
	case stateFetchPassword:
		return f.fetchPassword(ctx)
	case stateValidatePassword:
		return f.validatePassword()
	case stateSubmitPassword:
		return f.submitPassword(ctx)
	case stateBranchOtp:
		return f.branchOtp()
	case stateSubmitOtp:
		return f.submitOtp(ctx)
	case stateValidateMatrix:
		return f.validateMatrix()
	case stateParseMatrix:
		return f.parseMatrix()
	case stateSubmitMatrix:
		return f.submitMatrix(ctx)
	case stateValidateResourceList:
		return f.validateResourceList()
	default:
		return s, fmt.Errorf("no transition out of %s", s)
	}
}

// run steps through the flow until it reaches `stop` or a step fails.
func (f *flow) run(ctx context.Context, stop state) error {
	current := stateFetchPassword
	for current != stop && current != stateDone {
		ctx, span := tracer.Start(ctx, "flow:"+current.String())
		next, err := f.step(ctx, current)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return err
		}
		span.SetAttributes(attribute.String("next", next.String()))
		span.End()
		current = next
	}
	return nil
}

func (f *flow) send(ctx context.Context, req Request) (string, error) {
	body, err := f.client.transport.Send(ctx, req)
	if err != nil {
		f.client.tel.ReportBroken(report_flow_transport, req.Method, req.Url, err)
		return "", err
	}
	return body, nil
}

func (f *flow) is(body string, kind PageKind) (bool, error) {
	ok, err := f.client.classifier.Is(body, kind)
	if err != nil {
		f.client.tel.ReportBroken(report_flow_parse, err)
		return false, err
	}
	return ok, nil
}

// reject builds the error for a page that is not `expected`, reporting what
// the page looks closest to so that wording changes on the portal show up
// in the logs.
func (f *flow) reject(kind LoginErrorKind, expected PageKind, body string) error {
	diagnosis, err := f.client.classifier.Diagnose(body)
	if err == nil {
		f.client.tel.ReportDebug(
			report_flow_unknown_page,
			"expected", expected.String(),
			"closest", diagnosis.Kind.String(),
			"heading", diagnosis.Heading,
			"similarity", diagnosis.Similarity,
		)
	}
	return newLoginError(kind, body)
}

func (f *flow) fetchPassword(ctx context.Context) (state, error) {
	body, err := f.send(ctx, PasswordPageRequest(f.client.endpoints))
	if err != nil {
		return stateFetchPassword, err
	}
	f.passwordPage = body

	// an authenticated session gets redirected straight to the resource list
	loggedIn, err := f.is(body, PAGE_RESOURCE_LIST)
	if err != nil {
		return stateFetchPassword, err
	}
	if loggedIn {
		return stateFetchPassword, newLoginError(ALREADY_LOGGED_IN, body)
	}
	return stateValidatePassword, nil
}

func (f *flow) validatePassword() (state, error) {
	ok, err := f.is(f.passwordPage, PAGE_PASSWORD)
	if err != nil {
		return stateValidatePassword, err
	}
	if !ok {
		return stateValidatePassword, f.reject(INVALID_PASSWORD_PAGE, PAGE_PASSWORD, f.passwordPage)
	}
	return stateSubmitPassword, nil
}

func (f *flow) submitPassword(ctx context.Context) (state, error) {
	form, err := ExtractForm(f.passwordPage)
	if err != nil {
		f.client.tel.ReportBroken(report_flow_parse, err)
		return stateSubmitPassword, err
	}

	inputs, result := InjectCredentials(form.Inputs, f.account.Username, f.account.Password)
	if result != INJECT_COMPLETE {
		// submitting a form without both credentials only gets an opaque
		// rejection from the portal
		f.client.tel.ReportWarning(report_flow_inject, "step", "password", "result", result.String())
		return stateSubmitPassword, newLoginError(INVALID_PASSWORD_PAGE, f.passwordPage)
	}

	body, err := f.send(ctx, PasswordSubmitRequest(f.client.endpoints, inputs))
	if err != nil {
		return stateSubmitPassword, err
	}
	f.submitPage = body
	return stateBranchOtp, nil
}

func (f *flow) branchOtp() (state, error) {
	otp, err := f.is(f.submitPage, PAGE_OTP_METHOD)
	if err != nil {
		return stateBranchOtp, err
	}
	if otp {
		return stateSubmitOtp, nil
	}
	f.matrixPage = f.submitPage
	return stateValidateMatrix, nil
}

func (f *flow) submitOtp(ctx context.Context) (state, error) {
	form, err := ExtractForm(f.submitPage)
	if err != nil {
		f.client.tel.ReportBroken(report_flow_parse, err)
		return stateSubmitOtp, err
	}

	selects, err := SelectOtpMethod(form.Selects)
	if err != nil {
		return stateSubmitOtp, newLoginError(NO_MATRIXCODE_OPTION, f.submitPage)
	}
	form.Selects = selects

	body, err := f.send(ctx, OtpSubmitRequest(f.client.endpoints, form))
	if err != nil {
		return stateSubmitOtp, err
	}

	// the portal answers an otp selection it did not accept with the same page
	stillOtp, err := f.is(body, PAGE_OTP_METHOD)
	if err != nil {
		return stateSubmitOtp, err
	}
	if stillOtp {
		return stateSubmitOtp, newLoginError(INVALID_OTP_PAGE, body)
	}

	f.matrixPage = body
	return stateValidateMatrix, nil
}

func (f *flow) validateMatrix() (state, error) {
	ok, err := f.is(f.matrixPage, PAGE_MATRIX)
	if err != nil {
		return stateValidateMatrix, err
	}
	if !ok {
		return stateValidateMatrix, f.reject(INVALID_MATRIXCODE_PAGE, PAGE_MATRIX, f.matrixPage)
	}
	return stateParseMatrix, nil
}

func (f *flow) parseMatrix() (state, error) {
	form, err := ExtractForm(f.matrixPage)
	if err != nil {
		f.client.tel.ReportBroken(report_flow_parse, err)
		return stateParseMatrix, err
	}
	f.matrixForm = form

	matrices, err := ExtractMatrices(f.matrixPage)
	if err != nil {
		return stateParseMatrix, newLoginError(FAILED_MATRIX_PARSE, f.matrixPage)
	}
	f.matrices = matrices
	return stateSubmitMatrix, nil
}

func (f *flow) submitMatrix(ctx context.Context) (state, error) {
	var missing []string
	for _, m := range f.matrices {
		if _, ok := f.account.Matrix[m]; !ok {
			missing = append(missing, m.String())
		}
	}
	if len(missing) > 0 {
		f.client.tel.ReportWarning(report_flow_missing_cells, "cells", missing)
	}

	form, result := InjectMatrix(f.matrixForm, f.matrices, f.account.Matrix)
	if result != INJECT_COMPLETE {
		// the portal will reject it, which surfaces as an invalid resource
		// list page with the challenged cells attached
		f.client.tel.ReportWarning(report_flow_inject, "step", "matrix", "result", result.String())
	}

	body, err := f.send(ctx, MatrixSubmitRequest(f.client.endpoints, form))
	if err != nil {
		return stateSubmitMatrix, err
	}
	f.finalPage = body
	return stateValidateResourceList, nil
}

func (f *flow) validateResourceList() (state, error) {
	ok, err := f.is(f.finalPage, PAGE_RESOURCE_LIST)
	if err != nil {
		return stateValidateResourceList, err
	}
	if !ok {
		return stateValidateResourceList, &LoginError{
			Kind:     INVALID_RESOURCE_LIST_PAGE,
			Matrices: f.matrices,
			Html:     f.finalPage,
		}
	}
	return stateDone, nil
}
