package portal

import (
	"context"
	"errors"
	"time"
	"titechportal/internal/components/assert"
	"titechportal/internal/components/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_client_login             = "client.login"
	report_client_check_credentials = "client.check-credentials"
	report_client_fetch_matrix      = "client.fetch-current-matrix"
	report_client_is_logged_in      = "client.is-logged-in"
)

var tracer = otel.Tracer("titechportal/pkg/portal")
var meter = otel.Meter("titechportal/pkg/portal")
var outcomeCounter, _ = meter.Int64Counter(
	"portal.login.outcome",
	metric.WithDescription("the number of portal operations by outcome"),
)

// Account is everything needed to answer every step of the login.
type Account struct {
	Username string
	Password string
	// Matrix maps a cell to its secret, only the cells that get challenged
	// need to be present.
	Matrix map[Matrix]string
}

type Options struct {
	Endpoints Endpoints
	// Transport overrides the default HttpTransport, the fields below are
	// ignored if it is set.
	Transport Transport
	// Rules overrides DefaultRules.
	Rules []Rule

	Timeout          time.Duration
	RateLimit        float64
	CloudflareBypass bool
	DumpMessages     bool
}

// Client drives the portal login. A Client is one portal session, calls on
// the same Client share its cookies, so concurrent logins for different
// accounts should use different Clients.
type Client struct {
	endpoints  Endpoints
	transport  Transport
	classifier Classifier
	tel        telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	if opts.Endpoints == (Endpoints{}) {
		opts.Endpoints = ProductionEndpoints
	}

	transport := opts.Transport
	if transport == nil {
		httpTransport, err := NewHttpTransport(HttpTransportOptions{
			Endpoints:        opts.Endpoints,
			Timeout:          opts.Timeout,
			RateLimit:        opts.RateLimit,
			CloudflareBypass: opts.CloudflareBypass,
			DumpMessages:     opts.DumpMessages,
		}, tel)
		if err != nil {
			return nil, err
		}
		transport = httpTransport
	}

	return &Client{
		endpoints:  opts.Endpoints,
		transport:  transport,
		classifier: NewClassifier(opts.Rules),
		tel:        telemetry.NewScopedAPI("portal", tel),
	}, nil
}

func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

func recordOutcome(ctx context.Context, operation string, err error) {
	outcome := "success"
	var loginErr *LoginError
	switch {
	case err == nil:
	case errors.As(err, &loginErr):
		outcome = loginErr.Kind.String()
	default:
		outcome = "error"
	}
	outcomeCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Login runs the whole login. A nil error means the portal showed the
// resource list. If the session was already authenticated ErrAlreadyLoggedIn
// is returned, callers that only care about being logged in can treat it as
// success.
func (c *Client) Login(ctx context.Context, account Account) (err error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer func() {
		recordOutcome(ctx, "login", err)
		endSpan(span, err)
	}()

	f := newFlow(c, account)
	err = f.run(ctx, stateDone)
	if err != nil {
		c.reportFailure(report_client_login, err)
		return err
	}
	return nil
}

// CheckCredentials only submits the username and password, it returns true if
// the portal moved on to the otp method or matrix page.
func (c *Client) CheckCredentials(ctx context.Context, username, password string) (ok bool, err error) {
	ctx, span := tracer.Start(ctx, "client:CheckCredentials")
	defer func() {
		recordOutcome(ctx, "check_credentials", err)
		endSpan(span, err)
	}()

	f := newFlow(c, Account{Username: username, Password: password})
	err = f.run(ctx, stateBranchOtp)
	if err != nil {
		c.reportFailure(report_client_check_credentials, err)
		return false, err
	}

	kinds, err := c.classifier.Classify(f.submitPage)
	if err != nil {
		return false, err
	}
	for _, k := range kinds {
		if k == PAGE_OTP_METHOD || k == PAGE_MATRIX {
			return true, nil
		}
	}
	return false, nil
}

// FetchCurrentMatrix goes through the login until the matrix page and
// returns the challenged cells without answering them.
func (c *Client) FetchCurrentMatrix(ctx context.Context, username, password string) (matrices []Matrix, err error) {
	ctx, span := tracer.Start(ctx, "client:FetchCurrentMatrix")
	defer func() {
		recordOutcome(ctx, "fetch_current_matrix", err)
		endSpan(span, err)
	}()

	f := newFlow(c, Account{Username: username, Password: password})
	err = f.run(ctx, stateSubmitMatrix)
	if err != nil {
		c.reportFailure(report_client_fetch_matrix, err)
		return nil, err
	}
	return f.matrices, nil
}

// IsLoggedIn probes the resource list without following redirects, the
// session is authenticated iff the portal answers 200.
func (c *Client) IsLoggedIn(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:IsLoggedIn")
	defer span.End()

	status, err := c.transport.Status(ctx, ResourceListRequest(c.endpoints))
	if err != nil {
		c.tel.ReportBroken(report_client_is_logged_in, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to probe resource list")
		return false, err
	}
	span.SetAttributes(attribute.Int("status", status))
	return status == 200, nil
}

// reportFailure reports portal answers as warnings since they usually mean
// bad credentials, and everything else as broken.
func (c *Client) reportFailure(id string, err error) {
	var loginErr *LoginError
	if errors.As(err, &loginErr) {
		if loginErr.Kind == ALREADY_LOGGED_IN {
			c.tel.ReportDebug(id, err)
			return
		}
		c.tel.ReportWarning(id, err)
		return
	}
	c.tel.ReportBroken(id, err)
}
