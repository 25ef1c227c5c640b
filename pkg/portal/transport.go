package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
	"titechportal/internal/components/assert"
	"titechportal/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const report_transport_new = "transport.new"

// Transport sends portal requests. Implementations own the cookies of the
// session, so a single Transport is a single portal session.
type Transport interface {
	// Send follows redirects and returns the body of the final response.
	Send(ctx context.Context, req Request) (string, error)
	// Status does not follow redirects and returns the status of the first response.
	Status(ctx context.Context, req Request) (int, error)
}

// StatusError is returned by HttpTransport.Send when the final response is
// not something a page can be parsed out of.
type StatusError struct {
	Method string
	Url    string
	Status int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Url, e.Status)
}

type HttpTransportOptions struct {
	Endpoints Endpoints
	// Timeout of a single request, 0 uses 30 seconds.
	Timeout time.Duration
	// RateLimit is the max number of requests per second, 0 disables the limit.
	RateLimit float64
	// CloudflareBypass wraps the round tripper with browser-like TLS and headers.
	CloudflareBypass bool
	// DumpMessages reports full request/response messages at debug level,
	// this includes the password so it is for debugging only.
	DumpMessages bool
}

// HttpTransport is the resty backed Transport, it holds an in-memory cookie jar.
type HttpTransport struct {
	follow   *resty.Client
	noFollow *resty.Client
}

func NewHttpTransport(opts HttpTransportOptions, tel telemetry.API) (*HttpTransport, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Endpoints.Origin)

	tel = telemetry.NewScopedAPI("portal_http", tel)

	origin, err := url.Parse(opts.Endpoints.Origin)
	if err != nil {
		tel.ReportBroken(report_transport_new, fmt.Errorf("parse origin: %w", err))
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	var roundTripper http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()
	if opts.CloudflareBypass {
		roundTripper = cloudflarebp.AddCloudFlareByPass(roundTripper)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		// burst >= 1 just means that no requests will be dropped
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	newClient := func() *resty.Client {
		client := resty.NewWithClient(&http.Client{
			Jar:       jar,
			Transport: roundTripper,
		})
		client.SetHeader("User-Agent", UserAgent)
		client.SetTimeout(timeout)
		if limiter != nil {
			client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
				return limiter.Wait(req.Context())
			})
		}
		telemetry.InstrumentResty(client, tel, opts.DumpMessages)
		return client
	}

	follow := newClient()
	follow.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(origin.Hostname()),
	)

	noFollow := newClient()
	noFollow.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))

	return &HttpTransport{
		follow:   follow,
		noFollow: noFollow,
	}, nil
}

func (t *HttpTransport) newRequest(client *resty.Client, ctx context.Context, req Request) *resty.Request {
	r := client.R().SetContext(ctx)
	for key, values := range req.Header {
		// net/http takes the host out of the url, a Host header would be dropped anyways
		if key == "Host" {
			continue
		}
		for _, v := range values {
			r.Header.Add(key, v)
		}
	}
	if req.Form != nil {
		r.SetBody(req.Body())
	}
	return r
}

func (t *HttpTransport) Send(ctx context.Context, req Request) (string, error) {
	res, err := t.newRequest(t.follow, ctx, req).Execute(req.Method, req.Url)
	if err != nil {
		return "", err
	}
	if res.StatusCode() >= 400 {
		return "", StatusError{Method: req.Method, Url: req.Url, Status: res.StatusCode()}
	}
	return res.String(), nil
}

func (t *HttpTransport) Status(ctx context.Context, req Request) (int, error) {
	res, err := t.newRequest(t.noFollow, ctx, req).Execute(req.Method, req.Url)
	if err != nil {
		return 0, err
	}
	return res.StatusCode(), nil
}
