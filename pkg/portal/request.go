package portal

import (
	"fmt"
	"net/http"
	"net/url"
)

// Endpoints is the origin every request of a flow is sent to.
type Endpoints struct {
	// Origin is scheme://host[:port] without a trailing slash.
	Origin string
	// Host is sent as the Host header.
	Host string
}

var ProductionEndpoints = Endpoints{
	Origin: "https://portal.nap.gsic.titech.ac.jp",
	Host:   "portal.nap.gsic.titech.ac.jp",
}

// MockEndpoints points at the public mock of the portal used for integration testing.
var MockEndpoints = Endpoints{
	Origin: "https://portal-mock.titech.app",
	Host:   "portal-mock.titech.app",
}

// EndpointsFromOrigin builds Endpoints out of any absolute origin url, like
// the address of a local mock server.
func EndpointsFromOrigin(origin string) (Endpoints, error) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return Endpoints{}, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return Endpoints{}, fmt.Errorf("origin %q must be absolute", origin)
	}
	return Endpoints{
		Origin: fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host),
		Host:   parsed.Host,
	}, nil
}

const (
	loginPath        = "/GetAccess/Login"
	resourceListPath = "/GetAccess/ResourceList"

	passwordPageQuery = "Template=userpass_key&AUTHMETHOD=UserPassword"
	// the portal always names the production resource list in the idg_key
	// referer, even on the mock
	idgKeyQuery = "Template=idg_key&AUTHMETHOD=IG&GASF=CERTIFICATE,IG.GRID,IG.OTP&LOCALE=ja_JP&GAREASONCODE=13&GAIDENTIFICATIONID=UserPassword&GARESOURCEID=resourcelistID2&GAURI=https://portal.nap.gsic.titech.ac.jp/GetAccess/ResourceList&Reason=13&APPID=resourcelistID2&URI=https://portal.nap.gsic.titech.ac.jp/GetAccess/ResourceList"

	UserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1"
)

// Request is a transport independent description of a single portal request.
type Request struct {
	Method string
	Url    string
	Header http.Header
	// Form is sent url encoded as the body, nil for GET requests.
	Form url.Values
}

// Body is the url encoded form, spaces are encoded as '+'.
func (r Request) Body() string {
	if r.Form == nil {
		return ""
	}
	return r.Form.Encode()
}

func baseHeader(e Endpoints) http.Header {
	h := http.Header{}
	h.Set("User-Agent", UserAgent)
	h.Set("Host", e.Host)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "ja-jp")
	return h
}

func postHeader(e Endpoints, refererQuery string) http.Header {
	h := baseHeader(e)
	h.Set("Referer", fmt.Sprintf("%s%s?%s", e.Origin, loginPath, refererQuery))
	h.Set("Origin", e.Origin)
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	return h
}

// formValues encodes inputs first, then every select with a selection whose
// name is not already taken by an input. Unnamed inputs are not successful
// controls and are skipped like a browser would.
func formValues(inputs []Input, selects []Select) url.Values {
	values := url.Values{}
	for _, in := range inputs {
		if in.Name == "" {
			continue
		}
		values.Set(in.Name, in.Value)
	}
	for _, sel := range selects {
		selected, ok := sel.Selected()
		if !ok || sel.Name == "" {
			continue
		}
		if values.Has(sel.Name) {
			continue
		}
		values.Set(sel.Name, selected)
	}
	return values
}

func ResourceListRequest(e Endpoints) Request {
	return Request{
		Method: http.MethodGet,
		Url:    e.Origin + resourceListPath,
		Header: baseHeader(e),
	}
}

func PasswordPageRequest(e Endpoints) Request {
	return Request{
		Method: http.MethodGet,
		Url:    e.Origin + loginPath + "?" + passwordPageQuery,
		Header: baseHeader(e),
	}
}

func PasswordSubmitRequest(e Endpoints, inputs []Input) Request {
	return Request{
		Method: http.MethodPost,
		Url:    e.Origin + loginPath,
		Header: postHeader(e, passwordPageQuery),
		Form:   formValues(inputs, nil),
	}
}

func OtpSubmitRequest(e Endpoints, form Form) Request {
	return Request{
		Method: http.MethodPost,
		Url:    e.Origin + loginPath,
		Header: postHeader(e, idgKeyQuery),
		Form:   formValues(form.Inputs, form.Selects),
	}
}

func MatrixSubmitRequest(e Endpoints, form Form) Request {
	return Request{
		Method: http.MethodPost,
		Url:    e.Origin + loginPath,
		Header: postHeader(e, idgKeyQuery),
		Form:   formValues(form.Inputs, form.Selects),
	}
}
