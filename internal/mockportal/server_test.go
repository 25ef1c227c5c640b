package mockportal

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"
	"titechportal/internal/components/chrono"
	"titechportal/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

var csrfRegex = regexp.MustCompile(`name="CSRFFormToken" value="([^"]+)"`)

func setup(t testing.TB, opts Options) (*httptest.Server, *resty.Client) {
	tel := telemetry.NewTestAPI(t)
	clock := chrono.FixedTime{At: time.Date(2024, 4, 1, 9, 0, 0, 0, chrono.JST())}
	server := httptest.NewServer(NewServer(opts, tel, clock))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := resty.New().
		SetBaseURL(server.URL).
		SetCookieJar(jar).
		SetRedirectPolicy(resty.NoRedirectPolicy())
	return server, client
}

func csrfToken(t testing.TB, body string) string {
	groups := csrfRegex.FindStringSubmatch(body)
	require.Len(t, groups, 2, "no csrf token in page")
	return groups[1]
}

func TestPasswordPage(t *testing.T) {
	_, client := setup(t, Options{})

	res, err := client.R().Get(passwordPagePath)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())

	body := res.String()
	require.Contains(t, body, "Please input your account &amp; password.")
	require.Contains(t, body, `name="usr_name"`)
	require.Contains(t, body, `name="pageGenTime" value="1711929600"`)
	require.Len(t, csrfToken(t, body), 32)

	cookies := res.Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, SessionCookie, cookies[0].Name)
}

func TestResourceListRedirectsWhenAnonymous(t *testing.T) {
	_, client := setup(t, Options{})

	res, err := client.R().Get(resourceListPath)
	// resty reports the stopped redirect as an error but still returns the response
	require.Error(t, err)
	require.Equal(t, http.StatusFound, res.StatusCode())
	require.Equal(t, passwordPagePath, res.Header().Get("Location"))
}

func TestRejectsStaleToken(t *testing.T) {
	_, client := setup(t, Options{})

	_, err := client.R().Get(passwordPagePath)
	require.NoError(t, err)

	res, err := client.R().
		SetFormData(map[string]string{
			"usr_name":      DefaultAccount.Username,
			"usr_password":  DefaultAccount.Password,
			"CSRFFormToken": "stale",
		}).
		Post(loginPath)
	require.NoError(t, err)
	require.Contains(t, res.String(), "The form has expired.")
}

func TestFullLogin(t *testing.T) {
	_, client := setup(t, Options{SkipOtp: true})

	res, err := client.R().Get(passwordPagePath)
	require.NoError(t, err)

	res, err = client.R().
		SetFormData(map[string]string{
			"usr_name":      DefaultAccount.Username,
			"usr_password":  DefaultAccount.Password,
			"CSRFFormToken": csrfToken(t, res.String()),
		}).
		Post(loginPath)
	require.NoError(t, err)
	body := res.String()
	require.Contains(t, body, "Matrix Authentication")
	require.True(t, strings.Index(body, "[D,2]") < strings.Index(body, "[E,2]"))
	require.True(t, strings.Index(body, "[E,2]") < strings.Index(body, "[I,6]"))

	res, err = client.R().
		SetFormData(map[string]string{
			"message3":      "A",
			"message4":      "A",
			"message5":      "A",
			"message6":      "NoOtherIGAuthOption",
			"CSRFFormToken": csrfToken(t, body),
		}).
		Post(loginPath)
	require.Error(t, err)
	require.Equal(t, http.StatusFound, res.StatusCode())
	require.Equal(t, resourceListPath, res.Header().Get("Location"))

	res, err = client.R().Get(resourceListPath)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())
	require.Contains(t, res.String(), "<title>リソース メニュー</title>")

	res, err = client.R().Get(passwordPagePath)
	require.Error(t, err)
	require.Equal(t, http.StatusFound, res.StatusCode())
}

func TestOtpWithoutGridOption(t *testing.T) {
	_, client := setup(t, Options{NoGridOption: true})

	res, err := client.R().Get(passwordPagePath)
	require.NoError(t, err)

	res, err = client.R().
		SetFormData(map[string]string{
			"usr_name":      DefaultAccount.Username,
			"usr_password":  DefaultAccount.Password,
			"CSRFFormToken": csrfToken(t, res.String()),
		}).
		Post(loginPath)
	require.NoError(t, err)
	require.Contains(t, res.String(), "Select Label for OTP")
	require.NotContains(t, res.String(), "GridAuthOption")
}

func TestLogoutAndReset(t *testing.T) {
	server, client := setup(t, Options{})

	res, err := client.R().Get(logoutPath)
	require.Error(t, err)
	require.Equal(t, http.StatusFound, res.StatusCode())
	require.Equal(t, passwordPagePath, res.Header().Get("Location"))

	handler := server.Config.Handler.(*Server)
	handler.Reset()
	require.Empty(t, handler.sessions)
}
