package telemetry

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	tel := NewTestAPI(t)
	scoped := NewScopedAPI("outer", NewScopedAPI("inner", tel))

	scoped.ReportBroken("component.method", "param")
	scoped.ReportCount("events", 3)

	broken := tel.Reports(LevelBroken, "")
	require.Len(t, broken, 1)
	require.Equal(t, "inner: outer: component.method", broken[0].Id)
	require.Equal(t, []any{"param"}, broken[0].Params)

	counts := tel.Reports(LevelCount, "events")
	require.Len(t, counts, 1)
	require.Equal(t, int64(3), counts[0].Count)
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer server.Close()

	tel := NewTestAPI(t)
	client := resty.New()
	InstrumentResty(client, tel, true)

	_, err := client.R().
		SetFormData(map[string]string{"usr_name": "00B00000"}).
		Post(server.URL + "/GetAccess/Login")
	require.NoError(t, err)

	require.Len(t, tel.Reports(LevelDebug, report_resty_request), 1)
	require.Len(t, tel.Reports(LevelDebug, report_resty_response), 1)

	messages := tel.Reports(LevelDebug, report_resty_message)
	require.Len(t, messages, 1)
	message := messages[0].Params[1].(string)
	require.Contains(t, message, "usr_name=00B00000")
	require.Contains(t, message, "<html>ok</html>")
}

func TestInstrumentRestyError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	tel := NewTestAPI(t)
	client := resty.New()
	InstrumentResty(client, tel, false)

	_, err := client.R().Get(url)
	require.Error(t, err)
	require.Len(t, tel.Reports(LevelBroken, report_resty_response), 1)
}
