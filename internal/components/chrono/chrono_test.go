package chrono

import (
	"testing"
	"time"
	"titechportal/internal/components/telemetry"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestFixedTime(t *testing.T) {
	at := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	now := FixedTime{At: at}.Now()
	require.True(t, now.Equal(at))
	require.Equal(t, 9, now.Hour())
}

func TestStandardCron(t *testing.T) {
	cronner := NewStandardCron(telemetry.NewTestAPI(t))

	fired := make(chan struct{}, 1)
	err := cronner.Cron("@every 1s", func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("cron job never fired")
	}
	<-cronner.Stop()

	require.Error(t, cronner.Cron("not a spec", func() {}))
	goleak.VerifyNone(t)
}
