package portal_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"titechportal/internal/components/chrono"
	"titechportal/internal/components/telemetry"
	"titechportal/internal/mockportal"
	"titechportal/pkg/portal"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func uniformSecrets(secret string) map[portal.Matrix]string {
	out := map[portal.Matrix]string{}
	for _, m := range portal.AllMatrices() {
		out[m] = secret
	}
	return out
}

func setup(t testing.TB, opts mockportal.Options) (*portal.Client, *telemetry.TestAPI) {
	tel := telemetry.NewTestAPI(t)
	server := httptest.NewServer(mockportal.NewServer(opts, tel, chrono.NewStandardTime()))
	t.Cleanup(server.Close)

	endpoints, err := portal.EndpointsFromOrigin(server.URL)
	require.NoError(t, err)

	client, err := portal.NewClient(portal.Options{Endpoints: endpoints}, tel)
	require.NoError(t, err)
	return client, tel
}

var account = portal.Account{
	Username: "00B00000",
	Password: "passw0rd&",
	Matrix:   uniformSecrets("A"),
}

func TestLogin(t *testing.T) {
	variants := []struct {
		name string
		opts mockportal.Options
	}{
		{name: "otp select", opts: mockportal.Options{}},
		{name: "totp", opts: mockportal.Options{TotpVariant: true}},
		{name: "no otp", opts: mockportal.Options{SkipOtp: true}},
	}

	for _, variant := range variants {
		t.Run(variant.name, func(t *testing.T) {
			client, _ := setup(t, variant.opts)
			ctx := context.Background()

			loggedIn, err := client.IsLoggedIn(ctx)
			require.NoError(t, err)
			require.False(t, loggedIn)

			err = client.Login(ctx, account)
			require.NoError(t, err)

			loggedIn, err = client.IsLoggedIn(ctx)
			require.NoError(t, err)
			require.True(t, loggedIn)
		})
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	client, _ := setup(t, mockportal.Options{})

	err := client.Login(context.Background(), portal.Account{
		Username: "00B00000",
		Password: "aaa",
		Matrix:   uniformSecrets("A"),
	})
	require.ErrorIs(t, err, portal.ErrInvalidMatrixcodePage)

	var loginErr *portal.LoginError
	require.True(t, errors.As(err, &loginErr))
	require.Contains(t, loginErr.Html, "Please input your account &amp; password.")
}

func TestLoginInvalidMatrix(t *testing.T) {
	client, tel := setup(t, mockportal.Options{})

	err := client.Login(context.Background(), portal.Account{
		Username: "00B00000",
		Password: "passw0rd&",
		Matrix:   uniformSecrets("B"),
	})
	require.ErrorIs(t, err, portal.ErrInvalidResourceListPage)

	var loginErr *portal.LoginError
	require.True(t, errors.As(err, &loginErr))
	if diff := cmp.Diff([]portal.Matrix{portal.D2, portal.E2, portal.I6}, loginErr.Matrices); diff != "" {
		t.Fatal(diff)
	}
	require.NotEmpty(t, tel.Reports(telemetry.LevelWarning, "client.login"))
}

func TestLoginMissingSecrets(t *testing.T) {
	client, tel := setup(t, mockportal.Options{})

	err := client.Login(context.Background(), portal.Account{
		Username: "00B00000",
		Password: "passw0rd&",
		Matrix:   map[portal.Matrix]string{portal.D2: "A"},
	})
	require.ErrorIs(t, err, portal.ErrInvalidResourceListPage)
	require.NotEmpty(t, tel.Reports(telemetry.LevelWarning, "flow.missing-secrets"))
}

func TestLoginNoGridOption(t *testing.T) {
	client, _ := setup(t, mockportal.Options{NoGridOption: true})

	err := client.Login(context.Background(), account)
	require.ErrorIs(t, err, portal.ErrNoMatrixcodeOption)
}

func TestAlreadyLoggedIn(t *testing.T) {
	client, _ := setup(t, mockportal.Options{})
	ctx := context.Background()

	err := client.Login(ctx, account)
	require.NoError(t, err)

	err = client.Login(ctx, account)
	require.ErrorIs(t, err, portal.ErrAlreadyLoggedIn)

	_, err = client.FetchCurrentMatrix(ctx, account.Username, account.Password)
	require.ErrorIs(t, err, portal.ErrAlreadyLoggedIn)
}

func TestCheckCredentials(t *testing.T) {
	client, _ := setup(t, mockportal.Options{})

	ok, err := client.CheckCredentials(context.Background(), "00B00000", "passw0rd&")
	require.NoError(t, err)
	require.True(t, ok)

	client, _ = setup(t, mockportal.Options{})
	ok, err = client.CheckCredentials(context.Background(), "00B00000", "aaa")
	require.NoError(t, err)
	require.False(t, ok)

	client, _ = setup(t, mockportal.Options{SkipOtp: true})
	ok, err = client.CheckCredentials(context.Background(), "00B00000", "passw0rd&")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFetchCurrentMatrix(t *testing.T) {
	client, _ := setup(t, mockportal.Options{})

	matrices, err := client.FetchCurrentMatrix(context.Background(), "00B00000", "passw0rd&")
	require.NoError(t, err)
	if diff := cmp.Diff([]portal.Matrix{portal.D2, portal.E2, portal.I6}, matrices); diff != "" {
		t.Fatal(diff)
	}

	loggedIn, err := client.IsLoggedIn(context.Background())
	require.NoError(t, err)
	require.False(t, loggedIn)
}

func TestCustomChallenge(t *testing.T) {
	challenge := []portal.Matrix{portal.A1, portal.J7}
	client, _ := setup(t, mockportal.Options{Challenge: challenge})

	matrices, err := client.FetchCurrentMatrix(context.Background(), "00B00000", "passw0rd&")
	require.NoError(t, err)
	require.Equal(t, challenge, matrices)
}

func TestTransportError(t *testing.T) {
	tel := telemetry.NewTestAPI(t)
	server := httptest.NewServer(mockportal.NewServer(mockportal.Options{}, tel, chrono.NewStandardTime()))
	endpoints, err := portal.EndpointsFromOrigin(server.URL)
	require.NoError(t, err)
	server.Close()

	client, err := portal.NewClient(portal.Options{Endpoints: endpoints}, tel)
	require.NoError(t, err)

	err = client.Login(context.Background(), account)
	require.Error(t, err)
	var loginErr *portal.LoginError
	require.False(t, errors.As(err, &loginErr))
	require.NotEmpty(t, tel.Reports(telemetry.LevelBroken, "flow.transport"))
}
