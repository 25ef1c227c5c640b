package commands

import (
	"os"
	"path/filepath"
	"testing"
	"titechportal/pkg/portal"

	"github.com/stretchr/testify/require"
)

func TestResolveEndpoints(t *testing.T) {
	e, err := resolveEndpoints("")
	require.NoError(t, err)
	require.Equal(t, portal.ProductionEndpoints, e)

	e, err = resolveEndpoints("mock")
	require.NoError(t, err)
	require.Equal(t, portal.MockEndpoints, e)

	e, err = resolveEndpoints("http://localhost:8080")
	require.NoError(t, err)
	require.Equal(t, "localhost:8080", e.Host)

	_, err = resolveEndpoints("localhost")
	require.Error(t, err)
}

func TestLoadGlobals(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json5")
	err := os.WriteFile(configPath, []byte(`{
		// comments are allowed
		username: "00B00000",
		password: "passw0rd&",
		matrix: { D2: "A", e2: "B" },
		endpoint: "mock",
	}`), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{ password: "local" }`), 0644)
	require.NoError(t, err)

	g, err := loadGlobals(configPath, "", false)
	require.NoError(t, err)
	require.Equal(t, portal.MockEndpoints, g.endpoints)
	require.Equal(t, portal.Account{
		Username: "00B00000",
		Password: "local",
		Matrix:   map[portal.Matrix]string{portal.D2: "A", portal.E2: "B"},
	}, g.account())
	require.NoError(t, g.requireCredentials())

	g, err = loadGlobals(configPath, "http://127.0.0.1:9000", false)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9000", g.endpoints.Origin)
}

func TestLoadGlobalsWithoutConfig(t *testing.T) {
	g, err := loadGlobals(filepath.Join(t.TempDir(), "config.json5"), "", false)
	require.NoError(t, err)
	require.Equal(t, portal.ProductionEndpoints, g.endpoints)
	require.Error(t, g.requireCredentials())
}

func TestLoadGlobalsBadMatrix(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json5")
	err := os.WriteFile(configPath, []byte(`{ matrix: { Z9: "A" } }`), 0644)
	require.NoError(t, err)

	_, err = loadGlobals(configPath, "", false)
	require.Error(t, err)
}
