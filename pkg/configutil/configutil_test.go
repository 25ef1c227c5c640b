package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Username string            `json:"username"`
	Password string            `json:"password"`
	Matrix   map[string]string `json:"matrix"`
}

func write(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestLocalName(t *testing.T) {
	require.Equal(t, filepath.Join("dir", "config.local.json5"), LocalName("dir/config.json5"))
	require.Equal(t, filepath.Join("dir", "config.local"), LocalName("dir/config"))
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		username: "00B00000",
		password: "placeholder",
		matrix: { A1: "x" },
	}`)
	write(t, filepath.Join(dir, "config.local.json5"), `{ password: "passw0rd&" }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "00B00000", cfg.Username)
	require.Equal(t, "passw0rd&", cfg.Password)
	require.Equal(t, "x", cfg.Matrix["A1"])
}

func TestReadConfigNotFound(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0777))
	write(t, filepath.Join(root, "portal.json5"), `{ username: "found" }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := ReadRecursively[testConfig]("portal.json5")
	require.NoError(t, err)
	require.Equal(t, "found", cfg.Username)
}
