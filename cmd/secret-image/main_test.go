package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppopth/secret-image/bmp"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error", "--log-format", "nocolor"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDistributeRecoverInspect(t *testing.T) {
	secretPath := filepath.Join(t.TempDir(), "secret.bmp")
	secret := bmp.New(12, 4)
	for i := range secret.Pixels() {
		secret.Pixels()[i] = byte(i * 7)
	}
	require.NoError(t, secret.SaveAs(secretPath))

	coverDir := t.TempDir()
	for i := 1; i <= 5; i++ {
		require.NoError(t, bmp.New(16, 8).SaveAs(filepath.Join(coverDir, fmt.Sprintf("c%d.bmp", i))))
	}

	out, err := run(t, "distribute", "--secret", secretPath, "-k", "3", "-n", "5", "--dir", coverDir, "--seed", "77")
	require.NoError(t, err)
	assert.Contains(t, out, "seed 77")
	assert.Contains(t, out, "shadow 5: "+filepath.Join(coverDir, "c5.bmp"))

	out, err = run(t, "inspect", "--dir", coverDir)
	require.NoError(t, err)
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "c3.bmp")

	shareDir := t.TempDir()
	for _, name := range []string{"c2.bmp", "c4.bmp", "c5.bmp"} {
		data, err := os.ReadFile(filepath.Join(coverDir, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(shareDir, name), data, 0o644))
	}

	recovered := filepath.Join(t.TempDir(), "out.bmp")
	out, err = run(t, "recover", "--secret", recovered, "-k", "3", "--dir", shareDir)
	require.NoError(t, err)
	assert.Contains(t, out, "recovered 48 bytes")

	got, err := bmp.Load(recovered)
	require.NoError(t, err)
	assert.Equal(t, secret.Pixels(), got.Pixels())
}

func TestFlagErrors(t *testing.T) {
	_, err := run(t, "distribute", "-k", "3")
	assert.Error(t, err)

	_, err = run(t, "--mask", "rot13", "inspect", "--dir", t.TempDir())
	assert.ErrorContains(t, err, "unknown generator")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "inspect")
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mask: legacy\nextension: .dib\n"), 0o600))

	dir := t.TempDir()
	require.NoError(t, bmp.New(8, 8).SaveAs(filepath.Join(dir, "a.dib")))
	require.NoError(t, bmp.New(8, 8).SaveAs(filepath.Join(dir, "b.bmp")))

	out, err := run(t, "--config", path, "inspect", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "a.dib")
	assert.NotContains(t, out, "b.bmp")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "secret-image version dev")
}
