package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patchArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = append([]string{"cyphershare"}, args...)
}

func TestLoadDefaults(t *testing.T) {
	patchArgs(t)

	cfg := LoadConfig()
	assert.Equal(t, "http://127.0.0.1:8787", cfg.StoreURL)
	assert.Equal(t, "waku", cfg.RelayKind)
	assert.Equal(t, "default", cfg.RoomID)
	assert.Empty(t, cfg.CohortURL)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	patchArgs(t, "-s", "http://store:9000", "-r", "redis", "-n", "redis:6379", "-m", "team-42")

	cfg := LoadConfig()
	assert.Equal(t, "http://store:9000", cfg.StoreURL)
	assert.Equal(t, "redis", cfg.RelayKind)
	assert.Equal(t, "redis:6379", cfg.RelayAddr)
	assert.Equal(t, "team-42", cfg.RoomID)
}

func TestJsonOverlayAndFlagPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"store_url": "http://json-store:9000",
		"room_id": "json-room",
		"payout_address": "0x2222222222222222222222222222222222222222"
	}`), 0o600))

	patchArgs(t, "-c", path, "-m", "flag-room")

	cfg := LoadConfig()
	// JSON overlays defaults, flags overlay JSON.
	assert.Equal(t, "http://json-store:9000", cfg.StoreURL)
	assert.Equal(t, "flag-room", cfg.RoomID)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", cfg.PayoutAddress)
	assert.Equal(t, "waku", cfg.RelayKind)
}

func TestJsonAbsentKeysKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"relay_kind": "kafka"}`), 0o600))

	patchArgs(t, "-c", path)

	cfg := LoadConfig()
	assert.Equal(t, "kafka", cfg.RelayKind)
	assert.Equal(t, "http://127.0.0.1:8787", cfg.StoreURL)
}
