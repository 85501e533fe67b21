package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "case-scoring", cfg.Temporal.TaskQueue)
	assert.Equal(t, "san_diego", cfg.Jurisdiction)
	assert.Equal(t, "log", cfg.Notification.Mode)
	assert.Equal(t, 60*time.Second, cfg.Completion.Timeout.Std())
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
temporal:
  host_port: temporal.internal:7233
  namespace: legal
  task_queue: scoring-prod
completion:
  timeout: 30s
  requests_per_second: 5
jurisdiction: austin
notification:
  mode: smtp
  smtp:
    addr: mail.internal:587
    from: reports@example.com
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "temporal.internal:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "legal", cfg.Temporal.Namespace)
	assert.Equal(t, "austin", cfg.Jurisdiction)
	assert.Equal(t, 30*time.Second, cfg.Completion.Timeout.Std())
	assert.Equal(t, float64(5), cfg.Completion.RequestsPerSecond)
	assert.Equal(t, "smtp", cfg.Notification.Mode)
	assert.Equal(t, "mail.internal:587", cfg.Notification.SMTP.Addr)

	// Untouched sections keep their defaults.
	assert.Equal(t, "case-documents", cfg.Storage.DocumentsBucket)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadRejectsBadNotificationMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("notification:\n  mode: carrier-pigeon\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("completion:\n  timeout: soonish\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSecretResolutionFromEnv(t *testing.T) {
	t.Setenv("TEST_CASESCORE_KEY", "sk-test")
	cfg := Default()
	cfg.Completion.APIKeyEnv = "TEST_CASESCORE_KEY"

	resolved := cfg.CompletionClientConfig()
	assert.Equal(t, "sk-test", resolved.APIKey)
	assert.Equal(t, cfg.Completion.Model, resolved.Model)
}
