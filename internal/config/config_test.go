package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("MEETINGAI_CONFIG", "")
	t.Setenv("MEETINGAI_ENV_FILE", filepath.Join(home, "missing.env"))
	for _, key := range []string{
		"MEETINGAI_SIDECAR_HOST", "MEETINGAI_SIDECAR_PORT", "MEETINGAI_STREAM_PATH",
		"MEETINGAI_MINUTES_PATH", "MEETINGAI_RECONNECT_DELAY_MS", "MEETINGAI_HANDSHAKE_TIMEOUT_MS",
		"MEETINGAI_MINUTES_TIMEOUT_MS", "MEETINGAI_CAPTURE_COMMAND", "MEETINGAI_CAPTURE_ARGS",
		"MEETINGAI_CAPTURE_DIR", "MEETINGAI_LOG_LEVEL", "MEETINGAI_LOG_FORMAT", "MEETINGAI_LOG_FILE",
		"MEETINGAI_SIMULATOR_INTERVAL_MS",
	} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "ws://127.0.0.1:1234/ws", cfg.StreamURL())
	require.Equal(t, "http://127.0.0.1:1234/generate-minutes", cfg.MinutesURL())
	require.Equal(t, 3*time.Second, cfg.Stream.ReconnectDelay)
	require.Equal(t, 60*time.Second, cfg.Minutes.Timeout)
	require.Empty(t, cfg.Capture.Command)
	require.Equal(t, "console", cfg.Log.Format)
	require.Equal(t, filepath.Join(home, ".local", "state", "meetingai", "log.jsonl"), cfg.Log.File)
	require.Empty(t, cfg.Source)
}

func TestLoadReadsTOMLFromXDGConfigHome(t *testing.T) {
	home := isolate(t)
	configHome := filepath.Join(home, "xdg")
	t.Setenv("XDG_CONFIG_HOME", configHome)

	path := filepath.Join(configHome, "meetingai", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`
[sidecar]
port = 8800
minutes_path = "summarize"

[stream]
reconnect_delay = "5s"

[capture]
command = "python"
args = ["../backend/main.py"]
dir = "/srv/backend"
`), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, path, cfg.Source)
	require.Equal(t, "http://127.0.0.1:8800/summarize", cfg.MinutesURL())
	require.Equal(t, "ws://127.0.0.1:8800/ws", cfg.StreamURL())
	require.Equal(t, 5*time.Second, cfg.Stream.ReconnectDelay)
	require.Equal(t, CaptureConfig{Command: "python", Args: []string{"../backend/main.py"}, Dir: "/srv/backend"}, cfg.Capture)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sidecar]\nhost = \"10.0.0.2\"\nport = 9000\n"), 0o600))

	t.Setenv("MEETINGAI_CONFIG", path)
	t.Setenv("MEETINGAI_SIDECAR_PORT", "9100")
	t.Setenv("MEETINGAI_RECONNECT_DELAY_MS", "250")
	t.Setenv("MEETINGAI_MINUTES_TIMEOUT_MS", "1500")
	t.Setenv("MEETINGAI_CAPTURE_COMMAND", "api-server")
	t.Setenv("MEETINGAI_CAPTURE_ARGS", "--port 9100")
	t.Setenv("MEETINGAI_LOG_LEVEL", "DEBUG")
	t.Setenv("MEETINGAI_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "10.0.0.2:9100", cfg.Addr())
	require.Equal(t, 250*time.Millisecond, cfg.Stream.ReconnectDelay)
	require.Equal(t, 1500*time.Millisecond, cfg.Minutes.Timeout)
	require.Equal(t, "api-server", cfg.Capture.Command)
	require.Equal(t, []string{"--port", "9100"}, cfg.Capture.Args)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	home := isolate(t)
	envFile := filepath.Join(home, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MEETINGAI_TEST_DOTENV_PATH=/from-dotenv\nMEETINGAI_SIDECAR_HOST=10.1.1.1\n"), 0o600))
	t.Setenv("MEETINGAI_ENV_FILE", envFile)
	t.Setenv("MEETINGAI_SIDECAR_HOST", "localhost")
	t.Cleanup(func() { _ = os.Unsetenv("MEETINGAI_TEST_DOTENV_PATH") })

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "/from-dotenv", os.Getenv("MEETINGAI_TEST_DOTENV_PATH"))
	require.Equal(t, "localhost:1234", cfg.Addr())
}

func TestLoadInvalidValuesFallback(t *testing.T) {
	isolate(t)
	t.Setenv("MEETINGAI_SIDECAR_PORT", "bad")
	t.Setenv("MEETINGAI_RECONNECT_DELAY_MS", "-5")
	t.Setenv("MEETINGAI_HANDSHAKE_TIMEOUT_MS", "soon")
	t.Setenv("MEETINGAI_STREAM_PATH", "stream")
	t.Setenv("MEETINGAI_LOG_FORMAT", "xml")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, DefaultSidecarPort, cfg.Sidecar.Port)
	require.Equal(t, DefaultReconnectDelay, cfg.Stream.ReconnectDelay)
	require.Equal(t, DefaultHandshake, cfg.Stream.HandshakeTimeout)
	require.Equal(t, "/stream", cfg.Sidecar.StreamPath)
	require.Equal(t, "console", cfg.Log.Format)
}

func TestLoadExplicitConfigMustExist(t *testing.T) {
	home := isolate(t)
	t.Setenv("MEETINGAI_CONFIG", filepath.Join(home, "nope.toml"))

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config")
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sidecar\nport = "), 0o600))
	t.Setenv("MEETINGAI_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
}
