package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultSidecarHost    = "127.0.0.1"
	DefaultSidecarPort    = 1234
	DefaultStreamPath     = "/ws"
	DefaultMinutesPath    = "/generate-minutes"
	DefaultReconnectDelay = 3 * time.Second
	DefaultHandshake      = 10 * time.Second
	DefaultMinutesTimeout = 60 * time.Second
	DefaultSimInterval    = 400 * time.Millisecond
)

// Config stores runtime configuration for the live session manager.
type Config struct {
	Sidecar   SidecarConfig   `toml:"sidecar"`
	Stream    StreamConfig    `toml:"stream"`
	Minutes   MinutesConfig   `toml:"minutes"`
	Capture   CaptureConfig   `toml:"capture"`
	Log       LogConfig       `toml:"log"`
	Simulator SimulatorConfig `toml:"simulator"`

	// Source is the config file that was applied, if any.
	Source string `toml:"-"`
}

type SidecarConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	StreamPath  string `toml:"stream_path"`
	MinutesPath string `toml:"minutes_path"`
}

type StreamConfig struct {
	ReconnectDelay   time.Duration `toml:"reconnect_delay"`
	HandshakeTimeout time.Duration `toml:"handshake_timeout"`
}

type MinutesConfig struct {
	Timeout time.Duration `toml:"timeout"`
}

// CaptureConfig describes the sidecar process that owns the microphone. An
// empty Command means the sidecar is managed outside this process.
type CaptureConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Dir     string   `toml:"dir"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

type SimulatorConfig struct {
	Interval time.Duration `toml:"interval"`
}

// Load resolves configuration from defaults, the TOML config file, a .env
// file in the working directory and MEETINGAI_* environment variables, in
// increasing order of precedence.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	if err := loadDotEnv(envOrDefault("MEETINGAI_ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	cfg := Defaults(home)

	path, explicit := configPath(home)
	if err := applyFile(&cfg, path, explicit); err != nil {
		return Config{}, err
	}

	cfg.Sidecar = SidecarConfig{
		Host:        envOrDefault("MEETINGAI_SIDECAR_HOST", cfg.Sidecar.Host),
		Port:        envOrDefaultInt("MEETINGAI_SIDECAR_PORT", cfg.Sidecar.Port),
		StreamPath:  envOrDefault("MEETINGAI_STREAM_PATH", cfg.Sidecar.StreamPath),
		MinutesPath: envOrDefault("MEETINGAI_MINUTES_PATH", cfg.Sidecar.MinutesPath),
	}
	cfg.Stream = StreamConfig{
		ReconnectDelay:   envOrDefaultMillis("MEETINGAI_RECONNECT_DELAY_MS", cfg.Stream.ReconnectDelay),
		HandshakeTimeout: envOrDefaultMillis("MEETINGAI_HANDSHAKE_TIMEOUT_MS", cfg.Stream.HandshakeTimeout),
	}
	cfg.Minutes.Timeout = envOrDefaultMillis("MEETINGAI_MINUTES_TIMEOUT_MS", cfg.Minutes.Timeout)
	cfg.Capture = CaptureConfig{
		Command: envOrDefault("MEETINGAI_CAPTURE_COMMAND", cfg.Capture.Command),
		Args:    envOrDefaultFields("MEETINGAI_CAPTURE_ARGS", cfg.Capture.Args),
		Dir:     envOrDefault("MEETINGAI_CAPTURE_DIR", cfg.Capture.Dir),
	}
	cfg.Log = LogConfig{
		Level:  strings.ToLower(envOrDefault("MEETINGAI_LOG_LEVEL", cfg.Log.Level)),
		Format: strings.ToLower(envOrDefault("MEETINGAI_LOG_FORMAT", cfg.Log.Format)),
		File:   envOrDefault("MEETINGAI_LOG_FILE", cfg.Log.File),
	}
	cfg.Simulator.Interval = envOrDefaultMillis("MEETINGAI_SIMULATOR_INTERVAL_MS", cfg.Simulator.Interval)

	normalize(&cfg)
	return cfg, nil
}

// Defaults returns the built-in configuration for the given home directory.
func Defaults(home string) Config {
	return Config{
		Sidecar: SidecarConfig{
			Host:        DefaultSidecarHost,
			Port:        DefaultSidecarPort,
			StreamPath:  DefaultStreamPath,
			MinutesPath: DefaultMinutesPath,
		},
		Stream: StreamConfig{
			ReconnectDelay:   DefaultReconnectDelay,
			HandshakeTimeout: DefaultHandshake,
		},
		Minutes: MinutesConfig{Timeout: DefaultMinutesTimeout},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File:   filepath.Join(xdgDir("XDG_STATE_HOME", home, ".local", "state"), "meetingai", "log.jsonl"),
		},
		Simulator: SimulatorConfig{Interval: DefaultSimInterval},
	}
}

// Addr is the sidecar's host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Sidecar.Host, strconv.Itoa(c.Sidecar.Port))
}

func (c Config) StreamURL() string {
	return "ws://" + c.Addr() + c.Sidecar.StreamPath
}

func (c Config) MinutesURL() string {
	return "http://" + c.Addr() + c.Sidecar.MinutesPath
}

func normalize(cfg *Config) {
	if cfg.Sidecar.Port <= 0 || cfg.Sidecar.Port > 65535 {
		cfg.Sidecar.Port = DefaultSidecarPort
	}
	cfg.Sidecar.StreamPath = withLeadingSlash(cfg.Sidecar.StreamPath, DefaultStreamPath)
	cfg.Sidecar.MinutesPath = withLeadingSlash(cfg.Sidecar.MinutesPath, DefaultMinutesPath)
	if cfg.Stream.ReconnectDelay <= 0 {
		cfg.Stream.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Stream.HandshakeTimeout <= 0 {
		cfg.Stream.HandshakeTimeout = DefaultHandshake
	}
	if cfg.Minutes.Timeout <= 0 {
		cfg.Minutes.Timeout = DefaultMinutesTimeout
	}
	if cfg.Simulator.Interval <= 0 {
		cfg.Simulator.Interval = DefaultSimInterval
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		cfg.Log.Format = "console"
	}
}

func configPath(home string) (string, bool) {
	if path := strings.TrimSpace(os.Getenv("MEETINGAI_CONFIG")); path != "" {
		return path, true
	}
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", home, ".config"), "meetingai", "config.toml"), false
}

func applyFile(cfg *Config, path string, explicit bool) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg.Source = path
	return nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func xdgDir(key string, home string, fallback ...string) string {
	if dir := strings.TrimSpace(os.Getenv(key)); dir != "" {
		return dir
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

func withLeadingSlash(path string, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return fallback
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultMillis(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}

func envOrDefaultFields(key string, fallback []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return strings.Fields(value)
}
