package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kindredapp/kindred/internal/websocket"
	"github.com/kindredapp/kindred/pkg/logger"
)

// Environment variables read by Load.
const (
	EnvServerURL  = "KINDRED_SERVER_URL"
	EnvHome       = "KINDRED_HOME"
	EnvLogLevel   = "KINDRED_LOG_LEVEL"
	EnvDebugAddr  = "KINDRED_DEBUG_ADDR"
	EnvSocketPath = "KINDRED_SOCKET_PATH"
	EnvTransport  = "KINDRED_TRANSPORT"
)

// Flag names registered by BindFlags.
const (
	FlagServerURL         = "server-url"
	FlagHome              = "home"
	FlagLogLevel          = "log-level"
	FlagDebugAddr         = "debug-addr"
	FlagSocketPath        = "socket-path"
	FlagTransport         = "transport"
	FlagReconnectAttempts = "reconnect-attempts"
)

const (
	defaultServerURL  = "http://localhost:3000"
	defaultSocketPath = "/socket.io/"
	defaultLogLevel   = "info"

	configFileName = "config.yaml"
	profileName    = "profile.json"
	widgetDBName   = "widget.db"
)

// Reconnect mirrors the transport's automatic reconnection settings.
type Reconnect struct {
	// Attempts is the number of reconnection attempts. 0 disables
	// automatic reconnection.
	Attempts int `yaml:"attempts"`
	// Delay is the initial delay between attempts.
	Delay time.Duration `yaml:"delay"`
	// DelayMax caps the backoff between attempts.
	DelayMax time.Duration `yaml:"delay_max"`
}

// Config is the resolved client configuration. The YAML-tagged fields can be
// set in <home>/config.yaml; the path fields are derived from Home.
type Config struct {
	// ServerURL is the base URL of the kindred realtime server.
	ServerURL string `yaml:"server_url"`
	// SocketPath is the Socket.IO endpoint path on the server.
	SocketPath string `yaml:"socket_path"`
	// Transport is the preferred transport (websocket|polling).
	Transport string `yaml:"transport"`
	// Reconnect configures automatic reconnection.
	Reconnect Reconnect `yaml:"reconnect"`

	// LogLevel is the logger threshold (trace|debug|info|warn|error).
	LogLevel string `yaml:"log_level"`
	// DebugAddr is the listen address of the debug server. Empty disables it.
	DebugAddr string `yaml:"debug_addr"`

	// Home is the directory where kindred stores local state.
	Home string `yaml:"-"`
	// ProfilePath is the signed-in user's profile file.
	ProfilePath string `yaml:"-"`
	// WidgetDBPath is the widget scribble database.
	WidgetDBPath string `yaml:"-"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// Flags holds flags registered with BindFlags. Only flags the user set
	// override other sources.
	Flags *pflag.FlagSet
	// EnvFile is the dotenv file to read. Defaults to ".env"; a missing file
	// is ignored.
	EnvFile string
	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
	// UserHomeDir resolves the default home. Defaults to os.UserHomeDir.
	UserHomeDir func() (string, error)
}

// Default returns the built-in configuration rooted at home.
func Default(home string) *Config {
	policy := websocket.DefaultReconnectPolicy()
	c := &Config{
		ServerURL:  defaultServerURL,
		SocketPath: defaultSocketPath,
		Transport:  string(websocket.TransportWebSocket),
		Reconnect: Reconnect{
			Attempts: policy.Attempts,
			Delay:    policy.Delay,
			DelayMax: policy.DelayMax,
		},
		LogLevel: defaultLogLevel,
	}
	c.setHome(home)
	return c
}

func (c *Config) setHome(home string) {
	c.Home = home
	c.ProfilePath = filepath.Join(home, profileName)
	c.WidgetDBPath = filepath.Join(home, widgetDBName)
}

// Load builds the configuration from, in increasing precedence: defaults,
// <home>/config.yaml, the dotenv file, the environment, and flags. The home
// directory is created if needed.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile == "" {
		opts.EnvFile = ".env"
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.UserHomeDir == nil {
		opts.UserHomeDir = os.UserHomeDir
	}

	dotenv, err := readDotEnv(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	env := func(key string) (string, bool) {
		if v, ok := opts.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	home, err := resolveHome(opts, env)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(home, 0700); err != nil {
		return nil, fmt.Errorf("failed to create kindred home: %w", err)
	}

	cfg := Default(home)
	if err := cfg.readFile(filepath.Join(home, configFileName)); err != nil {
		return nil, err
	}

	applyEnv(cfg, env)
	if err := applyFlags(cfg, opts.Flags); err != nil {
		return nil, err
	}
	cfg.setHome(home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readDotEnv(path string) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return vals, nil
}

func resolveHome(opts Options, env func(string) (string, bool)) (string, error) {
	if opts.Flags != nil && opts.Flags.Changed(FlagHome) {
		home, err := opts.Flags.GetString(FlagHome)
		if err != nil {
			return "", err
		}
		if home != "" {
			return home, nil
		}
	}
	if home, ok := env(EnvHome); ok {
		return home, nil
	}
	userHome, err := opts.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(userHome, ".kindred"), nil
}

// readFile overlays the YAML file at path. A missing file is not an error.
func (c *Config) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error opening config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("error decoding %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config, env func(string) (string, bool)) {
	if v, ok := env(EnvServerURL); ok {
		c.ServerURL = v
	}
	if v, ok := env(EnvSocketPath); ok {
		c.SocketPath = v
	}
	if v, ok := env(EnvTransport); ok {
		c.Transport = v
	}
	if v, ok := env(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := env(EnvDebugAddr); ok {
		c.DebugAddr = v
	}
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String(FlagServerURL, defaultServerURL, "realtime server URL")
	fs.String(FlagHome, "", "directory for local state (default ~/.kindred)")
	fs.StringP(FlagLogLevel, "l", defaultLogLevel, "log level (trace|debug|info|warn|error)")
	fs.String(FlagDebugAddr, "", "debug server listen address, e.g. 127.0.0.1:6060")
	fs.String(FlagSocketPath, defaultSocketPath, "Socket.IO endpoint path")
	fs.String(FlagTransport, string(websocket.TransportWebSocket), "transport (websocket|polling)")
	fs.Int(FlagReconnectAttempts, websocket.DefaultReconnectPolicy().Attempts, "reconnection attempts, 0 disables")
}

func applyFlags(c *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	strs := map[string]*string{
		FlagServerURL:  &c.ServerURL,
		FlagLogLevel:   &c.LogLevel,
		FlagDebugAddr:  &c.DebugAddr,
		FlagSocketPath: &c.SocketPath,
		FlagTransport:  &c.Transport,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if fs.Changed(FlagReconnectAttempts) {
		n, err := fs.GetInt(FlagReconnectAttempts)
		if err != nil {
			return err
		}
		c.Reconnect.Attempts = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", c.ServerURL, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("invalid server URL %q (expected http, https, ws or wss)", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server URL %q: missing host", c.ServerURL)
	}
	switch websocket.Transport(c.Transport) {
	case websocket.TransportWebSocket, websocket.TransportPolling:
	default:
		return fmt.Errorf("invalid transport %q (expected websocket or polling)", c.Transport)
	}
	if c.Reconnect.Attempts < 0 {
		return fmt.Errorf("invalid reconnect attempts %d", c.Reconnect.Attempts)
	}
	if c.Reconnect.Delay < 0 || c.Reconnect.Delay > c.Reconnect.DelayMax {
		return fmt.Errorf("invalid reconnect delay %s (max %s)", c.Reconnect.Delay, c.Reconnect.DelayMax)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// Level returns the parsed log level. Validate has already accepted it.
func (c *Config) Level() logger.Level {
	lvl, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelInfo
	}
	return lvl
}

// Socket returns transport options for the configured server. The user id is
// filled in per connection.
func (c *Config) Socket() websocket.Options {
	return websocket.Options{
		ServerURL: c.ServerURL,
		Path:      c.SocketPath,
		Transport: websocket.Transport(c.Transport),
		Reconnect: websocket.ReconnectPolicy{
			Enabled:  c.Reconnect.Attempts > 0,
			Attempts: c.Reconnect.Attempts,
			Delay:    c.Reconnect.Delay,
			DelayMax: c.Reconnect.DelayMax,
		},
	}
}
