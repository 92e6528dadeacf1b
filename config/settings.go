package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Application identity used for file and variable names.
const (
	AppName         = "reviewdesk"
	EnvPrefix       = "REVIEWDESK_"
	LocalConfigName = ".reviewdesk.yaml"
)

// Configuration keys.
const (
	KeyAPIBase          = "api_base"
	KeyAuthURL          = "auth_url"
	KeyClientID         = "client_id"
	KeyTimeout          = "timeout"
	KeyRetries          = "retries"
	KeyStateDir         = "state_dir"
	KeyToken            = "token"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeyNotifyWebhookURL = "notify_webhook_url"
	KeySlackWebhookURL  = "slack_webhook_url"
	KeySlackChannel     = "slack_channel"
	KeyNoColor          = "no_color"
)

// Defaults returns the built-in value for every key. Every key must be
// present, even when empty, so its environment variable is consulted.
func Defaults() map[string]string {
	return map[string]string{
		KeyAPIBase:          "http://localhost:8000",
		KeyAuthURL:          "",
		KeyClientID:         AppName,
		KeyTimeout:          "30s",
		KeyRetries:          "3",
		KeyStateDir:         "",
		KeyToken:            "",
		KeyLogLevel:         "info",
		KeyLogFormat:        "text",
		KeyNotifyWebhookURL: "",
		KeySlackWebhookURL:  "",
		KeySlackChannel:     "",
		KeyNoColor:          "false",
	}
}

// GlobalKeys lists the keys allowed in the global config file.
func GlobalKeys() []string {
	return []string{
		KeyAPIBase, KeyAuthURL, KeyClientID, KeyTimeout, KeyRetries, KeyStateDir,
		KeyToken, KeyLogLevel, KeyLogFormat, KeyNotifyWebhookURL, KeySlackWebhookURL,
		KeySlackChannel, KeyNoColor,
	}
}

// LocalKeys lists the keys allowed in the repository-local config file.
// Secrets and per-user paths are excluded because the file is shared.
func LocalKeys() []string {
	return []string{
		KeyAPIBase, KeyAuthURL, KeyClientID, KeyTimeout, KeyRetries,
		KeyLogLevel, KeyLogFormat, KeySlackChannel,
	}
}

// DefaultResolver returns the resolver for this application: global and
// local YAML, then .env in the working directory, then REVIEWDESK_ variables.
func DefaultResolver() *Resolver {
	return NewResolver(ResolverConfig{
		EnvPrefix:       EnvPrefix,
		GlobalConfigDir: AppName,
		LocalConfigName: LocalConfigName,
		DotEnvFiles:     []string{".env"},
		Defaults:        Defaults(),
		ValidGlobalKeys: GlobalKeys(),
		ValidLocalKeys:  LocalKeys(),
	})
}

// DefaultSaver returns the SaveConfig matching DefaultResolver.
func DefaultSaver() SaveConfig {
	return SaveConfig{
		GlobalConfigDir: AppName,
		LocalConfigName: LocalConfigName,
		ValidGlobalKeys: GlobalKeys(),
		ValidLocalKeys:  LocalKeys(),
	}
}

// Settings is the validated, typed view of a Resolved config.
type Settings struct {
	APIBase  string
	AuthURL  string
	ClientID string
	Timeout  time.Duration
	Retries  int
	StateDir string

	// Token is a bearer credential supplied by configuration. It takes
	// precedence over one stored by login.
	Token string

	LogLevel  slog.Level
	LogFormat string

	NotifyWebhookURL string
	SlackWebhookURL  string
	SlackChannel     string

	NoColor bool
}

// Load validates r and converts it to Settings.
func Load(r *Resolved) (Settings, error) {
	s := Settings{
		ClientID:         r.Get(KeyClientID),
		Token:            r.Get(KeyToken),
		NotifyWebhookURL: r.Get(KeyNotifyWebhookURL),
		SlackWebhookURL:  r.Get(KeySlackWebhookURL),
		SlackChannel:     r.Get(KeySlackChannel),
	}

	base, err := httpURL(KeyAPIBase, r.Get(KeyAPIBase))
	if err != nil {
		return Settings{}, err
	}
	s.APIBase = strings.TrimSuffix(base, "/")

	s.AuthURL = r.Get(KeyAuthURL)
	if s.AuthURL == "" {
		s.AuthURL = s.APIBase + "/auth/token"
	} else if _, err := httpURL(KeyAuthURL, s.AuthURL); err != nil {
		return Settings{}, err
	}

	if s.Timeout, err = time.ParseDuration(r.Get(KeyTimeout)); err != nil || s.Timeout <= 0 {
		return Settings{}, fmt.Errorf("%s: %q is not a positive duration", KeyTimeout, r.Get(KeyTimeout))
	}
	if s.Retries, err = strconv.Atoi(r.Get(KeyRetries)); err != nil || s.Retries < 1 {
		return Settings{}, fmt.Errorf("%s: %q is not a positive integer", KeyRetries, r.Get(KeyRetries))
	}

	if err := s.LogLevel.UnmarshalText([]byte(r.Get(KeyLogLevel))); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	s.LogFormat = strings.ToLower(r.Get(KeyLogFormat))
	if s.LogFormat != "text" && s.LogFormat != "json" {
		return Settings{}, fmt.Errorf("%s: %q must be text or json", KeyLogFormat, r.Get(KeyLogFormat))
	}

	if v := r.Get(KeyNoColor); v != "" {
		if s.NoColor, err = strconv.ParseBool(v); err != nil {
			return Settings{}, fmt.Errorf("%s: %q is not a boolean", KeyNoColor, v)
		}
	}

	if s.StateDir, err = stateDir(r.Get(KeyStateDir)); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// NewLogger builds the slog logger described by the settings.
func (s Settings) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel}
	if s.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func httpURL(key, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%s: %q must be an http or https URL", key, raw)
	}
	return raw, nil
}

func stateDir(raw string) (string, error) {
	home, herr := os.UserHomeDir()
	switch {
	case raw == "":
		if herr != nil {
			return "", fmt.Errorf("%s: %w", KeyStateDir, herr)
		}
		return filepath.Join(home, ".config", AppName, "state"), nil
	case raw == "~" || strings.HasPrefix(raw, "~/"):
		if herr != nil {
			return "", fmt.Errorf("%s: %w", KeyStateDir, herr)
		}
		return filepath.Join(home, strings.TrimPrefix(raw, "~")), nil
	}
	return raw, nil
}
