package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appLog "waktusholat/internal/log"
	"waktusholat/internal/model"
	"waktusholat/internal/notify"
	"waktusholat/internal/praytime"
)

// NOTE: Load creates the file with defaults on first run; Save always writes
// atomically with 0600 permissions.

const (
	DefaultCooldown     = time.Second
	DefaultCalendarDays = 30
	DefaultLogLevel     = "info"
)

// NotificationConfig controls how a prayer alert is delivered.
type NotificationConfig struct {
	// Desktop toggles the local desktop notification.
	Desktop bool `yaml:"desktop" json:"desktop"`
	// Summary and Body are templates; "{prayer}" is replaced by the prayer name.
	Summary string `yaml:"summary" json:"summary"`
	Body    string `yaml:"body" json:"body"`
	// URLs are shoutrrr service URLs that receive every alert as well.
	URLs []string `yaml:"urls" json:"urls"`
	// Cooldown is the pause after each alert. A negative value disables it.
	Cooldown time.Duration `yaml:"cooldown" json:"cooldown"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the status server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	// File, when set, receives a rotated copy of the log.
	File string `yaml:"file" json:"file"`
}

// Config is the top-level application configuration.
type Config struct {
	// Method names the twilight angle convention (see praytime.MethodNames).
	Method string `yaml:"method" json:"method"`
	// Madhab selects the Asr shadow factor: "shafi" or "hanafi".
	Madhab string `yaml:"madhab" json:"madhab"`
	// HighLatitudeRule adjusts Fajr and Isha where twilight never ends.
	HighLatitudeRule string `yaml:"high_latitude_rule" json:"high_latitude_rule"`

	Notification NotificationConfig `yaml:"notification" json:"notification"`

	// Listen is the status HTTP server address. Empty disables the server.
	Listen string `yaml:"listen" json:"listen"`

	// BasicAuth, if non-nil, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Log LogConfig `yaml:"log" json:"log"`

	// CalendarDays is the number of days covered by the calendar feed and export.
	CalendarDays int `yaml:"calendar_days" json:"calendar_days"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Method:           praytime.DefaultMethod,
		Madhab:           praytime.MadhabShafi,
		HighLatitudeRule: praytime.DefaultHighLatRule,
		Notification: NotificationConfig{
			Desktop:  true,
			Summary:  notify.DefaultSummary,
			Body:     notify.DefaultBody,
			URLs:     []string{},
			Cooldown: DefaultCooldown,
		},
		Log:          LogConfig{Level: DefaultLogLevel},
		CalendarDays: DefaultCalendarDays,
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly. Unknown enum values are kept for Validate to report.
func (c *Config) Normalize() {
	c.Method = strings.ToLower(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = praytime.DefaultMethod
	}
	c.Madhab = strings.ToLower(strings.TrimSpace(c.Madhab))
	if c.Madhab == "" {
		c.Madhab = praytime.MadhabShafi
	}
	c.HighLatitudeRule = strings.ToLower(strings.TrimSpace(c.HighLatitudeRule))
	if c.HighLatitudeRule == "" {
		c.HighLatitudeRule = praytime.DefaultHighLatRule
	}

	if c.Notification.Summary == "" {
		c.Notification.Summary = notify.DefaultSummary
	}
	if c.Notification.Body == "" {
		c.Notification.Body = notify.DefaultBody
	}
	if c.Notification.URLs == nil {
		c.Notification.URLs = []string{}
	}
	if c.Notification.Cooldown == 0 {
		c.Notification.Cooldown = DefaultCooldown
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.CalendarDays <= 0 {
		c.CalendarDays = DefaultCalendarDays
	}
}

// Validate reports the first setting the calculator or logger would reject.
// Errors wrap model.ErrConfiguration.
func (c *Config) Validate() error {
	if _, err := praytime.LookupMethod(c.Method); err != nil {
		return fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	switch c.Madhab {
	case praytime.MadhabShafi, praytime.MadhabHanafi:
	default:
		return fmt.Errorf("%w: unknown madhab %q", model.ErrConfiguration, c.Madhab)
	}
	if !praytime.ValidHighLatRule(c.HighLatitudeRule) {
		return fmt.Errorf("%w: unknown high latitude rule %q", model.ErrConfiguration, c.HighLatitudeRule)
	}
	if !appLog.ValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: unknown log level %q", model.ErrConfiguration, c.Log.Level)
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		return fmt.Errorf("%w: basic_auth needs both username and password", model.ErrConfiguration)
	}
	return nil
}

// Calc returns the calculation parameters for the prayer time provider.
func (c *Config) Calc() model.CalcConfig {
	return model.CalcConfig{
		Method:           c.Method,
		Madhab:           c.Madhab,
		HighLatitudeRule: c.HighLatitudeRule,
	}
}

// Template returns the notification templates.
func (c *Config) Template() notify.Template {
	return notify.Template{Summary: c.Notification.Summary, Body: c.Notification.Body}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating the parent directory) and returned.
//   - Otherwise the YAML is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Still usable; the caller decides whether a read-only home is fatal.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", model.ErrConfiguration, path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically via a temp file + rename in the same
// directory. The parent directory is created with 0700.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".waktusholat-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// DefaultPath is $XDG_CONFIG_HOME/waktusholat/config.yaml, or the same under
// the platform's user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "waktusholat.yaml"
	}
	return filepath.Join(dir, "waktusholat", "config.yaml")
}
