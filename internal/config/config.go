package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const appName = "stripnbsp"

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// SetConfigFile upstream takes precedence over the search paths.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, appName))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// STRIPNBSP_GLAMOUR_STYLE etc.
	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(v.GetString("cache.path")) == "" {
		v.Set("cache.path", defaultCachePath())
	}
	return nil
}

// defaultCachePath resolves $XDG_CACHE_HOME/stripnbsp/cache.db or ~/.cache/stripnbsp/cache.db.
func defaultCachePath() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, appName, "cache.db")
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, appName, "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GlamourStyles are the standard glamour styles accepted by glamour.style.
var GlamourStyles = []string{"auto", "ascii", "dark", "dracula", "light", "notty", "pink", "tokyo-night"}

var outputModes = []string{"plain", "json", "ndjson"}

// GetConfigOptions returns the default configuration options and their meanings.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "printer", Default: "markdown", Comment: "Printer for fmt: markdown (rewrite source), html or ansi"},
		{Key: "parser", Default: "", Comment: "Force a parser instead of choosing by file extension"},
		{Key: "output", Default: "plain", Comment: "Report format for fmt --check/--list and languages: plain, json, ndjson"},
		{Key: "jobs", Default: 0, Comment: "Files formatted in parallel; 0 means one per CPU"},
		{Key: "gfm", Default: true, Comment: "Enable GitHub Flavored Markdown extensions in the parser"},

		{Key: "html.unsafe", Default: false, Comment: "Pass raw HTML through the html printer"},
		{Key: "glamour.style", Default: "auto", Comment: "Style for the ansi printer and preview"},
		{Key: "glamour.word_wrap", Default: 80, Comment: "Wrap width for the ansi printer; 0 disables wrapping"},
		{Key: "cache.enabled", Default: false, Comment: "Skip files that were already formatted and have not changed"},
		{Key: "cache.path", Default: "", Comment: "SQLite cache file; empty means $XDG_CACHE_HOME/stripnbsp/cache.db"},
		{Key: "log.level", Default: "warn", Comment: "Log level: debug, info, warn, error"},
	}
}

// LogLevel maps log.level onto slog levels.
func LogLevel(v *viper.Viper) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return slog.LevelWarn
	}
	return lvl
}

// CheckConfigValidity reports every invalid option at once.
func CheckConfigValidity(v *viper.Viper) error {
	var errs []error
	if strings.TrimSpace(v.GetString("printer")) == "" {
		errs = append(errs, errors.New("printer is required"))
	}
	if out := v.GetString("output"); !slices.Contains(outputModes, out) {
		errs = append(errs, fmt.Errorf("output must be one of %s, got %q", strings.Join(outputModes, ", "), out))
	}
	if v.GetInt("jobs") < 0 {
		errs = append(errs, errors.New("jobs must not be negative"))
	}
	if style := v.GetString("glamour.style"); !slices.Contains(GlamourStyles, style) {
		errs = append(errs, fmt.Errorf("glamour.style %q is not a standard style", style))
	}
	if v.GetInt("glamour.word_wrap") < 0 {
		errs = append(errs, errors.New("glamour.word_wrap must not be negative"))
	}
	if v.GetBool("cache.enabled") && strings.TrimSpace(v.GetString("cache.path")) == "" {
		errs = append(errs, errors.New("cache.path is required when cache.enabled is set"))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		errs = append(errs, fmt.Errorf("log.level %q is invalid", v.GetString("log.level")))
	}
	return errors.Join(errs...)
}
