package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// File names read by Load.
const (
	GlobalFile  = "config.yaml"
	ProjectFile = ".autocommit.yaml"
	EnvPrefix   = "AUTOCOMMIT"
)

// Setting keys. Flags with the same name (dashes for underscores) override them.
const (
	KeyAPIKey            = "api_key"
	KeyModel             = "model"
	KeyProvider          = "provider"
	KeyBaseURL           = "base_url"
	KeyAutoSync          = "auto_sync"
	KeyIgnore            = "ignore"
	KeyIgnoreFile        = "ignore_file"
	KeyConcurrency       = "concurrency"
	KeyRequestsPerSecond = "requests_per_second"
	KeyTimeout           = "timeout"
)

// Defaults for settings with no configured value.
const (
	DefaultIgnoreFile  = ".gitignore"
	DefaultConcurrency = 4
	DefaultTimeout     = 60 * time.Second
)

// Config is the effective autocommit configuration.
type Config struct {
	APIKey            string        `json:"api_key"`
	Model             string        `json:"model"`
	Provider          string        `json:"provider"`
	BaseURL           string        `json:"base_url"`
	AutoSync          bool          `json:"auto_sync"`
	Ignore            []string      `json:"ignore"`
	IgnoreFile        string        `json:"ignore_file"`
	Concurrency       int           `json:"concurrency"`
	RequestsPerSecond float64       `json:"requests_per_second"`
	Timeout           time.Duration `json:"timeout"`

	// Sources lists the config files that were merged, lowest priority first.
	Sources []string `json:"sources"`
}

// Load layers defaults, the global config file, the project config file,
// AUTOCOMMIT_* environment variables and changed flags, in that order.
// Missing files are skipped. flags may be nil.
func Load(repoRoot string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	var sources []string
	files := []string{}
	if dir := Dir(); dir != "" {
		files = append(files, filepath.Join(dir, GlobalFile))
	}
	if repoRoot != "" {
		files = append(files, filepath.Join(repoRoot, ProjectFile))
	}
	for _, file := range files {
		merged, err := mergeFile(v, file)
		if err != nil {
			return nil, err
		}
		if merged {
			sources = append(sources, file)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		APIKey:            v.GetString(KeyAPIKey),
		Model:             v.GetString(KeyModel),
		Provider:          v.GetString(KeyProvider),
		BaseURL:           v.GetString(KeyBaseURL),
		AutoSync:          v.GetBool(KeyAutoSync),
		Ignore:            v.GetStringSlice(KeyIgnore),
		IgnoreFile:        v.GetString(KeyIgnoreFile),
		Concurrency:       v.GetInt(KeyConcurrency),
		RequestsPerSecond: v.GetFloat64(KeyRequestsPerSecond),
		Timeout:           v.GetDuration(KeyTimeout),
		Sources:           sources,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeyProvider, "")
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyAutoSync, false)
	v.SetDefault(KeyIgnore, []string{})
	v.SetDefault(KeyIgnoreFile, DefaultIgnoreFile)
	v.SetDefault(KeyConcurrency, DefaultConcurrency)
	v.SetDefault(KeyRequestsPerSecond, 0.0)
	v.SetDefault(KeyTimeout, DefaultTimeout)
}

// mergeFile merges a YAML file into v. It reports false for a missing file.
func mergeFile(v *viper.Viper, path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking config file %s: %w", path, err)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.MergeInConfig(); err != nil {
		return false, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return true, nil
}

// bindFlags binds each flag whose name maps to a setting key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	known := map[string]bool{}
	for _, key := range Keys() {
		known[key] = true
	}

	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !known[key] || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("binding flag --%s: %w", f.Name, err)
		}
	})
	return bindErr
}

func (c *Config) validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyConcurrency, c.Concurrency)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("%s must not be negative, got %g", KeyRequestsPerSecond, c.RequestsPerSecond)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%s must not be negative, got %s", KeyTimeout, c.Timeout)
	}
	if c.IgnoreFile == "" {
		c.IgnoreFile = DefaultIgnoreFile
	}
	return nil
}

// Keys lists every setting key in display order.
func Keys() []string {
	return []string{
		KeyProvider, KeyModel, KeyAPIKey, KeyBaseURL, KeyAutoSync,
		KeyIgnore, KeyIgnoreFile, KeyConcurrency, KeyRequestsPerSecond, KeyTimeout,
	}
}

// Redacted returns a copy with the credential masked, for display.
func (c *Config) Redacted() Config {
	out := *c
	out.APIKey = redact(c.APIKey)
	return out
}

func redact(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "****"
	default:
		return secret[:4] + "****" + secret[len(secret)-4:]
	}
}
