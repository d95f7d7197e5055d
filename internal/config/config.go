// Package config resolves run settings from flags, environment and an
// optional config file through viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. LIBCAT_GITHUB_REPO.
const EnvPrefix = "LIBCAT"

// Config is the resolved configuration of one run.
type Config struct {
	Output       string            `mapstructure:"output"`
	Target       string            `mapstructure:"target"`
	Root         string            `mapstructure:"root"`
	MetadataFile string            `mapstructure:"metadata_file"`
	GitHub       GitHubConfig      `mapstructure:"github"`
	Concurrency  ConcurrencyConfig `mapstructure:"concurrency"`
	Snapshot     SnapshotConfig    `mapstructure:"snapshot"`
}

// GitHubConfig names the repository to walk and how to reach it.
type GitHubConfig struct {
	Owner     string `mapstructure:"owner"`
	Repo      string `mapstructure:"repo"`
	Ref       string `mapstructure:"ref"`
	APIURL    string `mapstructure:"api_url"`
	RawURL    string `mapstructure:"raw_url"`
	Token     string `mapstructure:"token"`
	UserAgent string `mapstructure:"user_agent"`
}

// ConcurrencyConfig bounds the subtree listing and metadata fetch pools.
type ConcurrencyConfig struct {
	Subtrees int `mapstructure:"subtrees"`
	Metadata int `mapstructure:"metadata"`
}

type SnapshotConfig struct {
	// SQLite is the path of an optional SQLite snapshot; empty disables it.
	SQLite string `mapstructure:"sqlite"`
}

// SetDefaults registers every key so environment overrides apply on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output", ".")
	v.SetDefault("target", "jsdelivr")
	v.SetDefault("root", "files")
	v.SetDefault("metadata_file", "info.ini")
	v.SetDefault("github.owner", "jsdelivr")
	v.SetDefault("github.repo", "jsdelivr")
	v.SetDefault("github.ref", "master")
	v.SetDefault("github.api_url", "https://api.github.com")
	v.SetDefault("github.raw_url", "https://raw.githubusercontent.com")
	v.SetDefault("github.token", "")
	v.SetDefault("github.user_agent", "libcat/dev")
	v.SetDefault("concurrency.subtrees", 8)
	v.SetDefault("concurrency.metadata", 4)
	v.SetDefault("snapshot.sqlite", "")
}

// BindEnv wires LIBCAT_* variables; GITHUB_TOKEN also feeds github.token.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields a run cannot do without.
func (c *Config) Validate() error {
	var errs []error
	if c.Target == "" {
		errs = append(errs, errors.New("target must not be empty"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output must not be empty"))
	}
	if c.Root == "" || strings.Contains(c.Root, "/") {
		errs = append(errs, fmt.Errorf("root %q must be a single directory name", c.Root))
	}
	if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
		errs = append(errs, errors.New("github.owner and github.repo must be set"))
	}
	for key, raw := range map[string]string{"github.api_url": c.GitHub.APIURL, "github.raw_url": c.GitHub.RawURL} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s %q is not an absolute URL", key, raw))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// RawBase is the raw-content URL of the root directory at the ref. Every
// path segment is escaped; a ref such as release/v2 keeps its slash.
func (c *Config) RawBase() string {
	segs := []string{url.PathEscape(c.GitHub.Owner), url.PathEscape(c.GitHub.Repo)}
	for _, s := range strings.Split(c.GitHub.Ref, "/") {
		segs = append(segs, url.PathEscape(s))
	}
	segs = append(segs, url.PathEscape(c.Root))
	return strings.TrimRight(c.GitHub.RawURL, "/") + "/" + strings.Join(segs, "/")
}

// RawHost is the host of the raw-content URL.
func (c *Config) RawHost() string {
	u, err := url.Parse(c.GitHub.RawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
