// Package config loads pixelfit settings from defaults, a YAML file and
// PIXELFIT_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	kenv "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/pixelfit/pixelfit/internal/env"
	"github.com/pixelfit/pixelfit/internal/pages"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "PIXELFIT_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PIXELFIT_*). Nested keys use a double
// underscore: PIXELFIT_WORKBENCH__ADDR -> workbench.addr.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(kenv.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if _, err := parseOrigin("page_origin", c.PageOrigin); err != nil {
		return err
	}
	if _, err := parseOrigin("production_base", c.ProductionBase); err != nil {
		return err
	}
	if c.APIBase != "" {
		if _, err := parseOrigin("api_base", c.APIBase); err != nil {
			return err
		}
	}

	for _, pp := range c.Policies {
		if !pages.Page(pp.Page).Valid() {
			return fmt.Errorf("policies: unknown page %q", pp.Page)
		}
		if !env.Policy(pp.Policy).Valid() {
			return fmt.Errorf("policies: invalid policy %q for %s: must be fixed or origin", pp.Policy, pp.Page)
		}
	}

	if c.StateDB == "" {
		return fmt.Errorf("state_db is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be non-negative")
	}
	if c.Workbench.Addr == "" {
		return fmt.Errorf("workbench.addr is required")
	}
	return nil
}

func parseOrigin(field, raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid %s %q: must be an http(s) origin", field, raw)
	}
	return u, nil
}

// Timeout is TimeoutSeconds as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Environment resolves the backend for page.
func (c *Config) Environment(page pages.Page) (env.Environment, error) {
	if c.APIBase != "" {
		u, err := parseOrigin("api_base", c.APIBase)
		if err != nil {
			return env.Environment{}, err
		}
		return env.Environment{IsLocal: env.IsLoopbackHost(u.Hostname()), APIBase: strings.TrimRight(c.APIBase, "/")}, nil
	}

	origin, err := parseOrigin("page_origin", c.PageOrigin)
	if err != nil {
		return env.Environment{}, err
	}
	r := env.Resolver{
		Policy:         env.PolicyFor(page, c.policyOverrides()),
		ProductionBase: c.ProductionBase,
	}
	return r.Resolve(origin), nil
}

func (c *Config) policyOverrides() map[pages.Page]env.Policy {
	if len(c.Policies) == 0 {
		return nil
	}
	out := make(map[pages.Page]env.Policy, len(c.Policies))
	for _, pp := range c.Policies {
		out[pages.Page(pp.Page)] = env.Policy(pp.Policy)
	}
	return out
}
