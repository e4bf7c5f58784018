// Package config provides YAML configuration parsing for the netwait CLI.
//
// Example configuration:
//
//	target: https://www.google.com/
//	interval: 2s
//	deadline: 5m
//
//	probe:
//	  type: http
//	  method: HEAD
//	  timeout: 10s
//	  headers:
//	    User-Agent: netwait
//
//	log:
//	  level: info
//	  format: json
//	  output: /var/log/netwait/netwait.log
//
//	history: /var/lib/netwait/history.db
//	status_addr: 127.0.0.1:8089
//
// The probe can also be given as shorthand: "probe: tcp".
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTarget is the resource probed when none is configured.
	DefaultTarget = "https://www.google.com/"

	// DefaultInterval is the delay between probes.
	DefaultInterval = 2 * time.Second

	// DefaultProbeTimeout bounds a single probe.
	DefaultProbeTimeout = 10 * time.Second
)

// minInterval keeps a misconfigured poller from hammering the target.
const minInterval = 100 * time.Millisecond

// Probe types.
const (
	ProbeHTTP = "http"
	ProbeTCP  = "tcp"
	ProbeDNS  = "dns"
)

// Config is the root configuration structure for netwait.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML, or [Default] for the
// built-in defaults.
type Config struct {
	// Target is the resource to probe: a URL for http probes, a URL or
	// host:port for tcp probes, a URL or host name for dns probes.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Target string `yaml:"target"`

	// Interval is the delay between the end of one probe and the start of
	// the next. Defaults to 2s.
	Interval Duration `yaml:"interval"`

	// Deadline bounds the total wait. Zero waits forever.
	Deadline Duration `yaml:"deadline"`

	// Probe selects and tunes the reachability check.
	Probe ProbeConfig `yaml:"probe"`

	// Log configures the CLI logger.
	Log LogConfig `yaml:"log"`

	// History is the path of a SQLite database recording every attempt.
	// Empty disables persistent history.
	History string `yaml:"history"`

	// StatusAddr is the listen address of the optional status endpoint.
	// Empty disables it.
	StatusAddr string `yaml:"status_addr"`
}

// ProbeConfig specifies how each attempt checks reachability.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	probe: tcp
//
// Structured object:
//
//	probe:
//	  type: http
//	  method: GET
//	  timeout: 5s
type ProbeConfig struct {
	// Type is the probe type: "http", "tcp" or "dns". Defaults to http.
	Type string

	// Method is the HTTP method (HEAD, GET, POST). Defaults to HEAD.
	Method string

	// Timeout bounds a single probe. Defaults to 10s.
	Timeout Duration

	// Headers are custom HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string
}

// LogConfig configures logging for the CLI.
type LogConfig struct {
	// Level is debug, info, warn or error. Defaults to info.
	Level string `yaml:"level"`

	// Format is json or text. Defaults to json.
	Format string `yaml:"format"`

	// Output is stderr, stdout or a file path. Files are rotated.
	Output string `yaml:"output"`

	// MaxSizeMB is the size at which a log file is rotated.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int `yaml:"max_age_days"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for ProbeConfig.
func (p *ProbeConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		p.Type = strings.ToLower(strings.TrimSpace(s))
		return nil
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type    string            `yaml:"type"`
			Method  string            `yaml:"method"`
			Timeout Duration          `yaml:"timeout"`
			Headers map[string]string `yaml:"headers"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		p.Type = strings.ToLower(strings.TrimSpace(raw.Type))
		p.Method = strings.ToUpper(strings.TrimSpace(raw.Method))
		p.Timeout = raw.Timeout
		p.Headers = raw.Headers
		return nil
	}

	return fmt.Errorf("probe must be a string or object, got %v", node.Kind)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML configuration data.
//
// Environment variables are expanded in Target, History and header values.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Target == "" {
		c.Target = DefaultTarget
	}
	if c.Interval == 0 {
		c.Interval = Duration(DefaultInterval)
	}
	if c.Probe.Type == "" {
		c.Probe.Type = ProbeHTTP
	}
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = Duration(DefaultProbeTimeout)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stderr"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 14
	}
}

// expand substitutes environment variables in the fields that allow it.
func (c *Config) expand() error {
	target, err := expandEnvVars(c.Target)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	c.Target = strings.TrimSpace(target)

	history, err := expandEnvVars(c.History)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	c.History = history

	for k, v := range c.Probe.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("probe.headers[%s]: %w", k, err)
		}
		c.Probe.Headers[k] = expanded
	}
	return nil
}

// Validate checks the configuration for errors.
//
// Parse calls Validate; the CLI calls it again after applying flag
// overrides.
func (c *Config) Validate() error {
	if c.Interval.Duration() < minInterval {
		return fmt.Errorf("interval must be at least %s, got %s", minInterval, c.Interval.Duration())
	}
	if c.Deadline.Duration() < 0 {
		return fmt.Errorf("deadline cannot be negative, got %s", c.Deadline.Duration())
	}

	if err := c.validateProbe(); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings cannot be negative")
	}

	if c.StatusAddr != "" {
		if _, _, err := net.SplitHostPort(c.StatusAddr); err != nil {
			return fmt.Errorf("status_addr: invalid listen address %q: %w", c.StatusAddr, err)
		}
	}

	return nil
}

func (c *Config) validateProbe() error {
	p := &c.Probe

	if p.Timeout.Duration() < 0 {
		return fmt.Errorf("probe.timeout cannot be negative, got %s", p.Timeout.Duration())
	}
	if p.Timeout.Duration() < minInterval {
		return fmt.Errorf("probe.timeout must be at least %s, got %s", minInterval, p.Timeout.Duration())
	}

	if c.Target == "" {
		return fmt.Errorf("target is required")
	}

	switch p.Type {
	case ProbeHTTP:
		parsedURL, err := url.Parse(c.Target)
		if err != nil {
			return fmt.Errorf("target: invalid url: %w", err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("target: http probe requires an http:// or https:// url, got %q", c.Target)
		}
		if parsedURL.Host == "" {
			return fmt.Errorf("target: url has no host")
		}
		if p.Method != "" && p.Method != "GET" && p.Method != "HEAD" && p.Method != "POST" {
			return fmt.Errorf("probe.method must be GET, HEAD, or POST")
		}

	case ProbeTCP, ProbeDNS:
		if p.Method != "" || len(p.Headers) > 0 {
			return fmt.Errorf("probe.method and probe.headers only apply to http probes")
		}
		if p.Type == ProbeTCP && !strings.Contains(c.Target, "://") {
			if _, _, err := net.SplitHostPort(c.Target); err != nil {
				return fmt.Errorf("target: tcp probe requires host:port or a url, got %q", c.Target)
			}
		}

	default:
		return fmt.Errorf("probe.type must be http, tcp or dns, got %q", p.Type)
	}

	return nil
}
