// Package config loads device connection profiles for the CLI and the
// integration-test fixture.
//
// Values are resolved in this order, later sources winning:
//  1. Defaults
//  2. A YAML profile file (optional)
//  3. Environment variables, after loading any .env file
//
// Command-line flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/smnsjas/go-panos/client"
	"github.com/smnsjas/go-panos/xmlapi/transport"
)

// Profile describes how to reach and authenticate against one device.
type Profile struct {
	URL      string        `yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Proxy    string        `yaml:"proxy"`
	Insecure bool          `yaml:"insecure"`
	Timeout  time.Duration `yaml:"timeout"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls CLI log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Empty disables logging.
	Level string `yaml:"level"`

	// File is a log file path. Empty logs to stderr.
	File string `yaml:"file"`

	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `yaml:"max_backups"`
}

// EnvKeys names the environment variables that override a Profile. An
// empty name disables that override.
type EnvKeys struct {
	URL      string
	Username string
	Password string
	Proxy    string
	Insecure string
	Timeout  string
	LogLevel string
}

// DefaultEnv are the variables read by the CLI.
var DefaultEnv = EnvKeys{
	URL:      "PANOS_URL",
	Username: "PANOS_USERNAME",
	Password: "PANOS_PASSWORD",
	Proxy:    "PANOS_PROXY",
	Insecure: "PANOS_INSECURE",
	Timeout:  "PANOS_TIMEOUT",
	LogLevel: "PANOS_LOG_LEVEL",
}

// FixtureEnv are the variables read by integration tests.
var FixtureEnv = EnvKeys{
	URL:      "URL",
	Username: "USERNAME",
	Password: "PASSWORD",
}

// Default returns a Profile with default values.
func Default() Profile {
	return Profile{
		Timeout: transport.DefaultTimeout,
		Logging: LoggingConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads the YAML profile at path on top of the defaults. Unknown keys
// are rejected.
func Load(path string) (Profile, error) {
	p := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return p, fmt.Errorf("parsing config file: %w", err)
	}
	return p, nil
}

// LoadDotEnv loads variables from the given .env files (".env" if none)
// without overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides p with any variables named by keys that are set.
func (p *Profile) ApplyEnv(keys EnvKeys) error {
	str := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
	str(keys.URL, &p.URL)
	str(keys.Username, &p.Username)
	str(keys.Password, &p.Password)
	str(keys.Proxy, &p.Proxy)
	str(keys.LogLevel, &p.Logging.Level)

	if keys.Insecure != "" {
		if v := os.Getenv(keys.Insecure); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", keys.Insecure, err)
			}
			p.Insecure = b
		}
	}
	if keys.Timeout != "" {
		if v := os.Getenv(keys.Timeout); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", keys.Timeout, err)
			}
			p.Timeout = d
		}
	}
	return nil
}

// Missing returns the names of required fields that are empty.
func (p Profile) Missing() []string {
	var missing []string
	if p.URL == "" {
		missing = append(missing, "url")
	}
	if p.Username == "" {
		missing = append(missing, "username")
	}
	if p.Password == "" {
		missing = append(missing, "password")
	}
	return missing
}

// Validate returns an error naming every missing required field.
func (p Profile) Validate() error {
	if missing := p.Missing(); len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Builder returns a client.Builder configured from p.
func (p Profile) Builder() *client.Builder {
	b := client.NewBuilder(p.Username, p.Password, p.URL).WithProxy(p.Proxy)
	if p.Timeout > 0 {
		b.WithTimeout(p.Timeout)
	}
	if p.Insecure {
		b.AcceptInvalidCertificates()
	}
	return b
}
