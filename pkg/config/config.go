// Package config reads and writes the azctl configuration file.
//
// The file is INI formatted and lives at $AZCTL_CONFIG_DIR/config (default
// ~/.azctl/config). Any key can be overridden with an environment variable named
// AZCTL_<SECTION>_<KEY>, for example AZCTL_DEFAULTS_GROUP.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/azctl/azctl/pkg/errors"
)

const (
	// EnvConfigDir overrides the configuration directory.
	EnvConfigDir = "AZCTL_CONFIG_DIR"

	envPrefix = "AZCTL_"
	fileName  = "config"
)

// Well-known sections and keys.
const (
	SectionCore     = "core"
	SectionDefaults = "defaults"
	SectionCloud    = "cloud"

	KeyOutput              = "output"
	KeyOnlyShowErrors      = "only_show_errors"
	KeyGroup               = "group"
	KeyLocation            = "location"
	KeySubscription        = "subscription"
	KeyAppConfigStore      = "app_configuration_store"
	KeyAppConfigConnString = "appconfig_connection_string"
	KeyCloudName           = "name"
)

// Config is a loaded configuration file.
type Config struct {
	path string
	file *ini.File
}

// Dir returns the configuration directory.
func Dir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".azctl"
	}
	return filepath.Join(home, ".azctl")
}

// DefaultPath returns the configuration file path.
func DefaultPath() string {
	return filepath.Join(Dir(), fileName)
}

// Load reads the configuration at path. A missing file yields an empty configuration.
func Load(path string) (*Config, error) {
	opts := ini.LoadOptions{Loose: true, Insensitive: true}
	f, err := ini.LoadSources(opts, path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileOperation,
			fmt.Sprintf("failed to read configuration %s", path), err)
	}
	return &Config{path: path, file: f}, nil
}

// LoadDefault reads the configuration at DefaultPath.
func LoadDefault() (*Config, error) {
	return Load(DefaultPath())
}

// Path returns the file backing c.
func (c *Config) Path() string {
	return c.path
}

// Get returns the value of section.key, preferring the environment override.
func (c *Config) Get(section, key string) string {
	if v, ok := os.LookupEnv(EnvName(section, key)); ok {
		return v
	}
	if c == nil || c.file == nil {
		return ""
	}
	sec, err := c.file.GetSection(strings.ToLower(section))
	if err != nil {
		return ""
	}
	return sec.Key(strings.ToLower(key)).String()
}

// GetDefault returns Get or fallback when the value is empty.
func (c *Config) GetDefault(section, key, fallback string) string {
	if v := c.Get(section, key); v != "" {
		return v
	}
	return fallback
}

// GetBool returns section.key parsed as a boolean.
func (c *Config) GetBool(section, key string) bool {
	switch strings.ToLower(c.Get(section, key)) {
	case "true", "yes", "on", "1":
		return true
	default:
		return false
	}
}

// Set stores section.key=value in memory.
func (c *Config) Set(section, key, value string) {
	c.file.Section(strings.ToLower(section)).Key(strings.ToLower(key)).SetValue(value)
}

// Unset removes section.key. It reports whether the key existed.
func (c *Config) Unset(section, key string) bool {
	sec, err := c.file.GetSection(strings.ToLower(section))
	if err != nil || !sec.HasKey(strings.ToLower(key)) {
		return false
	}
	sec.DeleteKey(strings.ToLower(key))
	return true
}

// Entry is one configured value.
type Entry struct {
	Section string `json:"section" yaml:"section"`
	Name    string `json:"name" yaml:"name"`
	Value   string `json:"value" yaml:"value"`
	Source  string `json:"source" yaml:"source"`
}

// Entries lists every value in the file, sorted by section then name. Environment
// overrides replace the file value and are reported with source "env".
func (c *Config) Entries() []Entry {
	var out []Entry
	for _, sec := range c.file.Sections() {
		for _, k := range sec.Keys() {
			e := Entry{Section: sec.Name(), Name: k.Name(), Value: k.String(), Source: c.path}
			if v, ok := os.LookupEnv(EnvName(sec.Name(), k.Name())); ok {
				e.Value, e.Source = v, "env"
			}
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Save writes c back to its path with 0600 permissions.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeFileOperation, "failed to create configuration directory", err)
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileOperation,
			fmt.Sprintf("failed to write configuration %s", c.path), err)
	}
	defer f.Close()
	if _, err := c.file.WriteTo(f); err != nil {
		return errors.Wrap(errors.ErrCodeFileOperation,
			fmt.Sprintf("failed to write configuration %s", c.path), err)
	}
	return nil
}

// EnvName returns the environment variable overriding section.key.
func EnvName(section, key string) string {
	return envPrefix + strings.ToUpper(section) + "_" + strings.ToUpper(key)
}

// SplitName splits "section.key" into its parts.
func SplitName(name string) (section, key string, err error) {
	section, key, ok := strings.Cut(strings.TrimSpace(name), ".")
	if !ok || section == "" || key == "" {
		return "", "", errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"usage error: %q is not in the form section.name", name)
	}
	return section, key, nil
}

// ParseAssignment splits "section.key=value".
func ParseAssignment(s string) (section, key, value string, err error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", "", errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"usage error: %q is not in the form section.name=value", s)
	}
	section, key, err = SplitName(name)
	return section, key, value, err
}
