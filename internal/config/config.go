package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"

	mdserr "github.com/user/mds-pull/internal/errors"
	"github.com/user/mds-pull/internal/provider"
)

const (
	DefaultFileName = ".config"
	DefaultRef      = "master"
)

// Config is the INI provider configuration file. Keys in [DEFAULT] apply to every section
// that does not set them itself.
type Config struct {
	Path string
	file *ini.File
}

// DefaultPath returns ./.config in the working directory.
func DefaultPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(wd, DefaultFileName)
}

// Load reads the INI file at path (DefaultPath when empty). A missing file yields an empty config.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	opts := ini.LoadOptions{
		InsensitiveSections: true,
		InsensitiveKeys:     true,
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return &Config{Path: path, file: ini.Empty(opts)}, nil
	}

	f, err := ini.LoadSources(opts, path)
	if err != nil {
		return nil, mdserr.Config("read config file "+path, err)
	}
	return &Config{Path: path, file: f}, nil
}

// Get looks key up in section, then in [DEFAULT]. Environment variables in values are expanded.
func (c *Config) Get(section, key string) (string, bool) {
	if section != "" && c.file.HasSection(section) {
		if sec := c.file.Section(section); sec.HasKey(key) {
			return ExpandEnvVars(sec.Key(key).String()), true
		}
	}
	if def := c.file.Section(ini.DefaultSection); def.HasKey(key) {
		return ExpandEnvVars(def.Key(key).String()), true
	}
	return "", false
}

// Ref returns the MDS version reference from [DEFAULT], or "".
func (c *Config) Ref() string {
	v, _ := c.Get("", "ref")
	return strings.TrimSpace(v)
}

// ResolveRef picks the flag value, then the config default, then DefaultRef.
func ResolveRef(flagRef string, cfg *Config) string {
	if flagRef != "" {
		return flagRef
	}
	if cfg != nil {
		if ref := cfg.Ref(); ref != "" {
			return ref
		}
	}
	return DefaultRef
}

// sectionFor returns the section configuring p: its id first, then its name.
func (c *Config) sectionFor(p provider.Provider) string {
	for _, name := range []string{p.ID.String(), p.Name} {
		if c.file.HasSection(name) {
			return name
		}
	}
	return ""
}

// Configure returns p with connection settings applied.
//
// Recognised keys: token, auth_type, version, api_url (overrides the registry endpoint) and
// headers, a comma-separated list of "Name: value" pairs.
func (c *Config) Configure(p provider.Provider) provider.Provider {
	sec := c.sectionFor(p)

	if v, ok := c.Get(sec, "token"); ok {
		p.Auth.Token = v
	}
	if v, ok := c.Get(sec, "auth_type"); ok {
		p.Auth.Type = v
	}
	if v, ok := c.Get(sec, "version"); ok {
		p.Auth.Version = v
	}
	if v, ok := c.Get(sec, "api_url"); ok && v != "" {
		p.APIURL = v
	}
	if v, ok := c.Get(sec, "headers"); ok {
		p.Auth.Headers = parseHeaders(v)
	}
	return p
}

// ConfigureAll applies Configure to every provider.
func (c *Config) ConfigureAll(ps []provider.Provider) []provider.Provider {
	out := make([]provider.Provider, len(ps))
	for i, p := range ps {
		out[i] = c.Configure(p)
	}
	return out
}

func parseHeaders(s string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers
}

func ExpandEnvVars(s string) string {
	return os.ExpandEnv(s)
}
