package provider

import (
	"strings"

	"github.com/google/uuid"
)

const DefaultAuthType = "Bearer"

// Provider is one entry of the MDS provider registry.
type Provider struct {
	Name    string    `yaml:"provider_name" json:"provider_name"`
	ID      uuid.UUID `yaml:"provider_id" json:"provider_id"`
	URL     string    `yaml:"url,omitempty" json:"url,omitempty"`
	APIURL  string    `yaml:"mds_api_url" json:"mds_api_url"`
	GBFSURL string    `yaml:"gbfs_api_url,omitempty" json:"gbfs_api_url,omitempty"`

	Auth AuthConfig `yaml:"-" json:"-"`
}

// AuthConfig is the per-run connection configuration applied from the config file.
type AuthConfig struct {
	Type    string
	Token   string
	Version string
	Headers map[string]string
}

// Scheme returns the Authorization scheme, defaulting to Bearer.
func (a AuthConfig) Scheme() string {
	if a.Type == "" {
		return DefaultAuthType
	}
	return a.Type
}

// Names returns the provider names joined by ", ".
func Names(ps []Provider) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
