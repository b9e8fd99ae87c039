package config

import (
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/user/mds-pull/internal/logging"
	"github.com/user/mds-pull/internal/provider"
)

const EnvPrefix = "MDS"

// Settings are the tool's own knobs, sourced from flags and MDS_* environment variables.
type Settings struct {
	Logging           logging.Config `mapstructure:",squash"`
	Timeout           time.Duration  `mapstructure:"timeout"`
	RegistryURL       string         `mapstructure:"registry_url"`
	S3Endpoint        string         `mapstructure:"s3_endpoint"`
	S3Insecure        bool           `mapstructure:"s3_insecure"`
	RequestsPerSecond float64        `mapstructure:"requests_per_second"`
}

func DefaultSettings() *Settings {
	return &Settings{
		Logging:     logging.DefaultConfig(),
		Timeout:     30 * time.Second,
		RegistryURL: provider.DefaultRegistryURL,
		S3Endpoint:  "s3.amazonaws.com",
	}
}

// NewViper returns a viper instance reading MDS_* environment variables with the defaults set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	d := DefaultSettings()
	v.SetDefault("log_level", d.Logging.Level)
	v.SetDefault("log_format", d.Logging.Format)
	v.SetDefault("log_output", d.Logging.Output)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("registry_url", d.RegistryURL)
	v.SetDefault("s3_endpoint", d.S3Endpoint)
	v.SetDefault("s3_insecure", d.S3Insecure)
	v.SetDefault("requests_per_second", d.RequestsPerSecond)
	return v
}

// LoadSettings decodes v into Settings.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	s := DefaultSettings()

	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)

	if err := v.Unmarshal(s, viper.DecodeHook(decodeHook)); err != nil {
		return nil, err
	}
	return s, nil
}
