package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cube2222/distplan/codec"
)

type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`
}

type CodecConfig struct {
	MaxListLength int `yaml:"maxListLength"`
	MaxDepth      int `yaml:"maxDepth"`
}

type ProtocolConfig struct {
	// Version is stamped on written frames.
	Version string `yaml:"version"`
	// Accept is the semver constraint received frames must satisfy.
	Accept string `yaml:"accept"`
}

type MetricsConfig struct {
	HighestTrackable  time.Duration `yaml:"highestTrackable"`
	SignificantDigits int           `yaml:"significantDigits"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Codec    CodecConfig    `yaml:"codec"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Codec: CodecConfig{
			MaxListLength: codec.DefaultMaxListLength,
			MaxDepth:      codec.DefaultMaxDepth,
		},
		Protocol: ProtocolConfig{
			Version: codec.ProtocolVersion,
			Accept:  codec.DefaultAcceptedVersions,
		},
		Metrics: MetricsConfig{
			HighestTrackable:  10 * time.Minute,
			SignificantDigits: 3,
		},
	}
}

// DefaultPath is ~/.distplan/config.yaml.
func DefaultPath() (string, error) {
	dir, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "couldn't get user home directory")
	}
	return filepath.Join(dir, ".distplan", "config.yaml"), nil
}

// ReadConfig reads the yaml configuration at path. Fields missing from the file keep their defaults.
func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	config := Default()
	if err := yaml.NewDecoder(f).Decode(config); err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml configuration")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration in %s", path)
	}

	return config, nil
}

// Load reads the configuration at path, or at the default path if path is empty.
// A missing file at the default path yields the default configuration.
func Load(path string) (*Config, error) {
	if path != "" {
		return ReadConfig(path)
	}

	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return ReadConfig(path)
}

func (config *Config) Validate() error {
	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("invalid logging level '%s'", config.Logging.Level)
	}
	if config.Codec.MaxListLength <= 0 {
		return errors.Errorf("codec.maxListLength must be positive, got %d", config.Codec.MaxListLength)
	}
	if config.Codec.MaxDepth <= 0 {
		return errors.Errorf("codec.maxDepth must be positive, got %d", config.Codec.MaxDepth)
	}
	if _, err := config.ProtocolVersion(); err != nil {
		return err
	}
	if _, err := config.AcceptedVersions(); err != nil {
		return err
	}
	if config.Metrics.HighestTrackable <= 0 {
		return errors.Errorf("metrics.highestTrackable must be positive, got %s", config.Metrics.HighestTrackable)
	}
	if config.Metrics.SignificantDigits < 1 || config.Metrics.SignificantDigits > 5 {
		return errors.Errorf("metrics.significantDigits must be between 1 and 5, got %d", config.Metrics.SignificantDigits)
	}
	return nil
}

func (config *Config) DecoderOptions() []codec.Option {
	return []codec.Option{
		codec.WithMaxListLength(config.Codec.MaxListLength),
		codec.WithMaxDepth(config.Codec.MaxDepth),
	}
}

func (config *Config) ProtocolVersion() (*semver.Version, error) {
	version, err := semver.NewVersion(config.Protocol.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid protocol.version '%s'", config.Protocol.Version)
	}
	return version, nil
}

func (config *Config) AcceptedVersions() (*semver.Constraints, error) {
	constraints, err := semver.NewConstraint(config.Protocol.Accept)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid protocol.accept '%s'", config.Protocol.Accept)
	}
	return constraints, nil
}
