// Package config loads awsplus settings from file, environment and flags.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. AWSPLUS_AWS_REGION.
	EnvPrefix = "AWSPLUS"

	configName = "config"
)

// Config represents the application configuration.
type Config struct {
	AWS  AWSConfig  `mapstructure:"aws" yaml:"aws"`
	Sync SyncConfig `mapstructure:"sync" yaml:"sync"`
	Log  LogConfig  `mapstructure:"log" yaml:"log"`
}

// AWSConfig selects the account, region and endpoint.
type AWSConfig struct {
	Region    string `mapstructure:"region" yaml:"region"`
	Profile   string `mapstructure:"profile" yaml:"profile"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`   // S3-compatible endpoint, e.g. LocalStack
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style"` // required by most S3-compatible endpoints
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
}

// SyncConfig holds transfer settings.
type SyncConfig struct {
	DryRun       bool   `mapstructure:"dry_run" yaml:"dry_run"`
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose"`
	Parallel     bool   `mapstructure:"parallel" yaml:"parallel"`
	Workers      int    `mapstructure:"workers" yaml:"workers"` // 0 = number of CPUs
	KMSKeyID     string `mapstructure:"kms_key_id" yaml:"kms_key_id"`
	StorageClass string `mapstructure:"storage_class" yaml:"storage_class"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
}

// Default returns the default configuration. Writes are dry runs until
// explicitly disabled.
func Default() *Config {
	return &Config{
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Sync: SyncConfig{
			DryRun:  true,
			Verbose: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers Default() with v so file, env and flags override it.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("aws.region", d.AWS.Region)
	v.SetDefault("aws.profile", d.AWS.Profile)
	v.SetDefault("aws.endpoint", d.AWS.Endpoint)
	v.SetDefault("aws.path_style", d.AWS.PathStyle)
	v.SetDefault("aws.access_key", d.AWS.AccessKey)
	v.SetDefault("aws.secret_key", d.AWS.SecretKey)
	v.SetDefault("sync.dry_run", d.Sync.DryRun)
	v.SetDefault("sync.verbose", d.Sync.Verbose)
	v.SetDefault("sync.parallel", d.Sync.Parallel)
	v.SetDefault("sync.workers", d.Sync.Workers)
	v.SetDefault("sync.kms_key_id", d.Sync.KMSKeyID)
	v.SetDefault("sync.storage_class", d.Sync.StorageClass)
	v.SetDefault("log.level", d.Log.Level)
}

// Load reads the config file (path, or config.yaml in ~/.awsplus and
// ~/.config/awsplus when path is empty) and environment into v and decodes
// the result. A missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(home, ".awsplus"))
		v.AddConfigPath(filepath.Join(home, ".config", "awsplus"))
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Sync.Workers < 0 {
		return fmt.Errorf("sync.workers must be >= 0, got %d", c.Sync.Workers)
	}
	if (c.AWS.AccessKey == "") != (c.AWS.SecretKey == "") {
		return errors.New("aws.access_key and aws.secret_key must be set together")
	}
	if c.Sync.StorageClass != "" && !validStorageClass(c.Sync.StorageClass) {
		return fmt.Errorf("unknown sync.storage_class %q", c.Sync.StorageClass)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func validStorageClass(s string) bool {
	for _, sc := range types.StorageClass("").Values() {
		if string(sc) == s {
			return true
		}
	}
	return false
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", l.Level, err)
	}
	return level, nil
}

// LoadAWS resolves the SDK configuration: the default credential chain, or
// the named profile, or static keys when both are configured.
func LoadAWS(ctx context.Context, cfg AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return awsCfg, nil
}
