// Package config loads svrdash settings from defaults, an optional config
// file, a .env file and SVRDASH_* environment variables, in increasing order
// of precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ezoic/svrdash/dataset"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/svm"
)

// EnvPrefix prefixes every environment variable, e.g. SVRDASH_SERVER_ADDR.
const EnvPrefix = "SVRDASH"

// Config is the complete application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Model  ModelConfig  `mapstructure:"model"`
	Data   DataConfig   `mapstructure:"data"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	GinMode     string        `mapstructure:"gin_mode"`
	MaxUploadMB int64         `mapstructure:"max_upload_mb"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	MaxSessions int           `mapstructure:"max_sessions"`
}

// ModelConfig holds the SVR parameters and the split ratio.
type ModelConfig struct {
	svm.Params `mapstructure:",squash"`

	TrainRatio float64 `mapstructure:"train_ratio"`
}

// DataConfig holds ingestion settings.
type DataConfig struct {
	dataset.CleanOptions `mapstructure:",squash"`

	// Clean applies CleanOptions to uploads unless the form overrides it
	Clean       bool `mapstructure:"clean"`
	PreviewRows int  `mapstructure:"preview_rows"`
	BarPairs    int  `mapstructure:"bar_pairs"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	params := svm.DefaultParams()
	clean := dataset.DefaultCleanOptions()

	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.max_upload_mb", 50)
	v.SetDefault("server.session_ttl", 30*time.Minute)
	v.SetDefault("server.max_sessions", 100)

	v.SetDefault("model.kernel", string(params.Kernel))
	v.SetDefault("model.c", params.C)
	v.SetDefault("model.epsilon", params.Epsilon)
	v.SetDefault("model.gamma", params.Gamma)
	v.SetDefault("model.degree", params.Degree)
	v.SetDefault("model.coef0", params.Coef0)
	v.SetDefault("model.tol", params.Tol)
	v.SetDefault("model.max_iter", params.MaxIter)
	v.SetDefault("model.cache_size_mb", params.CacheSizeMB)
	v.SetDefault("model.train_ratio", dataset.DefaultTrainRatio)

	v.SetDefault("data.clean", false)
	v.SetDefault("data.drop_column", clean.DropColumn)
	v.SetDefault("data.date_column", clean.DateColumn)
	v.SetDefault("data.date_layout", clean.DateLayout)
	v.SetDefault("data.fill_columns", clean.FillColumns)
	v.SetDefault("data.preview_rows", 5)
	v.SetDefault("data.bar_pairs", 25)

	v.SetDefault("log.level", "info")
}

// Load builds the configuration. configFile may be empty. envFiles default to
// ".env"; a missing env file is not an error.
func Load(configFile string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, svrErrors.Wrapf(err, "failed to load %s", f)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, svrErrors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, svrErrors.Wrap(err, "failed to decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, svrErrors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return svrErrors.NewValidationError("server.addr", "must not be empty", c.Server.Addr)
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return svrErrors.NewValidationError("server.gin_mode", "must be debug, release or test", c.Server.GinMode)
	}
	if c.Server.MaxUploadMB <= 0 {
		return svrErrors.NewValidationError("server.max_upload_mb", "must be positive", c.Server.MaxUploadMB)
	}
	if c.Server.SessionTTL <= 0 {
		return svrErrors.NewValidationError("server.session_ttl", "must be positive", c.Server.SessionTTL)
	}
	if c.Server.MaxSessions <= 0 {
		return svrErrors.NewValidationError("server.max_sessions", "must be positive", c.Server.MaxSessions)
	}
	if !(c.Model.TrainRatio > 0 && c.Model.TrainRatio < 1) {
		return svrErrors.NewValidationError("model.train_ratio", "must be between 0 and 1", c.Model.TrainRatio)
	}
	if err := c.Model.Params.Validate(); err != nil {
		return err
	}
	if c.Data.PreviewRows < 0 {
		return svrErrors.NewValidationError("data.preview_rows", "must not be negative", c.Data.PreviewRows)
	}
	return nil
}
