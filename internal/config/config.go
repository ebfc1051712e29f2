package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Cluster   ClusterConfig   `yaml:"cluster" mapstructure:"cluster"`
	IAMRole   IAMRoleConfig   `yaml:"iam_role" mapstructure:"iam_role"`
	S3        S3Config        `yaml:"s3" mapstructure:"s3"`
	Warehouse WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ClusterConfig holds warehouse connection settings.
type ClusterConfig struct {
	Host        string `yaml:"host" mapstructure:"host"`
	DBName      string `yaml:"dbname" mapstructure:"dbname"`
	User        string `yaml:"user" mapstructure:"user"`
	Password    string `yaml:"password" mapstructure:"password"`
	Port        int    `yaml:"port" mapstructure:"port"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// IAMRoleConfig holds the role the warehouse assumes for bulk copies.
type IAMRoleConfig struct {
	ARN string `yaml:"arn" mapstructure:"arn"`
}

// S3Config locates the raw source data. For local dialects these are filesystem paths.
type S3Config struct {
	LogData     string `yaml:"log_data" mapstructure:"log_data"`
	SongData    string `yaml:"song_data" mapstructure:"song_data"`
	LogJSONPath string `yaml:"log_jsonpath" mapstructure:"log_jsonpath"`
}

// WarehouseConfig selects the SQL dialect and execution policy.
type WarehouseConfig struct {
	Dialect    string `yaml:"dialect" mapstructure:"dialect"`
	Region     string `yaml:"region" mapstructure:"region"`
	CompUpdate bool   `yaml:"compupdate" mapstructure:"compupdate"`
	FailFast   bool   `yaml:"fail_fast" mapstructure:"fail_fast"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DSN returns the connection string for the cluster. DatabaseURL wins when set.
func (c ClusterConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s dbname=%s user=%s password=%s port=%d",
		dsnValue(c.Host), dsnValue(c.DBName), dsnValue(c.User), dsnValue(c.Password), c.Port)
}

// dsnValue single-quotes a keyword/value connection string value, escaping
// backslashes and quotes.
func dsnValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// Load reads configuration from file and environment. An empty path searches
// the working directory for dwh.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dwh")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("DWH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("cluster.host", "")
	v.SetDefault("cluster.dbname", "")
	v.SetDefault("cluster.user", "")
	v.SetDefault("cluster.password", "")
	v.SetDefault("cluster.port", 5439)
	v.SetDefault("cluster.database_url", "")
	v.SetDefault("iam_role.arn", "")
	v.SetDefault("s3.log_data", "")
	v.SetDefault("s3.song_data", "")
	v.SetDefault("s3.log_jsonpath", "")
	v.SetDefault("warehouse.dialect", "redshift")
	v.SetDefault("warehouse.region", "us-west-2")
	v.SetDefault("warehouse.compupdate", false)
	v.SetDefault("warehouse.fail_fast", false)
	v.SetDefault("warehouse.sqlite_path", "dwh.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless explicitly named)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Warehouse.Dialect = normalizeDialect(cfg.Warehouse.Dialect)

	return &cfg, nil
}

// Validate checks that the settings required by the selected dialect and mode
// are present. Mode is "schema" (create-tables, status) or "etl".
func (c *Config) Validate(mode string) error {
	var errs []string
	require := func(key, val string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, key+" is required")
		}
	}

	dialect := normalizeDialect(c.Warehouse.Dialect)
	switch dialect {
	case "redshift", "postgres":
		if c.Cluster.DatabaseURL == "" {
			require("cluster.host", c.Cluster.Host)
			require("cluster.dbname", c.Cluster.DBName)
			require("cluster.user", c.Cluster.User)
			if c.Cluster.Port <= 0 || c.Cluster.Port > 65535 {
				errs = append(errs, fmt.Sprintf("cluster.port %d is out of range", c.Cluster.Port))
			}
		}
	case "sqlite":
		require("warehouse.sqlite_path", c.Warehouse.SQLitePath)
	default:
		return eris.Errorf("config: unknown warehouse.dialect %q", c.Warehouse.Dialect)
	}

	if mode == "etl" {
		require("s3.log_data", c.S3.LogData)
		require("s3.song_data", c.S3.SongData)
		if dialect == "redshift" {
			require("iam_role.arn", c.IAMRole.ARN)
			require("warehouse.region", c.Warehouse.Region)
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func normalizeDialect(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
