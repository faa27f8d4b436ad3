package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the complete configuration for the application.
// AWS credentials are not part of this config; they flow through the SDK's
// default chain (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, profiles, roles).
type AppConfig struct {
	Environment string        `mapstructure:"environment"`
	LogLevel    string        `mapstructure:"log_level"`
	ServiceName string        `mapstructure:"service_name"`
	API         APIConfig     `mapstructure:"api"`
	AWS         AWSConfig     `mapstructure:"aws"`
	Storage     StorageConfig `mapstructure:"storage"`
	Catalog     CatalogConfig `mapstructure:"catalog"`
	Athena      AthenaConfig  `mapstructure:"athena"`
	Logs        LogsConfig    `mapstructure:"logs"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

// APIConfig configures the upstream sports data API.
type APIConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Key         string        `mapstructure:"key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// StorageConfig configures the S3 landing zone. The uploaded object key is
// Prefix+Object; the catalog table points at s3://Bucket/Prefix.
type StorageConfig struct {
	Bucket      string        `mapstructure:"bucket"`
	Prefix      string        `mapstructure:"prefix"`
	Object      string        `mapstructure:"object"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
}

type CatalogConfig struct {
	Database string `mapstructure:"database"`
	Table    string `mapstructure:"table"`
}

type AthenaConfig struct {
	Database       string        `mapstructure:"database"`
	OutputLocation string        `mapstructure:"output_location"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type LogsConfig struct {
	Group  string `mapstructure:"group"`
	Stream string `mapstructure:"stream"` // empty means one stream per run
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
}

// Load loads configuration from file and environment variables
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	// Default values
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "nba-datalake")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.max_attempts", 3)
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("storage.prefix", "raw-data/")
	v.SetDefault("storage.object", "nba_player_data.jsonl")
	v.SetDefault("storage.wait_timeout", 30*time.Second)
	v.SetDefault("catalog.database", "glue_nba_data_lake")
	v.SetDefault("catalog.table", "nba_players")
	v.SetDefault("athena.database", "nba_analytics")
	v.SetDefault("athena.poll_interval", 1*time.Second)
	v.SetDefault("athena.timeout", 2*time.Minute)
	v.SetDefault("logs.group", "NBAAnalyticsLogGroup")

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	// Bind environment variables explicitly for nested structs to ensure Unmarshal picks them up
	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("api.endpoint", "NBA_ENDPOINT")
	v.BindEnv("api.key", "SPORTS_DATA_API_KEY")
	v.BindEnv("api.timeout", "API_TIMEOUT")
	v.BindEnv("api.max_attempts", "API_MAX_ATTEMPTS")
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("storage.bucket", "BUCKET_NAME")
	v.BindEnv("storage.prefix", "RAW_DATA_PREFIX")
	v.BindEnv("storage.object", "RAW_DATA_OBJECT")
	v.BindEnv("storage.wait_timeout", "BUCKET_WAIT_TIMEOUT")
	v.BindEnv("catalog.database", "GLUE_DATABASE_NAME")
	v.BindEnv("catalog.table", "GLUE_TABLE_NAME")
	v.BindEnv("athena.database", "ATHENA_DATABASE")
	v.BindEnv("athena.output_location", "ATHENA_OUTPUT_LOCATION")
	v.BindEnv("athena.poll_interval", "ATHENA_POLL_INTERVAL")
	v.BindEnv("athena.timeout", "ATHENA_TIMEOUT")
	v.BindEnv("logs.group", "LOG_GROUP_NAME")
	v.BindEnv("logs.stream", "LOG_STREAM_NAME")
	v.BindEnv("metrics.pushgateway_url", "PUSHGATEWAY_URL")

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// The table location and the Athena results location both need a trailing slash
	if config.Storage.Prefix != "" && !strings.HasSuffix(config.Storage.Prefix, "/") {
		config.Storage.Prefix += "/"
	}
	if config.Athena.OutputLocation == "" && config.Storage.Bucket != "" {
		config.Athena.OutputLocation = "s3://" + config.Storage.Bucket + "/athena-results/"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	if c.API.Endpoint == "" {
		return errors.New("api.endpoint is required")
	}
	if c.API.Key == "" {
		return errors.New("api.key is required")
	}
	if c.AWS.Region == "" {
		return errors.New("aws.region is required")
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required")
	}
	if c.Storage.Object == "" {
		return errors.New("storage.object is required")
	}
	if c.Catalog.Database == "" {
		return errors.New("catalog.database is required")
	}
	if c.Catalog.Table == "" {
		return errors.New("catalog.table is required")
	}
	if c.Athena.Database == "" {
		return errors.New("athena.database is required")
	}
	if c.Logs.Group == "" {
		return errors.New("logs.group is required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.Storage.WaitTimeout <= 0 {
		return errors.New("storage.wait_timeout must be positive")
	}
	if c.Athena.PollInterval <= 0 {
		return errors.New("athena.poll_interval must be positive")
	}
	if c.Athena.Timeout <= 0 {
		return errors.New("athena.timeout must be positive")
	}
	return nil
}

// ObjectKey returns the full key of the uploaded data object.
func (c *AppConfig) ObjectKey() string {
	return c.Storage.Prefix + c.Storage.Object
}

// TableLocation returns the S3 location the catalog table is registered over.
func (c *AppConfig) TableLocation() string {
	return "s3://" + c.Storage.Bucket + "/" + c.Storage.Prefix
}
