package config

import (
	"os"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	return AppConfig{
		ServiceName: "nba-datalake",
		API: APIConfig{
			Endpoint: "https://api.sportsdata.io/v3/nba/scores/json/Players",
			Key:      "secret",
			Timeout:  30 * time.Second,
		},
		AWS: AWSConfig{Region: "us-east-1"},
		Storage: StorageConfig{
			Bucket:      "sports-analytics-data-lake",
			Prefix:      "raw-data/",
			Object:      "nba_player_data.jsonl",
			WaitTimeout: 30 * time.Second,
		},
		Catalog: CatalogConfig{Database: "glue_nba_data_lake", Table: "nba_players"},
		Athena: AthenaConfig{
			Database:     "nba_analytics",
			PollInterval: 1 * time.Second,
			Timeout:      2 * time.Minute,
		},
		Logs: LogsConfig{Group: "NBAAnalyticsLogGroup"},
	}
}

func TestConfigValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid config passes validation", prop.ForAll(
		func(bucket, database, table string) bool {
			cfg := validConfig()
			cfg.Storage.Bucket = bucket
			cfg.Catalog.Database = database
			cfg.Catalog.Table = table
			return cfg.Validate() == nil
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.Property("missing api key fails validation", prop.ForAll(
		func(endpoint string) bool {
			cfg := validConfig()
			cfg.API.Endpoint = endpoint
			cfg.API.Key = ""
			return cfg.Validate() != nil
		},
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestConfigValidationRequiredFields(t *testing.T) {
	strip := map[string]func(*AppConfig){
		"api.endpoint":     func(c *AppConfig) { c.API.Endpoint = "" },
		"api.key":          func(c *AppConfig) { c.API.Key = "" },
		"aws.region":       func(c *AppConfig) { c.AWS.Region = "" },
		"storage.bucket":   func(c *AppConfig) { c.Storage.Bucket = "" },
		"storage.object":   func(c *AppConfig) { c.Storage.Object = "" },
		"catalog.database": func(c *AppConfig) { c.Catalog.Database = "" },
		"catalog.table":    func(c *AppConfig) { c.Catalog.Table = "" },
		"athena.database":  func(c *AppConfig) { c.Athena.Database = "" },
		"logs.group":       func(c *AppConfig) { c.Logs.Group = "" },
	}

	for field, clear := range strip {
		t.Run(field, func(t *testing.T) {
			cfg := validConfig()
			clear(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), field)
		})
	}
}

// A zero poll interval would panic the Athena wait loop's ticker, so bad
// durations must be rejected before any client is built.
func TestConfigValidationRejectsNonPositiveDurations(t *testing.T) {
	strip := map[string]func(*AppConfig){
		"api.timeout":          func(c *AppConfig) { c.API.Timeout = 0 },
		"storage.wait_timeout": func(c *AppConfig) { c.Storage.WaitTimeout = -1 * time.Second },
		"athena.poll_interval": func(c *AppConfig) { c.Athena.PollInterval = 0 },
		"athena.timeout":       func(c *AppConfig) { c.Athena.Timeout = -1 * time.Second },
	}

	for field, clear := range strip {
		t.Run(field, func(t *testing.T) {
			cfg := validConfig()
			clear(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	os.Setenv("SERVICE_NAME", "test-service")
	os.Setenv("NBA_ENDPOINT", "https://api.sportsdata.io/v3/nba/scores/json/Players")
	os.Setenv("SPORTS_DATA_API_KEY", "test-key")
	os.Setenv("BUCKET_NAME", "test-bucket")
	os.Setenv("RAW_DATA_PREFIX", "raw-data")
	os.Setenv("API_TIMEOUT", "10s")
	defer os.Clearenv()

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "test-service", cfg.ServiceName)
	assert.Equal(t, "https://api.sportsdata.io/v3/nba/scores/json/Players", cfg.API.Endpoint)
	assert.Equal(t, "test-key", cfg.API.Key)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "test-bucket", cfg.Storage.Bucket)

	// Defaults
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, "glue_nba_data_lake", cfg.Catalog.Database)
	assert.Equal(t, "nba_players", cfg.Catalog.Table)
	assert.Equal(t, "nba_analytics", cfg.Athena.Database)
	assert.Equal(t, "NBAAnalyticsLogGroup", cfg.Logs.Group)

	// Fixups
	assert.Equal(t, "raw-data/", cfg.Storage.Prefix)
	assert.Equal(t, "s3://test-bucket/athena-results/", cfg.Athena.OutputLocation)
	assert.Equal(t, "raw-data/nba_player_data.jsonl", cfg.ObjectKey())
	assert.Equal(t, "s3://test-bucket/raw-data/", cfg.TableLocation())

	// Missing credentials must fail
	os.Unsetenv("SPORTS_DATA_API_KEY")
	_, err = Load("")
	assert.Error(t, err)
}
