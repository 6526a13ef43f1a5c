package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Local & deployment secrets (fill up for local development)
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`
	Environment        string `envconfig:"ENV" default:"development"`
	Port               string `envconfig:"PORT" default:"8080"`

	// Notification dispatch (Pub/Sub)
	GCPProjectID          string `envconfig:"GCP_PROJECT_ID"`
	GCPProjectIDLocal     string `envconfig:"GCP_PROJECT_ID_LOCAL" default:"servconnect-local"`
	PubSubEmulatorHost    string `envconfig:"PUBSUB_EMULATOR_HOST"`
	NotificationTopic     string `envconfig:"PUBSUB_NOTIFICATION_TOPIC" default:"user-notifications"`

	// Retention trimming (pgmq)
	RetentionQueueName      string `envconfig:"RETENTION_QUEUE_NAME" default:"gas_reading_trim"`
	RetentionPollTimeoutSec int    `envconfig:"RETENTION_POLL_TIMEOUT_SEC" default:"5"`
	RetentionPollMaxMsg     int    `envconfig:"RETENTION_POLL_MAX_MSG" default:"10"`
	ReadingRetentionCap     int    `envconfig:"READING_RETENTION_CAP" default:"500"`

	// Fallback catalog item for auto-orders when the vendor has no gas item
	DefaultGasItemName   string `envconfig:"DEFAULT_GAS_ITEM_NAME" default:"LPG Gas Cylinder (2kg)"`
	DefaultGasPriceCents int64  `envconfig:"DEFAULT_GAS_PRICE_CENTS" default:"50000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetGCPProjectID returns the project used for Pub/Sub: the local project when
// the emulator host is set, the configured project otherwise.
func (c *Config) GetGCPProjectID() string {
	if c.PubSubEmulatorHost != "" {
		return c.GCPProjectIDLocal
	}
	return c.GCPProjectID
}
