package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion        string
	WorkflowTable    string // DynamoDB table for workflow + outbox records
	WorkflowTableGSI1 string // status-keyed GSI
	WorkflowTableGSI2 string // type-keyed GSI
	EventBusName     string

	// Outbox processor configuration
	OutboxBatchSize int
	OutboxInterval  time.Duration

	// Downstream service endpoints, keyed by the serviceName a step
	// definition names (§6's RemoteCall port).
	ServiceEndpoints map[string]string

	// Redis (distributed lock) configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	// Remote call / circuit breaker configuration
	RemoteCallTimeout       time.Duration
	CircuitBreakerThreshold uint32
	CircuitBreakerInterval  time.Duration
	CircuitBreakerTimeout   time.Duration

	// Waveless scheduler configuration
	SchedulerDefaultBatchSize int
	SchedulerBaseTickInterval time.Duration

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool

	// MetricsNamespace is the CloudWatch namespace metrics are emitted
	// under when EnableMetrics is true.
	MetricsNamespace string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		AWSRegion:         getEnv("AWS_REGION", "us-west-2"),
		WorkflowTable:     getEnv("WORKFLOW_TABLE", "orchestrator-workflows"),
		WorkflowTableGSI1: getEnv("WORKFLOW_TABLE_GSI1", "StatusIndex"),
		WorkflowTableGSI2: getEnv("WORKFLOW_TABLE_GSI2", "TypeIndex"),
		EventBusName:      getEnv("EVENT_BUS_NAME", "orchestrator-events"),

		OutboxBatchSize: getEnvInt("OUTBOX_BATCH_SIZE", 25),
		OutboxInterval:  getEnvDuration("OUTBOX_INTERVAL", 5*time.Second),

		ServiceEndpoints: map[string]string{
			"inventory-service":   getEnv("INVENTORY_SERVICE_URL", "http://inventory-service:8081"),
			"payment-service":     getEnv("PAYMENT_SERVICE_URL", "http://payment-service:8082"),
			"fulfillment-service": getEnv("FULFILLMENT_SERVICE_URL", "http://fulfillment-service:8083"),
			"shipping-service":    getEnv("SHIPPING_SERVICE_URL", "http://shipping-service:8084"),
			"warehouse-service":   getEnv("WAREHOUSE_SERVICE_URL", "http://warehouse-service:8085"),
			"returns-service":     getEnv("RETURNS_SERVICE_URL", "http://returns-service:8086"),
		},

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		LockTTL:       getEnvDuration("LOCK_TTL", 30*time.Second),

		RemoteCallTimeout:       getEnvDuration("REMOTE_CALL_TIMEOUT", 10*time.Second),
		CircuitBreakerThreshold: uint32(getEnvInt("CIRCUIT_BREAKER_THRESHOLD", 5)),
		CircuitBreakerInterval:  getEnvDuration("CIRCUIT_BREAKER_INTERVAL", 60*time.Second),
		CircuitBreakerTimeout:   getEnvDuration("CIRCUIT_BREAKER_TIMEOUT", 30*time.Second),

		SchedulerDefaultBatchSize: getEnvInt("SCHEDULER_DEFAULT_BATCH_SIZE", 10),
		SchedulerBaseTickInterval: getEnvDuration("SCHEDULER_BASE_TICK_INTERVAL", time.Second),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "Orchestrator"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.WorkflowTable == "" {
			return fmt.Errorf("WORKFLOW_TABLE is required")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
