package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ModelPath            string
	ModelHighResolution  bool
	AllowOutsideLifespan bool
	StrictZonePolicy     bool
	EvalCacheSize        int

	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseDuration("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseEvalCacheSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ModelPath:            os.Getenv("MODEL_PATH"),
		ModelHighResolution:  envBool("MODEL_HIGH_RESOLUTION"),
		AllowOutsideLifespan: envBool("ALLOW_OUTSIDE_LIFESPAN"),
		StrictZonePolicy:     envBool("STRICT_ZONE_POLICY"),
		EvalCacheSize:        cacheSize,

		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "position-fixes"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "field-reports"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "geomag-field-etl"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.ModelPath == "" {
		return nil, errors.New("MODEL_PATH is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func parseBatchSize() (int, error) {
	s := envOrDefault("BATCH_SIZE", "50")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 1000 {
		return 0, errors.New("BATCH_SIZE must be an integer between 1 and 1000")
	}
	return n, nil
}

// parseEvalCacheSize returns the evaluation cache capacity. Zero disables
// the cache; negative values are rejected.
func parseEvalCacheSize() (int, error) {
	s := envOrDefault("EVAL_CACHE_SIZE", "1000")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("EVAL_CACHE_SIZE must be a non-negative integer")
	}
	return n, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New(key + " must be a positive duration")
	}
	return d, nil
}
