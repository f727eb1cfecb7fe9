package queue

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Enabled    bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers    []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic      string   `envconfig:"KAFKA_TOPIC" default:"commission.materialize"`
	GroupID    string   `envconfig:"KAFKA_GROUP_ID" default:"settlement-worker"`
	MaxRetries int      `envconfig:"KAFKA_MAX_RETRIES" default:"5"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
