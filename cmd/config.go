package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// How often the audit chain is revalidated end to end.
	AuditVerifyInterval time.Duration `envconfig:"AUDIT_VERIFY_INTERVAL" default:"15m"`

	// Entries fetched per batch during verification.
	AuditVerifyBatchSize int `envconfig:"AUDIT_VERIFY_BATCH_SIZE" default:"500"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
