package controller

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"settlementapi/src/commission"
)

type Config struct {
	// Platform cut of every order, in percent of the base amount. Injected
	// into the calculator so pricing stays a pure function of its inputs.
	PlatformCommissionPercent string `envconfig:"PLATFORM_COMMISSION_PERCENT" default:"0.15"`

	// Minimum length of cancellation and rejection reasons.
	MinReasonLength int `envconfig:"MIN_REASON_LENGTH" default:"10"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// CalcConfig converts the env configuration into calculator configuration.
func (c Config) CalcConfig() commission.Config {
	rate, err := decimal.NewFromString(c.PlatformCommissionPercent)
	if err != nil {
		panic(fmt.Errorf("invalid PLATFORM_COMMISSION_PERCENT %q: %w", c.PlatformCommissionPercent, err))
	}
	return commission.Config{PlatformRatePercent: rate}
}
