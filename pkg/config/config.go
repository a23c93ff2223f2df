package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	RunMigration bool

	// KafkaBrokers is empty when event publishing should stay in-process.
	KafkaBrokers []string

	// Accounting policy knobs. Percentages are decimal fractions, e.g. 0.30.
	ReserveFundPercentage decimal.Decimal
	LateFeeMonthlyRate    decimal.Decimal
	LateFeeGraceDays      int
	OpenWindowMonthsBack  int
	OpenWindowMonthsFwd   int
}

// LoadConfig loads configuration from environment variables and a .env file
// if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("RUN_MIGRATION", true)
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("RESERVE_FUND_PERCENTAGE", "0.30")
	viper.SetDefault("LATE_FEE_MONTHLY_RATE", "0.02")
	viper.SetDefault("LATE_FEE_GRACE_DAYS", 5)
	viper.SetDefault("OPEN_WINDOW_MONTHS_BACK", 3)
	viper.SetDefault("OPEN_WINDOW_MONTHS_FWD", 1)

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:  viper.GetString("PGSQL_URL"),
		Port:         viper.GetString("PORT"),
		IsProduction: viper.GetBool("IS_PRODUCTION"),
		RunMigration: viper.GetBool("RUN_MIGRATION"),

		LateFeeGraceDays:      viper.GetInt("LATE_FEE_GRACE_DAYS"),
		OpenWindowMonthsBack:  viper.GetInt("OPEN_WINDOW_MONTHS_BACK"),
		OpenWindowMonthsFwd:   viper.GetInt("OPEN_WINDOW_MONTHS_FWD"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	if brokers := viper.GetString("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	// A malformed rate must never fall back silently; appropriations would run
	// with a percentage the operator did not set.
	pct, err := decimal.NewFromString(viper.GetString("RESERVE_FUND_PERCENTAGE"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESERVE_FUND_PERCENTAGE %q: %w", viper.GetString("RESERVE_FUND_PERCENTAGE"), err)
	}
	cfg.ReserveFundPercentage = pct

	rate, err := decimal.NewFromString(viper.GetString("LATE_FEE_MONTHLY_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid LATE_FEE_MONTHLY_RATE %q: %w", viper.GetString("LATE_FEE_MONTHLY_RATE"), err)
	}
	cfg.LateFeeMonthlyRate = rate

	return cfg, nil
}
