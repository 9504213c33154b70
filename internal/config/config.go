package config

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
	"philcali.me/pubsubhubbub/internal/exceptions"
)

const DEFAULT_LEASE_SECONDS = 2592000 // 30 days in seconds

type Config struct {
	SecretKey           string
	TableName           string
	TopicArn            string
	PublicUrl           string
	DefaultLeaseSeconds int
	MinimumLeaseSeconds int
	RequestTimeout      time.Duration
	RenewWindow         time.Duration
	LogLevel            string
}

// LoadConfig reads settings from the environment, layered over an optional
// YAML file named by CONFIG_FILE.
func LoadConfig() (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("table_name", "SubscriptionData")
	v.SetDefault("topic_arn", "")
	v.SetDefault("public_url", "")
	v.SetDefault("default_lease_seconds", DEFAULT_LEASE_SECONDS)
	v.SetDefault("minimum_lease_seconds", 3600)
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("renew_window", "24h")
	v.SetDefault("log_level", "info")
	v.AutomaticEnv()

	if filename := os.Getenv("CONFIG_FILE"); filename != "" {
		v.SetConfigFile(filename)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				return nil, errors.New("config file not found")
			}
			return nil, err
		}
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	c := &Config{
		SecretKey:           v.GetString("secret_key"),
		TableName:           v.GetString("table_name"),
		TopicArn:            v.GetString("topic_arn"),
		PublicUrl:           v.GetString("public_url"),
		DefaultLeaseSeconds: v.GetInt("default_lease_seconds"),
		MinimumLeaseSeconds: v.GetInt("minimum_lease_seconds"),
		RequestTimeout:      v.GetDuration("request_timeout"),
		RenewWindow:         v.GetDuration("renew_window"),
		LogLevel:            v.GetString("log_level"),
	}
	if c.SecretKey == "" {
		return nil, exceptions.Configuration("secret_key must be set")
	}
	if c.DefaultLeaseSeconds <= 0 {
		return nil, exceptions.Configuration("default_lease_seconds must be positive, got %d", c.DefaultLeaseSeconds)
	}
	if c.MinimumLeaseSeconds <= 0 {
		return nil, exceptions.Configuration("minimum_lease_seconds must be positive, got %d", c.MinimumLeaseSeconds)
	}
	if c.RequestTimeout <= 0 {
		return nil, exceptions.Configuration("request_timeout must be positive")
	}
	return c, nil
}

func Load() (*Config, error) {
	v, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return ParseConfig(v)
}
