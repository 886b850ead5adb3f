package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avramov/authgate/internal/flagx"
	"github.com/avramov/authgate/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "30m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	ActionTokenValidityDuration  timex.Duration `json:"action_token_validity_duration"`
	RefreshRotationEnabled       bool           `json:"refresh_rotation_enabled"`
	FrontendURL                  string         `json:"frontend_url"`
	RedisAddr                    string         `json:"redis_addr"`
	CleanupInterval              timex.Duration `json:"cleanup_interval"`
	AWSRegion                    string         `json:"aws_region"`
	AWSAccessKeyID               string         `json:"aws_access_key_id"`
	AWSSecretAccessKey           string         `json:"aws_secret_access_key"`
	NotificationQueueURL         string         `json:"notification_queue_url"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. The DTO is pre-seeded from the
// current Config so keys omitted in the file keep their existing values.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{
		EndpointAddrHTTP:             config.EndpointAddrHTTP,
		DatabaseDSN:                  config.DatabaseDSN,
		SecretKey:                    config.SecretKey,
		AccessTokenValidityDuration:  timex.Duration{Duration: config.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: config.RefreshTokenValidityDuration},
		ActionTokenValidityDuration:  timex.Duration{Duration: config.ActionTokenValidityDuration},
		RefreshRotationEnabled:       config.RefreshRotationEnabled,
		FrontendURL:                  config.FrontendURL,
		RedisAddr:                    config.RedisAddr,
		CleanupInterval:              timex.Duration{Duration: config.CleanupInterval},
		AWSRegion:                    config.AWSRegion,
		AWSAccessKeyID:               config.AWSAccessKeyID,
		AWSSecretAccessKey:           config.AWSSecretAccessKey,
		NotificationQueueURL:         config.NotificationQueueURL,
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	config.ActionTokenValidityDuration = time.Duration(c.ActionTokenValidityDuration.Duration)
	config.RefreshRotationEnabled = c.RefreshRotationEnabled
	config.FrontendURL = c.FrontendURL
	config.RedisAddr = c.RedisAddr
	config.CleanupInterval = time.Duration(c.CleanupInterval.Duration)
	config.AWSRegion = c.AWSRegion
	config.AWSAccessKeyID = c.AWSAccessKeyID
	config.AWSSecretAccessKey = c.AWSSecretAccessKey
	config.NotificationQueueURL = c.NotificationQueueURL
}
