package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/bloomdrive/bloomdrive/internal/flagx"
	"github.com/bloomdrive/bloomdrive/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "720h" and integer nanoseconds. After unmarshalling,
// its fields are copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddr            string         `json:"endpoint_addr"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	OTPValidityDuration     timex.Duration `json:"otp_validity_duration"`
	ListCacheTTL            timex.Duration `json:"list_cache_ttl"`
	BlobBackend             string         `json:"blob_backend"`
	LocalBlobDir            string         `json:"local_blob_dir"`
	S3RootUser              string         `json:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
	RedisAddr               string         `json:"redis_addr"`
	RedisPassword           string         `json:"redis_password"`
	RedisDB                 int            `json:"redis_db"`
	CookieSecure            bool           `json:"cookie_secure"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. An unreadable file or
// invalid JSON panics: a half-applied config is worse than a crash at boot.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.SessionValidityDuration = time.Duration(c.SessionValidityDuration.Duration)
	config.OTPValidityDuration = time.Duration(c.OTPValidityDuration.Duration)
	config.ListCacheTTL = time.Duration(c.ListCacheTTL.Duration)
	config.BlobBackend = c.BlobBackend
	config.LocalBlobDir = c.LocalBlobDir
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.RedisAddr = c.RedisAddr
	config.RedisPassword = c.RedisPassword
	config.RedisDB = c.RedisDB
	config.CookieSecure = c.CookieSecure
}
