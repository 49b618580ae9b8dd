package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from environment variables. A .env file in
// the working directory is loaded first if present; real environment
// variables take precedence over it because godotenv never overrides them.
//
// Recognized variables:
//
//	ADDRESS, DATABASE_DSN, SECRET_KEY,
//	SESSION_VALIDITY_DURATION, OTP_VALIDITY_DURATION, LIST_CACHE_TTL,
//	BLOB_BACKEND, LOCAL_BLOB_DIR,
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT,
//	REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, COOKIE_SECURE
//
// Duration variables use Go syntax ("720h", "10m").
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(name); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString("ADDRESS", &config.EndpointAddr)
	setString("DATABASE_DSN", &config.DatabaseDSN)
	setString("SECRET_KEY", &config.SecretKey)
	setDuration("SESSION_VALIDITY_DURATION", &config.SessionValidityDuration)
	setDuration("OTP_VALIDITY_DURATION", &config.OTPValidityDuration)
	setDuration("LIST_CACHE_TTL", &config.ListCacheTTL)
	setString("BLOB_BACKEND", &config.BlobBackend)
	setString("LOCAL_BLOB_DIR", &config.LocalBlobDir)
	setString("S3_ROOT_USER", &config.S3RootUser)
	setString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	setString("S3_BUCKET", &config.S3Bucket)
	setString("S3_REGION", &config.S3Region)
	setString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	setString("REDIS_ADDR", &config.RedisAddr)
	setString("REDIS_PASSWORD", &config.RedisPassword)

	if v, ok := os.LookupEnv("REDIS_DB"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.RedisDB = n
		}
	}
	if v, ok := os.LookupEnv("COOKIE_SECURE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.CookieSecure = b
		}
	}
}
