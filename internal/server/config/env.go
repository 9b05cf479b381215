package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names read by parseEnv.
const (
	EnvEndpointAddr    = "FOCUSSYNC_ADDR"
	EnvDatabaseDSN     = "FOCUSSYNC_DATABASE_DSN"
	EnvSecretKey       = "FOCUSSYNC_SECRET_KEY"
	EnvAccessTokenTTL  = "FOCUSSYNC_ACCESS_TOKEN_TTL"
	EnvRefreshTokenTTL = "FOCUSSYNC_REFRESH_TOKEN_TTL"
	EnvS3RootUser      = "FOCUSSYNC_S3_ROOT_USER"
	EnvS3RootPassword  = "FOCUSSYNC_S3_ROOT_PASSWORD"
	EnvS3Bucket        = "FOCUSSYNC_S3_BUCKET"
	EnvS3Region        = "FOCUSSYNC_S3_REGION"
	EnvS3BaseEndpoint  = "FOCUSSYNC_S3_BASE_ENDPOINT"
	EnvShutdownTimeout = "FOCUSSYNC_SHUTDOWN_TIMEOUT"
	EnvLogLevel        = "FOCUSSYNC_LOG_LEVEL"
)

// parseEnv loads dotenvPath into the process environment (variables that
// are already set win) and overlays cfg with every FOCUSSYNC_* variable that
// is set and non-empty. A missing dotenv file is fine; a malformed one or an
// unparsable duration panics, like the other sources.
func parseEnv(cfg *Config, dotenvPath string) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	setString(&cfg.EndpointAddr, os.Getenv(EnvEndpointAddr))
	setString(&cfg.DatabaseDSN, os.Getenv(EnvDatabaseDSN))
	setString(&cfg.SecretKey, os.Getenv(EnvSecretKey))
	setString(&cfg.S3RootUser, os.Getenv(EnvS3RootUser))
	setString(&cfg.S3RootPassword, os.Getenv(EnvS3RootPassword))
	setString(&cfg.S3Bucket, os.Getenv(EnvS3Bucket))
	setString(&cfg.S3Region, os.Getenv(EnvS3Region))
	setString(&cfg.S3BaseEndpoint, os.Getenv(EnvS3BaseEndpoint))
	setString(&cfg.LogLevel, os.Getenv(EnvLogLevel))

	envDuration(&cfg.AccessTokenValidityDuration, EnvAccessTokenTTL)
	envDuration(&cfg.RefreshTokenValidityDuration, EnvRefreshTokenTTL)
	envDuration(&cfg.ShutdownTimeout, EnvShutdownTimeout)
}

func envDuration(dst *time.Duration, name string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
