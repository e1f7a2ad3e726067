package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var DefaultEnvConfig *envConfig

type envConfig struct {
	// server config
	APP_PORT int
	// database config
	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_CONN_MAX_LIFETIME time.Duration
	DB_MAX_IDLE_CONNS    int
	DB_MAX_OPEN_CONNS    int
	// elasticsearch config
	ES_URL   string
	ES_INDEX string
	// datastore config
	DATASTORE_PROJECT_ID string
	// dictionary config
	DICT_SOURCE    string
	DICT_CACHE_TTL time.Duration
	// object storage config
	MINIO_ENDPOINT   string
	MINIO_ACCESS_KEY string
	MINIO_SECRET_KEY string
	MINIO_BUCKET     string
	MINIO_USE_SSL    bool
	MINIO_URL_EXPIRY time.Duration
	// export config
	EXPORT_ENGINE      string
	EXPORT_SCHEMA_PATH string
	// logger config
	LOG_FILE_PATH string
	LOG_LEVEL     string
}

// LoadEnvConfig reads .env when present and fills DefaultEnvConfig from the
// environment.
func LoadEnvConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	DefaultEnvConfig = &envConfig{
		APP_PORT:             getEnvInt("APP_PORT", 8080),
		DB_HOST:              getEnvString("DB_HOST", "localhost"),
		DB_PORT:              getEnvInt("DB_PORT", 5432),
		DB_USER:              getEnvString("DB_USER", "postgres"),
		DB_PASSWORD:          getEnvString("DB_PASSWORD", "postgres"),
		DB_NAME:              getEnvString("DB_NAME", "postgres"),
		DB_SSL_MODE:          getEnvString("DB_SSL_MODE", "disable"),
		DB_CONN_MAX_LIFETIME: getEnvDuration("DB_CONN_MAX_LIFETIME", 20*time.Minute),
		DB_MAX_IDLE_CONNS:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DB_MAX_OPEN_CONNS:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
		ES_URL:               getEnvString("ES_URL", ""),
		ES_INDEX:             getEnvString("ES_INDEX", "employees"),
		DATASTORE_PROJECT_ID: getEnvString("DATASTORE_PROJECT_ID", ""),
		DICT_SOURCE:          getEnvString("DICT_SOURCE", "postgres"),
		DICT_CACHE_TTL:       getEnvDuration("DICT_CACHE_TTL", 10*time.Minute),
		MINIO_ENDPOINT:       getEnvString("MINIO_ENDPOINT", ""),
		MINIO_ACCESS_KEY:     getEnvString("MINIO_ACCESS_KEY", ""),
		MINIO_SECRET_KEY:     getEnvString("MINIO_SECRET_KEY", ""),
		MINIO_BUCKET:         getEnvString("MINIO_BUCKET", "exports"),
		MINIO_USE_SSL:        getEnvBool("MINIO_USE_SSL", false),
		MINIO_URL_EXPIRY:     getEnvDuration("MINIO_URL_EXPIRY", time.Hour),
		EXPORT_ENGINE:        getEnvString("EXPORT_ENGINE", "stream"),
		EXPORT_SCHEMA_PATH:   getEnvString("EXPORT_SCHEMA_PATH", ""),
		LOG_FILE_PATH:        getEnvString("LOG_FILE_PATH", ""),
		LOG_LEVEL:            getEnvString("LOG_LEVEL", "info"),
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
