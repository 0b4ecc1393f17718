package config

import (
	"os"
	"strconv"
	"strings"
)

// Supported DB_DRIVER values.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Supported STORAGE_DRIVER values.
const (
	StorageDisk  = "disk"
	StorageMinIO = "minio"
)

// DefaultAllowedExtensions is the upload allowlist used when ALLOWED_EXTENSIONS is unset.
var DefaultAllowedExtensions = []string{
	// documents
	".pdf", ".ppt", ".pptx", ".doc", ".docx",
	// images
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp",
	// videos
	".mp4", ".webm", ".ogg", ".mov", ".avi", ".mkv", ".m4v",
}

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	// URL is a complete connection string. When set it takes precedence over the individual parts.
	URL                string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	TimeoutSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// UploadConfig controls where attachments live and which uploads are accepted.
type UploadConfig struct {
	Dir               string
	MaxSize           int64
	AllowedExtensions []string
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowOrigins []string
}

// SweepConfig controls the orphaned attachment sweep.
type SweepConfig struct {
	IntervalSec int
	GraceSec    int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost       string
	Port          string
	TimeZone      string
	LogLevel      string
	DBDriver      string
	StorageDriver string
	Database      DatabaseConfig
	Mongo         MongoConfig
	MinIO         MinIOConfig
	Upload        UploadConfig
	CORS          CORSConfig
	Sweep         SweepConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:       getEnv("APP_HOST", "localhost:8080"),
		Port:          getEnv("PORT", "8080"),
		TimeZone:      getEnv("APP_TIMEZONE", "UTC"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDisk)),
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", "mongodb://localhost:27017/notka"),
			Database:   getEnv("MONGO_DATABASE", "notka"),
			Collection: getEnv("MONGO_COLLECTION", "notes"),
			TimeoutSec: getEnvInt("MONGO_TIMEOUT_SEC", 10),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Upload: UploadConfig{
			Dir:               getEnv("UPLOAD_DIR", "uploads"),
			MaxSize:           getEnvInt64("MAX_UPLOAD_SIZE", 100*1024*1024),
			AllowedExtensions: normalizeExtensions(getEnvList("ALLOWED_EXTENSIONS", DefaultAllowedExtensions)),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnvList("CORS_ALLOW_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://localhost:5174",
			}),
		},
		Sweep: SweepConfig{
			IntervalSec: getEnvInt("SWEEP_INTERVAL_SEC", 0),
			GraceSec:    getEnvInt("SWEEP_GRACE_SEC", 3600),
		},
	}
}

// normalizeExtensions lowercases entries and makes sure each starts with a dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvList splits a comma-separated value, dropping blank items.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
