package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultMessageMaxBytes is the ceiling on the serialized size of a message submission.
	DefaultMessageMaxBytes = 27 * 1024 * 1024

	defaultAppAddr         = ":8080"
	defaultQueryTimeout    = 5 * time.Second
	defaultExecuteTimeout  = 10 * time.Second
	defaultStorageFolder   = "uploads"
	defaultBroadcastChan   = "chat-app"
	defaultPushIcon        = "https://res.cloudinary.com/doqfvbdxe/image/upload/v1730303244/uploads/k5fozza3te6srxjpvbms.png"
	defaultUploadPreset    = "properly"
	defaultLocalStorageDir = "storage/uploads"
)

// Provider exposes the application configuration through typed getters so
// packages depend on behaviour rather than on the concrete struct.
type Provider interface {
	GetAppAddr() string
	GetAppBaseURL() string
	GetSessionSecret() string
	GetLogFormat() string
	GetLogLevel() string

	GetDBURL() string
	GetDBNs() string
	GetDBDb() string
	GetDBUser() string
	GetDBPass() string
	GetDBQueryTimeout() time.Duration
	GetDBExecuteTimeout() time.Duration

	GetStorageProvider() string
	GetStorageFolder() string
	GetCloudinaryCloudName() string
	GetCloudinaryUploadPreset() string
	GetS3Endpoint() string
	GetS3PublicEndpoint() string
	GetS3Region() string
	GetS3Bucket() string
	GetS3AccessKey() string
	GetS3SecretKey() string
	GetS3SSLDisabled() bool
	GetLocalStorageDir() string
	GetLocalStorageBaseURL() string

	GetPubSubDriver() string
	GetRedisAddr() string
	GetBroadcastChannel() string
	GetPubSubTracingEnabled() bool
	GetPubSubTracingServiceName() string
	GetPubSubTracingZipkinURL() string

	GetPushProvider() string
	GetBeamsInstanceID() string
	GetBeamsSecretKey() string
	GetPushIconURL() string

	GetMessageMaxBytes() int
}

// Config holds all configuration for the application.
type Config struct {
	AppAddr       string
	AppBaseURL    string
	SessionSecret string
	LogFormat     string
	LogLevel      string

	DBUrl            string
	DBNs             string
	DBDb             string
	DBUser           string
	DBPass           string
	DBQueryTimeout   time.Duration
	DBExecuteTimeout time.Duration

	StorageProvider        string
	StorageFolder          string
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	S3Endpoint             string
	S3PublicEndpoint       string
	S3Region               string
	S3Bucket               string
	S3AccessKey            string
	S3SecretKey            string
	S3SSLDisabled          bool
	LocalStorageDir        string
	LocalStorageBaseURL    string

	PubSubDriver             string
	RedisAddr                string
	BroadcastChannel         string
	PubSubTracingEnabled     bool
	PubSubTracingServiceName string
	PubSubTracingZipkinURL   string

	PushProvider    string
	BeamsInstanceID string
	BeamsSecretKey  string
	PushIconURL     string

	MessageMaxBytes int
}

// New loads configuration from a .env file, when present, and the process environment.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		AppAddr:       getEnv("APP_ADDR", defaultAppAddr),
		AppBaseURL:    getEnv("APP_BASE_URL", "http://localhost:8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		LogLevel:      getEnv("LOG_LEVEL", "debug"),

		DBUrl:            os.Getenv("SURREAL_URL"),
		DBNs:             os.Getenv("SURREAL_NS"),
		DBDb:             os.Getenv("SURREAL_DB"),
		DBUser:           os.Getenv("SURREAL_USER"),
		DBPass:           os.Getenv("SURREAL_PASS"),
		DBQueryTimeout:   getDuration("DB_QUERY_TIMEOUT", defaultQueryTimeout),
		DBExecuteTimeout: getDuration("DB_EXECUTE_TIMEOUT", defaultExecuteTimeout),

		StorageProvider:        strings.ToLower(getEnv("STORAGE_PROVIDER", "local")),
		StorageFolder:          getEnv("STORAGE_FOLDER", defaultStorageFolder),
		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryUploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", defaultUploadPreset),
		S3Endpoint:             os.Getenv("S3_ENDPOINT"),
		S3PublicEndpoint:       os.Getenv("S3_PUBLIC_ENDPOINT"),
		S3Region:               getEnv("S3_REGION", "auto"),
		S3Bucket:               os.Getenv("S3_BUCKET"),
		S3AccessKey:            os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:            os.Getenv("S3_SECRET_KEY"),
		S3SSLDisabled:          getBool("S3_SSL_DISABLED", false),
		LocalStorageDir:        getEnv("LOCAL_STORAGE_DIR", defaultLocalStorageDir),
		LocalStorageBaseURL:    getEnv("LOCAL_STORAGE_BASE_URL", "/uploads"),

		PubSubDriver:             strings.ToLower(getEnv("PUBSUB_DRIVER", "memory")),
		RedisAddr:                getEnv("REDIS_ADDR", "localhost:6379"),
		BroadcastChannel:         getEnv("BROADCAST_CHANNEL", defaultBroadcastChan),
		PubSubTracingEnabled:     getBool("PUBSUB_TRACING_ENABLED", false),
		PubSubTracingServiceName: getEnv("PUBSUB_TRACING_SERVICE_NAME", "properly"),
		PubSubTracingZipkinURL:   getEnv("PUBSUB_TRACING_ZIPKIN_URL", "http://localhost:9411/api/v2/spans"),

		PushProvider:    strings.ToLower(getEnv("PUSH_PROVIDER", "log")),
		BeamsInstanceID: os.Getenv("BEAMS_INSTANCE_ID"),
		BeamsSecretKey:  os.Getenv("BEAMS_SECRET_KEY"),
		PushIconURL:     getEnv("PUSH_ICON_URL", defaultPushIcon),

		MessageMaxBytes: getInt("MESSAGE_MAX_BYTES", DefaultMessageMaxBytes),
	}
}

// Validate reports every required key that is missing for the selected providers.
func (c *Config) Validate() error {
	var missing []string
	require := func(key, value string) {
		if value == "" {
			missing = append(missing, key)
		}
	}

	require("SURREAL_URL", c.DBUrl)
	require("SURREAL_NS", c.DBNs)
	require("SURREAL_DB", c.DBDb)
	require("SESSION_SECRET", c.SessionSecret)

	switch c.StorageProvider {
	case "cloudinary":
		require("CLOUDINARY_CLOUD_NAME", c.CloudinaryCloudName)
		require("CLOUDINARY_UPLOAD_PRESET", c.CloudinaryUploadPreset)
	case "s3":
		require("S3_BUCKET", c.S3Bucket)
		require("S3_ACCESS_KEY", c.S3AccessKey)
		require("S3_SECRET_KEY", c.S3SecretKey)
	case "local":
		require("LOCAL_STORAGE_DIR", c.LocalStorageDir)
	default:
		return fmt.Errorf("unsupported STORAGE_PROVIDER %q", c.StorageProvider)
	}

	switch c.PubSubDriver {
	case "memory":
	case "redis":
		require("REDIS_ADDR", c.RedisAddr)
	default:
		return fmt.Errorf("unsupported PUBSUB_DRIVER %q", c.PubSubDriver)
	}

	switch c.PushProvider {
	case "log":
	case "beams":
		require("BEAMS_INSTANCE_ID", c.BeamsInstanceID)
		require("BEAMS_SECRET_KEY", c.BeamsSecretKey)
	default:
		return fmt.Errorf("unsupported PUSH_PROVIDER %q", c.PushProvider)
	}

	if c.MessageMaxBytes <= 0 {
		return errors.New("MESSAGE_MAX_BYTES must be positive")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) GetAppAddr() string       { return c.AppAddr }
func (c *Config) GetAppBaseURL() string    { return c.AppBaseURL }
func (c *Config) GetSessionSecret() string { return c.SessionSecret }
func (c *Config) GetLogFormat() string     { return c.LogFormat }
func (c *Config) GetLogLevel() string      { return c.LogLevel }

func (c *Config) GetDBURL() string                   { return c.DBUrl }
func (c *Config) GetDBNs() string                    { return c.DBNs }
func (c *Config) GetDBDb() string                    { return c.DBDb }
func (c *Config) GetDBUser() string                  { return c.DBUser }
func (c *Config) GetDBPass() string                  { return c.DBPass }
func (c *Config) GetDBQueryTimeout() time.Duration   { return c.DBQueryTimeout }
func (c *Config) GetDBExecuteTimeout() time.Duration { return c.DBExecuteTimeout }

func (c *Config) GetStorageProvider() string        { return c.StorageProvider }
func (c *Config) GetStorageFolder() string          { return c.StorageFolder }
func (c *Config) GetCloudinaryCloudName() string    { return c.CloudinaryCloudName }
func (c *Config) GetCloudinaryUploadPreset() string { return c.CloudinaryUploadPreset }
func (c *Config) GetS3Endpoint() string             { return c.S3Endpoint }
func (c *Config) GetS3PublicEndpoint() string       { return c.S3PublicEndpoint }
func (c *Config) GetS3Region() string               { return c.S3Region }
func (c *Config) GetS3Bucket() string               { return c.S3Bucket }
func (c *Config) GetS3AccessKey() string            { return c.S3AccessKey }
func (c *Config) GetS3SecretKey() string            { return c.S3SecretKey }
func (c *Config) GetS3SSLDisabled() bool            { return c.S3SSLDisabled }
func (c *Config) GetLocalStorageDir() string        { return c.LocalStorageDir }
func (c *Config) GetLocalStorageBaseURL() string    { return c.LocalStorageBaseURL }

func (c *Config) GetPubSubDriver() string             { return c.PubSubDriver }
func (c *Config) GetRedisAddr() string                { return c.RedisAddr }
func (c *Config) GetBroadcastChannel() string         { return c.BroadcastChannel }
func (c *Config) GetPubSubTracingEnabled() bool       { return c.PubSubTracingEnabled }
func (c *Config) GetPubSubTracingServiceName() string { return c.PubSubTracingServiceName }
func (c *Config) GetPubSubTracingZipkinURL() string   { return c.PubSubTracingZipkinURL }

func (c *Config) GetPushProvider() string    { return c.PushProvider }
func (c *Config) GetBeamsInstanceID() string { return c.BeamsInstanceID }
func (c *Config) GetBeamsSecretKey() string  { return c.BeamsSecretKey }
func (c *Config) GetPushIconURL() string     { return c.PushIconURL }

func (c *Config) GetMessageMaxBytes() int { return c.MessageMaxBytes }

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using default %s", key, v, fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
