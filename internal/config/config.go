package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage provider names accepted in storage.provider.
const (
	ProviderS3         = "s3"
	ProviderCloudinary = "cloudinary"
)

// Database drivers accepted in database.driver.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// MaxUploadBytes caps a single clip posted to a session.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
	// DraftTTL is how long an unfinalized draft is kept in memory.
	DraftTTL time.Duration `mapstructure:"draft_ttl"`
}

type DatabaseConfig struct {
	// Driver is "mongo" or "memory". The memory store is for local runs only.
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

// StorageConfig selects the active blob backend and carries settings for both,
// since stored records may still reference a previously configured backend.
type StorageConfig struct {
	Provider      string           `mapstructure:"provider"`
	UploadTimeout time.Duration    `mapstructure:"upload_timeout"`
	S3            S3Config         `mapstructure:"s3"`
	Cloudinary    CloudinaryConfig `mapstructure:"cloudinary"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	PartSize        int64  `mapstructure:"part_size"` // Multipart chunk size in bytes
}

// Configured reports whether enough is set to talk to the bucket.
func (c S3Config) Configured() bool {
	return c.BucketName != "" && c.Region != ""
}

type CloudinaryConfig struct {
	CloudName    string `mapstructure:"cloud_name"`
	UploadPreset string `mapstructure:"upload_preset"`
	// APIKey and APISecret are only needed for deletion.
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	APIBase   string `mapstructure:"api_base"`
	// HostMarker identifies references produced by this backend.
	HostMarker string `mapstructure:"host_marker"`
}

// Configured reports whether uploads can be performed.
func (c CloudinaryConfig) Configured() bool {
	return c.CloudName != "" && c.UploadPreset != "" && !strings.Contains(c.CloudName, "REPLACE")
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// NotifyConfig points at the push relay. An empty WebhookURL means notifications
// are only logged.
type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, storage.s3.bucket_name -> STORAGE_S3_BUCKET_NAME
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// Running on env vars and defaults only.
		err = nil
	} else if err != nil {
		return
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.max_upload_bytes", 200<<20)
	v.SetDefault("server.draft_ttl", 24*time.Hour)
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "fittrack")
	v.SetDefault("storage.provider", ProviderCloudinary)
	v.SetDefault("storage.upload_timeout", "60s")
	v.SetDefault("storage.s3.use_ssl", true)
	v.SetDefault("storage.s3.part_size", 5<<20)
	v.SetDefault("storage.cloudinary.api_base", "https://api.cloudinary.com")
	v.SetDefault("storage.cloudinary.host_marker", "cloudinary.com")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("notify.timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Nested keys only resolve from env when viper knows about them.
	for _, key := range []string{
		"storage.s3.endpoint", "storage.s3.region", "storage.s3.access_key_id",
		"storage.s3.secret_access_key", "storage.s3.bucket_name",
		"storage.cloudinary.cloud_name", "storage.cloudinary.upload_preset",
		"storage.cloudinary.api_key", "storage.cloudinary.api_secret",
		"jwt.secret", "notify.webhook_url",
	} {
		v.SetDefault(key, "")
	}
}
