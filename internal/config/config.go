package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Upload   UploadConfig   `mapstructure:"upload"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration. Tokens are minted by the
// auth service elsewhere; this backend only verifies them.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// UploadConfig tunes the recording upload pipeline.
type UploadConfig struct {
	// PartSizeMiB is the fixed multipart part size for disk-backed transfers.
	PartSizeMiB int64 `mapstructure:"part_size_mib"`
	// PartConcurrency bounds how many parts are in flight per transfer.
	PartConcurrency int `mapstructure:"part_concurrency"`
	// MemoryLimitMiB is the cutover point: files at or below it are buffered
	// in memory and sent as a single PUT, larger ones are spooled to disk
	// and streamed as a multipart upload.
	MemoryLimitMiB int64 `mapstructure:"memory_limit_mib"`
	// URLExpiry is the TTL of the read-access signed URLs handed back to
	// callers. Distinct from any upload-side presign TTL.
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

// PartSize returns the multipart part size in bytes.
func (u UploadConfig) PartSize() int64 {
	return u.PartSizeMiB * 1024 * 1024
}

// MemoryLimit returns the in-memory buffering cutover in bytes.
func (u UploadConfig) MemoryLimit() int64 {
	return u.MemoryLimitMiB * 1024 * 1024
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variable handling, e.g. s3.bucket_name -> S3_BUCKET_NAME
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "lms_backend")
	viper.SetDefault("s3.use_ssl", true)
	// Register the secret-bearing keys so AutomaticEnv can supply them
	// without a config file on disk.
	viper.SetDefault("s3.endpoint", "")
	viper.SetDefault("s3.region", "")
	viper.SetDefault("s3.access_key_id", "")
	viper.SetDefault("s3.secret_access_key", "")
	viper.SetDefault("s3.bucket_name", "")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("upload.part_size_mib", 10)
	viper.SetDefault("upload.part_concurrency", 5)
	viper.SetDefault("upload.memory_limit_mib", 8)
	viper.SetDefault("upload.url_expiry", "15m")

	err = viper.ReadInConfig()
	// A missing config file is fine; env vars and defaults still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
