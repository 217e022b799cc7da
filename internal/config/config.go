package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Names of the credential variables checked at startup. Their absence is
// warned about but never fatal.
const (
	AccessKeyEnv = "AWS_ACCESS_KEY_ID"
	SecretKeyEnv = "AWS_SECRET_ACCESS_KEY"
)

// Config holds all worker settings, resolved once at startup. It is passed
// by value into the components that need it; nothing mutates it afterwards.
type Config struct {
	Bucket      string
	Endpoint    string
	Region      string
	ModelPath   string
	SyncOnStart bool
	Port        int
	LogLevel    string

	AccessKey string
	SecretKey string
}

// Load reads configuration from the environment, applying fixed defaults.
// A .env file in the working directory is honored when present.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("S3_BUCKET", "rd0cg4jfje")
	v.SetDefault("S3_ENDPOINT", "https://s3api-eu-cz-1.runpod.io")
	v.SetDefault("S3_REGION", "eu-cz-1")
	v.SetDefault("MODEL_PATH", "/model")
	v.SetDefault("MODEL_SYNC_ON_START", false)
	v.SetDefault("WORKER_PORT", 8000)
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()

	return Config{
		Bucket:      v.GetString("S3_BUCKET"),
		Endpoint:    v.GetString("S3_ENDPOINT"),
		Region:      v.GetString("S3_REGION"),
		ModelPath:   v.GetString("MODEL_PATH"),
		SyncOnStart: v.GetBool("MODEL_SYNC_ON_START"),
		Port:        v.GetInt("WORKER_PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		AccessKey:   v.GetString(AccessKeyEnv),
		SecretKey:   v.GetString(SecretKeyEnv),
	}
}

// HasCredentials reports whether both credential variables were set.
func (c Config) HasCredentials() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}
