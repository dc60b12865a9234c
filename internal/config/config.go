package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver  string `mapstructure:"driver"` // postgres / sqlite
	DSN     string `mapstructure:"dsn"`    // postgres only
	Path    string `mapstructure:"path"`   // sqlite only
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type BucketConfig struct {
	Uploads   string `mapstructure:"uploads"`    // sales reports and repository files
	UserFiles string `mapstructure:"user_files"` // free-form user storage
	Profiles  string `mapstructure:"profiles"`   // avatars
}

type StorageConfig struct {
	Endpoint       string       `mapstructure:"endpoint"` // empty = AWS default
	Region         string       `mapstructure:"region"`
	AccessKey      string       `mapstructure:"access_key"`
	SecretKey      string       `mapstructure:"secret_key"`
	ForcePathStyle bool         `mapstructure:"force_path_style"`
	PublicBaseURL  string       `mapstructure:"public_base_url"`
	TimeoutSeconds int          `mapstructure:"timeout_seconds"`
	Buckets        BucketConfig `mapstructure:"buckets"`
}

type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"` // empty disables the mirror
	Exchange string `mapstructure:"exchange"`
}

type AppSubConfig struct {
	MaxUploadMB int `mapstructure:"max_upload_mb"`
	MaxAvatarMB int `mapstructure:"max_avatar_mb"`
	PageSize    int `mapstructure:"page_size"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Events   EventsConfig   `mapstructure:"events"`
	App      AppSubConfig   `mapstructure:"app"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. DASH_SERVER_PORT=9000
		v.SetEnvPrefix("DASH")
		v.AutomaticEnv()

		setDefaults(v)

		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/dashboard.db")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.timeout_seconds", 30)
	v.SetDefault("storage.buckets.uploads", "uploads")
	v.SetDefault("storage.buckets.user_files", "user-files")
	v.SetDefault("storage.buckets.profiles", "profiles")
	v.SetDefault("events.exchange", "dashboard.changes")
	v.SetDefault("app.max_upload_mb", 50)
	v.SetDefault("app.max_avatar_mb", 5)
	v.SetDefault("app.page_size", 20)
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}

// MaxUploadBytes returns the general upload cap in bytes.
func (a AppSubConfig) MaxUploadBytes() int64 {
	return int64(a.MaxUploadMB) * 1024 * 1024
}

// MaxAvatarBytes returns the avatar upload cap in bytes.
func (a AppSubConfig) MaxAvatarBytes() int64 {
	return int64(a.MaxAvatarMB) * 1024 * 1024
}
