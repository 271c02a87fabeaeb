package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Booking  BookingConfig
	Admin    AdminConfig
}

type AppConfig struct {
	Name                   string
	Port                   string
	Debug                  bool
	LogPath                string
	StorageDriver          string
	ShutdownTimeoutSeconds int
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type RedisConfig struct {
	Addr                   string
	Password               string
	DB                     int
	AvailabilityTTLSeconds int
}

type RabbitMQConfig struct {
	URL string
}

// BookingConfig holds the ledger policy knobs.
type BookingConfig struct {
	HoldMinutes          int
	VIPDiscountPercent   float64
	CleanupBufferMinutes int
	SweepIntervalSeconds int
	SweepBatchSize       int
}

type AdminConfig struct {
	Username string
	Password string
	Email    string
}

func (b BookingConfig) HoldDuration() time.Duration {
	return time.Duration(b.HoldMinutes) * time.Minute
}

func (b BookingConfig) CleanupBuffer() time.Duration {
	return time.Duration(b.CleanupBufferMinutes) * time.Minute
}

func (b BookingConfig) SweepInterval() time.Duration {
	return time.Duration(b.SweepIntervalSeconds) * time.Second
}

func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

func (r RedisConfig) AvailabilityTTL() time.Duration {
	return time.Duration(r.AvailabilityTTLSeconds) * time.Second
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// LoadConfig reads ./.env when present and lets environment variables override it.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	v.SetDefault("APP_NAME", "cinema-reservation")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("JWT_EXPIRY_HOURS", 12)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_AVAILABILITY_TTL_SECONDS", 30)
	v.SetDefault("HOLD_MINUTES", 15)
	v.SetDefault("VIP_DISCOUNT_PERCENT", 10)
	v.SetDefault("CLEANUP_BUFFER_MINUTES", 15)
	v.SetDefault("SWEEP_INTERVAL_SECONDS", 60)
	v.SetDefault("SWEEP_BATCH_SIZE", 500)
	v.SetDefault("ADMIN_USERNAME", "admin")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:                   v.GetString("APP_NAME"),
			Port:                   v.GetString("PORT"),
			Debug:                  v.GetBool("DEBUG"),
			LogPath:                v.GetString("LOG_PATH"),
			StorageDriver:          v.GetString("STORAGE_DRIVER"),
			ShutdownTimeoutSeconds: v.GetInt("SHUTDOWN_TIMEOUT_SECONDS"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASS"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Redis: RedisConfig{
			Addr:                   v.GetString("REDIS_ADDR"),
			Password:               v.GetString("REDIS_PASSWORD"),
			DB:                     v.GetInt("REDIS_DB"),
			AvailabilityTTLSeconds: v.GetInt("REDIS_AVAILABILITY_TTL_SECONDS"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: v.GetString("RABBITMQ_URL"),
		},
		Booking: BookingConfig{
			HoldMinutes:          v.GetInt("HOLD_MINUTES"),
			VIPDiscountPercent:   v.GetFloat64("VIP_DISCOUNT_PERCENT"),
			CleanupBufferMinutes: v.GetInt("CLEANUP_BUFFER_MINUTES"),
			SweepIntervalSeconds: v.GetInt("SWEEP_INTERVAL_SECONDS"),
			SweepBatchSize:       v.GetInt("SWEEP_BATCH_SIZE"),
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
			Email:    v.GetString("ADMIN_EMAIL"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.App.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return errors.New("STORAGE_DRIVER must be postgres or memory")
	}
	if c.Booking.HoldMinutes <= 0 {
		return errors.New("HOLD_MINUTES must be positive")
	}
	if c.Booking.VIPDiscountPercent < 0 || c.Booking.VIPDiscountPercent > 100 {
		return errors.New("VIP_DISCOUNT_PERCENT must be between 0 and 100")
	}
	if c.Booking.SweepIntervalSeconds <= 0 {
		return errors.New("SWEEP_INTERVAL_SECONDS must be positive")
	}
	if c.Booking.SweepBatchSize <= 0 {
		return errors.New("SWEEP_BATCH_SIZE must be positive")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}
