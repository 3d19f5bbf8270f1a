// Ininicializing common application configuration
package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Lock     LockConfig     `mapstructure:"lock"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

type ServerConfig struct {
	AppVersion   string `json:"appVersion"`
	Host         string `json:"host" validate:"required"`
	Port         string `json:"port" validate:"required"`
	Timeout      time.Duration
	Idle_timeout time.Duration
	Env          string `json:"environment"`
	Mode         string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `json:"host" validate:"required"`
	Port     int    `json:"port" validate:"required"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type BookingConfig struct {
	RefundCutoffHours  int `mapstructure:"refund_cutoff_hours"`  // отмена раньше — кредиты возвращаются
	CheckInOpenMinutes int `mapstructure:"check_in_open_minutes"` // за сколько минут до начала открыт чекин
}

type LockConfig struct {
	KeyPrefix    string        `mapstructure:"key_prefix"`
	LeaseSeconds int           `mapstructure:"lease_seconds"`
	Lease        time.Duration `mapstructure:"-"`
}

type WorkerConfig struct {
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Fatalf("unable to decode config into struct, %v", err)
		return nil, err
	}

	if c.Booking.RefundCutoffHours == 0 {
		c.Booking.RefundCutoffHours = 4
	}
	if c.Booking.CheckInOpenMinutes == 0 {
		c.Booking.CheckInOpenMinutes = 15
	}
	if c.Lock.KeyPrefix == "" {
		c.Lock.KeyPrefix = "booking_lock"
	}
	if c.Lock.LeaseSeconds == 0 {
		c.Lock.LeaseSeconds = 10
	}
	c.Lock.Lease = time.Duration(c.Lock.LeaseSeconds) * time.Second
	if c.Worker.SweepIntervalMinutes == 0 {
		c.Worker.SweepIntervalMinutes = 60
	}

	return &c, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
