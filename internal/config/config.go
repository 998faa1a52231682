// Package config loads configs/config.yml with MIXERGY_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"mixergy_bridge/internal/bus"
	"mixergy_bridge/internal/logger"
	"mixergy_bridge/internal/tank"
)

// EnvPrefix prefixes every environment override, e.g. MIXERGY_MIXERGY_PASSWORD
// or MIXERGY_LOG_LEVEL.
const EnvPrefix = "MIXERGY"

var ErrMissingCredentials = errors.New("mixergy username, password and serial_number are required")

type Config struct {
	Port    string        `mapstructure:"port"`
	Log     LogConfig     `mapstructure:"log"`
	Mixergy MixergyConfig `mapstructure:"mixergy"`
	Auth    AuthConfig    `mapstructure:"auth"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MixergyConfig is the upstream account and tank.
type MixergyConfig struct {
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	SerialNumber   string        `mapstructure:"serial_number"`
	RootURL        string        `mapstructure:"root_url"`
	StompURL       string        `mapstructure:"stomp_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	PushEnabled    bool          `mapstructure:"push_enabled"`
}

// AuthConfig is the single operator of the local control API.
type AuthConfig struct {
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"`
	SigningKey   string        `mapstructure:"signing_key"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         int    `mapstructure:"qos"`
}

// New returns a viper instance with defaults, search paths and environment
// binding set up. file, when not empty, overrides the search paths.
func New(file string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", logger.InfoLevel)

	v.SetDefault("mixergy.username", "")
	v.SetDefault("mixergy.password", "")
	v.SetDefault("mixergy.serial_number", "")
	v.SetDefault("mixergy.root_url", tank.DefaultRootURL)
	v.SetDefault("mixergy.stomp_url", tank.DefaultStompURL)
	v.SetDefault("mixergy.request_timeout", tank.DefaultRequestTimeout)
	v.SetDefault("mixergy.connect_timeout", tank.DefaultConnectTimeout)
	v.SetDefault("mixergy.retry_delay", tank.DefaultRetryDelay)
	v.SetDefault("mixergy.poll_interval", tank.DefaultPollInterval)
	v.SetDefault("mixergy.push_enabled", true)

	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "mixergy-bridge")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "mixergy_event")
	v.SetDefault("mqtt.qos", 0)
}

// Load reads the config file, if one exists, and decodes everything into
// a Config. A missing file is not an error; defaults and environment
// still apply.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
		return Config{}, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
	}
	return cfg, nil
}

// RequireTank reports whether enough is configured to talk to a tank.
func (c Config) RequireTank() error {
	m := c.Mixergy
	if m.Username == "" || m.Password == "" || m.SerialNumber == "" {
		return ErrMissingCredentials
	}
	return nil
}

// TankConfig converts the mixergy section into a tank client config.
func (c Config) TankConfig(log *logger.Logger) tank.Config {
	m := c.Mixergy
	return tank.Config{
		Username:       m.Username,
		Password:       m.Password,
		SerialNumber:   m.SerialNumber,
		RootURL:        m.RootURL,
		StompURL:       m.StompURL,
		RequestTimeout: m.RequestTimeout,
		ConnectTimeout: m.ConnectTimeout,
		RetryDelay:     m.RetryDelay,
		Logger:         log,
	}
}

// BusConfig converts the mqtt section into an MQTT sink config.
func (c Config) BusConfig() bus.MQTTConfig {
	m := c.MQTT
	return bus.MQTTConfig{
		Broker:      m.Broker,
		ClientID:    m.ClientID,
		Username:    m.Username,
		Password:    m.Password,
		TopicPrefix: m.TopicPrefix,
		QoS:         byte(m.QoS),
	}
}
