package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Server ServerConfig    `mapstructure:"server"`
		Limits RateLimitConfig `mapstructure:"rate_limits"`
	}

	ServerConfig struct {
		Port             int      `mapstructure:"port"`
		DBPath           string   `mapstructure:"db_path"`
		ReadTimeout      int      `mapstructure:"read_timeout"`
		ShutdownTimeout  int      `mapstructure:"shutdown_timeout"`
		BodyLimit        int      `mapstructure:"body_limit"`
		CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
		ClientIpFromLast int      `mapstructure:"client_ip_from_last"`
		AccessLogPath    string   `mapstructure:"access_log_path"`
		OpenAPIPath      string   `mapstructure:"openapi_path"`
	}

	RateLimitConfig struct {
		UserLimit int                            `mapstructure:"user_limit"`
		Endpoints map[string]EndpointLimitConfig `mapstructure:"endpoints"`
	}

	EndpointLimitConfig struct {
		Max        int `mapstructure:"max"`
		Expiration int `mapstructure:"expiration_seconds"`
	}
)

// LoadConfig は config.yaml（カレント、./config、追加パスの順）を読み込み、GAMES_ 環境変数で上書きする
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("GAMES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.db_path", "./data/games.db")
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.shutdown_timeout", 10)
	v.SetDefault("server.body_limit", 1024*1024)
	v.SetDefault("server.cors_allow_origins", []string{"*"})
	v.SetDefault("server.client_ip_from_last", 1)
	v.SetDefault("server.access_log_path", "")
	v.SetDefault("server.openapi_path", "./openapi.yaml")
	v.SetDefault("rate_limits.user_limit", 0)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.DBPath) == "" {
		return errors.New("server.db_path must not be empty")
	}
	if c.Server.ClientIpFromLast < 1 {
		return fmt.Errorf("server.client_ip_from_last must be >= 1, got %d", c.Server.ClientIpFromLast)
	}
	if c.Server.BodyLimit < 0 {
		return fmt.Errorf("server.body_limit must not be negative, got %d", c.Server.BodyLimit)
	}
	return nil
}
