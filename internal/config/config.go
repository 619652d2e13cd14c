package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shouni/gemini-imagine/pkg/generator"
)

const envPrefix = "IMAGINE"

type Config struct {
	Server  ServerConfig
	Gemini  GeminiConfig
	Session SessionConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration // 0 = 無制限（生成にはタイムアウトを設けない）
}

// Addr は listen するアドレスを返します。
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type GeminiConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
}

type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	QuotaBytes    int
	SecureCookie  bool
}

type LogConfig struct {
	Level       string
	Development bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", time.Duration(0))
	v.SetDefault("gemini.text_model", generator.DefaultTextModel)
	v.SetDefault("gemini.image_model", generator.DefaultImageModel)
	v.SetDefault("session.idle_ttl", 24*time.Hour)
	v.SetDefault("session.sweep_interval", 5*time.Minute)
	v.SetDefault("session.quota_bytes", 5*1024*1024) // ブラウザの sessionStorage 相当
	v.SetDefault("session.secure_cookie", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load は既定値、設定ファイル（任意）、環境変数、フラグの順で設定を読み込みます。
// flags には "設定キー" → フラグ の対応を渡します。nil でも構いません。
func Load(configFile string, flags map[string]*pflag.Flag) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini.api_key", envPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	for key, flag := range flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("server.host"),
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Gemini: GeminiConfig{
			APIKey:     v.GetString("gemini.api_key"),
			TextModel:  v.GetString("gemini.text_model"),
			ImageModel: v.GetString("gemini.image_model"),
		},
		Session: SessionConfig{
			IdleTTL:       v.GetDuration("session.idle_ttl"),
			SweepInterval: v.GetDuration("session.sweep_interval"),
			QuotaBytes:    v.GetInt("session.quota_bytes"),
			SecureCookie:  v.GetBool("session.secure_cookie"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
	}
	return cfg, nil
}

// Validate は Gemini を呼び出すために必要な設定が揃っているか確認します。
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		errs = append(errs, errors.New("gemini API key is required: set GEMINI_API_KEY or gemini.api_key"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	if c.Session.QuotaBytes < 0 {
		errs = append(errs, fmt.Errorf("session.quota_bytes must not be negative: %d", c.Session.QuotaBytes))
	}
	if c.Session.IdleTTL < 0 {
		errs = append(errs, fmt.Errorf("session.idle_ttl must not be negative: %s", c.Session.IdleTTL))
	}
	return errors.Join(errs...)
}
