package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App   AppSettings   `mapstructure:"app"`
	Redis RedisSettings `mapstructure:"redis"`
	Auth  AuthSettings  `mapstructure:"auth"`
	LLM   LLMSettings   `mapstructure:"llm"`
	QA    QASettings    `mapstructure:"qa"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// RedisSettings configures the shared key-value store backing both the answer
// cache and the token denylist. The two live in distinct key namespaces.
type RedisSettings struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	DB                int    `mapstructure:"db"`
	Password          string `mapstructure:"password"`
	TLSEnabled        bool   `mapstructure:"tls_enabled"`
	AnswerCachePrefix string `mapstructure:"answer_cache_prefix"`
	RevocationPrefix  string `mapstructure:"revocation_prefix"`
}

// AuthSettings configures session token issuance and revocation.
type AuthSettings struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	RevocationTTL  time.Duration `mapstructure:"revocation_ttl"`
	ServiceAccount string        `mapstructure:"service_account"`
	ServiceSecret  string        `mapstructure:"service_secret"`
}

// LLMSettings configures the model backend provider.
type LLMSettings struct {
	Provider       string        `mapstructure:"provider"`
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Temperature    float64       `mapstructure:"temperature"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// QASettings bounds document intake and answer caching.
type QASettings struct {
	MaxFileSize       int64         `mapstructure:"max_file_size"`
	MinTextLength     int           `mapstructure:"min_text_length"`
	MinQuestionLength int           `mapstructure:"min_question_length"`
	MaxQuestionLength int           `mapstructure:"max_question_length"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("QA")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.answer_cache_prefix",
		"redis.revocation_prefix",
		"auth.jwt_secret",
		"auth.token_ttl",
		"auth.revocation_ttl",
		"auth.service_account",
		"auth.service_secret",
		"llm.provider",
		"llm.base_url",
		"llm.api_key",
		"llm.model",
		"llm.max_tokens",
		"llm.temperature",
		"llm.request_timeout",
		"qa.max_file_size",
		"qa.min_text_length",
		"qa.min_question_length",
		"qa.max_question_length",
		"qa.cache_ttl",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "talks-qa")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.answer_cache_prefix", "qa:answer")
	v.SetDefault("redis.revocation_prefix", "auth:revoked")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "30m")
	v.SetDefault("auth.revocation_ttl", "1h")
	v.SetDefault("auth.service_account", "")
	v.SetDefault("auth.service_secret", "")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 500)
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.request_timeout", "120s")

	v.SetDefault("qa.max_file_size", 10*1024*1024)
	v.SetDefault("qa.min_text_length", 50)
	v.SetDefault("qa.min_question_length", 5)
	v.SetDefault("qa.max_question_length", 500)
	v.SetDefault("qa.cache_ttl", "1h")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "QA_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
