package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Mailjet  MailjetConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the postgres connection string for gorm.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type JWTConfig struct {
	SecretKey               string
	AccessTokenExpireMinute int
}

func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.AccessTokenExpireMinute) * time.Minute
}

type RedisConfig struct {
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	ProductListTTL time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	EmailTopic    string
	ConsumerGroup string
}

type MailjetConfig struct {
	MailjetBaseUrl           string
	MailjetBasicAuthUsername string
	MailjetBasicAuthPassword string
	MailjetSenderEmail       string
	MailjetSenderName        string
}

// Load reads the process environment, optionally seeded from a .env file.
// The returned value is never mutated afterwards.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	listTTL, err := getEnvInt("PRODUCT_LIST_CACHE_TTL_SECONDS", 120)
	if err != nil {
		return nil, err
	}

	expireMinutes, err := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}

	timeoutSeconds, err := getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Online Shop API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RequestTimeout: time.Duration(timeoutSeconds) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "online_shop"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:               getEnv("JWT_SECRET", ""),
			AccessTokenExpireMinute: expireMinutes,
		},
		Redis: RedisConfig{
			RedisHost:      getEnv("REDIS_HOST", "localhost"),
			RedisPort:      getEnv("REDIS_PORT", "6379"),
			RedisPassword:  getEnv("REDIS_PASSWORD", ""),
			RedisDB:        redisDB,
			ProductListTTL: time.Duration(listTTL) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			EmailTopic:    getEnv("KAFKA_EMAIL_TOPIC", "online-shop.email-jobs"),
			ConsumerGroup: getEnv("KAFKA_EMAIL_CONSUMER_GROUP", "online-shop-email-worker"),
		},
		Mailjet: MailjetConfig{
			MailjetBaseUrl:           getEnv("MAILJET_BASE_URL", "https://api.mailjet.com"),
			MailjetBasicAuthUsername: getEnv("MAILJET_BASIC_AUTH_USERNAME", ""),
			MailjetBasicAuthPassword: getEnv("MAILJET_BASIC_AUTH_PASSWORD", ""),
			MailjetSenderEmail:       getEnv("MAILJET_SENDER_EMAIL", ""),
			MailjetSenderName:        getEnv("MAILJET_SENDER_NAME", "Online Shop"),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.JWT.AccessTokenExpireMinute <= 0 {
		return nil, errors.New("access token expiry must be positive")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToLower(key), err)
	}

	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
