package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Драйверы хранилища
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Провайдеры почты
const (
	MailProviderResend   = "resend"
	MailProviderSendGrid = "sendgrid"
	MailProviderNoop     = "noop"
)

// Config хранит все настройки приложения
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Mail         MailConfig
	Notification NotificationConfig
	Quiz         QuizConfig
	YouTube      YouTubeConfig `mapstructure:"youtube"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	// Driver: "postgres" (по умолчанию) или "memory" для локальной разработки без БД
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// IsConfigured возвращает true, если задан хотя бы один адрес Redis
func (r *RedisConfig) IsConfigured() bool {
	return len(r.Addrs) > 0 || r.Addr != ""
}

// JWTConfig содержит настройки проверки токенов сервиса идентификации
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// MailConfig содержит настройки отправки писем
type MailConfig struct {
	Provider       string `mapstructure:"provider"`
	ResendAPIKey   string `mapstructure:"resend_api_key"`
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromEmail      string `mapstructure:"from_email"`
	FromName       string `mapstructure:"from_name"`
}

// NotificationConfig содержит настройки писем с результатами.
// После MaxFailures неудачных отправок письмо больше не повторяется.
type NotificationConfig struct {
	SendTimeout     time.Duration `mapstructure:"send_timeout"`
	SweepCron       string        `mapstructure:"sweep_cron"`
	SweepBatch      int           `mapstructure:"sweep_batch"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
	MaxFailures     int           `mapstructure:"max_failures"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	RetryMaxBackoff time.Duration `mapstructure:"retry_max_backoff"`
}

// QuizConfig содержит настройки банка вопросов и попыток
type QuizConfig struct {
	QuestionCacheTTL   time.Duration `mapstructure:"question_cache_ttl"`
	SubmitRateLimit    int           `mapstructure:"submit_rate_limit"`
	SubmitRateWindow   time.Duration `mapstructure:"submit_rate_window"`
	MaxAnswersPerBatch int           `mapstructure:"max_answers_per_batch"`
}

// YouTubeConfig содержит настройки получения ссылки для встраивания
type YouTubeConfig struct {
	OEmbedURL string        `mapstructure:"oembed_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения (используется migrate CLI через lib/pq)
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 15)
	vip.SetDefault("database.driver", DriverPostgres)
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("mail.provider", MailProviderNoop)
	vip.SetDefault("mail.from_name", "Eneza")
	vip.SetDefault("notification.send_timeout", 10*time.Second)
	vip.SetDefault("notification.sweep_cron", "*/5 * * * *")
	vip.SetDefault("notification.sweep_batch", 50)
	vip.SetDefault("notification.lock_ttl", time.Minute)
	vip.SetDefault("notification.max_failures", 10)
	vip.SetDefault("notification.retry_backoff", 5*time.Minute)
	vip.SetDefault("notification.retry_max_backoff", 6*time.Hour)
	vip.SetDefault("quiz.question_cache_ttl", 10*time.Minute)
	vip.SetDefault("quiz.submit_rate_limit", 10)
	vip.SetDefault("quiz.submit_rate_window", time.Minute)
	vip.SetDefault("quiz.max_answers_per_batch", 200)
	vip.SetDefault("youtube.oembed_url", "https://www.youtube.com/oembed")
	vip.SetDefault("youtube.timeout", 5*time.Second)
}

// Load загружает конфигурацию из файла и переменных окружения.
// Переменные из .env (если файл есть) загружаются до чтения окружения.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Предупреждение: не удалось загрузить .env: %v", err)
	}

	vip := viper.New()
	setDefaults(vip)

	// Привязка для секции Database
	vip.BindEnv("database.driver", "DATABASE_DRIVER")
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секции JWT
	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.issuer", "JWT_ISSUER")

	// Привязка для секции Mail
	vip.BindEnv("mail.provider", "MAIL_PROVIDER")
	vip.BindEnv("mail.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("mail.sendgrid_api_key", "SENDGRID_API_KEY")
	vip.BindEnv("mail.from_email", "MAIL_FROM_EMAIL")
	vip.BindEnv("mail.from_name", "MAIL_FROM_NAME")

	// Привязка для секции Notification
	vip.BindEnv("notification.sweep_cron", "NOTIFICATION_SWEEP_CRON")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Driver: %s", cfg.Database.Driver)
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Mail Provider: %s", cfg.Mail.Provider)
		log.Printf("Notification Sweep Cron: %s", cfg.Notification.SweepCron)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	switch c.Mail.Provider {
	case MailProviderResend:
		if c.Mail.ResendAPIKey == "" {
			return fmt.Errorf("resend API key is required (check RESEND_API_KEY env var)")
		}
	case MailProviderSendGrid:
		if c.Mail.SendGridAPIKey == "" {
			return fmt.Errorf("sendgrid API key is required (check SENDGRID_API_KEY env var)")
		}
	case MailProviderNoop:
	default:
		return fmt.Errorf("unsupported mail provider: %q", c.Mail.Provider)
	}
	if c.Mail.Provider != MailProviderNoop && c.Mail.FromEmail == "" {
		return fmt.Errorf("mail from address is required (check MAIL_FROM_EMAIL env var)")
	}

	if c.Notification.SweepBatch <= 0 {
		return fmt.Errorf("notification.sweep_batch must be positive")
	}
	if c.Notification.SendTimeout <= 0 {
		return fmt.Errorf("notification.send_timeout must be positive")
	}
	if c.Notification.MaxFailures < 0 {
		return fmt.Errorf("notification.max_failures must not be negative")
	}
	return nil
}
