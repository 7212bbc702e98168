package config

import (
	"log"
	"strings"
	"time"

	"github.com/jinzhu/configor"
	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port      string `default:"5020" env:"PORT"`
	Cors      string `env:"CORS_ORIGINS"` // comma separated, e.g. http://a.com,http://b.com
	ClientURL string `default:"http://localhost:3000" env:"CLIENT_URL"` // base of the password reset link
	Env       string `default:"production" env:"ENV"`
}

type MongoConfig struct {
	URI            string `default:"mongodb://localhost:27017/" env:"MONGO_URI"`
	Database       string `default:"doctor_appointment" env:"DB_NAME"`
	Transactions   bool   `env:"MONGO_TRANSACTIONS"`
	TimeoutSeconds int    `default:"10" env:"MONGO_TIMEOUT_SECONDS"`
}

type AuthConfig struct {
	JWTSecret            string `env:"JWT_SECRET"`
	TokenTTLHours        int    `default:"48" env:"TOKEN_TTL_HOURS"`
	ResetTokenTTLSeconds int    `default:"60" env:"RESET_TOKEN_TTL_SECONDS"`
}

type MailConfig struct {
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	FromName       string `default:"Doctor Appointment" env:"MAIL_FROM_NAME"`
	FromEmail      string `default:"no-reply@doctorappointment.local" env:"MAIL_FROM"`
	SMTPHost       string `env:"SMTP_HOST"`
	SMTPPort       int    `default:"587" env:"SMTP_PORT"`
	SMTPUser       string `env:"SMTP_USER"`
	SMTPPassword   string `env:"SMTP_PASSWORD"`
}

type AWSConfig struct {
	Region     string `default:"ap-south-1" env:"AWS_REGION"`
	BucketName string `env:"AWS_BUCKET_NAME"`
}

type RedisConfig struct {
	Addr            string `env:"REDIS_ADDR"` // empty disables the doctor cache
	Password        string `env:"REDIS_PASSWORD"`
	DB              int    `env:"REDIS_DB"`
	CacheTTLSeconds int    `default:"300" env:"DOCTOR_CACHE_TTL_SECONDS"`
}

type ReminderConfig struct {
	Cron string `default:"0 7 * * *" env:"REMINDER_CRON"`
}

type AppConfig struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Auth     AuthConfig
	Mail     MailConfig
	AWS      AWSConfig
	Redis    RedisConfig
	Reminder ReminderConfig
}

// LoadConfig loads environment variables from .env file, then config.yml and the environment
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}

	var cfg AppConfig
	if err := configor.New(&configor.Config{ENVPrefix: "APP", Silent: true}).Load(&cfg, "config.yml"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c MongoConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c AuthConfig) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenTTLSeconds) * time.Second
}

func (c RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Origins splits Cors into the allowed origins, "*" when none are set
func (c ServerConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.Cors, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func (c ServerConfig) IsDev() bool {
	return c.Env == "development"
}
