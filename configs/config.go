package configs

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultSMTPTimeout = 20 * time.Second

type Config struct {
	Port        string
	Version     string
	DataDir     string
	DatabaseURL string

	AllowedOrigins []string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPTo       string
	SMTPTimeout  time.Duration

	NotifyWorkers   int
	NotifyQueueSize int
	AMQPURL         string

	RequireCompany     bool
	PersistAttachments bool
}

func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "leads.db")
}

func (c *Config) CSVPath() string {
	return filepath.Join(c.DataDir, "leads.csv")
}

func (c *Config) AttachmentsDir() string {
	return filepath.Join(c.DataDir, "attachments")
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("DATA_DIR", "/var/tmp/lead_capture_data")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("SMTP_TIMEOUT", "20s")
	v.SetDefault("NOTIFY_WORKERS", 4)
	v.SetDefault("NOTIFY_QUEUE_SIZE", 100)

	// nomes antigos do deploy Zoho continuam valendo
	_ = v.BindEnv("SMTP_USER", "SMTP_USER", "ZOHO_EMAIL")
	_ = v.BindEnv("SMTP_PASSWORD", "SMTP_PASSWORD", "ZOHO_APP_PASSWORD")
	_ = v.BindEnv("SMTP_TO", "SMTP_TO", "ZOHO_TO_EMAIL")
	_ = v.BindEnv("SMTP_HOST", "SMTP_HOST", "ZOHO_SMTP_HOST")
	_ = v.BindEnv("SMTP_PORT", "SMTP_PORT", "ZOHO_SMTP_PORT")

	cfg := &Config{
		Port:               strings.TrimSpace(v.GetString("PORT")),
		Version:            strings.TrimSpace(v.GetString("APP_VERSION")),
		DataDir:            strings.TrimSpace(v.GetString("DATA_DIR")),
		DatabaseURL:        strings.TrimSpace(v.GetString("DATABASE_URL")),
		AllowedOrigins:     allowedOrigins(v.GetString("ALLOWED_ORIGINS"), v.GetString("FRONTEND_ORIGIN")),
		SMTPHost:           strings.TrimSpace(v.GetString("SMTP_HOST")),
		SMTPPort:           v.GetInt("SMTP_PORT"),
		SMTPUser:           strings.TrimSpace(v.GetString("SMTP_USER")),
		SMTPPassword:       strings.TrimSpace(v.GetString("SMTP_PASSWORD")),
		SMTPTo:             strings.TrimSpace(v.GetString("SMTP_TO")),
		SMTPTimeout:        smtpTimeout(v.GetString("SMTP_TIMEOUT")),
		NotifyWorkers:      v.GetInt("NOTIFY_WORKERS"),
		NotifyQueueSize:    v.GetInt("NOTIFY_QUEUE_SIZE"),
		AMQPURL:            strings.TrimSpace(v.GetString("AMQP_URL")),
		RequireCompany:     v.GetBool("OPEN_ACCESS_REQUIRE_COMPANY"),
		PersistAttachments: v.GetBool("PERSIST_ATTACHMENTS"),
	}

	if cfg.SMTPHost == "" {
		cfg.SMTPHost = "smtp.zoho.in"
	}
	if cfg.SMTPPort <= 0 {
		cfg.SMTPPort = 465
	}
	if cfg.SMTPTo == "" {
		cfg.SMTPTo = cfg.SMTPUser
	}
	if cfg.NotifyWorkers <= 0 {
		cfg.NotifyWorkers = 1
	}
	if cfg.NotifyQueueSize < 0 {
		cfg.NotifyQueueSize = 0
	}

	return cfg
}

// smtpTimeout aceita "20s" ou "20" (segundos). Abaixo de 1s volta ao padrão.
func smtpTimeout(raw string) time.Duration {
	raw = strings.TrimSpace(raw)

	var d time.Duration
	if n, err := strconv.Atoi(raw); err == nil {
		d = time.Duration(n) * time.Second
	} else if parsed, err := time.ParseDuration(raw); err == nil {
		d = parsed
	}

	if d < time.Second {
		return defaultSMTPTimeout
	}
	return d
}

func allowedOrigins(list, single string) []string {
	var origins []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) > 0 {
		return origins
	}
	if single = strings.TrimSpace(single); single != "" {
		return []string{single}
	}
	return []string{"*"}
}
