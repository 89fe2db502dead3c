// Package config loads the settings of the mailprobe binaries from an
// optional config file, a .env file and MAILPROBE_* environment variables,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/optimode/mailprobe"
)

// EnvPrefix prefixes every environment variable, e.g. MAILPROBE_SMTP_MAIL_FROM.
const EnvPrefix = "MAILPROBE"

// Config holds the settings shared by the server and the CLI.
type Config struct {
	ListenAddr  string
	LogLevel    logrus.Level
	LogFormat   string
	MaxBatch    int
	DomainHints bool

	HeloDomain    string
	MailFrom      string
	SMTPTimeout   time.Duration
	SMTPPort      string
	ProxyAddr     string
	ProxyUser     string
	ProxyPassword string

	DNSTimeout  time.Duration
	Nameserver  string
	DNSCacheTTL time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("max_batch", 500)
	v.SetDefault("domain_hints", true)

	v.SetDefault("smtp.helo_domain", "")
	v.SetDefault("smtp.mail_from", "")
	v.SetDefault("smtp.timeout", "8s")
	v.SetDefault("smtp.port", "25")
	v.SetDefault("smtp.proxy_addr", "")
	v.SetDefault("smtp.proxy_user", "")
	v.SetDefault("smtp.proxy_password", "")

	v.SetDefault("dns.timeout", "5s")
	v.SetDefault("dns.nameserver", "")
	v.SetDefault("dns.cache_ttl", "5m")
}

// Load reads the configuration. configFile may be empty; MAILPROBE_CONFIG
// names one as well. A .env file in the working directory is loaded into
// the environment first when present.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("ignoring unreadable .env file")
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	level, err := logrus.ParseLevel(v.GetString("log.level"))
	if err != nil {
		logrus.WithField("value", v.GetString("log.level")).Warn("invalid log level, using info")
		level = logrus.InfoLevel
	}

	cfg := &Config{
		ListenAddr:  v.GetString("listen_addr"),
		LogLevel:    level,
		LogFormat:   strings.ToLower(v.GetString("log.format")),
		MaxBatch:    v.GetInt("max_batch"),
		DomainHints: v.GetBool("domain_hints"),

		HeloDomain:    v.GetString("smtp.helo_domain"),
		MailFrom:      v.GetString("smtp.mail_from"),
		SMTPTimeout:   v.GetDuration("smtp.timeout"),
		SMTPPort:      v.GetString("smtp.port"),
		ProxyAddr:     v.GetString("smtp.proxy_addr"),
		ProxyUser:     v.GetString("smtp.proxy_user"),
		ProxyPassword: v.GetString("smtp.proxy_password"),

		DNSTimeout:  v.GetDuration("dns.timeout"),
		Nameserver:  v.GetString("dns.nameserver"),
		DNSCacheTTL: v.GetDuration("dns.cache_ttl"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration fields are set and valid.
func (c *Config) Validate() error {
	if c.HeloDomain == "" {
		return errors.New("MAILPROBE_SMTP_HELO_DOMAIN is required")
	}
	if c.MailFrom == "" || !strings.Contains(c.MailFrom, "@") {
		return errors.New("MAILPROBE_SMTP_MAIL_FROM is required and must be an address")
	}
	if c.SMTPTimeout <= 0 {
		return errors.New("MAILPROBE_SMTP_TIMEOUT must be positive")
	}
	if c.DNSTimeout <= 0 {
		return errors.New("MAILPROBE_DNS_TIMEOUT must be positive")
	}
	if c.MaxBatch <= 0 {
		return errors.New("MAILPROBE_MAX_BATCH must be positive")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q (must be 'text' or 'json')", c.LogFormat)
	}
	return nil
}

// Logger builds the process logger.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// Verifier builds a mailprobe.Verifier from the configuration.
func (c *Config) Verifier(log logrus.FieldLogger) *mailprobe.Verifier {
	v := mailprobe.New().
		WithLogger(log).
		WithDNS(mailprobe.DNSOptions{
			Timeout:    c.DNSTimeout,
			Nameserver: c.Nameserver,
			CacheTTL:   c.DNSCacheTTL,
		}).
		WithSMTP(mailprobe.SMTPOptions{
			HeloDomain:    c.HeloDomain,
			MailFrom:      c.MailFrom,
			Timeout:       c.SMTPTimeout,
			Port:          c.SMTPPort,
			ProxyAddr:     c.ProxyAddr,
			ProxyUser:     c.ProxyUser,
			ProxyPassword: c.ProxyPassword,
		})
	if c.DomainHints {
		v = v.WithDomainHints()
	}
	return v
}
