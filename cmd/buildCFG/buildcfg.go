package buildCFG

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
)

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	timeout := cfg.GetInt("server.shutdown_timeout_seconds")
	if timeout <= 0 {
		timeout = 10
	}
	return ServerConfig{
		Port:            port,
		ShutdownTimeout: time.Duration(timeout) * time.Second,
	}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}

	var slaveDSNs []string
	if raw := cfg.GetString("database.slave_dsns"); raw != "" {
		for _, dsn := range strings.Split(raw, ",") {
			if dsn = strings.TrimSpace(dsn); dsn != "" {
				slaveDSNs = append(slaveDSNs, dsn)
			}
		}
	}

	opts := &dbpg.Options{
		MaxOpenConns: cfg.GetInt("database.max_open_conns"),
		MaxIdleConns: cfg.GetInt("database.max_idle_conns"),
	}
	log.Info().
		Int("slaves", len(slaveDSNs)).
		Int("max_open_conns", opts.MaxOpenConns).
		Msg("database config built")

	return masterDSN, slaveDSNs, opts, nil
}

type GatewayConfig struct {
	BaseURL        string
	AppID          string
	SecretKey      string
	CallbackSecret string
	WebhookSecret  string
	APIVersion     string
	ReturnURL      string
	NotifyURL      string
	OrderAmount    int
}

func BuildGatewayConfig(cfg *config.Config, log *zerolog.Logger) (GatewayConfig, error) {
	gw := GatewayConfig{
		BaseURL:        cfg.GetString("gateway.base_url"),
		AppID:          cfg.GetString("gateway.app_id"),
		SecretKey:      cfg.GetString("gateway.secret_key"),
		CallbackSecret: cfg.GetString("gateway.callback_secret"),
		WebhookSecret:  cfg.GetString("gateway.webhook_secret"),
		APIVersion:     cfg.GetString("gateway.api_version"),
		ReturnURL:      cfg.GetString("gateway.return_url"),
		NotifyURL:      cfg.GetString("gateway.notify_url"),
		OrderAmount:    cfg.GetInt("gateway.order_amount"),
	}
	if gw.BaseURL == "" || gw.AppID == "" || gw.SecretKey == "" {
		return gw, fmt.Errorf("gateway.base_url, gateway.app_id and gateway.secret_key are required")
	}
	if gw.APIVersion == "" {
		gw.APIVersion = "2023-08-01"
	}
	if gw.OrderAmount <= 0 {
		gw.OrderAmount = 129
		log.Warn().Msg("gateway.order_amount not set, defaulting to 129")
	}
	return gw, nil
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func BuildSMTPConfig(cfg *config.Config, log *zerolog.Logger) (SMTPConfig, error) {
	smtp := SMTPConfig{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetInt("smtp.port"),
		Username: cfg.GetString("smtp.username"),
		Password: cfg.GetString("smtp.password"),
		From:     cfg.GetString("smtp.from"),
	}
	if smtp.Host == "" {
		return smtp, fmt.Errorf("smtp.host is required")
	}
	if smtp.Port <= 0 {
		smtp.Port = 587
	}
	if smtp.From == "" {
		smtp.From = smtp.Username
		log.Warn().Msg("smtp.from not set, using smtp.username")
	}
	return smtp, nil
}

type AdminConfig struct {
	Password string
	Token    string
}

func BuildAdminConfig(cfg *config.Config) (AdminConfig, error) {
	admin := AdminConfig{
		Password: cfg.GetString("admin.password"),
		Token:    cfg.GetString("admin.token"),
	}
	if admin.Password == "" || admin.Token == "" {
		return admin, fmt.Errorf("admin.password and admin.token are required")
	}
	return admin, nil
}

type LimitsConfig struct {
	RegisterPerMinute int
	ContactPerMinute  int
	SweepInterval     time.Duration
}

func BuildLimitsConfig(cfg *config.Config) LimitsConfig {
	limits := LimitsConfig{
		RegisterPerMinute: cfg.GetInt("limits.register_per_minute"),
		ContactPerMinute:  cfg.GetInt("limits.contact_per_minute"),
	}
	if limits.RegisterPerMinute <= 0 {
		limits.RegisterPerMinute = 5
	}
	if limits.ContactPerMinute <= 0 {
		limits.ContactPerMinute = 3
	}
	sweep := cfg.GetInt("limits.sweep_interval_seconds")
	if sweep <= 0 {
		sweep = 60
	}
	limits.SweepInterval = time.Duration(sweep) * time.Second
	return limits
}
