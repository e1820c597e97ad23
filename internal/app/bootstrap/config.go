// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/kilntrack/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for kilntrack.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: store_backend, mongo_uri, etc.
//   - Environment variables: KILNTRACK_STORE_BACKEND, KILNTRACK_MONGO_URI, etc.
//   - Command-line flags: --store_backend, --mongo_uri, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_backend", Default: BackendMemory, Desc: "Piece store: 'memory', 'mongo' or 'sqlite'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "kilntrack", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 50, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 2, Desc: "MongoDB min connection pool size"},

	{Name: "sqlite_path", Default: "kilntrack.db", Desc: "SQLite database file"},

	// Notifications
	{Name: "notifier", Default: NotifierLog, Desc: "Owner notifications: 'log', 'smtp' or 'off'"},
	{Name: "notify_on_fire", Default: true, Desc: "Notify the owner when a piece is fired"},
	{Name: "notify_on_submit", Default: true, Desc: "Notify the owner when a piece is received"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "atelier@kilntrack.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Atelier Céramique", Desc: "From display name"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Base URL for links in emails"},

	// Confirmation gate
	{Name: "action_ttl", Default: "15m", Desc: "How long a staged action can be approved (e.g., 15m, 1h)"},
	{Name: "action_sweep_interval", Default: "1m", Desc: "How often expired staged actions are dropped"},

	// Rate limiting
	{Name: "submit_rate_limit", Default: 30, Desc: "Submissions allowed per client IP per window (0 disables)"},
	{Name: "submit_rate_window", Default: "1m", Desc: "Submission rate limit window"},

	// Audit logging settings
	{Name: "audit_log_lifecycle", Default: "all", Desc: "Lifecycle event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, KILNTRACK_* for app) and flags,
// with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "KILNTRACK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreBackend: strings.ToLower(strings.TrimSpace(appValues.String("store_backend"))),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SQLitePath: appValues.String("sqlite_path"),

		Notifier:       strings.ToLower(strings.TrimSpace(appValues.String("notifier"))),
		NotifyOnFire:   appValues.Bool("notify_on_fire"),
		NotifyOnSubmit: appValues.Bool("notify_on_submit"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),
		BaseURL:      appValues.String("base_url"),

		ActionTTL:           appValues.Duration("action_ttl", 15*time.Minute),
		ActionSweepInterval: appValues.Duration("action_sweep_interval", time.Minute),

		SubmitRateLimit:  appValues.Int("submit_rate_limit"),
		SubmitRateWindow: appValues.Duration("submit_rate_window", time.Minute),

		AuditLogLifecycle: strings.ToLower(strings.TrimSpace(appValues.String("audit_log_lifecycle"))),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Unknown backends, notifiers and audit settings abort startup. The MongoDB
// URI is only checked when the mongo backend is selected.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreBackend {
	case BackendMemory:
	case BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if strings.TrimSpace(appCfg.MongoDatabase) == "" {
			return fmt.Errorf("mongo_database is required when store_backend is mongo")
		}
	case BackendSQLite:
		if strings.TrimSpace(appCfg.SQLitePath) == "" {
			return fmt.Errorf("sqlite_path is required when store_backend is sqlite")
		}
	default:
		return fmt.Errorf("unknown store_backend %q (want memory, mongo or sqlite)", appCfg.StoreBackend)
	}

	switch appCfg.Notifier {
	case NotifierLog, NotifierOff:
	case NotifierSMTP:
		if appCfg.MailSMTPHost == "" || appCfg.MailSMTPPort <= 0 {
			return fmt.Errorf("notifier smtp requires mail_smtp_host and mail_smtp_port")
		}
		if appCfg.MailFrom == "" {
			return fmt.Errorf("notifier smtp requires mail_from")
		}
	default:
		return fmt.Errorf("unknown notifier %q (want log, smtp or off)", appCfg.Notifier)
	}

	if appCfg.AuditLogLifecycle != "" && !slices.Contains(auditlog.Settings, appCfg.AuditLogLifecycle) {
		return fmt.Errorf("unknown audit_log_lifecycle %q (want all, db, log or off)", appCfg.AuditLogLifecycle)
	}

	if appCfg.ActionTTL <= 0 {
		return fmt.Errorf("action_ttl must be positive")
	}
	if appCfg.SubmitRateLimit < 0 {
		return fmt.Errorf("submit_rate_limit must not be negative")
	}

	return nil
}
