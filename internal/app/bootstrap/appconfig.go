// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// Piece store backends selectable with store_backend.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Notifiers selectable with notifier.
const (
	NotifierLog  = "log"
	NotifierSMTP = "smtp"
	NotifierOff  = "off"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (KILNTRACK_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the framework-level settings: ports, TLS, log level, CORS and body
// limits.
type AppConfig struct {
	// Piece store
	StoreBackend string // memory, mongo or sqlite

	// MongoDB connection configuration (store_backend=mongo)
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// SQLite database file (store_backend=sqlite)
	SQLitePath string

	// Notifications
	Notifier       string // log, smtp or off
	NotifyOnFire   bool
	NotifyOnSubmit bool

	// Email/SMTP configuration (notifier=smtp)
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string // also used as the site name in emails

	// Base URL for links in notification emails
	BaseURL string

	// Confirmation gate
	ActionTTL           time.Duration // how long a staged action can be approved
	ActionSweepInterval time.Duration // how often expired actions are dropped

	// Submission rate limiting per client IP (0 disables)
	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	// Audit logging: all, db, log or off
	AuditLogLifecycle string
}
