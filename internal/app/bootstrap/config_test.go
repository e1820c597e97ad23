package bootstrap

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testCoreConfig() *config.CoreConfig {
	return &config.CoreConfig{Env: "test"}
}

func validAppConfig() AppConfig {
	return AppConfig{
		StoreBackend:        BackendMemory,
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "kilntrack",
		SQLitePath:          "kilntrack.db",
		Notifier:            NotifierLog,
		NotifyOnFire:        true,
		NotifyOnSubmit:      true,
		MailSMTPHost:        "localhost",
		MailSMTPPort:        1025,
		MailFrom:            "atelier@kilntrack.local",
		MailFromName:        "Atelier",
		BaseURL:             "http://localhost:8080",
		ActionTTL:           15 * time.Minute,
		ActionSweepInterval: time.Minute,
		SubmitRateLimit:     30,
		SubmitRateWindow:    time.Minute,
		AuditLogLifecycle:   "all",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"defaults", func(*AppConfig) {}, ""},
		{"sqlite", func(c *AppConfig) { c.StoreBackend = BackendSQLite }, ""},
		{"mongo", func(c *AppConfig) { c.StoreBackend = BackendMongo }, ""},
		{"smtp", func(c *AppConfig) { c.Notifier = NotifierSMTP }, ""},
		{"notifier off", func(c *AppConfig) { c.Notifier = NotifierOff }, ""},
		{"empty audit setting", func(c *AppConfig) { c.AuditLogLifecycle = "" }, ""},
		{"rate limit disabled", func(c *AppConfig) { c.SubmitRateLimit = 0 }, ""},
		{"unknown backend", func(c *AppConfig) { c.StoreBackend = "postgres" }, "unknown store_backend"},
		{"bad mongo uri", func(c *AppConfig) {
			c.StoreBackend = BackendMongo
			c.MongoURI = "localhost:27017"
		}, "invalid MongoDB URI"},
		{"mongo uri ignored for memory", func(c *AppConfig) { c.MongoURI = "localhost:27017" }, ""},
		{"mongo without database", func(c *AppConfig) {
			c.StoreBackend = BackendMongo
			c.MongoDatabase = " "
		}, "mongo_database"},
		{"sqlite without path", func(c *AppConfig) {
			c.StoreBackend = BackendSQLite
			c.SQLitePath = ""
		}, "sqlite_path"},
		{"unknown notifier", func(c *AppConfig) { c.Notifier = "pigeon" }, "unknown notifier"},
		{"smtp without host", func(c *AppConfig) {
			c.Notifier = NotifierSMTP
			c.MailSMTPHost = ""
		}, "mail_smtp_host"},
		{"smtp without from", func(c *AppConfig) {
			c.Notifier = NotifierSMTP
			c.MailFrom = ""
		}, "mail_from"},
		{"unknown audit setting", func(c *AppConfig) { c.AuditLogLifecycle = "verbose" }, "audit_log_lifecycle"},
		{"zero ttl", func(c *AppConfig) { c.ActionTTL = 0 }, "action_ttl"},
		{"negative rate limit", func(c *AppConfig) { c.SubmitRateLimit = -1 }, "submit_rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(testCoreConfig(), cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
