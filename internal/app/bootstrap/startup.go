// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/kilntrack/internal/app/store/audit"
	"github.com/dalemusser/kilntrack/internal/app/system/auditlog"
	"github.com/dalemusser/kilntrack/internal/app/system/lifecycle"
	"github.com/dalemusser/kilntrack/internal/app/system/mailer"
	"github.com/dalemusser/kilntrack/internal/app/system/notify"
	"github.com/dalemusser/kilntrack/internal/app/system/ratelimit"
	"github.com/dalemusser/kilntrack/internal/app/system/timeouts"
	"github.com/dalemusser/kilntrack/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are the long-lived components shared by the HTTP handler and the
// background workers.
type services struct {
	audit     *auditlog.Logger
	lifecycle *lifecycle.Controller
	limiter   *ratelimit.Limiter
	sweeper   *workers.ActionSweeper
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the lifecycle controller with its notifier and audit logger, and starts the
// staged-action sweeper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.services == nil || deps.Pieces == nil {
		return fmt.Errorf("startup: piece store not connected")
	}

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n), zap.Any("timeouts", timeouts.Current()))
	}

	var events auditlog.EventStore
	if deps.MongoDatabase != nil {
		events = audit.New(deps.MongoDatabase)
	}
	auditLog := auditlog.New(events, logger, auditlog.Config{Lifecycle: appCfg.AuditLogLifecycle})

	notifier := buildNotifier(appCfg, logger)

	lc := lifecycle.New(deps.Pieces, notifier, auditLog, logger, lifecycle.Config{
		ActionTTL:      appCfg.ActionTTL,
		NotifyOnFire:   appCfg.NotifyOnFire,
		NotifyOnSubmit: appCfg.NotifyOnSubmit,
	})

	sweeper := workers.NewActionSweeper(lc, logger, appCfg.ActionSweepInterval)
	sweeper.Start()

	*deps.services = services{
		audit:     auditLog,
		lifecycle: lc,
		limiter:   ratelimit.New(appCfg.SubmitRateLimit, appCfg.SubmitRateWindow),
		sweeper:   sweeper,
	}

	logger.Info("kilntrack started",
		zap.String("env", coreCfg.Env),
		zap.String("backend", deps.Backend),
		zap.String("notifier", appCfg.Notifier),
		zap.Duration("action_ttl", appCfg.ActionTTL))
	return nil
}

// buildNotifier picks the owner notifier named by appCfg.Notifier.
func buildNotifier(appCfg AppConfig, logger *zap.Logger) notify.Notifier {
	switch appCfg.Notifier {
	case NotifierSMTP:
		m := mailer.New(mailer.Config{
			Host:     appCfg.MailSMTPHost,
			Port:     appCfg.MailSMTPPort,
			User:     appCfg.MailSMTPUser,
			Pass:     appCfg.MailSMTPPass,
			From:     appCfg.MailFrom,
			FromName: appCfg.MailFromName,
		}, logger)
		return notify.NewMailNotifier(m, appCfg.MailFromName, appCfg.BaseURL)
	case NotifierOff:
		return notify.Nop{}
	default:
		return notify.NewLogNotifier(logger)
	}
}
