package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls span generation for database statements.
// LogFullSQL puts bound query variables into span attributes and must
// stay off outside development.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns the safe defaults: tracing off,
// variables redacted, 200ms slow query threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin attaches otelgorm to a GORM session and layers slow
// query detection and error marking on top of the spans it opens.
type DBTracingPlugin struct {
	config DBTracingConfig
	log    *zap.Logger
}

// NewDBTracingPlugin builds the plugin; call RegisterOtelGorm to wire it.
func NewDBTracingPlugin(cfg DBTracingConfig, log *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{config: cfg, log: log}
}

// RegisterOtelGorm installs otelgorm plus the timing callbacks on db.
// A disabled config is a no-op so callers can register unconditionally.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.log.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.log.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

// registerCallbacks hangs a start-time marker before every GORM
// operation and the span annotator after it, across all six operation
// kinds.
func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	regs := []error{
		cb.Create().Before("gorm:create").Register("db_tracing:before_create", markQueryStart),
		cb.Query().Before("gorm:query").Register("db_tracing:before_query", markQueryStart),
		cb.Update().Before("gorm:update").Register("db_tracing:before_update", markQueryStart),
		cb.Delete().Before("gorm:delete").Register("db_tracing:before_delete", markQueryStart),
		cb.Row().Before("gorm:row").Register("db_tracing:before_row", markQueryStart),
		cb.Raw().Before("gorm:raw").Register("db_tracing:before_raw", markQueryStart),

		cb.Create().After("gorm:create").Register("db_tracing:after_create", p.annotateSpan),
		cb.Query().After("gorm:query").Register("db_tracing:after_query", p.annotateSpan),
		cb.Update().After("gorm:update").Register("db_tracing:after_update", p.annotateSpan),
		cb.Delete().After("gorm:delete").Register("db_tracing:after_delete", p.annotateSpan),
		cb.Row().After("gorm:row").Register("db_tracing:after_row", p.annotateSpan),
		cb.Raw().After("gorm:raw").Register("db_tracing:after_raw", p.annotateSpan),
	}
	for _, err := range regs {
		if err != nil {
			return err
		}
	}
	return nil
}

type contextKey string

const queryStartKey contextKey = "db_query_start"

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey, time.Now())
	}
}

// annotateSpan enriches the otelgorm span with row counts and table
// name, records real errors, and flags queries over the threshold.
// ErrRecordNotFound is not an error at this layer; repositories map it
// to domain not-found results.
func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartKey).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
