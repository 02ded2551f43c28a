package logger

import (
	"context"
	"errors"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold is the duration above which a query is logged as slow
const SlowQueryThreshold = 200 * time.Millisecond

type gormLogger struct {
	log   *Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// Gorm adapts the logger to gorm. Failed queries are errors, slow queries
// warnings, everything else debug. A missing row is not logged; callers
// handle it as a normal outcome.
func (l *Logger) Gorm() gormlogger.Interface {
	return &gormLogger{log: l.Named("gorm"), level: gormlogger.Warn, slow: SlowQueryThreshold}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *g
	next.level = level
	return &next
}

func (g *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.log.Infof(msg, args...)
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.log.Warnf(msg, args...)
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.log.Errorf(msg, args...)
	}
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		sql, rows := fc()
		g.log.Errorw("query failed", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case g.slow > 0 && elapsed > g.slow && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.log.Warnw("slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.log.Debugw("query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
