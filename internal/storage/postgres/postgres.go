// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rovshanmuradov/bondcurve/internal/storage"
	"github.com/rovshanmuradov/bondcurve/internal/storage/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const migrationLockID = 7301

// Options tune the connection pool and write retries.
type Options struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	MaxRetries      uint
	RetryDelay      time.Duration
}

// DefaultOptions mirrors the pool sizing used for the trade history.
func DefaultOptions() Options {
	return Options{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		MaxRetries:      5,
		RetryDelay:      200 * time.Millisecond,
	}
}

// gormLogger routes GORM output through zap.
type gormLogger struct {
	zapLogger     *zap.Logger
	logLevel      logger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger:     zapLogger,
		logLevel:      logger.Warn,
		slowThreshold: 200 * time.Millisecond,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

// Trace logs failed statements at error level and slow ones at warn.
// Record-not-found is an expected outcome and stays quiet.
func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.logLevel >= logger.Error:
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
	case elapsed > l.slowThreshold && l.logLevel >= logger.Warn:
		l.zapLogger.Warn("slow query", fields...)
	case l.logLevel >= logger.Info:
		l.zapLogger.Debug("trace", fields...)
	}
}

// History stores trades and vesting claims in PostgreSQL.
type History struct {
	db     *gorm.DB
	opts   Options
	logger *zap.Logger
}

var _ storage.History = (*History)(nil)

// NewHistory connects to dsn, retrying while the database comes up.
func NewHistory(ctx context.Context, dsn string, zapLogger *zap.Logger, opts Options) (*History, error) {
	zapLogger = zapLogger.Named("history")
	cfg := &gorm.Config{
		Logger: newGormLogger(zapLogger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	}

	connect := func() (*gorm.DB, error) {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	db, err := backoff.Retry(ctx, connect,
		backoff.WithBackOff(retryPolicy(opts)),
		backoff.WithMaxTries(max(opts.MaxRetries, 1)),
		backoff.WithNotify(notifyRetry(zapLogger, "connect")))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	return &History{db: db, opts: opts, logger: zapLogger}, nil
}

func retryPolicy(opts Options) *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	if opts.RetryDelay > 0 {
		policy.InitialInterval = opts.RetryDelay
		policy.MaxInterval = opts.RetryDelay * 10
	}
	return policy
}

func notifyRetry(l *zap.Logger, op string) backoff.Notify {
	return func(err error, d time.Duration) {
		l.Warn("Retrying after error", zap.String("op", op), zap.Error(err), zap.Duration("backoff", d))
	}
}

// permanent marks errors that a retry cannot fix.
func permanent(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrInvalidData) {
		return backoff.Permanent(err)
	}
	return err
}

// RunMigrations creates the history tables under an advisory lock.
func (h *History) RunMigrations() error {
	var lockObtained bool
	err := h.db.Raw("SELECT pg_try_advisory_lock(?)", migrationLockID).Scan(&lockObtained).Error
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer h.db.Exec("SELECT pg_advisory_unlock(?)", migrationLockID)

	if err := h.db.AutoMigrate(&models.Trade{}, &models.Claim{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (h *History) create(ctx context.Context, op string, value interface{}) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, permanent(h.db.WithContext(ctx).Create(value).Error)
	},
		backoff.WithBackOff(retryPolicy(h.opts)),
		backoff.WithMaxTries(max(h.opts.MaxRetries, 1)),
		backoff.WithNotify(notifyRetry(h.logger, op)))
	return err
}

func (h *History) RecordTrade(ctx context.Context, trade *models.Trade) error {
	if err := h.create(ctx, "record_trade", trade); err != nil {
		return fmt.Errorf("record trade %s: %w", trade.TradeID, err)
	}
	return nil
}

func (h *History) RecordClaim(ctx context.Context, claim *models.Claim) error {
	if err := h.create(ctx, "record_claim", claim); err != nil {
		return fmt.Errorf("record claim for %s: %w", claim.Mint, err)
	}
	return nil
}

// ListTrades returns the newest trades of mint first. A zero limit returns
// every trade.
func (h *History) ListTrades(ctx context.Context, mint string, limit, offset int) ([]*models.Trade, error) {
	var trades []*models.Trade
	q := h.db.WithContext(ctx).
		Where("mint = ?", mint).
		Order("executed_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	err := q.Find(&trades).Error
	return trades, err
}

// Close releases the connection pool.
func (h *History) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
