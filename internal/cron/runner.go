package cronrunner

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner schedules jobs with a shared base context. A job that is still
// running when its next tick fires is skipped for that tick.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{l: logger.Named("cron")}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Add registers a named job. Errors are logged with the job name and run time.
func (r *Runner) Add(name, spec string, job func(context.Context) error) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		ctx := r.baseCtx
		if ctx.Err() != nil {
			return
		}
		started := time.Now()
		if err := job(ctx); err != nil {
			r.logger.Warn("cron job failed", zap.String("job", name), zap.Duration("took", time.Since(started)), zap.Error(err))
			return
		}
		r.logger.Debug("cron job done", zap.String("job", name), zap.Duration("took", time.Since(started)))
	})
}

func (r *Runner) Start() {
	r.logger.Info("cron started", zap.Int("jobs", len(r.cron.Entries())))
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
