package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bcgov/bctw-api/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner 由定时任务触发的一次完整同步
type Runner interface {
	Run(ctx context.Context) (*model.RunReport, error)
}

// Scheduler 按 cron 表达式定时触发同步；上一次仍在运行时跳过本次
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	timeout time.Duration
	logger  *logrus.Logger
}

// New spec 为标准 5 段 cron 表达式（也支持 @daily 等描述符）
func New(spec string, runner Runner, timeout time.Duration, logger *logrus.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:  runner,
		timeout: timeout,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid sync.cron %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.WithField("next", e.Next).Info("sync scheduler started")
	}
}

// Stop 停止调度，返回的 ctx 在正在执行的任务结束后关闭
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	_, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, model.ErrRunInProgress):
		s.logger.Info("scheduled sync skipped, a run is already in progress")
	case err != nil:
		s.logger.WithError(err).Error("scheduled sync failed")
	}
}

// cronLogger 将 cron 的日志转到 logrus
type cronLogger struct {
	logger *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).WithError(err).Error("cron: " + msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
