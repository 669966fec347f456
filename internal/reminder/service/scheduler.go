package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler запускает Jobs.Run по cron-расписанию в заданном часовом поясе.
type Scheduler struct {
	cron     *cron.Cron
	jobs     *Jobs
	schedule string
	loc      *time.Location
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func NewScheduler(jobs *Jobs, schedule string, loc *time.Location, logger *zap.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     c,
		jobs:     jobs,
		schedule: schedule,
		loc:      loc,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.SendReminders); err != nil {
		return fmt.Errorf("schedule reminder job %q: %w", s.schedule, err)
	}
	s.logger.Info("scheduled reminder job", zap.String("schedule", s.schedule), zap.String("timezone", s.loc.String()))

	s.cron.Start()
	return nil
}

// SendReminders выполняет один запуск по таймеру; ошибки только логируются.
func (s *Scheduler) SendReminders() {
	if _, err := s.jobs.Run(s.ctx, time.Now().In(s.loc)); err != nil {
		s.logger.Error("reminder job failed", zap.Error(err))
	}
}

// Stop прерывает текущий проход и останавливает cron. Возвращённый контекст
// закрывается, когда запущенная задача завершится.
func (s *Scheduler) Stop() context.Context {
	s.once.Do(s.cancel)
	return s.cron.Stop()
}
