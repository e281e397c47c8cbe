package service

import (
	"context"
	"time"

	"quiz_backend/internal/model"
	"quiz_backend/internal/repository"
	"quiz_backend/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TimedAttemptLister finds open attempts on modules with a time limit.
type TimedAttemptLister interface {
	ListInProgressTimed(ctx context.Context) ([]repository.TimedAttempt, error)
}

// ExpirySweeper 定时扫描已超时但仍未结束的作答，按 swept 原因结束它们。
// 未被再次访问的超时作答只有靠它才会落库结束时间。
type ExpirySweeper struct {
	Attempts TimedAttemptLister
	Engine   *AttemptService
	Schedule string

	cron *cron.Cron
}

func NewExpirySweeper(attempts TimedAttemptLister, engine *AttemptService, schedule string) *ExpirySweeper {
	return &ExpirySweeper{Attempts: attempts, Engine: engine, Schedule: schedule}
}

// Start schedules Sweep. An empty schedule leaves the sweeper off.
func (s *ExpirySweeper) Start() error {
	if s.Schedule == "" {
		logger.Log.Info("expiry sweeper disabled")
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			logger.Log.Error("expiry sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	s.cron = c
	c.Start()
	logger.Log.Info("expiry sweeper started", zap.String("schedule", s.Schedule))
	return nil
}

// Stop waits for a running sweep to complete.
func (s *ExpirySweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Sweep finalizes every overdue attempt and returns how many it closed.
func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	rows, err := s.Attempts.ListInProgressTimed(ctx)
	if err != nil {
		return 0, err
	}

	now := s.Engine.now()
	swept := 0
	for i := range rows {
		if now.Before(rows[i].Deadline()) {
			continue
		}
		done, err := s.Engine.ExpireIfOverdue(ctx, rows[i].ID, model.FinishSwept)
		if err != nil {
			// 单条失败不影响其余作答，下一轮会重试
			logger.Log.Warn("sweep attempt failed", zap.Uint("attemptId", rows[i].ID), zap.Error(err))
			continue
		}
		if done {
			swept++
		}
	}
	if swept > 0 {
		logger.Log.Info("expired attempts swept", zap.Int("count", swept))
	}
	return swept, nil
}
