package service

import (
	"context"

	"quiz_backend/internal/model"
	"quiz_backend/internal/repository"
	"quiz_backend/internal/util"
)

type StatsService struct {
	ContentRepo *repository.ContentRepository
	AttemptRepo *repository.AttemptRepository
}

func NewStatsService(contentRepo *repository.ContentRepository, attemptRepo *repository.AttemptRepository) *StatsService {
	return &StatsService{ContentRepo: contentRepo, AttemptRepo: attemptRepo}
}

// Overview 模块列表页：所有模块、当前用户最近的作答、各模块最高分
type Overview struct {
	Modules    []repository.ModuleSummary   `json:"modules"`
	Attempts   []model.QuizAttempt          `json:"attempts"`
	BestScores []repository.ModuleBestScore `json:"bestScores"`
}

func (s *StatsService) Overview(ctx context.Context, userID uint) (*Overview, error) {
	modules, err := s.ContentRepo.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	attempts, _, err := s.AttemptRepo.List(ctx, repository.AttemptFilter{
		UserID: userID,
		Page:   util.DefaultPage,
		Limit:  util.MaxLimit,
	})
	if err != nil {
		return nil, err
	}
	best, err := s.AttemptRepo.BestScores(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Overview{Modules: modules, Attempts: attempts, BestScores: best}, nil
}

type AttemptPage struct {
	Items []model.QuizAttempt `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// ListAttempts is the read-only admin listing, filtered by module and/or user.
func (s *StatsService) ListAttempts(ctx context.Context, f repository.AttemptFilter) (*AttemptPage, error) {
	if f.Page < 1 {
		f.Page = util.DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = util.DefaultLimit
	}
	if f.Limit > util.MaxLimit {
		f.Limit = util.MaxLimit
	}
	items, total, err := s.AttemptRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &AttemptPage{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}
