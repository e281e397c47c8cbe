package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"quiz_backend/internal/config"
	"quiz_backend/internal/model"
	"quiz_backend/internal/util"
	"quiz_backend/pkg/locker"
	"quiz_backend/pkg/logger"
	"quiz_backend/pkg/monitoring"
	"quiz_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ContentStore is the read side of quiz content the engine depends on.
type ContentStore interface {
	GetModule(ctx context.Context, id uint) (*model.Module, error)
	GetQuestionIDs(ctx context.Context, moduleID uint) ([]uint, error)
	GetQuestion(ctx context.Context, id uint) (*model.Question, error)
	GetQuestionsByIDs(ctx context.Context, ids []uint) (map[uint]*model.Question, error)
	GetExamConfig(ctx context.Context, moduleID uint) (*model.ExamConfiguration, error)
}

type AttemptStore interface {
	Create(ctx context.Context, attempt *model.QuizAttempt) error
	Save(ctx context.Context, attempt *model.QuizAttempt) error
	MarkFinalized(ctx context.Context, attempt *model.QuizAttempt) (bool, error)
	FindByID(ctx context.Context, id uint) (*model.QuizAttempt, error)
	FindOwned(ctx context.Context, id, userID uint) (*model.QuizAttempt, error)
	FindActive(ctx context.Context, userID, moduleID uint) (*model.QuizAttempt, error)
}

type AnswerStore interface {
	GetOrCreate(ctx context.Context, attemptID, questionID uint) (*model.UserAnswer, error)
	ReplaceSelectedChoices(ctx context.Context, answer *model.UserAnswer, choices []model.Choice) error
	SetText(ctx context.Context, answer *model.UserAnswer, text string) error
	ListByAttempt(ctx context.Context, attemptID uint) (map[uint]*model.UserAnswer, error)
}

// AttemptService 作答引擎：开始/恢复作答、逐题查看与提交、交卷和成绩计算。
// 同一 attempt 上的所有修改都在 Locker 持有的锁内进行。
type AttemptService struct {
	Content  ContentStore
	Attempts AttemptStore
	Answers  AnswerStore
	Locker   locker.Locker

	// Now is the clock used for deadlines and timestamps.
	Now func() time.Time
	// LockWait bounds how long a request waits for a busy attempt.
	LockWait time.Duration

	randMu sync.Mutex
	rng    *rand.Rand

	optsMu sync.RWMutex
	opts   ScoreOptions
}

func NewAttemptService(content ContentStore, attempts AttemptStore, answers AnswerStore, lk locker.Locker, cfg config.QuizConfig) *AttemptService {
	return &AttemptService{
		Content:  content,
		Attempts: attempts,
		Answers:  answers,
		Locker:   lk,
		Now:      time.Now,
		LockWait: cfg.LockWait(),
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		opts:     ScoreOptions{ExcludeTextFromScore: cfg.ExcludeTextFromScore},
	}
}

// SetRand replaces the shuffle source; tests seed it for reproducible orders.
func (s *AttemptService) SetRand(r *rand.Rand) {
	s.randMu.Lock()
	s.rng = r
	s.randMu.Unlock()
}

func (s *AttemptService) SetScoreOptions(opts ScoreOptions) {
	s.optsMu.Lock()
	s.opts = opts
	s.optsMu.Unlock()
}

func (s *AttemptService) ScoreOptions() ScoreOptions {
	s.optsMu.RLock()
	defer s.optsMu.RUnlock()
	return s.opts
}

func (s *AttemptService) now() time.Time {
	return s.Now().UTC()
}

func (s *AttemptService) shuffle(ids []uint) {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	s.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

// lockOwned checks ownership before queueing on the attempt lock, so requests
// for someone else's attempt never hold it. The row is re-read under the lock.
func (s *AttemptService) lockOwned(ctx context.Context, attemptID, userID uint) (*model.QuizAttempt, func(), error) {
	if _, err := s.Attempts.FindOwned(ctx, attemptID, userID); err != nil {
		return nil, nil, err
	}
	unlock, err := s.lock(ctx, attemptKey(attemptID))
	if err != nil {
		return nil, nil, err
	}
	attempt, err := s.Attempts.FindOwned(ctx, attemptID, userID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return attempt, unlock, nil
}

func (s *AttemptService) lock(ctx context.Context, key string) (func(), error) {
	wait := s.LockWait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	lockCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	unlock, err := s.Locker.Lock(lockCtx, key)
	if err != nil {
		if errors.Is(err, locker.ErrNotAcquired) {
			return nil, util.ErrAttemptBusy
		}
		return nil, err
	}
	return unlock, nil
}

func attemptKey(id uint) string {
	return fmt.Sprintf("attempt:%d", id)
}

func startKey(userID, moduleID uint) string {
	return fmt.Sprintf("start:%d:%d", userID, moduleID)
}

// remaining returns the time left on a timed attempt; ok is false when the module has no limit.
func (s *AttemptService) remaining(attempt *model.QuizAttempt, cfg *model.ExamConfiguration) (time.Duration, bool) {
	if !cfg.HasTimeLimit() {
		return 0, false
	}
	return cfg.TimeLimitDuration() - s.now().Sub(attempt.StartTime), true
}

type StartResult struct {
	Attempt       *model.QuizAttempt `json:"attempt"`
	QuestionIndex int                `json:"questionIndex"`
	Resumed       bool               `json:"resumed"`
}

// StartAttempt resumes the user's open attempt on the module or creates a new one.
// An open attempt whose time already ran out is finalized as expired and replaced.
func (s *AttemptService) StartAttempt(ctx context.Context, userID, moduleID uint) (*StartResult, error) {
	ctx, span := tracing.Start(ctx, "AttemptService.StartAttempt")
	defer span.End()
	span.SetAttributes(attribute.Int64("quiz.user_id", int64(userID)), attribute.Int64("quiz.module_id", int64(moduleID)))

	if _, err := s.Content.GetModule(ctx, moduleID); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, startKey(userID, moduleID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	cfg, err := s.Content.GetExamConfig(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	active, err := s.Attempts.FindActive(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		resumed, err := s.resumeOrExpire(ctx, active, cfg)
		if err != nil {
			return nil, err
		}
		if resumed != nil {
			monitoring.AttemptsStarted.WithLabelValues("resumed").Inc()
			return resumed, nil
		}
	}

	ids, err := s.Content.GetQuestionIDs(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, util.ErrEmptyModule
	}
	if cfg.RandomizeQuestions {
		s.shuffle(ids)
	}

	attempt := &model.QuizAttempt{
		UserID:        userID,
		ModuleID:      moduleID,
		StartTime:     s.now(),
		QuestionOrder: ids,
		Status:        model.AttemptInProgress,
	}
	if err := s.Attempts.Create(ctx, attempt); err != nil {
		return nil, err
	}

	monitoring.AttemptsStarted.WithLabelValues("created").Inc()
	logger.Log.Info("attempt started",
		zap.Uint("attemptId", attempt.ID),
		zap.Uint("userId", userID),
		zap.Uint("moduleId", moduleID),
		zap.Int("questions", len(ids)),
		zap.Bool("randomized", cfg.RandomizeQuestions))

	return &StartResult{Attempt: attempt, QuestionIndex: 1}, nil
}

// resumeOrExpire returns nil when the open attempt had to be expired.
func (s *AttemptService) resumeOrExpire(ctx context.Context, active *model.QuizAttempt, cfg *model.ExamConfiguration) (*StartResult, error) {
	unlock, err := s.lock(ctx, attemptKey(active.ID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 拿到锁后重新读取，期间可能已被其他请求交卷
	fresh, err := s.Attempts.FindByID(ctx, active.ID)
	if err != nil {
		return nil, err
	}
	if fresh.IsFinalized() {
		return nil, nil
	}

	if left, timed := s.remaining(fresh, cfg); timed && left <= 0 {
		if _, err := s.finalize(ctx, fresh, model.FinishExpired); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &StartResult{
		Attempt:       fresh,
		QuestionIndex: fresh.CurrentQuestionIndex + 1,
		Resumed:       true,
	}, nil
}

// Submission is one answer post. ChoiceIDs serve single/multiple questions and
// TextAnswer serves text questions; sending the other kind is rejected.
type Submission struct {
	ChoiceIDs  []uint  `json:"choiceIds"`
	TextAnswer *string `json:"textAnswer"`
}

type OutcomeKind string

const (
	OutcomeView             OutcomeKind = "view"
	OutcomeFeedback         OutcomeKind = "feedback"
	OutcomeRedirectQuestion OutcomeKind = "redirect_question"
	OutcomeRedirectResult   OutcomeKind = "redirect_result"
)

type QuestionPage struct {
	AttemptID        uint           `json:"attemptId"`
	QuestionIndex    int            `json:"questionIndex"`
	TotalQuestions   int            `json:"totalQuestions"`
	Question         *QuestionView  `json:"question"`
	Answer           *AnswerView    `json:"answer"`
	RemainingSeconds *int           `json:"remainingSeconds"`
	Config           ExamConfigView `json:"config"`
}

// QuestionOutcome is what ViewOrAnswerQuestion decided. Page is set for view
// and feedback, NextIndex for a question redirect.
type QuestionOutcome struct {
	Kind      OutcomeKind
	Page      *QuestionPage
	NextIndex int
	// feedback only
	IsCorrect     bool
	ManualGrading bool
	Review        *QuestionReview
}

func redirectResult() *QuestionOutcome {
	return &QuestionOutcome{Kind: OutcomeRedirectResult}
}

// ViewOrAnswerQuestion shows the question at a 1-based index or, with a
// submission, records the answer and moves on.
func (s *AttemptService) ViewOrAnswerQuestion(ctx context.Context, attemptID, userID uint, index int, sub *Submission) (*QuestionOutcome, error) {
	ctx, span := tracing.Start(ctx, "AttemptService.ViewOrAnswerQuestion")
	defer span.End()
	span.SetAttributes(attribute.Int64("quiz.attempt_id", int64(attemptID)), attribute.Int("quiz.index", index), attribute.Bool("quiz.submit", sub != nil))

	attempt, unlock, err := s.lockOwned(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if attempt.IsFinalized() {
		return redirectResult(), nil
	}

	cfg, err := s.Content.GetExamConfig(ctx, attempt.ModuleID)
	if err != nil {
		return nil, err
	}

	var remainingSeconds *int
	if left, timed := s.remaining(attempt, cfg); timed {
		if left <= 0 {
			if _, err := s.finalize(ctx, attempt, model.FinishExpired); err != nil {
				return nil, err
			}
			return redirectResult(), nil
		}
		secs := int(left / time.Second)
		remainingSeconds = &secs
	}

	questionID, ok := attempt.QuestionIDAt(index)
	if !ok {
		return redirectResult(), nil
	}
	question, err := s.Content.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	// 先校验再写库，非法提交不产生任何副作用
	var selected []model.Choice
	if sub != nil {
		if selected, err = validateSubmission(question, sub); err != nil {
			return nil, err
		}
	}

	answer, err := s.Answers.GetOrCreate(ctx, attempt.ID, question.ID)
	if err != nil {
		return nil, err
	}

	page := &QuestionPage{
		AttemptID:        attempt.ID,
		QuestionIndex:    index,
		TotalQuestions:   attempt.TotalQuestions(),
		Question:         newQuestionView(question),
		RemainingSeconds: remainingSeconds,
		Config:           newExamConfigView(cfg),
	}

	if sub == nil {
		page.Answer = newAnswerView(answer)
		return &QuestionOutcome{Kind: OutcomeView, Page: page}, nil
	}

	if question.QuestionType.UsesChoices() {
		err = s.Answers.ReplaceSelectedChoices(ctx, answer, selected)
	} else {
		text := ""
		if sub.TextAnswer != nil {
			text = *sub.TextAnswer
		}
		err = s.Answers.SetText(ctx, answer, text)
	}
	if err != nil {
		return nil, err
	}
	monitoring.AnswersSubmitted.WithLabelValues(string(question.QuestionType)).Inc()

	attempt.CurrentQuestionIndex = index - 1
	if err := s.Attempts.Save(ctx, attempt); err != nil {
		return nil, err
	}

	if cfg.ShowResultMode == model.ResultImmediate {
		page.Answer = newAnswerView(answer)
		return &QuestionOutcome{
			Kind:          OutcomeFeedback,
			Page:          page,
			IsCorrect:     EvaluateQuestion(question, answer),
			ManualGrading: question.QuestionType == model.QuestionText,
			Review:        newQuestionReview(question),
		}, nil
	}

	if index >= attempt.TotalQuestions() {
		if _, err := s.finalize(ctx, attempt, model.FinishCompleted); err != nil {
			return nil, err
		}
		return redirectResult(), nil
	}
	return &QuestionOutcome{Kind: OutcomeRedirectQuestion, NextIndex: index + 1}, nil
}

// validateSubmission checks the submission against the question and resolves
// the selected choices. Duplicate ids collapse into one.
func validateSubmission(q *model.Question, sub *Submission) ([]model.Choice, error) {
	if !q.QuestionType.UsesChoices() {
		if len(sub.ChoiceIDs) > 0 {
			return nil, util.ErrInvalidQuestionType
		}
		return nil, nil
	}
	if sub.TextAnswer != nil {
		return nil, util.ErrInvalidQuestionType
	}

	seen := make(map[uint]struct{}, len(sub.ChoiceIDs))
	selected := make([]model.Choice, 0, len(sub.ChoiceIDs))
	for _, id := range sub.ChoiceIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		found := false
		for _, c := range q.Choices {
			if c.ID == id {
				selected = append(selected, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: choice %d does not belong to question %d", util.ErrInvalidInput, id, q.ID)
		}
	}
	if q.QuestionType == model.QuestionSingle && len(selected) > 1 {
		return nil, fmt.Errorf("%w: single choice question accepts one choice", util.ErrInvalidInput)
	}
	return selected, nil
}

// FinishAttempt finalizes an open attempt on the learner's request.
func (s *AttemptService) FinishAttempt(ctx context.Context, attemptID, userID uint) (*model.QuizAttempt, error) {
	ctx, span := tracing.Start(ctx, "AttemptService.FinishAttempt")
	defer span.End()

	attempt, unlock, err := s.lockOwned(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if _, err := s.finalize(ctx, attempt, model.FinishExplicit); err != nil {
		return nil, err
	}
	return attempt, nil
}

type ResultView struct {
	AttemptID      uint               `json:"attemptId"`
	ModuleID       uint               `json:"moduleId"`
	StartTime      time.Time          `json:"startTime"`
	EndTime        *time.Time         `json:"endTime"`
	FinishReason   model.FinishReason `json:"finishReason"`
	ScorePercent   float64            `json:"scorePercent"`
	CorrectCount   int                `json:"correctCount"`
	TotalQuestions int                `json:"totalQuestions"`
	ShowDetails    bool               `json:"showDetails"`
	Breakdown      []QuestionResult   `json:"breakdown,omitempty"`
}

// ViewResult finalizes the attempt if needed, recomputes and stores the score,
// and returns the breakdown unless the module hides it.
func (s *AttemptService) ViewResult(ctx context.Context, attemptID, userID uint) (*ResultView, error) {
	ctx, span := tracing.Start(ctx, "AttemptService.ViewResult")
	defer span.End()

	attempt, unlock, err := s.lockOwned(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if _, err := s.finalize(ctx, attempt, model.FinishResultViewed); err != nil {
		return nil, err
	}

	result, err := s.computeResult(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if attempt.Score != result.ScorePercent {
		attempt.Score = result.ScorePercent
		if err := s.Attempts.Save(ctx, attempt); err != nil {
			return nil, err
		}
	}

	cfg, err := s.Content.GetExamConfig(ctx, attempt.ModuleID)
	if err != nil {
		return nil, err
	}

	view := &ResultView{
		AttemptID:      attempt.ID,
		ModuleID:       attempt.ModuleID,
		StartTime:      attempt.StartTime,
		EndTime:        attempt.EndTime,
		FinishReason:   attempt.FinishReason,
		ScorePercent:   result.ScorePercent,
		CorrectCount:   result.CorrectCount,
		TotalQuestions: result.TotalQuestions,
		ShowDetails:    cfg.ShowResultMode != model.ResultHidden,
	}
	if view.ShowDetails {
		view.Breakdown = result.Breakdown
	}
	return view, nil
}

// ExpireIfOverdue finalizes an open timed attempt whose deadline passed. It
// reports whether this call did the finalization.
func (s *AttemptService) ExpireIfOverdue(ctx context.Context, attemptID uint, reason model.FinishReason) (bool, error) {
	unlock, err := s.lock(ctx, attemptKey(attemptID))
	if err != nil {
		return false, err
	}
	defer unlock()

	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		return false, err
	}
	if attempt.IsFinalized() {
		return false, nil
	}
	cfg, err := s.Content.GetExamConfig(ctx, attempt.ModuleID)
	if err != nil {
		return false, err
	}
	if left, timed := s.remaining(attempt, cfg); !timed || left > 0 {
		return false, nil
	}
	return s.finalize(ctx, attempt, reason)
}

func (s *AttemptService) computeResult(ctx context.Context, attempt *model.QuizAttempt) (Result, error) {
	order := []uint(attempt.QuestionOrder)
	questions, err := s.Content.GetQuestionsByIDs(ctx, order)
	if err != nil {
		return Result{}, err
	}
	answers, err := s.Answers.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return Result{}, err
	}
	return ComputeResult(order, questions, answers, s.ScoreOptions()), nil
}

// finalize is the only transition into the finalized state and reports
// whether this call made it. Calling it on a finalized attempt is a no-op;
// losing the race to another finalizer reloads the winner's row into attempt.
func (s *AttemptService) finalize(ctx context.Context, attempt *model.QuizAttempt, reason model.FinishReason) (bool, error) {
	if attempt.IsFinalized() {
		return false, nil
	}

	result, err := s.computeResult(ctx, attempt)
	if err != nil {
		return false, err
	}

	end := s.now()
	attempt.EndTime = &end
	attempt.Status = model.AttemptFinalized
	attempt.FinishReason = reason
	attempt.Score = result.ScorePercent

	done, err := s.Attempts.MarkFinalized(ctx, attempt)
	if err != nil {
		attempt.EndTime = nil
		attempt.Status = model.AttemptInProgress
		attempt.FinishReason = ""
		return false, err
	}
	if !done {
		winner, err := s.Attempts.FindByID(ctx, attempt.ID)
		if err != nil {
			return false, err
		}
		*attempt = *winner
		return false, nil
	}

	monitoring.AttemptsFinalized.WithLabelValues(string(reason)).Inc()
	monitoring.AttemptScore.Observe(result.ScorePercent)
	logger.Log.Info("attempt finalized",
		zap.Uint("attemptId", attempt.ID),
		zap.Uint("userId", attempt.UserID),
		zap.String("reason", string(reason)),
		zap.Float64("score", result.ScorePercent),
		zap.Int("correct", result.CorrectCount),
		zap.Int("total", result.TotalQuestions))
	return true, nil
}
