package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/edututor/edututor-backend/internal/llm"
	"github.com/edututor/edututor-backend/internal/metrics"
	"github.com/edututor/edututor-backend/internal/model"
	"github.com/edututor/edututor-backend/internal/quiz"
	"github.com/edututor/edututor-backend/internal/repository"
	"github.com/rs/zerolog"
)

const lockStripes = 64

// QuizService drives each user's quiz session: generation, answering, grading and
// result persistence.
type QuizService struct {
	cfg       *config.Config
	generator llm.Generator
	sessions  repository.SessionStore
	results   *repository.MetadataStore
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time

	// Operations on one user's session are serialized. The LLM call runs outside
	// the lock; inflight marks users whose generation has not returned yet.
	locks    [lockStripes]sync.Mutex
	inflight sync.Map
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	cfg *config.Config,
	generator llm.Generator,
	sessions repository.SessionStore,
	results *repository.MetadataStore,
	m *metrics.Metrics,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		cfg:       cfg,
		generator: generator,
		sessions:  sessions,
		results:   results,
		metrics:   m,
		log:       log.With().Str("component", "quiz_service").Logger(),
		now:       time.Now,
	}
}

func (s *QuizService) lock(email string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// Current returns the user's session, EMPTY when there is none.
func (s *QuizService) Current(ctx context.Context, email string) (quiz.Session, error) {
	sess, err := s.sessions.Load(ctx, email)
	if err != nil {
		return quiz.Session{}, newError(KindExternal, "failed to load quiz session", err)
	}
	return sess, nil
}

// Start generates a new quiz for the user. A parse shortfall is reported through the
// response warning together with the raw completion; it is not an error. When no
// question could be parsed the session goes back to EMPTY.
func (s *QuizService) Start(ctx context.Context, email string, req model.StartQuizRequest) (*model.StartQuizResponse, error) {
	difficulty, err := quiz.ParseDifficulty(req.Difficulty)
	if err != nil {
		return nil, newError(KindValidation, err.Error(), err)
	}
	count := req.Count
	if count == 0 {
		count = s.cfg.DefaultQuestionCount
	}
	if s.cfg.MaxQuestionCount > 0 && count > s.cfg.MaxQuestionCount {
		return nil, newError(KindValidation, fmt.Sprintf("at most %d questions per quiz", s.cfg.MaxQuestionCount), nil)
	}
	if missing := s.cfg.MissingLLMSettings(); len(missing) > 0 {
		return nil, configurationError("quiz generation is not configured", missing)
	}

	sess, err := s.begin(ctx, email, req.Topic, difficulty, count)
	if err != nil {
		return nil, err
	}

	// The generation is not abandoned when the caller goes away; the transport
	// timeout bounds it.
	genCtx := context.WithoutCancel(ctx)
	start := s.now()
	raw, genErr := s.generator.Generate(genCtx, llm.Request{
		Topic:        sess.Topic,
		NumQuestions: count,
		Difficulty:   difficulty,
		Prompt:       quiz.BuildPrompt(sess.Topic, count, difficulty),
	})
	s.metrics.GenerationDuration.WithLabelValues(s.generator.Name()).Observe(s.now().Sub(start).Seconds())

	return s.finish(genCtx, email, count, raw, genErr)
}

func (s *QuizService) begin(ctx context.Context, email, topic string, difficulty quiz.Difficulty, count int) (quiz.Session, error) {
	unlock := s.lock(email)
	defer unlock()

	if _, busy := s.inflight.Load(email); busy {
		return quiz.Session{}, newError(KindState, "a quiz is already being generated", quiz.ErrInvalidTransition)
	}

	current, err := s.sessions.Load(ctx, email)
	if err != nil {
		return quiz.Session{}, newError(KindExternal, "failed to load quiz session", err)
	}
	if current.State == quiz.StateGenerating {
		// Left behind by a generation that never finished, e.g. a restart.
		s.log.Warn().Str("email", email).Msg("Discarding stale generating session")
		current = quiz.NewSession()
	}

	next, err := quiz.Begin(current, topic, difficulty, count)
	if err != nil {
		return quiz.Session{}, mapQuizError(err)
	}
	if err := s.sessions.Save(ctx, email, next); err != nil {
		return quiz.Session{}, newError(KindExternal, "failed to save quiz session", err)
	}
	s.inflight.Store(email, struct{}{})
	return next, nil
}

func (s *QuizService) finish(ctx context.Context, email string, requested int, raw string, genErr error) (*model.StartQuizResponse, error) {
	unlock := s.lock(email)
	defer unlock()
	defer s.inflight.Delete(email)

	provider := s.generator.Name()
	current, err := s.sessions.Load(ctx, email)
	if err != nil {
		return nil, newError(KindExternal, "failed to load quiz session", err)
	}
	if current.State != quiz.StateGenerating {
		return nil, newError(KindState, "quiz was reset while it was being generated", quiz.ErrInvalidTransition)
	}

	fail := func(outcome string, e *Error) (*model.StartQuizResponse, error) {
		s.metrics.QuizzesGenerated.WithLabelValues(provider, outcome).Inc()
		if err := s.sessions.Save(ctx, email, quiz.NewSession()); err != nil {
			s.log.Error().Err(err).Str("email", email).Msg("Failed to reset session after generation failure")
		}
		return nil, e
	}

	if genErr != nil {
		var missing *llm.MissingSettingsError
		if errors.As(genErr, &missing) {
			return fail(metrics.OutcomeError, configurationError("quiz generation is not configured", missing.Missing))
		}
		s.log.Warn().Err(genErr).Str("email", email).Msg("Quiz generation failed")
		return fail(metrics.OutcomeError, newError(KindExternal, "failed to generate quiz", genErr))
	}
	if strings.TrimSpace(raw) == "" {
		return fail(metrics.OutcomeEmpty, newError(KindExternal, "failed to generate quiz", llm.ErrEmptyResponse))
	}

	questions := quiz.Usable(quiz.Parse(raw))
	warning := quiz.CheckShortfall(raw, requested, len(questions))

	resp := &model.StartQuizResponse{Warning: warning}
	if warning != nil {
		resp.RawText = raw
		s.metrics.ParseShortfalls.WithLabelValues(warning.Code).Inc()
	}

	if len(questions) == 0 {
		resp.Session = quiz.NewSession()
		if err := s.sessions.Save(ctx, email, resp.Session); err != nil {
			return nil, newError(KindExternal, "failed to save quiz session", err)
		}
		s.metrics.QuizzesGenerated.WithLabelValues(provider, metrics.OutcomeShortfall).Inc()
		return resp, nil
	}

	next, err := quiz.Load(current, questions)
	if err != nil {
		return nil, mapQuizError(err)
	}
	if err := s.sessions.Save(ctx, email, next); err != nil {
		return nil, newError(KindExternal, "failed to save quiz session", err)
	}

	outcome := metrics.OutcomeOK
	if warning != nil {
		outcome = metrics.OutcomeShortfall
	}
	s.metrics.QuizzesGenerated.WithLabelValues(provider, outcome).Inc()
	s.log.Info().
		Str("email", email).
		Str("topic", next.Topic).
		Int("requested", requested).
		Int("parsed", len(questions)).
		Msg("Quiz ready")

	resp.Session = next
	return resp, nil
}

// SelectAnswer records option as the answer to question index.
func (s *QuizService) SelectAnswer(ctx context.Context, email string, index int, option string) (quiz.Session, error) {
	unlock := s.lock(email)
	defer unlock()

	current, err := s.sessions.Load(ctx, email)
	if err != nil {
		return quiz.Session{}, newError(KindExternal, "failed to load quiz session", err)
	}
	next, err := quiz.SelectAnswer(current, index, option)
	if err != nil {
		return current, mapQuizError(err)
	}
	if err := s.sessions.Save(ctx, email, next); err != nil {
		return quiz.Session{}, newError(KindExternal, "failed to save quiz session", err)
	}
	return next, nil
}

// Submit grades the session and stores the result. With unanswered questions the
// session stays READY and the response carries a notice instead of a result. If the
// result cannot be stored the session also stays READY so the user can retry.
func (s *QuizService) Submit(ctx context.Context, email string) (*model.SubmitQuizResponse, error) {
	unlock := s.lock(email)
	defer unlock()

	current, err := s.sessions.Load(ctx, email)
	if err != nil {
		return nil, newError(KindExternal, "failed to load quiz session", err)
	}
	next, notice, err := quiz.Submit(current)
	if err != nil {
		return nil, mapQuizError(err)
	}
	if notice != nil {
		s.metrics.Submissions.WithLabelValues("incomplete").Inc()
		return &model.SubmitQuizResponse{Session: next, Notice: notice}, nil
	}

	result := &model.QuizResult{
		OwnerEmail: email,
		Topic:      next.Topic,
		Score:      next.Score,
		Total:      next.Total,
		Timestamp:  model.FormatTimestamp(s.now()),
	}
	if err := s.results.PutQuizResult(ctx, result); err != nil {
		s.metrics.Submissions.WithLabelValues("store_failed").Inc()
		return nil, newError(KindExternal, "failed to save quiz result", err)
	}
	if err := s.sessions.Save(ctx, email, next); err != nil {
		return nil, newError(KindExternal, "failed to save quiz session", err)
	}

	s.metrics.Submissions.WithLabelValues("graded").Inc()
	if next.Total > 0 {
		s.metrics.ScoreRatio.Observe(float64(next.Score) / float64(next.Total))
	}
	s.log.Info().
		Str("email", email).
		Str("topic", next.Topic).
		Int("score", next.Score).
		Int("total", next.Total).
		Msg("Quiz submitted")

	return &model.SubmitQuizResponse{Session: next, Result: result}, nil
}

// Reset discards the user's session. A generation still in flight finds the session
// reset when it returns and drops its questions.
func (s *QuizService) Reset(ctx context.Context, email string) (quiz.Session, error) {
	unlock := s.lock(email)
	defer unlock()

	if err := s.sessions.Delete(ctx, email); err != nil {
		return quiz.Session{}, newError(KindExternal, "failed to reset quiz session", err)
	}
	return quiz.Reset(), nil
}

// Review lists the submitted answers against the correct ones.
func (s *QuizService) Review(ctx context.Context, email string) ([]quiz.ReviewItem, error) {
	current, err := s.sessions.Load(ctx, email)
	if err != nil {
		return nil, newError(KindExternal, "failed to load quiz session", err)
	}
	items, err := quiz.Review(current)
	if err != nil {
		return nil, mapQuizError(err)
	}
	return items, nil
}

func mapQuizError(err error) error {
	switch {
	case errors.Is(err, quiz.ErrInvalidTransition):
		return newError(KindState, err.Error(), err)
	case errors.Is(err, quiz.ErrIndexOutOfRange),
		errors.Is(err, quiz.ErrUnknownOption),
		errors.Is(err, quiz.ErrEmptyTopic),
		errors.Is(err, quiz.ErrInvalidCount):
		return newError(KindValidation, err.Error(), err)
	default:
		return err
	}
}
