package service

import (
	"context"

	"github.com/edututor/edututor-backend/internal/model"
	"github.com/edututor/edututor-backend/internal/repository"
)

// ResultService lists stored quiz results.
type ResultService struct {
	store *repository.MetadataStore
}

// NewResultService creates a new ResultService.
func NewResultService(store *repository.MetadataStore) *ResultService {
	return &ResultService{store: store}
}

// ListForUser returns one student's history, oldest first.
func (s *ResultService) ListForUser(ctx context.Context, email string) ([]model.QuizResult, error) {
	return s.list(ctx, email)
}

// ListAll returns every student's results, or one student's when emailFilter is set.
func (s *ResultService) ListAll(ctx context.Context, emailFilter string) ([]model.QuizResult, error) {
	return s.list(ctx, NormalizeEmail(emailFilter))
}

func (s *ResultService) list(ctx context.Context, email string) ([]model.QuizResult, error) {
	results, err := s.store.ListQuizResults(ctx, email)
	if err != nil {
		return nil, newError(KindExternal, "failed to load quiz results", err)
	}
	return results, nil
}
