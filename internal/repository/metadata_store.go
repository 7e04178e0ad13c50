package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edututor/edututor-backend/internal/model"
)

// RecordType discriminates the kinds of records kept in the metadata store.
type RecordType string

const (
	RecordTypeUser RecordType = "user"
	RecordTypeQuiz RecordType = "quiz"
)

// Retrieval caps. Queries never page past these; larger result sets are truncated.
const (
	UserLookupLimit    = 1
	StudentResultLimit = 100
	AllResultsLimit    = 1000
)

var ErrInvalidRecord = errors.New("invalid metadata record")

// Document is one stored record: an id, the two indexed attributes and an opaque
// JSON metadata payload.
type Document struct {
	ID       string
	Type     RecordType
	Email    string
	Metadata json.RawMessage
}

// Query selects documents of one type, optionally with an exact email.
// Results come back in first-insertion order, at most Limit of them.
type Query struct {
	Type  RecordType
	Email string
	Limit int
}

// Backend is a key-value store with equality filters on type and email.
// Upsert replaces the document with the same id.
type Backend interface {
	Upsert(ctx context.Context, doc Document) error
	Query(ctx context.Context, q Query) ([]Document, error)
	Ping(ctx context.Context) error
}

// MetadataStore keeps user and quiz-result records in a Backend.
type MetadataStore struct {
	backend Backend
}

// NewMetadataStore creates a MetadataStore over backend.
func NewMetadataStore(backend Backend) *MetadataStore {
	return &MetadataStore{backend: backend}
}

// userMetadata is the stored shape of a user record.
type userMetadata struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
	Name     string     `json:"name"`
}

// PutUser upserts a user keyed by id. It does not check email uniqueness; callers
// look the email up first.
func (s *MetadataStore) PutUser(ctx context.Context, id string, u *model.User) error {
	if id == "" || u.Email == "" {
		return fmt.Errorf("%w: user needs id and email", ErrInvalidRecord)
	}
	raw, err := json.Marshal(userMetadata{
		Email:    u.Email,
		Password: u.PasswordHash,
		Role:     u.Role,
		Name:     u.Name,
	})
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.backend.Upsert(ctx, Document{ID: id, Type: RecordTypeUser, Email: u.Email, Metadata: raw}); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	u.ID = id
	return nil
}

// FindUserByEmail returns the first user with email in store order, or nil.
func (s *MetadataStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	docs, err := s.backend.Query(ctx, Query{Type: RecordTypeUser, Email: email, Limit: UserLookupLimit})
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	var m userMetadata
	if err := json.Unmarshal(docs[0].Metadata, &m); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", docs[0].ID, err)
	}
	role := m.Role
	if role == "" {
		role = model.RoleStudent
	}
	return &model.User{
		ID:           docs[0].ID,
		Email:        docs[0].Email,
		PasswordHash: m.Password,
		Role:         role,
		Name:         m.Name,
	}, nil
}

// PutQuizResult upserts a result keyed by owner email and timestamp.
func (s *MetadataStore) PutQuizResult(ctx context.Context, r *model.QuizResult) error {
	if r.OwnerEmail == "" || r.Timestamp == "" {
		return fmt.Errorf("%w: quiz result needs email and time", ErrInvalidRecord)
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode quiz result: %w", err)
	}
	if err := s.backend.Upsert(ctx, Document{ID: r.Key(), Type: RecordTypeQuiz, Email: r.OwnerEmail, Metadata: raw}); err != nil {
		return fmt.Errorf("upsert quiz result: %w", err)
	}
	return nil
}

// ListQuizResults returns results for email, or for everyone when email is empty.
// Per-student listings are capped at StudentResultLimit, the full listing at
// AllResultsLimit.
func (s *MetadataStore) ListQuizResults(ctx context.Context, email string) ([]model.QuizResult, error) {
	limit := AllResultsLimit
	if email != "" {
		limit = StudentResultLimit
	}
	docs, err := s.backend.Query(ctx, Query{Type: RecordTypeQuiz, Email: email, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("query quiz results: %w", err)
	}

	results := make([]model.QuizResult, 0, len(docs))
	for _, d := range docs {
		var r model.QuizResult
		if err := json.Unmarshal(d.Metadata, &r); err != nil {
			return nil, fmt.Errorf("decode quiz result %s: %w", d.ID, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// Ping checks the backend is reachable.
func (s *MetadataStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
