package store

import (
	"context"
	"errors"

	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
)

var ErrNotFound = errors.New("not found")

// Store is the persistence contract the services depend on. The adaptive
// core never touches it directly; services load explicit inputs and hand the
// outputs back for saving.
//
// Content is immutable once imported. Attempts are append-only; the store
// assigns a monotonic sequence number on append and preserves insertion
// order. Profiles are whole-object upserts with no partial-update semantics.
type Store interface {
	GetContent(ctx context.Context) (*curriculum.ContentSet, error)
	ImportContent(ctx context.Context, set *curriculum.ContentSet) error

	// GetAttempts returns all attempts, or only one student's when
	// studentID is non-empty. Order is ascending by sequence number.
	GetAttempts(ctx context.Context, studentID string) ([]attempt.Attempt, error)
	AppendAttempt(ctx context.Context, a *attempt.Attempt) error

	GetProfile(ctx context.Context, studentID string) (*student.Profile, error)
	PutProfile(ctx context.Context, p *student.Profile) error
	ListProfiles(ctx context.Context) ([]*student.Profile, error)

	GetUserByEmail(ctx context.Context, email string) (*student.User, error)
	SaveUser(ctx context.Context, u *student.User) error

	Close() error
}
