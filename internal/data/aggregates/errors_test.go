package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want domain.ErrorCode
	}{
		{"validation", ValidationError("bad input"), domain.CodeValidation},
		{"conflict", ConflictError("stale"), domain.CodeConflict},
		{"not found", gorm.ErrRecordNotFound, domain.CodeNotFound},
		{"cancelled", fmt.Errorf("query: %w", context.Canceled), domain.CodeRetryable},
		{"pg unique", &pgconn.PgError{Code: "23505"}, domain.CodeConflict},
		{"pg fk", &pgconn.PgError{Code: "23503"}, domain.CodePreconditionFailed},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, domain.CodeRetryable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: snapshot.id"), domain.CodeConflict},
		{"sqlite locked", errors.New("database is locked"), domain.CodeRetryable},
		{"other", errors.New("boom"), domain.CodeInternal},
	}
	for _, tc := range cases {
		if got := domain.CodeOf(MapError("op", tc.in)); got != tc.want {
			t.Fatalf("%s: want %q got %q", tc.name, tc.want, got)
		}
	}
}

func TestMapErrorPassesCodedErrorsThrough(t *testing.T) {
	in := domain.NewError(domain.CodeScopeEmpty, "op", "no learners", nil)
	wrapped := fmt.Errorf("resolve: %w", in)
	if out := MapError("other", wrapped); out != wrapped {
		t.Fatalf("expected passthrough of coded error")
	}
	if MapError("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
