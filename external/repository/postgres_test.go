package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/foxseedlab/jimakun/internal/repository"
)

func TestPostgresRepository_GetRunRejectsMalformedID(t *testing.T) {
	repo := &PostgresRepository{}
	for _, id := range []string{"not-a-uuid", "", "run-1"} {
		if _, err := repo.GetRun(context.Background(), id); !errors.Is(err, repository.ErrRunNotFound) {
			t.Fatalf("GetRun(%q): expected ErrRunNotFound, got %v", id, err)
		}
	}
}
