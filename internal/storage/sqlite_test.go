package storage

import (
	"context"
	"path/filepath"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/ceconelo/financaia/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// Concurrent read-modify-write transactions must serialize cleanly.
// The connection opens with _txlock=immediate, so each WithTx holds
// the write lock from the start and waits on busy_timeout instead of
// failing when a deferred read tries to upgrade to a write.
func TestWithTxSerializesConcurrentWriters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := &core.User{PhoneNumber: "tg_100", Level: 1, IsAuthorized: true}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	const writers = 4
	const perWriter = 5

	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			for j := 0; j < perWriter; j++ {
				err := repo.WithTx(ctx, func(tx Store) error {
					u, err := tx.GetUser(ctx, user.ID)
					if err != nil {
						return err
					}
					u.XP += 10
					return tx.UpdateUser(ctx, u)
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent WithTx failed: %v", err)
	}

	got, err := repo.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if want := int64(writers * perWriter * 10); got.XP != want {
		t.Errorf("expected %d XP after all increments, got %d", want, got.XP)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := &core.User{PhoneNumber: "tg_100", Level: 1, IsAuthorized: true}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	wantErr := core.ErrForbidden
	err := repo.WithTx(ctx, func(tx Store) error {
		u, err := tx.GetUser(ctx, user.ID)
		if err != nil {
			return err
		}
		u.XP = 999
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected callback error back, got %v", err)
	}

	got, err := repo.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.XP != 0 {
		t.Errorf("write inside a failed transaction must roll back, got %d XP", got.XP)
	}
}
