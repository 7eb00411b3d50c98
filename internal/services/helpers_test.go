package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/storage"
)

// newTestStore opens a real SQLite store over a temp file so the
// services are tested against the same SQL the production code runs.
func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUser(t *testing.T, store storage.Store, phone string) *core.User {
	t.Helper()

	user := &core.User{PhoneNumber: phone, Level: 1, IsAuthorized: true}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user %s: %v", phone, err)
	}
	return user
}

// createTestFamily builds a family with the given members. The first
// member is attached but not promoted to admin; promotion only happens
// through plan creation.
func createTestFamily(t *testing.T, store storage.Store, name string, members ...*core.User) *core.FamilyGroup {
	t.Helper()

	ctx := context.Background()
	group := &core.FamilyGroup{Name: name, InviteCode: name + "01"}
	if err := store.CreateFamilyGroup(ctx, group); err != nil {
		t.Fatalf("Failed to create family: %v", err)
	}
	for _, m := range members {
		m.FamilyGroupID = group.ID
		if err := store.UpdateUser(ctx, m); err != nil {
			t.Fatalf("Failed to attach member: %v", err)
		}
	}
	return group
}

func addTestTransaction(t *testing.T, store storage.Store, userID string, txType core.TransactionType, cents int64, category string, at time.Time) {
	t.Helper()

	tx := &core.Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		CategoryKey: core.CategoryKey(category),
		CreatedAt:   at,
	}
	if err := store.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}
}
