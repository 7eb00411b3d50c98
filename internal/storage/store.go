// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/ceconelo/financaia/internal/core"
)

// Store defines the persistence operations the services need. The
// abstraction keeps SQL out of the service layer and lets tests swap
// the backend for a temp-file database.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *core.User) error
	GetUser(ctx context.Context, id string) (*core.User, error)
	GetUserByPhone(ctx context.Context, phoneNumber string) (*core.User, error)
	UpdateUser(ctx context.Context, u *core.User) error
	ListFamilyMembers(ctx context.Context, familyGroupID string) ([]core.User, error)

	// Family groups
	CreateFamilyGroup(ctx context.Context, g *core.FamilyGroup) error
	GetFamilyGroup(ctx context.Context, id string) (*core.FamilyGroup, error)
	GetFamilyGroupByInviteCode(ctx context.Context, code string) (*core.FamilyGroup, error)
	// SetFamilyAdmin promotes a member only when no admin is set yet.
	// Returns true when the promotion happened.
	SetFamilyAdmin(ctx context.Context, familyGroupID, adminID string) (bool, error)

	// Budget plans
	CreateBudgetPlan(ctx context.Context, p *core.BudgetPlan) error
	GetBudgetPlan(ctx context.Context, id string) (*core.BudgetPlan, error)
	UpdateBudgetPlan(ctx context.Context, p *core.BudgetPlan) error
	ListUserPlans(ctx context.Context, userID string, statuses ...core.PlanStatus) ([]core.BudgetPlan, error)
	ListFamilyPlans(ctx context.Context, familyGroupID string, statuses ...core.PlanStatus) ([]core.BudgetPlan, error)

	// Transactions. A zero from/to means an unbounded range end.
	CreateTransaction(ctx context.Context, t *core.Transaction) error
	GetTransaction(ctx context.Context, id string) (*core.Transaction, error)
	ListUserTransactions(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error)
	ListFamilyTransactions(ctx context.Context, familyGroupID string, from, to time.Time) ([]core.Transaction, error)
	CountUserTransactions(ctx context.Context, userID string) (int64, error)

	// Sheet sync bookkeeping (consumed by the worker)
	ListUnsyncedTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkTransactionSynced(ctx context.Context, id string) error

	// Access keys
	CreateAccessKey(ctx context.Context, k *core.AccessKey) error
	GetAccessKey(ctx context.Context, key string) (*core.AccessKey, error)
	UpdateAccessKey(ctx context.Context, k *core.AccessKey) error

	// Achievements. UnlockAchievement reports whether the achievement
	// was newly unlocked.
	UnlockAchievement(ctx context.Context, userID, name string) (bool, error)
	CountAchievements(ctx context.Context, userID string) (int64, error)
}

// TxStore is a Store whose read-then-write sequences can be grouped
// into a single database transaction. The callback receives a Store
// scoped to that transaction; returning an error rolls it back.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
	Close() error
}
