package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ceconelo/financaia/internal/auth"
	"github.com/ceconelo/financaia/internal/core"
)

func newTestFinanceService(t *testing.T) (*FinanceService, *GamificationService, func(phone string) *core.User) {
	t.Helper()

	store := newTestStore(t)
	gamification := NewGamificationService(store)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := NewFinanceService(store, gamification, nil, tokens, "http://localhost:3000/dashboard")

	return svc, gamification, func(phone string) *core.User {
		return createTestUser(t, store, phone)
	}
}

func TestGetOrCreateUser(t *testing.T) {
	svc, _, _ := newTestFinanceService(t)
	ctx := context.Background()

	user, err := svc.GetOrCreateUser(ctx, "tg_12345")
	if err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected a generated user id")
	}
	if user.Level != 1 {
		t.Errorf("new user level = %d, want 1", user.Level)
	}
	if user.IsAuthorized {
		t.Error("new user must not be authorized")
	}

	again, err := svc.GetOrCreateUser(ctx, "tg_12345")
	if err != nil {
		t.Fatalf("second GetOrCreateUser failed: %v", err)
	}
	if again.ID != user.ID {
		t.Error("same identifier must resolve to the same user")
	}
}

func TestAddTransactionAwardsXP(t *testing.T) {
	svc, gamification, newUser := newTestFinanceService(t)
	ctx := context.Background()
	user := newUser("tg_100")

	tx, xp, err := svc.AddTransaction(ctx, user.ID, core.Expense, core.Money{Cents: 5000}, "Lazer", "cinema")
	if err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	if tx.ID == "" {
		t.Error("expected a generated transaction id")
	}
	if xp != 10 {
		t.Errorf("xp gained = %d, want 10", xp)
	}

	stats, err := gamification.Stats(ctx, user.ID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.XP != 10 {
		t.Errorf("user XP = %d, want 10", stats.XP)
	}
}

func TestAddTransactionRejectsInvalid(t *testing.T) {
	svc, _, newUser := newTestFinanceService(t)
	user := newUser("tg_100")

	if _, _, err := svc.AddTransaction(context.Background(), user.ID, core.Expense, core.Money{Cents: 0}, "Lazer", ""); err == nil {
		t.Fatal("zero amount must be rejected")
	}
	if _, _, err := svc.AddTransaction(context.Background(), user.ID, core.Expense, core.Money{Cents: 100}, "  ", ""); err == nil {
		t.Fatal("empty category must be rejected")
	}
}

func TestBalance(t *testing.T) {
	svc, _, newUser := newTestFinanceService(t)
	ctx := context.Background()
	user := newUser("tg_100")

	if _, _, err := svc.AddTransaction(ctx, user.ID, core.Income, core.Money{Cents: 100000}, "Salário", ""); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	if _, _, err := svc.AddTransaction(ctx, user.ID, core.Expense, core.Money{Cents: 30000}, "Mercado", ""); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}

	balance, err := svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance.Cents != 70000 {
		t.Errorf("balance = %d, want 70000", balance.Cents)
	}
}

func TestMonthlyExpensesCalendarBounded(t *testing.T) {
	svc, _, newUser := newTestFinanceService(t)
	ctx := context.Background()
	user := newUser("tg_100")

	// Fixed month so the boundaries are deterministic.
	inMonth := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	prevMonth := time.Date(2026, time.February, 27, 12, 0, 0, 0, time.UTC)

	addTestTransaction(t, svc.store, user.ID, core.Expense, 5000, "Lazer", inMonth)
	addTestTransaction(t, svc.store, user.ID, core.Expense, 3000, "lazer", inMonth.Add(time.Hour))
	addTestTransaction(t, svc.store, user.ID, core.Expense, 9000, "Mercado", prevMonth)
	addTestTransaction(t, svc.store, user.ID, core.Income, 100000, "Salário", inMonth)

	summary, err := svc.MonthlyExpenses(ctx, user.ID, 3, 2026)
	if err != nil {
		t.Fatalf("MonthlyExpenses failed: %v", err)
	}
	if summary.Total.Cents != 8000 {
		t.Errorf("total = %d, want 8000", summary.Total.Cents)
	}
	if summary.Count != 2 {
		t.Errorf("count = %d, want 2", summary.Count)
	}
	if summary.ByCategory["Lazer"].Cents != 8000 {
		t.Errorf("Lazer = %d, want 8000 (case-insensitive merge)", summary.ByCategory["Lazer"].Cents)
	}
}

func TestBudgetAlert(t *testing.T) {
	svc, _, newUser := newTestFinanceService(t)
	ctx := context.Background()
	user := newUser("tg_100")

	plan := &core.BudgetPlan{
		UserID:      user.ID,
		Category:    "Lazer",
		CategoryKey: "lazer",
		Type:        core.PlanFixed,
		Amount:      core.Money{Cents: 10000},
		Status:      core.PlanActive,
	}
	if err := svc.store.CreateBudgetPlan(ctx, plan); err != nil {
		t.Fatalf("CreateBudgetPlan failed: %v", err)
	}

	now := time.Now().UTC()
	addTestTransaction(t, svc.store, user.ID, core.Expense, 5000, "Lazer", now)

	alert, err := svc.BudgetAlert(ctx, user.ID, "lazer")
	if err != nil {
		t.Fatalf("BudgetAlert failed: %v", err)
	}
	if alert != nil {
		t.Fatalf("no alert expected at 50%%, got %+v", alert)
	}

	addTestTransaction(t, svc.store, user.ID, core.Expense, 4500, "Lazer", now)
	alert, err = svc.BudgetAlert(ctx, user.ID, "LAZER")
	if err != nil {
		t.Fatalf("BudgetAlert failed: %v", err)
	}
	if alert == nil {
		t.Fatal("expected an alert at 95%")
	}
	if alert.Spent.Cents != 9500 || alert.Limit.Cents != 10000 {
		t.Errorf("alert spent/limit = %d/%d, want 9500/10000", alert.Spent.Cents, alert.Limit.Cents)
	}
	if alert.Percentage < 90 {
		t.Errorf("alert percentage = %v, want >= 90", alert.Percentage)
	}

	// No plan for the category means no alert.
	alert, err = svc.BudgetAlert(ctx, user.ID, "mercado")
	if err != nil {
		t.Fatalf("BudgetAlert failed: %v", err)
	}
	if alert != nil {
		t.Error("no alert expected without a plan")
	}
}

func TestDashboardLink(t *testing.T) {
	svc, _, newUser := newTestFinanceService(t)
	user := newUser("tg_100")

	link, err := svc.DashboardLink(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("DashboardLink failed: %v", err)
	}
	if !strings.HasPrefix(link, "http://localhost:3000/dashboard?token=") {
		t.Errorf("unexpected link shape: %s", link)
	}

	token := strings.TrimPrefix(link, "http://localhost:3000/dashboard?token=")
	claims, err := auth.NewTokenManager("test-secret", time.Hour).Validate(token)
	if err != nil {
		t.Fatalf("token validation failed: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token carries %q, want %q", claims.UserID, user.ID)
	}
}

func TestSetUserName(t *testing.T) {
	svc, _, newUser := newTestFinanceService(t)
	ctx := context.Background()
	user := newUser("tg_100")

	if err := svc.SetUserName(ctx, user.ID, "  João  "); err != nil {
		t.Fatalf("SetUserName failed: %v", err)
	}
	got, err := svc.store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Name != "João" {
		t.Errorf("name = %q, want João", got.Name)
	}
}
