package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ceconelo/financaia/internal/amqp"
	"github.com/ceconelo/financaia/internal/auth"
	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/storage"
)

// FinanceService owns transactions and the personal reports built on
// them. Transaction writes also credit XP and publish a sync event
// for the spreadsheet worker.
type FinanceService struct {
	store        storage.Store
	gamification *GamificationService
	amqpClient   *amqp.Client
	tokens       *auth.TokenManager
	dashboardURL string
}

func NewFinanceService(store storage.Store, gamification *GamificationService, amqpClient *amqp.Client, tokens *auth.TokenManager, dashboardURL string) *FinanceService {
	return &FinanceService{
		store:        store,
		gamification: gamification,
		amqpClient:   amqpClient,
		tokens:       tokens,
		dashboardURL: dashboardURL,
	}
}

// MonthlySummary is the personal calendar-month expense digest.
type MonthlySummary struct {
	Total      core.Money
	ByCategory map[string]core.Money
	Count      int
}

// BudgetAlertResult reports a personal plan close to its limit.
type BudgetAlertResult struct {
	Category   string
	Spent      core.Money
	Limit      core.Money
	Percentage float64
}

// GetOrCreateUser resolves a transport identifier to a user, creating
// one on the first inbound message.
func (s *FinanceService) GetOrCreateUser(ctx context.Context, phoneNumber string) (*core.User, error) {
	user, err := s.store.GetUserByPhone(ctx, phoneNumber)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, core.ErrUserNotFound) {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	user = &core.User{
		PhoneNumber: phoneNumber,
		Level:       1,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "New user created", "phone_number", phoneNumber)
	return user, nil
}

// SetUserName updates the display name shown in family reports.
func (s *FinanceService) SetUserName(ctx context.Context, userID, name string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	user.Name = strings.TrimSpace(name)
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user name: %w", err)
	}
	return nil
}

// AddTransaction persists a transaction, credits XP and publishes the
// sync event. The publish is best-effort: a broker outage never fails
// the user's message.
func (s *FinanceService) AddTransaction(ctx context.Context, userID string, txType core.TransactionType, amount core.Money, category, description string) (*core.Transaction, int64, error) {
	transaction := &core.Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Category:    category,
		CategoryKey: core.CategoryKey(category),
		Description: description,
	}
	if err := transaction.Validate(); err != nil {
		return nil, 0, err
	}

	if err := s.store.CreateTransaction(ctx, transaction); err != nil {
		return nil, 0, fmt.Errorf("save transaction: %w", err)
	}

	if _, _, err := s.gamification.AddXP(ctx, userID, xpPerTransaction); err != nil {
		slog.ErrorContext(ctx, "Failed to credit transaction XP",
			"user_id", userID, "error", err)
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishTransactionSync(ctx, transaction.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message",
				"transaction_id", transaction.ID, "error", err)
		}
	}

	return transaction, xpPerTransaction, nil
}

// Balance is the user's all-time income minus expenses. It can be
// negative.
func (s *FinanceService) Balance(ctx context.Context, userID string) (core.Money, error) {
	transactions, err := s.store.ListUserTransactions(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return core.Money{}, fmt.Errorf("list transactions: %w", err)
	}

	var balance core.Money
	for _, t := range transactions {
		if t.Type == core.Income {
			balance.Cents += t.Amount.Cents
		} else {
			balance.Cents -= t.Amount.Cents
		}
	}
	return balance, nil
}

// MonthlyExpenses sums the user's EXPENSE transactions over one
// calendar month. Map keys are first-seen category casing.
func (s *FinanceService) MonthlyExpenses(ctx context.Context, userID string, month, year int) (*MonthlySummary, error) {
	from, to := core.MonthRange(month, year)
	transactions, err := s.store.ListUserTransactions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	summary := &MonthlySummary{ByCategory: make(map[string]core.Money)}
	categoryNames := make(map[string]string)
	for _, t := range transactions {
		if t.Type != core.Expense {
			continue
		}
		summary.Total.Cents += t.Amount.Cents
		summary.Count++

		display, seen := categoryNames[t.CategoryKey]
		if !seen {
			display = t.Category
			categoryNames[t.CategoryKey] = display
		}
		c := summary.ByCategory[display]
		c.Cents += t.Amount.Cents
		summary.ByCategory[display] = c
	}
	return summary, nil
}

// BudgetAlert checks the user's own ACTIVE FIXED plan for a category
// against this month's spend. Returns nil below the 90% threshold or
// when no plan exists.
func (s *FinanceService) BudgetAlert(ctx context.Context, userID, category string) (*BudgetAlertResult, error) {
	plans, err := s.store.ListUserPlans(ctx, userID, core.PlanActive)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	key := core.CategoryKey(category)
	var plan *core.BudgetPlan
	for i := range plans {
		if plans[i].CategoryKey == key && plans[i].Type == core.PlanFixed {
			plan = &plans[i]
			break
		}
	}
	if plan == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	summary, err := s.MonthlyExpenses(ctx, userID, int(now.Month()), now.Year())
	if err != nil {
		return nil, err
	}

	var spent core.Money
	for name, amount := range summary.ByCategory {
		if core.CategoryKey(name) == key {
			spent = amount
			break
		}
	}

	percentage := float64(spent.Cents) / float64(plan.Amount.Cents) * 100
	if percentage < 90 {
		return nil, nil
	}
	return &BudgetAlertResult{
		Category:   plan.Category,
		Spent:      spent,
		Limit:      plan.Amount,
		Percentage: percentage,
	}, nil
}

// DashboardLink builds the personal dashboard URL carrying a signed
// token for the user.
func (s *FinanceService) DashboardLink(ctx context.Context, userID string) (string, error) {
	token, err := s.tokens.Generate(userID)
	if err != nil {
		return "", fmt.Errorf("generate dashboard token: %w", err)
	}
	return fmt.Sprintf("%s?token=%s", s.dashboardURL, url.QueryEscape(token)), nil
}
