package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/storage"
)

// FamilyService manages family groups and the cycle-bounded family
// report.
type FamilyService struct {
	store storage.Store
}

func NewFamilyService(store storage.Store) *FamilyService {
	return &FamilyService{store: store}
}

// BudgetOverlay is the spend-vs-limit state of one FIXED plan within
// the current cycle.
type BudgetOverlay struct {
	Limit      core.Money
	Spent      core.Money
	Remaining  core.Money
	Percentage float64
}

// Report aggregates a family's income and expenses over the current
// billing cycle. Map keys are display names (members) and first-seen
// category casing (categories).
type Report struct {
	FamilyName     string
	InviteCode     string
	TotalIncome    core.Money
	TotalExpense   core.Money
	TotalAvailable core.Money
	ByMember       map[string]core.Money
	ByCategory     map[string]core.Money
	Budgets        map[string]BudgetOverlay
	// PercentTargets lists PERCENTAGE plans by target only; their
	// limit depends on income and gets no spend overlay.
	PercentTargets map[string]core.Money
	MemberCount    int
}

// CreateFamily creates a new family with the caller as first member.
// The caller becomes admin only later, on the first plan write.
func (s *FamilyService) CreateFamily(ctx context.Context, userID, name string) (*core.FamilyGroup, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.FamilyGroupID != "" {
		return nil, core.ErrHasFamily
	}

	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Família de %s", user.DisplayName())
	}

	var group *core.FamilyGroup
	for attempt := 0; attempt < 5; attempt++ {
		code, err := randomInviteCode()
		if err != nil {
			return nil, err
		}
		candidate := &core.FamilyGroup{Name: name, InviteCode: code}
		if err := s.store.CreateFamilyGroup(ctx, candidate); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, fmt.Errorf("create family group: %w", err)
		}
		group = candidate
		break
	}
	if group == nil {
		return nil, errors.New("could not generate a unique invite code")
	}

	user.FamilyGroupID = group.ID
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("attach creator to family: %w", err)
	}
	return group, nil
}

// JoinFamily adds the user to the family identified by an invite code.
func (s *FamilyService) JoinFamily(ctx context.Context, userID, inviteCode string) (*core.FamilyGroup, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.FamilyGroupID != "" {
		return nil, core.ErrHasFamily
	}

	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	group, err := s.store.GetFamilyGroupByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}

	user.FamilyGroupID = group.ID
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("join family: %w", err)
	}
	return group, nil
}

// FamilyReport builds the current-cycle report for the user's family.
// Returns core.ErrNoFamily when the user has none, so callers can
// branch to the onboarding reply instead of treating it as a failure.
func (s *FamilyService) FamilyReport(ctx context.Context, userID string) (*Report, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.FamilyGroupID == "" {
		return nil, core.ErrNoFamily
	}

	group, err := s.store.GetFamilyGroup(ctx, user.FamilyGroupID)
	if err != nil {
		return nil, fmt.Errorf("load family group: %w", err)
	}
	members, err := s.store.ListFamilyMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}

	month, year := core.CurrentCycle(time.Now().UTC())
	from, to := core.CycleRange(month, year)
	transactions, err := s.store.ListFamilyTransactions(ctx, group.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list family transactions: %w", err)
	}

	memberNames := make(map[string]string, len(members))
	for _, m := range members {
		memberNames[m.ID] = m.DisplayName()
	}

	report := &Report{
		FamilyName:     group.Name,
		InviteCode:     group.InviteCode,
		ByMember:       make(map[string]core.Money),
		ByCategory:     make(map[string]core.Money),
		Budgets:        make(map[string]BudgetOverlay),
		PercentTargets: make(map[string]core.Money),
		MemberCount:    len(members),
	}

	// Canonical key to first-seen display casing.
	categoryNames := make(map[string]string)

	for _, t := range transactions {
		switch t.Type {
		case core.Income:
			report.TotalIncome.Cents += t.Amount.Cents
		case core.Expense:
			report.TotalExpense.Cents += t.Amount.Cents

			name := memberNames[t.UserID]
			m := report.ByMember[name]
			m.Cents += t.Amount.Cents
			report.ByMember[name] = m

			display, seen := categoryNames[t.CategoryKey]
			if !seen {
				display = t.Category
				categoryNames[t.CategoryKey] = display
			}
			c := report.ByCategory[display]
			c.Cents += t.Amount.Cents
			report.ByCategory[display] = c
		}
	}
	report.TotalAvailable.Cents = report.TotalIncome.Cents - report.TotalExpense.Cents

	plans, err := s.store.ListFamilyPlans(ctx, group.ID, core.PlanActive)
	if err != nil {
		return nil, fmt.Errorf("list family plans: %w", err)
	}
	for _, plan := range plans {
		if plan.Type == core.PlanPercentage {
			report.PercentTargets[plan.Category] = plan.Amount
			continue
		}

		display, seen := categoryNames[plan.CategoryKey]
		if !seen {
			display = plan.Category
		}
		spent := report.ByCategory[display]

		overlay := BudgetOverlay{
			Limit: plan.Amount,
			Spent: spent,
		}
		if remaining := plan.Amount.Cents - spent.Cents; remaining > 0 {
			overlay.Remaining = core.Money{Cents: remaining}
		}
		if plan.Amount.Cents > 0 {
			pct := float64(spent.Cents) / float64(plan.Amount.Cents) * 100
			if pct > 100 {
				pct = 100
			}
			overlay.Percentage = pct
		}
		report.Budgets[display] = overlay
	}

	return report, nil
}
