package services

import (
	"context"
	"fmt"

	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/storage"
)

// PlanningService owns budget-plan lifecycle: creation with the
// family approval workflow, admin promotion on the first family plan,
// listing, approval, editing and soft deletion.
type PlanningService struct {
	store storage.TxStore
}

func NewPlanningService(store storage.TxStore) *PlanningService {
	return &PlanningService{store: store}
}

// PlanList is what the planejamento listing renders. PendingPlans is
// populated only for the family admin.
type PlanList struct {
	ActivePlans  []core.BudgetPlan
	PendingPlans []core.BudgetPlan
}

// PlanUpdate carries the optional fields of an edit; nil means keep.
type PlanUpdate struct {
	NewAmount   *core.Money
	NewCategory *string
	NewType     *core.PlanType
}

// CreatePlan creates a plan for the user. Without a family the plan is
// immediately ACTIVE. In a family without an admin, the creator is
// promoted to admin and the plan is ACTIVE. In a family whose admin is
// someone else, the plan is a PENDING suggestion.
//
// The admin check and promotion run inside one transaction so two
// members creating plans concurrently cannot both become admin.
func (s *PlanningService) CreatePlan(ctx context.Context, userID, category string, planType core.PlanType, amount core.Money) (*core.BudgetPlan, bool, error) {
	plan := &core.BudgetPlan{
		UserID:      userID,
		Category:    category,
		CategoryKey: core.CategoryKey(category),
		Type:        planType,
		Amount:      amount,
		Status:      core.PlanActive,
	}
	if err := plan.Validate(); err != nil {
		return nil, false, err
	}

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user.FamilyGroupID == "" {
			return tx.CreateBudgetPlan(ctx, plan)
		}

		plan.FamilyGroupID = user.FamilyGroupID
		group, err := tx.GetFamilyGroup(ctx, user.FamilyGroupID)
		if err != nil {
			return fmt.Errorf("load family group: %w", err)
		}

		switch {
		case group.AdminID == "":
			// First plan-creating member becomes admin.
			if _, err := tx.SetFamilyAdmin(ctx, group.ID, userID); err != nil {
				return fmt.Errorf("promote admin: %w", err)
			}
		case group.AdminID != userID:
			plan.Status = core.PlanPending
		}
		return tx.CreateBudgetPlan(ctx, plan)
	})
	if err != nil {
		return nil, false, err
	}
	return plan, plan.Status == core.PlanPending, nil
}

// GetPlans lists plans in the user's scope: the whole family when they
// belong to one, their own otherwise. Pending suggestions show up only
// when the caller is the family admin.
func (s *PlanningService) GetPlans(ctx context.Context, userID string) (*PlanList, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	list := &PlanList{}
	if user.FamilyGroupID == "" {
		list.ActivePlans, err = s.store.ListUserPlans(ctx, userID, core.PlanActive)
		if err != nil {
			return nil, fmt.Errorf("list user plans: %w", err)
		}
		return list, nil
	}

	list.ActivePlans, err = s.store.ListFamilyPlans(ctx, user.FamilyGroupID, core.PlanActive)
	if err != nil {
		return nil, fmt.Errorf("list family plans: %w", err)
	}

	group, err := s.store.GetFamilyGroup(ctx, user.FamilyGroupID)
	if err != nil {
		return nil, fmt.Errorf("load family group: %w", err)
	}
	if group.AdminID == userID {
		list.PendingPlans, err = s.store.ListFamilyPlans(ctx, user.FamilyGroupID, core.PlanPending)
		if err != nil {
			return nil, fmt.Errorf("list pending plans: %w", err)
		}
	}
	return list, nil
}

// ApprovePlan transitions a PENDING suggestion to ACTIVE (approve) or
// REJECTED. Only the admin of the plan's family may call it; the check
// and the status write share one transaction so a plan cannot be
// double-approved.
func (s *PlanningService) ApprovePlan(ctx context.Context, userID, planID string, approve bool) (core.PlanStatus, error) {
	status := core.PlanActive
	if !approve {
		status = core.PlanRejected
	}

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		plan, err := tx.GetBudgetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if user.FamilyGroupID == "" || plan.FamilyGroupID != user.FamilyGroupID {
			return core.ErrPlanNotFound
		}
		group, err := tx.GetFamilyGroup(ctx, user.FamilyGroupID)
		if err != nil {
			return fmt.Errorf("load family group: %w", err)
		}
		if group.AdminID != userID {
			return core.ErrForbidden
		}

		plan.Status = status
		return tx.UpdateBudgetPlan(ctx, plan)
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// UpdatePlan edits the plan matching the category (case-insensitive,
// family-scoped plan preferred over a personal one) applying only the
// fields set in update.
//
// Editing an ACTIVE family plan requires admin; otherwise owner or
// admin may edit. The resolution, permission check and write share
// one transaction, so a concurrent approval or rejection cannot be
// overwritten by a stale edit.
func (s *PlanningService) UpdatePlan(ctx context.Context, userID, currentCategory string, update PlanUpdate) (*core.BudgetPlan, error) {
	var plan *core.BudgetPlan
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		user, p, isAdmin, err := resolvePlan(ctx, tx, userID, currentCategory)
		if err != nil {
			return err
		}

		if p.FamilyGroupID != "" && p.Status == core.PlanActive && !isAdmin {
			return core.ErrForbidden
		}
		if p.UserID != user.ID && !isAdmin {
			return core.ErrForbidden
		}

		if update.NewAmount != nil {
			p.Amount = *update.NewAmount
		}
		if update.NewCategory != nil {
			p.Category = *update.NewCategory
			p.CategoryKey = core.CategoryKey(*update.NewCategory)
		}
		if update.NewType != nil {
			p.Type = *update.NewType
		}
		if err := p.Validate(); err != nil {
			return err
		}

		if err := tx.UpdateBudgetPlan(ctx, p); err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan soft-deletes the matching plan by setting it REJECTED.
// Resolution matches UpdatePlan; owner or admin may delete. Like
// UpdatePlan, the whole sequence runs in one transaction.
func (s *PlanningService) DeletePlan(ctx context.Context, userID, category string) error {
	return s.store.WithTx(ctx, func(tx storage.Store) error {
		user, plan, isAdmin, err := resolvePlan(ctx, tx, userID, category)
		if err != nil {
			return err
		}
		if plan.UserID != user.ID && !isAdmin {
			return core.ErrForbidden
		}

		plan.Status = core.PlanRejected
		if err := tx.UpdateBudgetPlan(ctx, plan); err != nil {
			return fmt.Errorf("delete plan: %w", err)
		}
		return nil
	})
}

// resolvePlan finds the ACTIVE or PENDING plan matching category in
// the user's scope. A family-scoped plan wins over a personal one when
// both exist. The reads go through tx so callers can pin the result
// inside a transaction.
func resolvePlan(ctx context.Context, tx storage.Store, userID, category string) (*core.User, *core.BudgetPlan, bool, error) {
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, false, err
	}

	key := core.CategoryKey(category)

	var candidates []core.BudgetPlan
	own, err := tx.ListUserPlans(ctx, userID, core.PlanActive, core.PlanPending)
	if err != nil {
		return nil, nil, false, fmt.Errorf("list user plans: %w", err)
	}
	candidates = append(candidates, own...)

	isAdmin := false
	if user.FamilyGroupID != "" {
		family, err := tx.ListFamilyPlans(ctx, user.FamilyGroupID, core.PlanActive, core.PlanPending)
		if err != nil {
			return nil, nil, false, fmt.Errorf("list family plans: %w", err)
		}
		candidates = append(candidates, family...)

		group, err := tx.GetFamilyGroup(ctx, user.FamilyGroupID)
		if err != nil {
			return nil, nil, false, fmt.Errorf("load family group: %w", err)
		}
		isAdmin = group.AdminID == userID
	}

	var match *core.BudgetPlan
	for i := range candidates {
		p := &candidates[i]
		if p.CategoryKey != key {
			continue
		}
		if user.FamilyGroupID != "" && p.FamilyGroupID == user.FamilyGroupID {
			return user, p, isAdmin, nil
		}
		if match == nil {
			match = p
		}
	}
	if match == nil {
		return nil, nil, false, core.ErrPlanNotFound
	}
	return user, match, isAdmin, nil
}
