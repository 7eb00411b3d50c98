package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ceconelo/financaia/internal/core"
)

func TestCreatePlanWithoutFamily(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)
	user := createTestUser(t, store, "tg_100")

	plan, pending, err := svc.CreatePlan(context.Background(), user.ID, "Lazer", core.PlanFixed, core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}
	if pending {
		t.Error("plan without family should not be pending")
	}
	if plan.Status != core.PlanActive {
		t.Errorf("expected ACTIVE, got %v", plan.Status)
	}
	if plan.FamilyGroupID != "" {
		t.Errorf("expected no family scope, got %q", plan.FamilyGroupID)
	}
}

func TestCreatePlanPromotesFirstWriterToAdmin(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)
	ctx := context.Background()

	alice := createTestUser(t, store, "tg_alice")
	bob := createTestUser(t, store, "tg_bob")
	group := createTestFamily(t, store, "fam", alice, bob)

	plan, pending, err := svc.CreatePlan(ctx, alice.ID, "Lazer", core.PlanFixed, core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}
	if pending || plan.Status != core.PlanActive {
		t.Errorf("first family plan should be ACTIVE, got %v (pending=%v)", plan.Status, pending)
	}

	got, err := store.GetFamilyGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetFamilyGroup failed: %v", err)
	}
	if got.AdminID != alice.ID {
		t.Errorf("expected first plan writer %s as admin, got %q", alice.ID, got.AdminID)
	}
}

func TestCreatePlanNonAdminIsPending(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)
	ctx := context.Background()

	alice := createTestUser(t, store, "tg_alice")
	bob := createTestUser(t, store, "tg_bob")
	createTestFamily(t, store, "fam", alice, bob)

	// Alice becomes admin via first plan write.
	if _, _, err := svc.CreatePlan(ctx, alice.ID, "Lazer", core.PlanFixed, core.Money{Cents: 50000}); err != nil {
		t.Fatalf("admin CreatePlan failed: %v", err)
	}

	plan, pending, err := svc.CreatePlan(ctx, bob.ID, "Lazer", core.PlanFixed, core.Money{Cents: 30000})
	if err != nil {
		t.Fatalf("member CreatePlan failed: %v", err)
	}
	if !pending || plan.Status != core.PlanPending {
		t.Errorf("non-admin plan should be PENDING, got %v (pending=%v)", plan.Status, pending)
	}

	// Admin sees the pending suggestion, the member does not.
	adminList, err := svc.GetPlans(ctx, alice.ID)
	if err != nil {
		t.Fatalf("admin GetPlans failed: %v", err)
	}
	if len(adminList.PendingPlans) != 1 {
		t.Errorf("admin should see 1 pending plan, got %d", len(adminList.PendingPlans))
	}

	memberList, err := svc.GetPlans(ctx, bob.ID)
	if err != nil {
		t.Fatalf("member GetPlans failed: %v", err)
	}
	if len(memberList.PendingPlans) != 0 {
		t.Errorf("member should see no pending plans, got %d", len(memberList.PendingPlans))
	}
}

func TestApprovePlanTransitions(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)
	ctx := context.Background()

	alice := createTestUser(t, store, "tg_alice")
	bob := createTestUser(t, store, "tg_bob")
	createTestFamily(t, store, "fam", alice, bob)

	if _, _, err := svc.CreatePlan(ctx, alice.ID, "Mercado", core.PlanFixed, core.Money{Cents: 80000}); err != nil {
		t.Fatalf("admin CreatePlan failed: %v", err)
	}
	plan, _, err := svc.CreatePlan(ctx, bob.ID, "Lazer", core.PlanFixed, core.Money{Cents: 30000})
	if err != nil {
		t.Fatalf("member CreatePlan failed: %v", err)
	}

	// A non-admin cannot approve, status stays PENDING.
	if _, err := svc.ApprovePlan(ctx, bob.ID, plan.ID, true); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	got, err := store.GetBudgetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetBudgetPlan failed: %v", err)
	}
	if got.Status != core.PlanPending {
		t.Errorf("status should be unchanged after forbidden approval, got %v", got.Status)
	}

	status, err := svc.ApprovePlan(ctx, alice.ID, plan.ID, true)
	if err != nil {
		t.Fatalf("admin ApprovePlan failed: %v", err)
	}
	if status != core.PlanActive {
		t.Errorf("expected ACTIVE after approval, got %v", status)
	}

	// Rejection path.
	plan2, _, err := svc.CreatePlan(ctx, bob.ID, "Viagem", core.PlanFixed, core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("member CreatePlan failed: %v", err)
	}
	status, err = svc.ApprovePlan(ctx, alice.ID, plan2.ID, false)
	if err != nil {
		t.Fatalf("admin reject failed: %v", err)
	}
	if status != core.PlanRejected {
		t.Errorf("expected REJECTED after rejection, got %v", status)
	}
}

func TestUpdatePlanCaseInsensitiveCategory(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)
	ctx := context.Background()

	user := createTestUser(t, store, "tg_100")
	created, _, err := svc.CreatePlan(ctx, user.ID, "Lazer", core.PlanFixed, core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	amount := core.Money{Cents: 70000}
	updated, err := svc.UpdatePlan(ctx, user.ID, "LAZER", PlanUpdate{NewAmount: &amount})
	if err != nil {
		t.Fatalf("UpdatePlan failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("LAZER should resolve to the Lazer plan")
	}
	if updated.Amount.Cents != 70000 {
		t.Errorf("expected 70000 cents, got %d", updated.Amount.Cents)
	}
	// Display casing untouched by an amount-only edit.
	if updated.Category != "Lazer" {
		t.Errorf("expected display casing Lazer, got %q", updated.Category)
	}
}

func TestUpdatePlanPermissions(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)
	ctx := context.Background()

	alice := createTestUser(t, store, "tg_alice")
	bob := createTestUser(t, store, "tg_bob")
	createTestFamily(t, store, "fam", alice, bob)

	// Alice is admin, her plan is ACTIVE.
	if _, _, err := svc.CreatePlan(ctx, alice.ID, "Lazer", core.PlanFixed, core.Money{Cents: 50000}); err != nil {
		t.Fatalf("admin CreatePlan failed: %v", err)
	}

	amount := core.Money{Cents: 10000}

	// Non-admin cannot edit the ACTIVE family plan.
	if _, err := svc.UpdatePlan(ctx, bob.ID, "Lazer", PlanUpdate{NewAmount: &amount}); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin edit, got %v", err)
	}

	// Bob can edit his own PENDING suggestion.
	if _, _, err := svc.CreatePlan(ctx, bob.ID, "Viagem", core.PlanFixed, core.Money{Cents: 30000}); err != nil {
		t.Fatalf("member CreatePlan failed: %v", err)
	}
	updated, err := svc.UpdatePlan(ctx, bob.ID, "Viagem", PlanUpdate{NewAmount: &amount})
	if err != nil {
		t.Fatalf("owner edit of pending plan failed: %v", err)
	}
	if updated.Amount.Cents != 10000 {
		t.Errorf("expected 10000 cents, got %d", updated.Amount.Cents)
	}

	// Admin can edit anyone's family plan.
	if _, err := svc.UpdatePlan(ctx, alice.ID, "Viagem", PlanUpdate{NewAmount: &core.Money{Cents: 20000}}); err != nil {
		t.Fatalf("admin edit failed: %v", err)
	}
}

func TestUpdatePlanPrefersFamilyScope(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)
	ctx := context.Background()

	alice := createTestUser(t, store, "tg_alice")

	// Personal plan created before joining a family.
	personal, _, err := svc.CreatePlan(ctx, alice.ID, "Lazer", core.PlanFixed, core.Money{Cents: 20000})
	if err != nil {
		t.Fatalf("personal CreatePlan failed: %v", err)
	}

	createTestFamily(t, store, "fam", alice)
	family, _, err := svc.CreatePlan(ctx, alice.ID, "Lazer", core.PlanFixed, core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("family CreatePlan failed: %v", err)
	}

	amount := core.Money{Cents: 60000}
	updated, err := svc.UpdatePlan(ctx, alice.ID, "lazer", PlanUpdate{NewAmount: &amount})
	if err != nil {
		t.Fatalf("UpdatePlan failed: %v", err)
	}
	if updated.ID != family.ID {
		t.Errorf("family-scoped plan should win the tie-break")
	}

	got, err := store.GetBudgetPlan(ctx, personal.ID)
	if err != nil {
		t.Fatalf("GetBudgetPlan failed: %v", err)
	}
	if got.Amount.Cents != 20000 {
		t.Errorf("personal plan should be untouched, got %d cents", got.Amount.Cents)
	}
}

func TestUpdatePlanRename(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)
	ctx := context.Background()

	user := createTestUser(t, store, "tg_100")
	if _, _, err := svc.CreatePlan(ctx, user.ID, "Lazer", core.PlanFixed, core.Money{Cents: 50000}); err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	name := "Diversão"
	updated, err := svc.UpdatePlan(ctx, user.ID, "lazer", PlanUpdate{NewCategory: &name})
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if updated.Category != "Diversão" || updated.CategoryKey != "diversão" {
		t.Errorf("rename should refresh both display and key, got %q/%q", updated.Category, updated.CategoryKey)
	}

	// The old name no longer resolves.
	if _, err := svc.UpdatePlan(ctx, user.ID, "Lazer", PlanUpdate{}); !errors.Is(err, core.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound for old name, got %v", err)
	}
}

func TestDeletePlanSoftDeletes(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)
	ctx := context.Background()

	user := createTestUser(t, store, "tg_100")
	plan, _, err := svc.CreatePlan(ctx, user.ID, "Lazer", core.PlanFixed, core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	if err := svc.DeletePlan(ctx, user.ID, "LAZER"); err != nil {
		t.Fatalf("DeletePlan failed: %v", err)
	}

	got, err := store.GetBudgetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("plan row should still exist: %v", err)
	}
	if got.Status != core.PlanRejected {
		t.Errorf("expected REJECTED after delete, got %v", got.Status)
	}

	// Deleted plans no longer resolve.
	if err := svc.DeletePlan(ctx, user.ID, "Lazer"); !errors.Is(err, core.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound on second delete, got %v", err)
	}
}

func TestUpdatePlanCannotResurrectRejectedPlan(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)
	ctx := context.Background()

	alice := createTestUser(t, store, "tg_alice")
	bob := createTestUser(t, store, "tg_bob")
	createTestFamily(t, store, "fam", alice, bob)

	if _, _, err := svc.CreatePlan(ctx, alice.ID, "Mercado", core.PlanFixed, core.Money{Cents: 80000}); err != nil {
		t.Fatalf("admin CreatePlan failed: %v", err)
	}
	plan, _, err := svc.CreatePlan(ctx, bob.ID, "Viagem", core.PlanFixed, core.Money{Cents: 30000})
	if err != nil {
		t.Fatalf("member CreatePlan failed: %v", err)
	}

	// Admin rejects between Bob loading the menu and submitting the edit.
	if _, err := svc.ApprovePlan(ctx, alice.ID, plan.ID, false); err != nil {
		t.Fatalf("admin reject failed: %v", err)
	}

	amount := core.Money{Cents: 10000}
	if _, err := svc.UpdatePlan(ctx, bob.ID, "Viagem", PlanUpdate{NewAmount: &amount}); !errors.Is(err, core.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound editing a rejected plan, got %v", err)
	}

	got, err := store.GetBudgetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetBudgetPlan failed: %v", err)
	}
	if got.Status != core.PlanRejected {
		t.Errorf("rejection must stick, got %v", got.Status)
	}
	if got.Amount.Cents != 30000 {
		t.Errorf("rejected plan must keep its amount, got %d cents", got.Amount.Cents)
	}
}

func TestUpdatePlanCannotResurrectDeletedPlan(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)
	ctx := context.Background()

	user := createTestUser(t, store, "tg_100")
	plan, _, err := svc.CreatePlan(ctx, user.ID, "Lazer", core.PlanFixed, core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	if err := svc.DeletePlan(ctx, user.ID, "Lazer"); err != nil {
		t.Fatalf("DeletePlan failed: %v", err)
	}

	amount := core.Money{Cents: 70000}
	if _, err := svc.UpdatePlan(ctx, user.ID, "Lazer", PlanUpdate{NewAmount: &amount}); !errors.Is(err, core.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound editing a deleted plan, got %v", err)
	}

	got, err := store.GetBudgetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetBudgetPlan failed: %v", err)
	}
	if got.Status != core.PlanRejected {
		t.Errorf("delete must stick, got %v", got.Status)
	}
}

func TestCreatePlanUnknownUser(t *testing.T) {
	store := newTestStore(t)
	svc := NewPlanningService(store)

	_, _, err := svc.CreatePlan(context.Background(), "missing", "Lazer", core.PlanFixed, core.Money{Cents: 100})
	if !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
