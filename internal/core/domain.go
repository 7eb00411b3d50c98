package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"

	PlanFixed      PlanType = "FIXED"
	PlanPercentage PlanType = "PERCENTAGE"

	PlanActive   PlanStatus = "ACTIVE"
	PlanPending  PlanStatus = "PENDING"
	PlanRejected PlanStatus = "REJECTED"
)

type (
	TransactionType string
	PlanType        string
	PlanStatus      string

	// Money is an amount in integer cents. Floats appear only at render
	// time; all arithmetic stays in cents.
	Money struct {
		Cents int64
	}

	// User is created on the first inbound message from a new transport
	// identifier and never hard-deleted.
	User struct {
		ID            string
		PhoneNumber   string // transport-prefixed identifier (e.g. "tg_12345")
		Name          string
		Email         string
		IsAuthorized  bool
		FamilyGroupID string // empty when the user has no family
		XP            int64
		Level         int64
		Streak        int64
		LastActivity  time.Time
		CreatedAt     time.Time
	}

	// FamilyGroup groups users under a shared budget. AdminID is empty
	// until the first plan-creating member is promoted.
	FamilyGroup struct {
		ID         string
		Name       string
		InviteCode string
		AdminID    string
		CreatedAt  time.Time
	}

	// BudgetPlan is a spending cap (FIXED, cents) or target (PERCENTAGE,
	// basis points) for one category. Deleting a plan is a soft
	// transition to REJECTED.
	BudgetPlan struct {
		ID            string
		UserID        string
		FamilyGroupID string
		Category      string // display casing, first-seen wins
		CategoryKey   string // canonical lookup key
		Type          PlanType
		Amount        Money
		Status        PlanStatus
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Amount      Money
		Category    string
		CategoryKey string
		Description string
		CreatedAt   time.Time
	}

	// AccessKey is a single-use invite token that authorizes a user.
	AccessKey struct {
		ID           string
		Key          string
		IsUsed       bool
		UsedByUserID string
		CreatedAt    time.Time
		UsedAt       time.Time
	}
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrPlanNotFound   = errors.New("plan not found")
	ErrFamilyNotFound = errors.New("family not found")
	ErrNoFamily       = errors.New("user has no family")
	ErrHasFamily      = errors.New("user already belongs to a family")
	ErrForbidden      = errors.New("operation not allowed")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrKeyNotFound    = errors.New("access key not found")
	ErrKeyUsed        = errors.New("access key already used")
	ErrInviteNotFound = errors.New("invite code not found")
)

// CategoryKey normalizes a category for matching. Creating "Lazer" and
// editing "LAZER" must hit the same plan.
func CategoryKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DisplayName returns the user's name for reports, falling back to the
// raw transport identifier.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.PhoneNumber
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Type != Income && t.Type != Expense {
		return errors.New("invalid transaction type")
	}
	if strings.TrimSpace(t.Category) == "" {
		return errors.New("empty category")
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (p BudgetPlan) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if p.Type != PlanFixed && p.Type != PlanPercentage {
		return errors.New("invalid plan type")
	}
	if strings.TrimSpace(p.Category) == "" {
		return errors.New("empty category")
	}
	return nil
}
