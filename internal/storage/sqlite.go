package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/ceconelo/financaia/internal/core"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so every query method
// works inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

// SQLiteRepository implements TxStore over a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
	queries
}

var _ TxStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// _txlock=immediate makes WithTx take the write lock up front
	// (BEGIN IMMEDIATE) instead of on the first write. The pragmas are
	// part of the DSN so every pooled connection gets them, not just
	// the one that would serve a db.Exec.
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: queries{db: db}}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// WithTx runs fn with a Store scoped to a single database transaction.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// --- Users ---

func (q *queries) CreateUser(ctx context.Context, u *core.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Level == 0 {
		u.Level = 1
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO users (id, phone_number, name, email, is_authorized, family_group_id,
			xp, level, streak, last_activity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.PhoneNumber, nullStr(u.Name), nullStr(u.Email), u.IsAuthorized,
		nullStr(u.FamilyGroupID), u.XP, u.Level, u.Streak, nullTime(u.LastActivity), u.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `id, phone_number, name, email, is_authorized, family_group_id,
	xp, level, streak, last_activity, created_at`

func scanUser(row interface{ Scan(...any) error }) (*core.User, error) {
	var (
		u            core.User
		name, email  sql.NullString
		familyID     sql.NullString
		lastActivity sql.NullTime
	)
	err := row.Scan(&u.ID, &u.PhoneNumber, &name, &email, &u.IsAuthorized, &familyID,
		&u.XP, &u.Level, &u.Streak, &lastActivity, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Name = name.String
	u.Email = email.String
	u.FamilyGroupID = familyID.String
	u.LastActivity = lastActivity.Time
	return &u, nil
}

func (q *queries) GetUser(ctx context.Context, id string) (*core.User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (q *queries) GetUserByPhone(ctx context.Context, phoneNumber string) (*core.User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone_number = ?`, phoneNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	return u, nil
}

func (q *queries) UpdateUser(ctx context.Context, u *core.User) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE users SET name = ?, email = ?, is_authorized = ?, family_group_id = ?,
			xp = ?, level = ?, streak = ?, last_activity = ?
		WHERE id = ?`,
		nullStr(u.Name), nullStr(u.Email), u.IsAuthorized, nullStr(u.FamilyGroupID),
		u.XP, u.Level, u.Streak, nullTime(u.LastActivity), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

func (q *queries) ListFamilyMembers(ctx context.Context, familyGroupID string) ([]core.User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE family_group_id = ? ORDER BY created_at`, familyGroupID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var members []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *u)
	}
	return members, rows.Err()
}

// --- Family groups ---

func (q *queries) CreateFamilyGroup(ctx context.Context, g *core.FamilyGroup) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO family_groups (id, name, invite_code, admin_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.InviteCode, nullStr(g.AdminID), g.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert family group: %w", err)
	}
	return nil
}

func scanFamilyGroup(row interface{ Scan(...any) error }) (*core.FamilyGroup, error) {
	var (
		g       core.FamilyGroup
		adminID sql.NullString
	)
	if err := row.Scan(&g.ID, &g.Name, &g.InviteCode, &adminID, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.AdminID = adminID.String
	return &g, nil
}

func (q *queries) GetFamilyGroup(ctx context.Context, id string) (*core.FamilyGroup, error) {
	g, err := scanFamilyGroup(q.db.QueryRowContext(ctx,
		`SELECT id, name, invite_code, admin_id, created_at FROM family_groups WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrFamilyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get family group: %w", err)
	}
	return g, nil
}

func (q *queries) GetFamilyGroupByInviteCode(ctx context.Context, code string) (*core.FamilyGroup, error) {
	g, err := scanFamilyGroup(q.db.QueryRowContext(ctx,
		`SELECT id, name, invite_code, admin_id, created_at FROM family_groups WHERE invite_code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get family group by invite code: %w", err)
	}
	return g, nil
}

// SetFamilyAdmin is a guarded promotion: it only succeeds while the
// group has no admin, so two members racing on the first plan write
// cannot both become admin.
func (q *queries) SetFamilyAdmin(ctx context.Context, familyGroupID, adminID string) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE family_groups SET admin_id = ? WHERE id = ? AND admin_id IS NULL`,
		adminID, familyGroupID)
	if err != nil {
		return false, fmt.Errorf("set family admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set family admin rows: %w", err)
	}
	return n > 0, nil
}

// --- Budget plans ---

const planColumns = `id, user_id, family_group_id, category, category_key, type,
	amount_cents, status, created_at, updated_at`

func (q *queries) CreateBudgetPlan(ctx context.Context, p *core.BudgetPlan) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.CategoryKey == "" {
		p.CategoryKey = core.CategoryKey(p.Category)
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO budget_plans (id, user_id, family_group_id, category, category_key,
			type, amount_cents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, nullStr(p.FamilyGroupID), p.Category, p.CategoryKey,
		string(p.Type), p.Amount.Cents, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert budget plan: %w", err)
	}
	return nil
}

func scanPlan(row interface{ Scan(...any) error }) (*core.BudgetPlan, error) {
	var (
		p            core.BudgetPlan
		familyID     sql.NullString
		typ, status  string
	)
	err := row.Scan(&p.ID, &p.UserID, &familyID, &p.Category, &p.CategoryKey,
		&typ, &p.Amount.Cents, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.FamilyGroupID = familyID.String
	p.Type = core.PlanType(typ)
	p.Status = core.PlanStatus(status)
	return &p, nil
}

func (q *queries) GetBudgetPlan(ctx context.Context, id string) (*core.BudgetPlan, error) {
	p, err := scanPlan(q.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM budget_plans WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get budget plan: %w", err)
	}
	return p, nil
}

func (q *queries) UpdateBudgetPlan(ctx context.Context, p *core.BudgetPlan) error {
	p.UpdatedAt = time.Now().UTC()
	if p.CategoryKey == "" {
		p.CategoryKey = core.CategoryKey(p.Category)
	}
	res, err := q.db.ExecContext(ctx, `
		UPDATE budget_plans SET category = ?, category_key = ?, type = ?,
			amount_cents = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		p.Category, p.CategoryKey, string(p.Type), p.Amount.Cents,
		string(p.Status), p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update budget plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrPlanNotFound
	}
	return nil
}

func statusFilter(statuses []core.PlanStatus) (string, []any) {
	if len(statuses) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	return " AND status IN (" + strings.Join(placeholders, ", ") + ")", args
}

func (q *queries) listPlans(ctx context.Context, where string, args []any, statuses []core.PlanStatus) ([]core.BudgetPlan, error) {
	cond, statusArgs := statusFilter(statuses)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM budget_plans WHERE `+where+cond+` ORDER BY created_at`,
		append(args, statusArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("list budget plans: %w", err)
	}
	defer rows.Close()

	var plans []core.BudgetPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (q *queries) ListUserPlans(ctx context.Context, userID string, statuses ...core.PlanStatus) ([]core.BudgetPlan, error) {
	return q.listPlans(ctx, "user_id = ?", []any{userID}, statuses)
}

func (q *queries) ListFamilyPlans(ctx context.Context, familyGroupID string, statuses ...core.PlanStatus) ([]core.BudgetPlan, error) {
	return q.listPlans(ctx, "family_group_id = ?", []any{familyGroupID}, statuses)
}

// --- Transactions ---

const txColumns = `id, user_id, type, amount_cents, category, category_key, description, created_at`

func (q *queries) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.CategoryKey == "" {
		t.CategoryKey = core.CategoryKey(t.Category)
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount_cents, category, category_key,
			description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Type), t.Amount.Cents, t.Category, t.CategoryKey,
		nullStr(t.Description), t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func scanTransaction(row interface{ Scan(...any) error }) (*core.Transaction, error) {
	var (
		t    core.Transaction
		typ  string
		desc sql.NullString
	)
	err := row.Scan(&t.ID, &t.UserID, &typ, &t.Amount.Cents, &t.Category,
		&t.CategoryKey, &desc, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = core.TransactionType(typ)
	t.Description = desc.String
	return &t, nil
}

func (q *queries) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	t, err := scanTransaction(q.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func rangeFilter(column string, from, to time.Time) (string, []any) {
	var (
		cond strings.Builder
		args []any
	)
	if !from.IsZero() {
		cond.WriteString(" AND " + column + " >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		cond.WriteString(" AND " + column + " <= ?")
		args = append(args, to.UTC())
	}
	return cond.String(), args
}

func (q *queries) listTransactions(ctx context.Context, where string, args []any, from, to time.Time) ([]core.Transaction, error) {
	cond, rangeArgs := rangeFilter("t.created_at", from, to)
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.type, t.amount_cents, t.category, t.category_key,
			t.description, t.created_at
		FROM transactions t `+where+cond+` ORDER BY t.created_at`,
		append(args, rangeArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (q *queries) ListUserTransactions(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	return q.listTransactions(ctx, "WHERE t.user_id = ?", []any{userID}, from, to)
}

func (q *queries) ListFamilyTransactions(ctx context.Context, familyGroupID string, from, to time.Time) ([]core.Transaction, error) {
	return q.listTransactions(ctx,
		"JOIN users u ON u.id = t.user_id WHERE u.family_group_id = ?",
		[]any{familyGroupID}, from, to)
}

func (q *queries) CountUserTransactions(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (q *queries) ListUnsyncedTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE synced_at IS NULL ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (q *queries) MarkTransactionSynced(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET synced_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return nil
}

// --- Access keys ---

func (q *queries) CreateAccessKey(ctx context.Context, k *core.AccessKey) error {
	if k.ID == "" {
		k.ID = uuid.New().String()
	}
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO access_keys (id, key, is_used, used_by_user_id, used_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		k.ID, k.Key, k.IsUsed, nullStr(k.UsedByUserID), nullTime(k.UsedAt), k.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert access key: %w", err)
	}
	return nil
}

func (q *queries) GetAccessKey(ctx context.Context, key string) (*core.AccessKey, error) {
	var (
		k      core.AccessKey
		usedBy sql.NullString
		usedAt sql.NullTime
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, key, is_used, used_by_user_id, used_at, created_at
		FROM access_keys WHERE key = ?`, key).
		Scan(&k.ID, &k.Key, &k.IsUsed, &usedBy, &usedAt, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get access key: %w", err)
	}
	k.UsedByUserID = usedBy.String
	k.UsedAt = usedAt.Time
	return &k, nil
}

func (q *queries) UpdateAccessKey(ctx context.Context, k *core.AccessKey) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE access_keys SET is_used = ?, used_by_user_id = ?, used_at = ? WHERE id = ?`,
		k.IsUsed, nullStr(k.UsedByUserID), nullTime(k.UsedAt), k.ID)
	if err != nil {
		return fmt.Errorf("update access key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrKeyNotFound
	}
	return nil
}

// --- Achievements ---

func (q *queries) UnlockAchievement(ctx context.Context, userID, name string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_achievements (user_id, name, unlocked_at)
		VALUES (?, ?, ?)`, userID, name, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unlock achievement rows: %w", err)
	}
	return n > 0, nil
}

func (q *queries) CountAchievements(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_achievements WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count achievements: %w", err)
	}
	return n, nil
}
