package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nassets/internal/core"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run
// either standalone or inside a ledger transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// mapSQLiteErr translates driver-level failures into the domain taxonomy:
// lock contention becomes ErrConflict (transient, retryable), unique
// constraint violations become ErrDuplicateUser.
func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch {
		case se.Code() == sqlite3.SQLITE_BUSY || se.Code() == sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %v", core.ErrConflict, err)
		case se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %v", core.ErrDuplicateUser, err)
		case se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %v", core.ErrConflict, err)
		}
	}
	return err
}

// dateArg converts an optional Date to its stored TEXT form, or NULL.
func dateArg(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func scanDate(ns sql.NullString) (core.Date, error) {
	if !ns.Valid || ns.String == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(ns.String)
}

// ---- users ----

func (q *Queries) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.CreatedAt = time.Now().UTC()
	u.IsActive = true
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (email, username, hashed_password, full_name, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.Username, u.HashedPassword, u.FullName, u.IsActive, u.CreatedAt)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", mapSQLiteErr(err))
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}
	return u, nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	return q.scanUser(q.db.QueryRowContext(ctx,
		`SELECT id, email, username, hashed_password, full_name, is_active, created_at
		 FROM users WHERE username = ?`, username))
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	return q.scanUser(q.db.QueryRowContext(ctx,
		`SELECT id, email, username, hashed_password, full_name, is_active, created_at
		 FROM users WHERE id = ?`, id))
}

func (q *Queries) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.HashedPassword, &u.FullName, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// ---- incomes ----

const incomeColumns = `id, user_id, title, amount, date, recurrence_type, recurrence_end_date, description, created_at, updated_at`

func (q *Queries) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	now := time.Now().UTC()
	in.CreatedAt, in.UpdatedAt = now, now
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO incomes (user_id, title, amount, date, recurrence_type, recurrence_end_date, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, in.Title, in.Amount, in.Date.String(), string(in.RecurrenceType),
		dateArg(in.RecurrenceEndDate), in.Description, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", mapSQLiteErr(err))
	}
	in.ID, err = res.LastInsertId()
	if err != nil {
		return core.Income{}, fmt.Errorf("income insert id: %w", err)
	}
	return in, nil
}

func (q *Queries) GetIncome(ctx context.Context, userID, id int64) (core.Income, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE id = ? AND user_id = ?`, id, userID)
	in, err := scanIncome(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, core.ErrNotFound
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	return in, nil
}

func (q *Queries) ListIncomes(ctx context.Context, userID int64) ([]core.Income, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	in.UpdatedAt = time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		`UPDATE incomes SET title = ?, amount = ?, date = ?, recurrence_type = ?, recurrence_end_date = ?, description = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		in.Title, in.Amount, in.Date.String(), string(in.RecurrenceType),
		dateArg(in.RecurrenceEndDate), in.Description, in.UpdatedAt, in.ID, in.UserID)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", mapSQLiteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Income{}, core.ErrNotFound
	}
	return in, nil
}

func (q *Queries) DeleteIncome(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM incomes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete income: %w", mapSQLiteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanIncome(scan func(dest ...any) error) (core.Income, error) {
	var (
		in       core.Income
		date, rt string
		endDate  sql.NullString
	)
	if err := scan(&in.ID, &in.UserID, &in.Title, &in.Amount, &date, &rt, &endDate, &in.Description, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return core.Income{}, err
	}
	var err error
	if in.Date, err = core.ParseDate(date); err != nil {
		return core.Income{}, err
	}
	if in.RecurrenceEndDate, err = scanDate(endDate); err != nil {
		return core.Income{}, err
	}
	in.RecurrenceType = core.RecurrenceType(rt)
	return in, nil
}

// ---- expenses ----

const expenseColumns = `id, user_id, title, amount, date, category, recurrence_type, recurrence_end_date, description, created_at, updated_at`

func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, title, amount, date, category, recurrence_type, recurrence_end_date, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Title, e.Amount, e.Date.String(), e.Category, string(e.RecurrenceType),
		dateArg(e.RecurrenceEndDate), e.Description, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", mapSQLiteErr(err))
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	return e, nil
}

func (q *Queries) GetExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (q *Queries) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.UpdatedAt = time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		`UPDATE expenses SET title = ?, amount = ?, date = ?, category = ?, recurrence_type = ?, recurrence_end_date = ?, description = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		e.Title, e.Amount, e.Date.String(), e.Category, string(e.RecurrenceType),
		dateArg(e.RecurrenceEndDate), e.Description, e.UpdatedAt, e.ID, e.UserID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", mapSQLiteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (q *Queries) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", mapSQLiteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanExpense(scan func(dest ...any) error) (core.Expense, error) {
	var (
		e        core.Expense
		date, rt string
		endDate  sql.NullString
	)
	if err := scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &date, &e.Category, &rt, &endDate, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return core.Expense{}, err
	}
	var err error
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, err
	}
	if e.RecurrenceEndDate, err = scanDate(endDate); err != nil {
		return core.Expense{}, err
	}
	e.RecurrenceType = core.RecurrenceType(rt)
	return e, nil
}

// ---- assets ----

const assetColumns = `id, user_id, name, amount, contributed, target_date, description, created_at, updated_at`

func (q *Queries) CreateAsset(ctx context.Context, a core.Asset) (core.Asset, error) {
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO assets (user_id, name, amount, contributed, target_date, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Name, a.Amount, a.Contributed, dateArg(a.TargetDate), a.Description, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return core.Asset{}, fmt.Errorf("insert asset: %w", mapSQLiteErr(err))
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return core.Asset{}, fmt.Errorf("asset insert id: %w", err)
	}
	return a, nil
}

func (q *Queries) GetAsset(ctx context.Context, userID, id int64) (core.Asset, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanAsset(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Asset{}, core.ErrNotFound
	}
	if err != nil {
		return core.Asset{}, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

func (q *Queries) ListAssets(ctx context.Context, userID int64) ([]core.Asset, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []core.Asset
	for rows.Next() {
		a, err := scanAsset(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAsset writes the user-editable fields. Contributed is deliberately
// excluded: only AddAssetContribution may move it.
func (q *Queries) UpdateAsset(ctx context.Context, a core.Asset) (core.Asset, error) {
	a.UpdatedAt = time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		`UPDATE assets SET name = ?, amount = ?, target_date = ?, description = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		a.Name, a.Amount, dateArg(a.TargetDate), a.Description, a.UpdatedAt, a.ID, a.UserID)
	if err != nil {
		return core.Asset{}, fmt.Errorf("update asset: %w", mapSQLiteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Asset{}, core.ErrNotFound
	}
	return a, nil
}

func (q *Queries) DeleteAsset(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete asset: %w", mapSQLiteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// AddAssetContribution applies a signed delta to an asset's running total.
func (q *Queries) AddAssetContribution(ctx context.Context, userID, assetID int64, delta float64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE assets SET contributed = contributed + ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		delta, time.Now().UTC(), assetID, userID)
	if err != nil {
		return fmt.Errorf("adjust asset contribution: %w", mapSQLiteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SumLinkedSavings re-derives the contributed total from the live Saving
// rows linked to an asset.
func (q *Queries) SumLinkedSavings(ctx context.Context, userID, assetID int64) (float64, error) {
	var sum float64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM savings WHERE asset_id = ? AND user_id = ?`,
		assetID, userID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum linked savings: %w", err)
	}
	return sum, nil
}

func scanAsset(scan func(dest ...any) error) (core.Asset, error) {
	var (
		a          core.Asset
		targetDate sql.NullString
	)
	if err := scan(&a.ID, &a.UserID, &a.Name, &a.Amount, &a.Contributed, &targetDate, &a.Description, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return core.Asset{}, err
	}
	var err error
	if a.TargetDate, err = scanDate(targetDate); err != nil {
		return core.Asset{}, err
	}
	return a, nil
}

// ---- savings ----

const savingColumns = `id, user_id, asset_id, title, amount, date, recurrence_type, recurrence_end_date, description, percentage, created_at, updated_at`

func (q *Queries) CreateSaving(ctx context.Context, s core.Saving) (core.Saving, error) {
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO savings (user_id, asset_id, title, amount, date, recurrence_type, recurrence_end_date, description, percentage, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, s.AssetID, s.Title, s.Amount, s.Date.String(), string(s.RecurrenceType),
		dateArg(s.RecurrenceEndDate), s.Description, s.Percentage, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return core.Saving{}, fmt.Errorf("insert saving: %w", mapSQLiteErr(err))
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return core.Saving{}, fmt.Errorf("saving insert id: %w", err)
	}
	return s, nil
}

func (q *Queries) GetSaving(ctx context.Context, userID, id int64) (core.Saving, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+savingColumns+` FROM savings WHERE id = ? AND user_id = ?`, id, userID)
	s, err := scanSaving(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Saving{}, core.ErrNotFound
	}
	if err != nil {
		return core.Saving{}, fmt.Errorf("get saving: %w", err)
	}
	return s, nil
}

func (q *Queries) ListSavings(ctx context.Context, userID int64) ([]core.Saving, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+savingColumns+` FROM savings WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	defer rows.Close()

	var out []core.Saving
	for rows.Next() {
		s, err := scanSaving(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan saving: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateSaving(ctx context.Context, s core.Saving) (core.Saving, error) {
	s.UpdatedAt = time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		`UPDATE savings SET asset_id = ?, title = ?, amount = ?, date = ?, recurrence_type = ?, recurrence_end_date = ?, description = ?, percentage = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		s.AssetID, s.Title, s.Amount, s.Date.String(), string(s.RecurrenceType),
		dateArg(s.RecurrenceEndDate), s.Description, s.Percentage, s.UpdatedAt, s.ID, s.UserID)
	if err != nil {
		return core.Saving{}, fmt.Errorf("update saving: %w", mapSQLiteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Saving{}, core.ErrNotFound
	}
	return s, nil
}

func (q *Queries) DeleteSaving(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM savings WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete saving: %w", mapSQLiteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DetachSavingsFromAsset clears the asset link on every Saving pointing at
// the asset. Run inside the asset-delete transaction so no Saving is ever
// left referencing a missing asset.
func (q *Queries) DetachSavingsFromAsset(ctx context.Context, userID, assetID int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE savings SET asset_id = NULL, updated_at = ? WHERE asset_id = ? AND user_id = ?`,
		time.Now().UTC(), assetID, userID)
	if err != nil {
		return fmt.Errorf("detach savings: %w", mapSQLiteErr(err))
	}
	return nil
}

func scanSaving(scan func(dest ...any) error) (core.Saving, error) {
	var (
		s        core.Saving
		assetID  sql.NullInt64
		date, rt string
		endDate  sql.NullString
	)
	if err := scan(&s.ID, &s.UserID, &assetID, &s.Title, &s.Amount, &date, &rt, &endDate, &s.Description, &s.Percentage, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return core.Saving{}, err
	}
	if assetID.Valid {
		s.AssetID = &assetID.Int64
	}
	var err error
	if s.Date, err = core.ParseDate(date); err != nil {
		return core.Saving{}, err
	}
	if s.RecurrenceEndDate, err = scanDate(endDate); err != nil {
		return core.Saving{}, err
	}
	s.RecurrenceType = core.RecurrenceType(rt)
	return s, nil
}
