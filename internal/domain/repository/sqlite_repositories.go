package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"family_ledger/internal/common"
	"family_ledger/internal/domain/model"
)

// SQLite stores timestamps as RFC3339 text so they round-trip without
// driver-specific time handling.
const sqliteTimeFormat = time.RFC3339Nano

func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeFormat)
}

func parseSqliteTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeFormat, s)
}

func isSqliteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type sqliteUserRepository struct {
	db *sql.DB
}

func NewSqliteUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

func (r *sqliteUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, password, role, created_at)
	          VALUES (?, ?, ?, ?) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.HashedPassword, string(user.Role), sqliteTime(user.CreatedAt),
	).Scan(&user.ID)
	if err != nil {
		if isSqliteUniqueViolation(err) {
			return fmt.Errorf("user with given username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("sqliteUserRepository.Create: %w", err)
	}
	return nil
}

func (r *sqliteUserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var createdAt string
	err := row.Scan(&user.ID, &user.Username, &user.HashedPassword, &user.Role, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	if user.CreatedAt, err = parseSqliteTime(createdAt); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *sqliteUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password, role, created_at FROM users WHERE username = ?`, username)
	user, err := r.scanUser(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("sqliteUserRepository.FindByUsername: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password, role, created_at FROM users WHERE id = ?`, id)
	user, err := r.scanUser(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("sqliteUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepository) FindAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, password, role, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("sqliteUserRepository.FindAll: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var user model.User
		var createdAt string
		if err := rows.Scan(&user.ID, &user.Username, &user.HashedPassword, &user.Role, &createdAt); err != nil {
			return nil, fmt.Errorf("sqliteUserRepository.FindAll: scan: %w", err)
		}
		if user.CreatedAt, err = parseSqliteTime(createdAt); err != nil {
			return nil, fmt.Errorf("sqliteUserRepository.FindAll: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqliteUserRepository.FindAll: rows: %w", err)
	}
	return users, nil
}

func (r *sqliteUserRepository) Update(ctx context.Context, user *model.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ?, password = ?, role = ? WHERE id = ?`,
		user.Username, user.HashedPassword, string(user.Role), user.ID,
	)
	if err != nil {
		if isSqliteUniqueViolation(err) {
			return fmt.Errorf("user with given username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("sqliteUserRepository.Update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqliteUserRepository.Update: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *sqliteUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqliteUserRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqliteUserRepository.Delete: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

type sqliteDebtRepository struct {
	db *sql.DB
}

func NewSqliteDebtRepository(db *sql.DB) DebtRepository {
	return &sqliteDebtRepository{db: db}
}

func (r *sqliteDebtRepository) Create(ctx context.Context, debt *model.Debt) error {
	query := `INSERT INTO debts (from_user, to_user, amount, paid, description, created_at)
	          VALUES (?, ?, ?, ?, ?, ?) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		debt.FromUser, debt.ToUser, debt.Amount, debt.Paid, debt.Description, sqliteTime(debt.CreatedAt),
	).Scan(&debt.ID)
	if err != nil {
		return fmt.Errorf("sqliteDebtRepository.Create: %w", err)
	}
	return nil
}

func (r *sqliteDebtRepository) FindByID(ctx context.Context, id int64) (*model.Debt, error) {
	debt := &model.Debt{}
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, from_user, to_user, amount, paid, description, created_at FROM debts WHERE id = ?`, id,
	).Scan(&debt.ID, &debt.FromUser, &debt.ToUser, &debt.Amount, &debt.Paid, &debt.Description, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqliteDebtRepository.FindByID: %w", err)
	}
	if debt.CreatedAt, err = parseSqliteTime(createdAt); err != nil {
		return nil, fmt.Errorf("sqliteDebtRepository.FindByID: %w", err)
	}
	return debt, nil
}

func (r *sqliteDebtRepository) FindAll(ctx context.Context) ([]model.Debt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, from_user, to_user, amount, paid, description, created_at FROM debts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqliteDebtRepository.FindAll: %w", err)
	}
	defer rows.Close()

	debts := []model.Debt{}
	for rows.Next() {
		var debt model.Debt
		var createdAt string
		if err := rows.Scan(&debt.ID, &debt.FromUser, &debt.ToUser, &debt.Amount, &debt.Paid, &debt.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("sqliteDebtRepository.FindAll: scan: %w", err)
		}
		if debt.CreatedAt, err = parseSqliteTime(createdAt); err != nil {
			return nil, fmt.Errorf("sqliteDebtRepository.FindAll: %w", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqliteDebtRepository.FindAll: rows: %w", err)
	}
	return debts, nil
}

func (r *sqliteDebtRepository) Update(ctx context.Context, debt *model.Debt) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE debts SET from_user = ?, to_user = ?, amount = ?, paid = ?, description = ? WHERE id = ?`,
		debt.FromUser, debt.ToUser, debt.Amount, debt.Paid, debt.Description, debt.ID,
	)
	if err != nil {
		return fmt.Errorf("sqliteDebtRepository.Update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqliteDebtRepository.Update: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *sqliteDebtRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqliteDebtRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqliteDebtRepository.Delete: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *sqliteDebtRepository) CountByParty(ctx context.Context, name string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM debts WHERE from_user = ? OR to_user = ?`, name, name,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqliteDebtRepository.CountByParty: %w", err)
	}
	return count, nil
}
