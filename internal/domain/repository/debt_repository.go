package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"family_ledger/internal/common"
	"family_ledger/internal/domain/model"
)

type DebtRepository interface {
	Create(ctx context.Context, debt *model.Debt) error
	FindByID(ctx context.Context, id int64) (*model.Debt, error)
	// FindAll returns debts in insertion order.
	FindAll(ctx context.Context) ([]model.Debt, error)
	Update(ctx context.Context, debt *model.Debt) error
	Delete(ctx context.Context, id int64) error
	// CountByParty counts debts naming the given party on either side.
	CountByParty(ctx context.Context, name string) (int, error)
}

type pgDebtRepository struct {
	db *sql.DB
}

func NewPgDebtRepository(db *sql.DB) DebtRepository {
	return &pgDebtRepository{db: db}
}

func (r *pgDebtRepository) Create(ctx context.Context, debt *model.Debt) error {
	query := `INSERT INTO debts (from_user, to_user, amount, paid, description, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		debt.FromUser, debt.ToUser, debt.Amount, debt.Paid, debt.Description, debt.CreatedAt,
	).Scan(&debt.ID)
	if err != nil {
		return fmt.Errorf("pgDebtRepository.Create: %w", err)
	}
	return nil
}

func (r *pgDebtRepository) FindByID(ctx context.Context, id int64) (*model.Debt, error) {
	query := `SELECT id, from_user, to_user, amount, paid, description, created_at
	          FROM debts WHERE id = $1`
	debt := &model.Debt{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&debt.ID, &debt.FromUser, &debt.ToUser, &debt.Amount, &debt.Paid, &debt.Description, &debt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgDebtRepository.FindByID: %w", err)
	}
	return debt, nil
}

func (r *pgDebtRepository) FindAll(ctx context.Context) ([]model.Debt, error) {
	query := `SELECT id, from_user, to_user, amount, paid, description, created_at
	          FROM debts ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgDebtRepository.FindAll: %w", err)
	}
	defer rows.Close()

	debts := []model.Debt{}
	for rows.Next() {
		var debt model.Debt
		if err := rows.Scan(&debt.ID, &debt.FromUser, &debt.ToUser, &debt.Amount, &debt.Paid, &debt.Description, &debt.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgDebtRepository.FindAll: scan: %w", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgDebtRepository.FindAll: rows: %w", err)
	}
	return debts, nil
}

func (r *pgDebtRepository) Update(ctx context.Context, debt *model.Debt) error {
	query := `UPDATE debts SET from_user = $1, to_user = $2, amount = $3, paid = $4, description = $5
	          WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query,
		debt.FromUser, debt.ToUser, debt.Amount, debt.Paid, debt.Description, debt.ID,
	)
	if err != nil {
		return fmt.Errorf("pgDebtRepository.Update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgDebtRepository.Update: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgDebtRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgDebtRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgDebtRepository.Delete: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgDebtRepository) CountByParty(ctx context.Context, name string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM debts WHERE from_user = $1 OR to_user = $1`, name,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pgDebtRepository.CountByParty: %w", err)
	}
	return count, nil
}
