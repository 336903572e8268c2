package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"family_ledger/internal/common"
	"family_ledger/internal/domain/model"
	"family_ledger/internal/domain/repository"
)

type DebtService struct {
	debtRepo repository.DebtRepository
}

func NewDebtService(debtRepo repository.DebtRepository) *DebtService {
	return &DebtService{debtRepo: debtRepo}
}

// DebtInput is the wire form for create and update. Amount and paid arrive
// as JSON numbers; paid falls back to zero when absent or unparseable,
// amount is mandatory.
type DebtInput struct {
	FromUser    string      `json:"from_user"`
	ToUser      string      `json:"to_user"`
	Amount      json.Number `json:"amount"`
	Paid        json.Number `json:"paid"`
	Description string      `json:"description"`
}

func (in *DebtInput) validate() (amount, paid float64, err error) {
	if strings.TrimSpace(in.FromUser) == "" || strings.TrimSpace(in.ToUser) == "" {
		return 0, 0, fmt.Errorf("from_user and to_user are required: %w", common.ErrValidation)
	}
	amount, err = in.Amount.Float64()
	if err != nil {
		return 0, 0, fmt.Errorf("amount must be numeric: %w", common.ErrValidation)
	}
	// No paid <= amount check: overpayment is allowed.
	if paid, err = in.Paid.Float64(); err != nil {
		paid = 0
	}
	return amount, paid, nil
}

func (s *DebtService) List(ctx context.Context) ([]model.Debt, error) {
	return s.debtRepo.FindAll(ctx)
}

func (s *DebtService) Get(ctx context.Context, id int64) (*model.Debt, error) {
	return s.debtRepo.FindByID(ctx, id)
}

func (s *DebtService) Create(ctx context.Context, in DebtInput) (*model.Debt, error) {
	amount, paid, err := in.validate()
	if err != nil {
		return nil, err
	}

	debt := &model.Debt{
		FromUser:    strings.TrimSpace(in.FromUser),
		ToUser:      strings.TrimSpace(in.ToUser),
		Amount:      amount,
		Paid:        paid,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.debtRepo.Create(ctx, debt); err != nil {
		return nil, fmt.Errorf("failed to create debt: %w", err)
	}
	return debt, nil
}

// Update replaces every field wholesale except id and created_at, which are
// immutable for the lifetime of the record.
func (s *DebtService) Update(ctx context.Context, id int64, in DebtInput) (*model.Debt, error) {
	amount, paid, err := in.validate()
	if err != nil {
		return nil, err
	}

	existing, err := s.debtRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	debt := &model.Debt{
		ID:          existing.ID,
		FromUser:    strings.TrimSpace(in.FromUser),
		ToUser:      strings.TrimSpace(in.ToUser),
		Amount:      amount,
		Paid:        paid,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   existing.CreatedAt,
	}
	if err := s.debtRepo.Update(ctx, debt); err != nil {
		return nil, fmt.Errorf("failed to update debt: %w", err)
	}
	return debt, nil
}

func (s *DebtService) Delete(ctx context.Context, id int64) error {
	return s.debtRepo.Delete(ctx, id)
}
