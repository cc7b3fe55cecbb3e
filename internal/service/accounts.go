package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// AccountInput carries create and update fields. Nil fields are left unchanged on update.
type AccountInput struct {
	Name           *string          `json:"name"`
	Broker         *string          `json:"broker"`
	Type           *string          `json:"type"`
	Status         *string          `json:"status"`
	Balance        *decimal.Decimal `json:"balance"`
	InitialBalance *decimal.Decimal `json:"initialBalance"`
	Currency       *string          `json:"currency"`
	Notes          *string          `json:"notes"`
}

type AccountService struct {
	Repo repository.AccountRepository
}

func (s *AccountService) List(ctx context.Context, userID string) ([]models.Account, error) {
	items, err := s.Repo.ListAccounts(ctx, userID)
	if items == nil {
		items = []models.Account{}
	}
	return items, err
}

func (s *AccountService) Create(ctx context.Context, userID string, in AccountInput) (*models.Account, error) {
	var errs fieldErrors
	requireText(&errs, "name", in.Name, 100)
	requireText(&errs, "broker", in.Broker, 100)
	requireEnum(&errs, "type", in.Type, models.AccountTypes)
	requireEnum(&errs, "status", in.Status, models.AccountStatuses)
	if in.Balance == nil {
		errs.add("balance", "required")
	}
	if in.InitialBalance == nil {
		errs.add("initialBalance", "required")
	}
	checkCurrency(&errs, in.Currency, true)
	checkNotes(&errs, in.Notes)
	if err := errs.err("Invalid request body"); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	item := &models.Account{
		UserID:         userID,
		AccountID:      uuid.NewString(),
		Name:           strings.TrimSpace(*in.Name),
		Broker:         strings.TrimSpace(*in.Broker),
		Type:           *in.Type,
		Status:         *in.Status,
		Balance:        *in.Balance,
		InitialBalance: *in.InitialBalance,
		Currency:       strings.ToUpper(*in.Currency),
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.CreateAccount(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *AccountService) Update(ctx context.Context, userID, accountID string, in AccountInput) (*models.Account, error) {
	item, err := s.Repo.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	var errs fieldErrors
	if in.Name != nil {
		requireText(&errs, "name", in.Name, 100)
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.Broker != nil {
		requireText(&errs, "broker", in.Broker, 100)
		item.Broker = strings.TrimSpace(*in.Broker)
	}
	if in.Type != nil {
		requireEnum(&errs, "type", in.Type, models.AccountTypes)
		item.Type = *in.Type
	}
	if in.Status != nil {
		requireEnum(&errs, "status", in.Status, models.AccountStatuses)
		item.Status = *in.Status
	}
	if in.Balance != nil {
		item.Balance = *in.Balance
	}
	if in.InitialBalance != nil {
		item.InitialBalance = *in.InitialBalance
	}
	if in.Currency != nil {
		checkCurrency(&errs, in.Currency, true)
		item.Currency = strings.ToUpper(*in.Currency)
	}
	if in.Notes != nil {
		checkNotes(&errs, in.Notes)
		item.Notes = in.Notes
	}
	if err := errs.err("Invalid request body"); err != nil {
		return nil, err
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.Repo.UpdateAccount(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *AccountService) UpdateStatus(ctx context.Context, userID, accountID, status string) (*models.Account, error) {
	if !slices.Contains(models.AccountStatuses, status) {
		return nil, invalid("status must be one of %s", strings.Join(models.AccountStatuses, ", "))
	}
	return s.Repo.UpdateAccountStatus(ctx, userID, accountID, status)
}

func (s *AccountService) Delete(ctx context.Context, userID, accountID string) error {
	return s.Repo.DeleteAccount(ctx, userID, accountID)
}

func requireText(errs *fieldErrors, field string, v *string, maxLen int) {
	if v == nil || strings.TrimSpace(*v) == "" {
		errs.add(field, "required")
		return
	}
	if maxLen > 0 && len(*v) > maxLen {
		errs.add(field, "too long")
	}
}

func requireEnum(errs *fieldErrors, field string, v *string, allowed []string) {
	if v == nil || *v == "" {
		errs.add(field, "required")
		return
	}
	if !slices.Contains(allowed, *v) {
		errs.add(field, "must be one of "+strings.Join(allowed, ", "))
	}
}

func checkCurrency(errs *fieldErrors, v *string, required bool) {
	if v == nil {
		if required {
			errs.add("currency", "required")
		}
		return
	}
	if len(strings.TrimSpace(*v)) != 3 {
		errs.add("currency", "must be a 3 letter code")
	}
}

func checkNotes(errs *fieldErrors, v *string) {
	if v != nil && len(*v) > 1000 {
		errs.add("notes", "too long")
	}
}
