package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

type GoalInput struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	GoalType    *string          `json:"goalType"`
	Target      *decimal.Decimal `json:"target"`
	Period      *string          `json:"period"`
	AccountID   *string          `json:"accountId"`
}

type GoalService struct {
	Repo repository.GoalRepository
}

func (s *GoalService) List(ctx context.Context, params repository.ListGoalsParams) ([]models.Goal, error) {
	items, err := s.Repo.ListGoals(ctx, params)
	if items == nil {
		items = []models.Goal{}
	}
	return items, err
}

func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (*models.Goal, error) {
	var errs fieldErrors
	requireText(&errs, "title", in.Title, 200)
	requireText(&errs, "goalType", in.GoalType, 30)
	requireEnum(&errs, "period", in.Period, models.GoalPeriods)
	if in.Target == nil {
		errs.add("target", "required")
	}
	if err := errs.err("Invalid request body"); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	item := &models.Goal{
		UserID:    userID,
		GoalID:    uuid.NewString(),
		Title:     strings.TrimSpace(*in.Title),
		GoalType:  strings.TrimSpace(*in.GoalType),
		Target:    *in.Target,
		Period:    *in.Period,
		AccountID: models.AllAccounts,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.AccountID != nil && strings.TrimSpace(*in.AccountID) != "" {
		item.AccountID = strings.TrimSpace(*in.AccountID)
	}
	if err := s.Repo.CreateGoal(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Update changes title, description, target, period and account. The goal type is fixed at creation.
func (s *GoalService) Update(ctx context.Context, userID, goalID string, in GoalInput) (*models.Goal, error) {
	item, err := s.Repo.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	var errs fieldErrors
	if in.Title != nil {
		requireText(&errs, "title", in.Title, 200)
		item.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Target != nil {
		item.Target = *in.Target
	}
	if in.Period != nil {
		requireEnum(&errs, "period", in.Period, models.GoalPeriods)
		item.Period = *in.Period
	}
	if in.AccountID != nil {
		item.AccountID = strings.TrimSpace(*in.AccountID)
		if item.AccountID == "" {
			item.AccountID = models.AllAccounts
		}
	}
	if err := errs.err("Invalid request body"); err != nil {
		return nil, err
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.Repo.UpdateGoal(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	return s.Repo.DeleteGoal(ctx, userID, goalID)
}
