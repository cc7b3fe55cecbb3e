package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

type RuleInput struct {
	Rule      *string `json:"rule"`
	Completed *bool   `json:"completed"`
	IsActive  *bool   `json:"isActive"`
}

type RuleService struct {
	Repo repository.RuleRepository
}

func (s *RuleService) List(ctx context.Context, userID string) ([]models.Rule, error) {
	items, err := s.Repo.ListRules(ctx, userID)
	if items == nil {
		items = []models.Rule{}
	}
	return items, err
}

func (s *RuleService) Create(ctx context.Context, userID string, in RuleInput) (*models.Rule, error) {
	var errs fieldErrors
	requireText(&errs, "rule", in.Rule, 0)
	if err := errs.err("Invalid rule text"); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	item := &models.Rule{
		UserID:    userID,
		RuleID:    uuid.NewString(),
		Rule:      strings.TrimSpace(*in.Rule),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Completed != nil {
		item.Completed = *in.Completed
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	if err := s.Repo.CreateRule(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *RuleService) Update(ctx context.Context, userID, ruleID string, in RuleInput) (*models.Rule, error) {
	item, err := s.Repo.GetRule(ctx, userID, ruleID)
	if err != nil {
		return nil, err
	}
	if in.Rule != nil {
		var errs fieldErrors
		requireText(&errs, "rule", in.Rule, 0)
		if err := errs.err("Invalid rule text"); err != nil {
			return nil, err
		}
		item.Rule = strings.TrimSpace(*in.Rule)
	}
	if in.Completed != nil {
		item.Completed = *in.Completed
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.Repo.UpdateRule(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *RuleService) Toggle(ctx context.Context, userID, ruleID string) (*models.Rule, error) {
	return s.Repo.ToggleRule(ctx, userID, ruleID)
}

func (s *RuleService) Delete(ctx context.Context, userID, ruleID string) error {
	return s.Repo.DeleteRule(ctx, userID, ruleID)
}
