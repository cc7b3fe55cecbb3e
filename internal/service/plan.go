package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// DefaultRules seed the rule list of a user who has none.
var DefaultRules = []string{
	"Never risk more than 1% per trade",
	"Always set stop loss before entry",
	"No trading during high-impact news",
	"Wait for confirmation before entry",
	"Review trades weekly",
	"Stick to my trading plan",
}

// PlanService reads rules and goals together for the plan screen.
type PlanService struct {
	Rules repository.RuleRepository
	Goals repository.GoalRepository
	Now   func() time.Time
}

type Plan struct {
	Rules []models.Rule `json:"rules"`
	Goals []models.Goal `json:"goals"`
}

// Get returns every rule and goal of the user, seeding DefaultRules first when the user has no rules.
func (s *PlanService) Get(ctx context.Context, userID string) (Plan, error) {
	rules, err := s.Rules.ListRules(ctx, userID)
	if err != nil {
		return Plan{}, err
	}
	if len(rules) == 0 {
		if rules, err = s.seedRules(ctx, userID); err != nil {
			return Plan{}, err
		}
	}
	goals, err := s.Goals.ListGoals(ctx, repository.ListGoalsParams{UserID: userID})
	if err != nil {
		return Plan{}, err
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	return Plan{Rules: rules, Goals: goals}, nil
}

func (s *PlanService) seedRules(ctx context.Context, userID string) ([]models.Rule, error) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	out := make([]models.Rule, 0, len(DefaultRules))
	for i, text := range DefaultRules {
		item := models.Rule{
			UserID:   userID,
			RuleID:   uuid.NewString(),
			Rule:     text,
			IsActive: true,
			// Distinct timestamps keep the seeded order stable in created_at listings.
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt: now,
		}
		if err := s.Rules.CreateRule(ctx, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
