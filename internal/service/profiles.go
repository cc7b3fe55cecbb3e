package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"gorm.io/datatypes"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

const maxSavedOptionLen = 100

type ProfileService struct {
	Repo repository.ProfileRepository
}

// Profile is the identity from the access token plus the stored preferences.
type Profile struct {
	ID          string             `json:"id"`
	Email       string             `json:"email,omitempty"`
	Preferences models.Preferences `json:"preferences"`
}

type NotificationInput struct {
	TradeReminders *bool `json:"tradeReminders"`
	WeeklyReport   *bool `json:"weeklyReport"`
	GoalAlerts     *bool `json:"goalAlerts"`
}

type PreferencesInput struct {
	DarkMode      *bool              `json:"darkMode"`
	Currency      *string            `json:"currency"`
	Timezone      *string            `json:"timezone"`
	Notifications *NotificationInput `json:"notifications"`
}

func (s *ProfileService) load(ctx context.Context, userID string) (models.UserProfile, error) {
	item, err := s.Repo.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewUserProfile(userID), nil
	}
	if err != nil {
		return models.UserProfile{}, err
	}
	return *item, nil
}

func (s *ProfileService) Get(ctx context.Context, userID, email string) (Profile, error) {
	item, err := s.load(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{ID: userID, Email: email, Preferences: item.Preferences.Data()}, nil
}

func (s *ProfileService) UpdatePreferences(ctx context.Context, userID string, in PreferencesInput) (models.Preferences, error) {
	var errs fieldErrors
	if in.Currency != nil {
		v := strings.ToUpper(strings.TrimSpace(*in.Currency))
		if len(v) != 3 {
			errs.add("currency", "must be a 3-letter code")
		}
		in.Currency = &v
	}
	if in.Timezone != nil {
		v := strings.TrimSpace(*in.Timezone)
		if v == "" || len(v) > 64 {
			errs.add("timezone", "invalid")
		}
		in.Timezone = &v
	}
	if err := errs.err("Invalid preferences"); err != nil {
		return models.Preferences{}, err
	}
	item, err := s.Repo.UpdateProfile(ctx, userID, func(p *models.UserProfile) error {
		prefs := p.Preferences.Data()
		if in.DarkMode != nil {
			prefs.DarkMode = *in.DarkMode
		}
		if in.Currency != nil {
			prefs.Currency = *in.Currency
		}
		if in.Timezone != nil {
			prefs.Timezone = *in.Timezone
		}
		if n := in.Notifications; n != nil {
			setBool(&prefs.Notifications.TradeReminders, n.TradeReminders)
			setBool(&prefs.Notifications.WeeklyReport, n.WeeklyReport)
			setBool(&prefs.Notifications.GoalAlerts, n.GoalAlerts)
		}
		p.Preferences = datatypes.NewJSONType(prefs)
		return nil
	})
	if err != nil {
		return models.Preferences{}, err
	}
	return item.Preferences.Data(), nil
}

// SavedOptions returns every category, empty ones included.
func (s *ProfileService) SavedOptions(ctx context.Context, userID string) (models.SavedOptions, error) {
	item, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return completeOptions(item.SavedOptions.Data()), nil
}

// AddSavedOption appends value to a category unless it is already there.
func (s *ProfileService) AddSavedOption(ctx context.Context, userID, category, value string) (models.SavedOptions, error) {
	if !slices.Contains(models.SavedOptionCategories, category) {
		return nil, invalid("unknown category %q", category)
	}
	var errs fieldErrors
	requireText(&errs, "value", &value, maxSavedOptionLen)
	if err := errs.err("Invalid option"); err != nil {
		return nil, err
	}
	value = strings.TrimSpace(value)
	item, err := s.Repo.UpdateProfile(ctx, userID, func(p *models.UserProfile) error {
		opts := completeOptions(p.SavedOptions.Data())
		if !slices.Contains(opts[category], value) {
			opts[category] = append(opts[category], value)
		}
		p.SavedOptions = datatypes.NewJSONType(opts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completeOptions(item.SavedOptions.Data()), nil
}

func completeOptions(in models.SavedOptions) models.SavedOptions {
	out := make(models.SavedOptions, len(models.SavedOptionCategories))
	for _, c := range models.SavedOptionCategories {
		out[c] = in[c]
		if out[c] == nil {
			out[c] = []string{}
		}
	}
	return out
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
