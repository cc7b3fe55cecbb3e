package models

import (
	"time"

	"gorm.io/datatypes"
)

// SavedOptionCategories are the pick lists a user can extend from the trade form.
var SavedOptionCategories = []string{
	"symbols", "strategies", "sessions", "marketConditions",
	"newsEvents", "mistakes", "lessons", "timeframes",
}

type SavedOptions map[string][]string

type NotificationPrefs struct {
	TradeReminders bool `json:"tradeReminders"`
	WeeklyReport   bool `json:"weeklyReport"`
	GoalAlerts     bool `json:"goalAlerts"`
}

type Preferences struct {
	DarkMode      bool              `json:"darkMode"`
	Currency      string            `json:"currency"`
	Timezone      string            `json:"timezone"`
	Notifications NotificationPrefs `json:"notifications"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Currency: "USD",
		Timezone: "UTC",
		Notifications: NotificationPrefs{
			TradeReminders: true,
			WeeklyReport:   true,
			GoalAlerts:     true,
		},
	}
}

// UserProfile holds per-user journal settings. Identity attributes live with the token issuer.
type UserProfile struct {
	UserID string `gorm:"type:varchar(64);primaryKey" json:"userId"`

	SavedOptions datatypes.JSONType[SavedOptions] `json:"savedOptions"`
	Preferences  datatypes.JSONType[Preferences]  `json:"preferences"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// NewUserProfile returns the profile of a user who never saved anything.
func NewUserProfile(userID string) UserProfile {
	opts := make(SavedOptions, len(SavedOptionCategories))
	for _, c := range SavedOptionCategories {
		opts[c] = []string{}
	}
	return UserProfile{
		UserID:       userID,
		SavedOptions: datatypes.NewJSONType(opts),
		Preferences:  datatypes.NewJSONType(DefaultPreferences()),
	}
}
