package models

import "time"

// Rule is a trading rule the user holds themselves to. Trades reference broken rules by id.
type Rule struct {
	UserID string `gorm:"type:varchar(64);primaryKey" json:"userId"`
	RuleID string `gorm:"type:varchar(64);primaryKey" json:"ruleId"`

	Rule      string `gorm:"type:text;not null" json:"rule"`
	Completed bool   `gorm:"not null;default:false" json:"completed"`
	IsActive  bool   `gorm:"not null" json:"isActive"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Rule) TableName() string {
	return "rules"
}
