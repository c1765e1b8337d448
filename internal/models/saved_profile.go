package models

import "time"

// SavedProfile is a bookmark a user keeps on another user's profile.
type SavedProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saved_profiles_user_profile" json:"userId"`
	ProfileID uint      `gorm:"not null;uniqueIndex:idx_saved_profiles_user_profile" json:"profileId"`
	CreatedAt time.Time `json:"createdAt"`

	Profile *Profile `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// TableName specifies the table name for GORM
func (SavedProfile) TableName() string {
	return "saved_profiles"
}
