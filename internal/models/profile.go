package models

import "time"

// Profile holds the roommate-facing details of a user. One per user.
type Profile struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex" json:"userId"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name"`
	Age             int       `gorm:"not null" json:"age"`
	Bio             string    `gorm:"type:text" json:"bio,omitempty"`
	Location        string    `gorm:"type:varchar(255);not null" json:"location"`
	ProfilePhotoURL string    `gorm:"column:profile_photo_url;type:varchar(512)" json:"profilePhotoUrl,omitempty"`
	Gender          string    `gorm:"type:varchar(50)" json:"gender,omitempty"`
	Profession      string    `gorm:"type:varchar(100)" json:"profession,omitempty"`
	Budget          *int      `json:"budget,omitempty"`
	MoveInDate      string    `gorm:"type:varchar(10)" json:"moveInDate,omitempty"`
	Smoking         *bool     `json:"smoking,omitempty"`
	Drinking        string    `gorm:"type:varchar(50)" json:"drinking,omitempty"`
	Pets            *bool     `json:"pets,omitempty"`
	Cleanliness     string    `gorm:"type:varchar(50)" json:"cleanliness,omitempty"`
	SocialLevel     string    `gorm:"type:varchar(50)" json:"socialLevel,omitempty"`
	WorkFromHome    *bool     `json:"workFromHome,omitempty"`
	Guests          string    `gorm:"type:varchar(50)" json:"guests,omitempty"`
	Music           string    `gorm:"type:varchar(100)" json:"music,omitempty"`
	Cooking         string    `gorm:"type:varchar(50)" json:"cooking,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}
