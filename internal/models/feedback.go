package models

import "time"

// Feedback is a rating one user leaves about another. One per ordered pair.
type Feedback struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FromUserID    uint      `gorm:"not null;uniqueIndex:idx_feedback_from_to" json:"fromUserId"`
	ToUserID      uint      `gorm:"not null;uniqueIndex:idx_feedback_from_to;index" json:"toUserId"`
	Rating        int       `gorm:"not null" json:"rating"`
	Cleanliness   *int      `json:"cleanliness,omitempty"`
	Communication *int      `json:"communication,omitempty"`
	Reliability   *int      `json:"reliability,omitempty"`
	Comment       string    `gorm:"type:varchar(500)" json:"comment,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	FromUser *User `gorm:"foreignKey:FromUserID" json:"fromUser,omitempty"`
	ToUser   *User `gorm:"foreignKey:ToUserID" json:"toUser,omitempty"`
}

// TableName specifies the table name for GORM
func (Feedback) TableName() string {
	return "feedback"
}

// FeedbackSummary aggregates the feedback a user has received.
type FeedbackSummary struct {
	Feedbacks     []Feedback `json:"feedbacks"`
	AverageRating float64    `json:"averageRating"`
	RatingCount   int64      `json:"ratingCount"`
}
