package models

// Request payloads accepted by the HTTP layer. Validated with go-playground/validator tags.

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// PasswordResetRequest starts a password reset.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest completes a password reset.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// CreateProfileRequest is the body of POST /profile.
type CreateProfileRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=100"`
	Age             int    `json:"age" validate:"required,min=18,max=100"`
	Bio             string `json:"bio" validate:"omitempty,min=5,max=500"`
	Location        string `json:"location" validate:"required,max=255"`
	ProfilePhotoURL string `json:"profilePhotoUrl" validate:"omitempty,max=512"`
	Gender          string `json:"gender" validate:"omitempty,max=50"`
	Profession      string `json:"profession" validate:"omitempty,max=100"`
	Budget          *int   `json:"budget" validate:"omitempty,min=0"`
	MoveInDate      string `json:"moveInDate" validate:"omitempty,datetime=2006-01-02"`
	Smoking         *bool  `json:"smoking"`
	Drinking        string `json:"drinking" validate:"omitempty,max=50"`
	Pets            *bool  `json:"pets"`
	Cleanliness     string `json:"cleanliness" validate:"omitempty,max=50"`
	SocialLevel     string `json:"socialLevel" validate:"omitempty,max=50"`
	WorkFromHome    *bool  `json:"workFromHome"`
	Guests          string `json:"guests" validate:"omitempty,max=50"`
	Music           string `json:"music" validate:"omitempty,max=100"`
	Cooking         string `json:"cooking" validate:"omitempty,max=50"`
}

// UpdateProfileRequest is a partial update. Nil fields are left untouched.
type UpdateProfileRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=100"`
	Age             *int    `json:"age" validate:"omitempty,min=18,max=100"`
	Bio             *string `json:"bio" validate:"omitempty,min=10,max=500"`
	Location        *string `json:"location" validate:"omitempty,min=1,max=255"`
	ProfilePhotoURL *string `json:"profilePhotoUrl" validate:"omitempty,max=512"`
	Gender          *string `json:"gender" validate:"omitempty,max=50"`
	Profession      *string `json:"profession" validate:"omitempty,max=100"`
	Budget          *int    `json:"budget" validate:"omitempty,min=0"`
	MoveInDate      *string `json:"moveInDate" validate:"omitempty,datetime=2006-01-02"`
	Smoking         *bool   `json:"smoking"`
	Drinking        *string `json:"drinking" validate:"omitempty,max=50"`
	Pets            *bool   `json:"pets"`
	Cleanliness     *string `json:"cleanliness" validate:"omitempty,max=50"`
	SocialLevel     *string `json:"socialLevel" validate:"omitempty,max=50"`
	WorkFromHome    *bool   `json:"workFromHome"`
	Guests          *string `json:"guests" validate:"omitempty,max=50"`
	Music           *string `json:"music" validate:"omitempty,max=100"`
	Cooking         *string `json:"cooking" validate:"omitempty,max=50"`
}

// ConnectionRequest is the body of POST /connections/request.
type ConnectionRequest struct {
	ReceiverID uint `json:"receiverId" validate:"required"`
}

// SendMessageRequest is the body of POST /messaging/send and of the
// send_message socket frame.
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// SaveProfileRequest is the body of POST /saved-profiles/save.
type SaveProfileRequest struct {
	ProfileID uint `json:"profileId" validate:"required"`
}

// CreateFeedbackRequest is the body of POST /feedback/create.
type CreateFeedbackRequest struct {
	ToUserID      uint   `json:"toUserId" validate:"required"`
	Rating        int    `json:"rating" validate:"required,min=1,max=5"`
	Cleanliness   *int   `json:"cleanliness" validate:"omitempty,min=1,max=5"`
	Communication *int   `json:"communication" validate:"omitempty,min=1,max=5"`
	Reliability   *int   `json:"reliability" validate:"omitempty,min=1,max=5"`
	Comment       string `json:"comment" validate:"omitempty,max=500"`
}

// UpdateFeedbackRequest is a partial feedback update.
type UpdateFeedbackRequest struct {
	Rating        *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Cleanliness   *int    `json:"cleanliness" validate:"omitempty,min=1,max=5"`
	Communication *int    `json:"communication" validate:"omitempty,min=1,max=5"`
	Reliability   *int    `json:"reliability" validate:"omitempty,min=1,max=5"`
	Comment       *string `json:"comment" validate:"omitempty,max=500"`
}
