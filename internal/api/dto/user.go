package dto

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"max=150"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UpdateSettingsRequest: отсутствующее поле не меняется
type UpdateSettingsRequest struct {
	Currency           *string `json:"currency" validate:"omitempty,len=3"`
	ReminderDays       *int    `json:"reminder_days"`
	EmailNotifications *bool   `json:"email_notifications"`
}
