package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrEmailInUse    = errors.New("email already in use")
	ErrInvalidCreds  = errors.New("invalid credentials")
	ErrDeactivated   = errors.New("account is deactivated")
	ErrWrongPassword = errors.New("current password is incorrect")

	ErrInvalidSettings = errors.New("invalid settings")
)

const (
	DefaultCurrency     = "USD"
	DefaultReminderDays = 3
	MaxReminderDays     = 30
)

// Currencies перечисляет валюты, доступные для отображения сумм
var Currencies = []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "INR", "CNY"}

type User struct {
	ID                 int64     `json:"id" db:"id"`
	Username           string    `json:"username" db:"username"`
	Email              string    `json:"email" db:"email"`
	Name               string    `json:"name" db:"name"`
	Password           string    `json:"-" db:"password"` // будем хранить только хэш
	Currency           string    `json:"currency" db:"currency"`
	ReminderDays       int       `json:"reminder_days" db:"reminder_days"`
	EmailNotifications bool      `json:"email_notifications" db:"email_notifications"`
	Deactivated        bool      `json:"deactivated" db:"deactivated"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// Settings описывает частичное обновление настроек: nil означает "не менять".
type Settings struct {
	Currency           *string
	ReminderDays       *int
	EmailNotifications *bool
}

func IsCurrency(code string) bool {
	for _, c := range Currencies {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}
