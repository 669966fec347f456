package dto

import (
	"github.com/shopspring/decimal"

	"subtrack/internal/subscription"
)

// SubscriptionRequest это тело POST/PUT /api/subscriptions. amount принимает число или строку.
type SubscriptionRequest struct {
	Name            string          `json:"name" validate:"required,max=100"`
	Category        string          `json:"category" validate:"required"`
	Plan            string          `json:"plan" validate:"required,max=100"`
	Amount          decimal.Decimal `json:"amount"`
	BillingCycle    string          `json:"billing_cycle" validate:"required"`
	NextPaymentDate string          `json:"next_payment_date" validate:"required"`
	Status          string          `json:"status"`
	Reminder        string          `json:"reminder"`
	Notes           string          `json:"notes"`
}

func (r SubscriptionRequest) Input() subscription.Input {
	return subscription.Input{
		Name:            r.Name,
		Category:        r.Category,
		Plan:            r.Plan,
		Amount:          r.Amount,
		BillingCycle:    r.BillingCycle,
		NextPaymentDate: r.NextPaymentDate,
		Status:          r.Status,
		Reminder:        r.Reminder,
		Notes:           r.Notes,
	}
}
