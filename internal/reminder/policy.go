package reminder

import (
	"fmt"
	"html"
	"time"

	"subtrack/internal/subscription"
	"subtrack/internal/user"
)

// DefaultLeadDays применяется, когда ни подписка, ни пользователь не задают срок.
const DefaultLeadDays = 1

const dateLayout = "Jan 2, 2006"

type Message struct {
	To      string
	Subject string
	Body    string
}

// LeadDays выбирает срок напоминания: политика подписки (кроме None),
// затем reminder_days пользователя, затем DefaultLeadDays.
func LeadDays(policy subscription.ReminderPolicy, userDays int) int {
	if p, ok := subscription.ParseReminderPolicy(string(policy)); ok {
		if days, set := p.LeadDays(); set {
			return days
		}
	}
	if userDays > 0 {
		return userDays
	}
	return DefaultLeadDays
}

// IsDue сравнивает только календарные даты в часовом поясе now.
func IsDue(nextPayment time.Time, leadDays int, now time.Time) bool {
	y, m, d := nextPayment.Date()
	remindOn := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -leadDays)

	ry, rm, rd := remindOn.Date()
	ny, nm, nd := now.Date()
	return ry == ny && rm == nm && rd == nd
}

func Compose(sub subscription.Subscription, u user.User, leadDays int) Message {
	name := u.Name
	if name == "" {
		name = "User"
	}

	due := "tomorrow"
	if leadDays != 1 {
		due = fmt.Sprintf("in %d days", leadDays)
	}

	currency := u.Currency
	if currency == "" {
		currency = user.DefaultCurrency
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<h2>Subscription Payment Reminder</h2>
			<p>Hi %s,</p>
			<p>This is a friendly reminder that your %s payment is due %s.</p>
			<ul>
				<li>Subscription: %s</li>
				<li>Amount: %s %s</li>
				<li>Plan: %s</li>
				<li>Next Payment Date: %s</li>
			</ul>
			<p>Thank you!</p>
		</div>
	`,
		html.EscapeString(name),
		html.EscapeString(sub.Name), due,
		html.EscapeString(sub.Name),
		sub.Amount.StringFixed(2), currency,
		html.EscapeString(sub.Plan),
		sub.NextPaymentDate.Format(dateLayout),
	)

	return Message{
		To:      u.Email,
		Subject: fmt.Sprintf("Reminder: %s payment due %s", sub.Name, due),
		Body:    body,
	}
}
