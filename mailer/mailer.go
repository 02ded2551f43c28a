// Package mailer sends transactional email: OTP codes, password reset codes
// and menu-change notices.
package mailer

//go:generate mockgen -destination=mocks/mock_mailer.go -package=mocks mess-management-api/mailer Mailer

import (
	"context"
	"fmt"
	"strings"

	"mess-management-api/logger"
)

// Mailer delivers a plain-text message to one recipient
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// LogMailer writes messages to the log instead of sending them. Used in
// development and when no provider is configured.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log.Named("mailer")}
}

func (m *LogMailer) SendMail(_ context.Context, to, subject, body string) error {
	m.log.Infow("mail (not sent)", "to", to, "subject", subject, "body", body)
	return nil
}

// OTPMessage builds the verification email carrying code
func OTPMessage(code string) (subject, body string) {
	subject = "Your verification code"
	body = fmt.Sprintf("Your one-time verification code is: %s\n\nIt expires in 10 minutes. If you did not request it, ignore this email.", code)
	return subject, body
}

// MenuChange describes an edited menu slot for notification purposes
type MenuChange struct {
	Day        string
	Meal       string
	MainCourse string
	SideDish   string
	Dessert    string
	Beverage   string
}

// Summary renders the change as a few readable lines
func (c MenuChange) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s has been updated:\n", c.Day, c.Meal)
	for _, line := range [][2]string{
		{"Main course", c.MainCourse},
		{"Side dish", c.SideDish},
		{"Dessert", c.Dessert},
		{"Beverage", c.Beverage},
	} {
		if line[1] != "" {
			fmt.Fprintf(&b, "  %s: %s\n", line[0], line[1])
		}
	}
	return b.String()
}

// MenuChangeMessage builds the notification sent to every user after a menu edit
func MenuChangeMessage(c MenuChange) (subject, body string) {
	subject = fmt.Sprintf("Menu updated: %s %s", c.Day, c.Meal)
	body = c.Summary() + "\nCheck the mess menu for the full week."
	return subject, body
}
