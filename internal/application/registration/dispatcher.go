package registration

import (
	"fmt"
	"log/slog"

	"github.com/pharmacart/account-api/internal/infrastructure/smtp"
)

// DispatchResult is the outcome of an OTP delivery attempt. Transport errors
// never cross this boundary as errors; they are folded into the result.
type DispatchResult struct {
	Success bool
	Message string
}

// OTPDispatcher delivers a verification code to a user's email address.
type OTPDispatcher interface {
	Dispatch(email, displayName, code string) DispatchResult
}

type mailDispatcher struct {
	mailer smtp.Mailer
}

// NewMailDispatcher wraps the SMTP mailer in the dispatch contract.
func NewMailDispatcher(m smtp.Mailer) OTPDispatcher {
	return &mailDispatcher{mailer: m}
}

func (d *mailDispatcher) Dispatch(email, displayName, code string) DispatchResult {
	body := fmt.Sprintf("Hi %s,\r\n\r\nYour verification code is %s. It expires in 1 hour.\r\n", displayName, code)
	if err := d.mailer.SendEmail(email, "Verify your account", body); err != nil {
		slog.Error("verification email send failed", "email", email, "err", err)
		return DispatchResult{Success: false, Message: "failed to send verification email"}
	}
	return DispatchResult{Success: true, Message: "verification email sent"}
}
