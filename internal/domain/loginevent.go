package domain

import "time"

// LoginEvent is an informational audit record appended on every successful
// login. Sessions themselves are stateless signed tokens; these records are
// never consulted for authorization.
type LoginEvent struct {
	EventID   string    `json:"id" dynamodbav:"event_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	IP        string    `json:"ip" dynamodbav:"ip"`
	UserAgent string    `json:"user_agent" dynamodbav:"user_agent"`
	Method    string    `json:"method" dynamodbav:"method"` // "password" | "verify" | "recovery"
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

// Login methods recorded on LoginEvent.
const (
	LoginPassword = "password"
	LoginVerify   = "verify"
	LoginRecovery = "recovery"
)
