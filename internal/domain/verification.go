package domain

// Signup email verification codes are stored on the User record itself; this
// table only holds codes for the secondary flows.
// PK: user_id, SK: type ("recovery" | "phone").
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type Verification struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Type      string `json:"type" dynamodbav:"type"` // "recovery" | "phone"
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Verification record types.
const (
	VerifyRecovery = "recovery"
	VerifyPhone    = "phone"
)
