package http

import (
	"github.com/pharmacart/account-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/pharmacart/account-api/internal/infrastructure/jwt"
	s3infra "github.com/pharmacart/account-api/internal/infrastructure/s3"
	"github.com/pharmacart/account-api/internal/infrastructure/smtp"
	"github.com/pharmacart/account-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router. The composition
// root (cmd/api) builds these once and hands them in; nothing here opens
// connections on its own.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	VerificationRepo *dynamo.VerificationRepo
	LoginEventRepo   *dynamo.LoginEventRepo
	PrescriptionRepo *dynamo.PrescriptionRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
}
