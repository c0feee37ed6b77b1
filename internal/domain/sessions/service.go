package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-health-records/internal/domain/otp"
	"pet-health-records/internal/domain/users"
	"pet-health-records/internal/platform/logger"
	"pet-health-records/internal/ports/auth"
	"pet-health-records/internal/ports/notify"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidOTP   = errors.New("invalid or expired otp")
	ErrRateLimited  = errors.New("too many otp requests")
	ErrPhoneTaken   = errors.New("phone number already registered")
)

type OTPIssuer interface {
	Request(ctx context.Context, phone string, purpose otp.Purpose) (otp.Issued, error)
	Validate(ctx context.Context, phone, code string, purpose otp.Purpose) (otp.OTP, error)
}

type Accounts interface {
	GetByPhone(ctx context.Context, phone string) (users.User, error)
	SetVerifiedPhone(ctx context.Context, userID, phone string) (users.User, error)
}

type TokenIssuer interface {
	Issue(ctx context.Context, c auth.Claims) (string, time.Time, error)
}

// Service implementa el login por OTP (purpose login) y emite el token de sesión.
// También verifica cambios de teléfono (purpose phone_verify); para eso tokens puede ser nil.
type Service struct {
	otps     OTPIssuer
	accounts Accounts
	tokens   TokenIssuer
	sender   notify.Sender

	newID func() string
}

func NewService(otps OTPIssuer, accounts Accounts, tokens TokenIssuer, sender notify.Sender) *Service {
	return &Service{
		otps:     otps,
		accounts: accounts,
		tokens:   tokens,
		sender:   sender,
		newID:    uuid.NewString,
	}
}

type Challenge struct {
	ExpiresInMinutes int
	ExpiresAt        time.Time
}

// RequestLogin envía un OTP de login. No revela si el teléfono tiene cuenta.
func (s *Service) RequestLogin(ctx context.Context, phone string) (Challenge, error) {
	p, ok := users.NormalizePhone(phone)
	if !ok {
		return Challenge{}, ErrInvalidInput
	}

	issued, err := s.otps.Request(ctx, p, otp.PurposeLogin)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrRateLimited):
			return Challenge{}, ErrRateLimited
		case errors.Is(err, otp.ErrInvalidInput):
			return Challenge{}, ErrInvalidInput
		default:
			return Challenge{}, err
		}
	}

	msg := fmt.Sprintf("Tu código de ingreso es %s (vence en %d minutos).", issued.Code, issued.ExpiresInMinutes)
	if err := s.sender.Send(ctx, p, msg); err != nil {
		logger.FromContext(ctx).Warn("login otp delivery failed", map[string]any{"err": err, "otp_id": issued.OTP.ID})
	}

	return Challenge{
		ExpiresInMinutes: issued.ExpiresInMinutes,
		ExpiresAt:        issued.OTP.ExpiresAt,
	}, nil
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      users.User
	Created   bool
}

// VerifyLogin consume el OTP y emite el token. El primer login crea la cuenta (nombre = teléfono).
func (s *Service) VerifyLogin(ctx context.Context, phone, code string) (Session, error) {
	p, ok := users.NormalizePhone(phone)
	if !ok || strings.TrimSpace(code) == "" {
		return Session{}, ErrInvalidInput
	}

	if _, err := s.otps.Validate(ctx, p, code, otp.PurposeLogin); err != nil {
		if errors.Is(err, otp.ErrInvalidOTP) {
			return Session{}, ErrInvalidOTP
		}
		return Session{}, err
	}

	created := false
	u, err := s.accounts.GetByPhone(ctx, p)
	if errors.Is(err, users.ErrNotFound) {
		u, err = s.accounts.SetVerifiedPhone(ctx, s.newID(), p)
		created = true
	}
	if err != nil {
		return Session{}, err
	}

	token, exp, err := s.tokens.Issue(ctx, auth.Claims{UserID: u.ID, Email: u.Email, Phone: u.Phone})
	if err != nil {
		return Session{}, err
	}

	logger.FromContext(ctx).Info("user logged in", map[string]any{"user_id": u.ID, "new_account": created})
	return Session{Token: token, ExpiresAt: exp, User: u, Created: created}, nil
}

// RequestPhoneChange envía un OTP phone_verify al número nuevo. Hasta que se confirme
// el perfil conserva el teléfono anterior.
func (s *Service) RequestPhoneChange(ctx context.Context, userID, phone string) (Challenge, error) {
	p, ok := users.NormalizePhone(phone)
	if !ok || strings.TrimSpace(userID) == "" {
		return Challenge{}, ErrInvalidInput
	}

	other, err := s.accounts.GetByPhone(ctx, p)
	switch {
	case err == nil && other.ID != userID:
		return Challenge{}, ErrPhoneTaken
	case err != nil && !errors.Is(err, users.ErrNotFound):
		return Challenge{}, err
	}

	issued, err := s.otps.Request(ctx, p, otp.PurposePhoneVerify)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrRateLimited):
			return Challenge{}, ErrRateLimited
		case errors.Is(err, otp.ErrInvalidInput):
			return Challenge{}, ErrInvalidInput
		default:
			return Challenge{}, err
		}
	}

	msg := fmt.Sprintf("Tu código para confirmar este teléfono es %s (vence en %d minutos).", issued.Code, issued.ExpiresInMinutes)
	if err := s.sender.Send(ctx, p, msg); err != nil {
		logger.FromContext(ctx).Warn("phone verify otp delivery failed", map[string]any{"err": err, "otp_id": issued.OTP.ID})
	}

	return Challenge{
		ExpiresInMinutes: issued.ExpiresInMinutes,
		ExpiresAt:        issued.OTP.ExpiresAt,
	}, nil
}

// ConfirmPhoneChange consume el OTP y recién ahí asocia el teléfono al usuario.
func (s *Service) ConfirmPhoneChange(ctx context.Context, userID, phone, code string) (users.User, error) {
	p, ok := users.NormalizePhone(phone)
	if !ok || strings.TrimSpace(userID) == "" || strings.TrimSpace(code) == "" {
		return users.User{}, ErrInvalidInput
	}

	if _, err := s.otps.Validate(ctx, p, code, otp.PurposePhoneVerify); err != nil {
		if errors.Is(err, otp.ErrInvalidOTP) {
			return users.User{}, ErrInvalidOTP
		}
		return users.User{}, err
	}

	u, err := s.accounts.SetVerifiedPhone(ctx, userID, p)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrPhoneTaken):
			return users.User{}, ErrPhoneTaken
		case errors.Is(err, users.ErrInvalidInput):
			return users.User{}, ErrInvalidInput
		default:
			return users.User{}, err
		}
	}

	logger.FromContext(ctx).Info("phone verified", map[string]any{"user_id": u.ID})
	return u, nil
}
