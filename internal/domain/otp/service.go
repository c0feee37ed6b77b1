package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-health-records/internal/domain/users"
	"pet-health-records/internal/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("otp not found")
	ErrInvalidOTP   = errors.New("invalid or expired otp")
	ErrRateLimited  = errors.New("too many otp requests")
)

type Config struct {
	TTL      time.Duration
	HashCost int
	Limiter  RateLimiter // nil = sin límite
}

type Service struct {
	repo    Repository
	ttl     time.Duration
	cost    int
	limiter RateLimiter

	now     func() time.Time
	genCode func() (string, error)
}

func NewService(repo Repository, cfg Config) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cost := cfg.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		repo:    repo,
		ttl:     ttl,
		cost:    cost,
		limiter: cfg.Limiter,
		now:     time.Now,
		genCode: GenerateCode,
	}
}

// Request emite un OTP nuevo para (phone, purpose). Un OTP previo todavía vigente
// queda desplazado: solo el más reciente es candidato en Verify.
func (s *Service) Request(ctx context.Context, phone string, purpose Purpose) (Issued, error) {
	return s.RequestFor(ctx, phone, purpose, "")
}

// RequestFor es Request acotado a subject: solo desplaza OTPs del mismo subject.
func (s *Service) RequestFor(ctx context.Context, phone string, purpose Purpose, subject string) (Issued, error) {
	p, ok := users.NormalizePhone(phone)
	if !ok || !purpose.Valid() {
		return Issued{}, ErrInvalidInput
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, "otp_rate_limit:"+string(purpose)+":"+p)
		if err != nil {
			return Issued{}, fmt.Errorf("otp rate limit: %w", err)
		}
		if !allowed {
			return Issued{}, ErrRateLimited
		}
	}

	code, err := s.genCode()
	if err != nil {
		return Issued{}, err
	}
	hash, err := hashCode(code, s.cost)
	if err != nil {
		return Issued{}, err
	}

	now := s.now()
	o := OTP{
		ID:        uuid.NewString(),
		Phone:     p,
		CodeHash:  hash,
		Purpose:   purpose,
		Subject:   subject,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return Issued{}, err
	}

	metrics.OTPIssued.WithLabelValues(string(purpose)).Inc()

	return Issued{
		OTP:              o,
		Code:             code,
		ExpiresInMinutes: int(s.ttl / time.Minute),
	}, nil
}

// Verify comprueba el código contra el OTP vigente más reciente de (phone, purpose) sin consumirlo.
// Quien llama debe consumirlo (MarkUsed o una operación atómica equivalente).
func (s *Service) Verify(ctx context.Context, phone, code string, purpose Purpose) (OTP, error) {
	return s.VerifyFor(ctx, phone, code, purpose, "")
}

// VerifyFor es Verify sobre los OTPs emitidos con RequestFor(subject).
func (s *Service) VerifyFor(ctx context.Context, phone, code string, purpose Purpose, subject string) (OTP, error) {
	p, ok := users.NormalizePhone(phone)
	code = strings.TrimSpace(code)
	if !ok || !purpose.Valid() || code == "" {
		return OTP{}, ErrInvalidOTP
	}

	now := s.now()
	o, err := s.repo.LatestActive(ctx, p, purpose, subject, now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.rejected(purpose)
			return OTP{}, ErrInvalidOTP
		}
		return OTP{}, err
	}

	if !o.Usable(now) || !checkCode(o.CodeHash, code) {
		s.rejected(purpose)
		return OTP{}, ErrInvalidOTP
	}
	return o, nil
}

// Validate = Verify + consumo. Dos canjes concurrentes del mismo código: gana uno.
func (s *Service) Validate(ctx context.Context, phone, code string, purpose Purpose) (OTP, error) {
	o, err := s.Verify(ctx, phone, code, purpose)
	if err != nil {
		return OTP{}, err
	}

	now := s.now()
	ok, err := s.repo.MarkUsed(ctx, o.ID, now)
	if err != nil {
		return OTP{}, err
	}
	if !ok {
		s.rejected(purpose)
		return OTP{}, ErrInvalidOTP
	}

	o.IsUsed = true
	return o, nil
}

// Cleanup borra OTPs vencidos (mantenimiento; no afecta la validez).
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

// TTL expone la vigencia configurada.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) rejected(purpose Purpose) {
	metrics.OTPRejected.WithLabelValues(string(purpose)).Inc()
}
