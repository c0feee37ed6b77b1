package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("user not found")
	ErrPhoneTaken   = errors.New("phone number already registered")
	// ErrPhoneUnverified: el teléfono solo cambia vía SetVerifiedPhone, después de un OTP.
	ErrPhoneUnverified = errors.New("phone number must be verified by otp")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type ProfileInput struct {
	Name  string
	Email string
	Phone string
}

// UpsertProfile crea o actualiza el perfil del usuario autenticado.
// El ID viene de la identidad (claims), no del body.
// Phone vacío conserva el teléfono actual; uno distinto del actual es ErrPhoneUnverified.
func (s *Service) UpsertProfile(ctx context.Context, userID string, in ProfileInput) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.TrimSpace(in.Name) == "" {
		return User{}, ErrInvalidInput
	}

	email := strings.TrimSpace(in.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return User{}, ErrInvalidInput
		}
	}

	current, err := s.repo.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	exists := err == nil

	if strings.TrimSpace(in.Phone) != "" {
		p, ok := NormalizePhone(in.Phone)
		if !ok {
			return User{}, ErrInvalidInput
		}
		if !exists || p != current.Phone {
			return User{}, ErrPhoneUnverified
		}
	}

	now := s.now()

	if !exists {
		u := User{
			ID:        userID,
			Name:      strings.TrimSpace(in.Name),
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Create(ctx, u); err != nil {
			return User{}, err
		}
		return u, nil
	}

	current.Name = strings.TrimSpace(in.Name)
	current.Email = email
	current.UpdatedAt = now

	if err := s.repo.Update(ctx, current); err != nil {
		return User{}, err
	}
	return current, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByPhone(ctx context.Context, phone string) (User, error) {
	p, ok := NormalizePhone(phone)
	if !ok {
		return User{}, ErrInvalidInput
	}
	return s.repo.GetByPhone(ctx, p)
}

// SetVerifiedPhone fija el teléfono de userID una vez probada su posesión con un OTP.
// Si el usuario no existe se crea con el teléfono como nombre.
func (s *Service) SetVerifiedPhone(ctx context.Context, userID, phone string) (User, error) {
	userID = strings.TrimSpace(userID)
	p, ok := NormalizePhone(phone)
	if userID == "" || !ok {
		return User{}, ErrInvalidInput
	}

	other, err := s.repo.GetByPhone(ctx, p)
	switch {
	case err == nil && other.ID != userID:
		return User{}, ErrPhoneTaken
	case err != nil && !errors.Is(err, ErrNotFound):
		return User{}, err
	}

	now := s.now()
	current, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		u := User{ID: userID, Name: p, Phone: p, CreatedAt: now, UpdatedAt: now}
		if err := s.repo.Create(ctx, u); err != nil {
			return User{}, err
		}
		return u, nil
	}
	if err != nil {
		return User{}, err
	}

	current.Phone = p
	current.UpdatedAt = now
	if err := s.repo.Update(ctx, current); err != nil {
		return User{}, err
	}
	return current, nil
}

// PhoneOf expone el teléfono de contacto de un usuario (puerto para clinicaccess/families).
func (s *Service) PhoneOf(ctx context.Context, userID string) (string, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Phone, nil
}

// EmailOf devuelve "" si el usuario no existe o no cargó e-mail.
func (s *Service) EmailOf(ctx context.Context, userID string) (string, error) {
	u, err := s.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return u.Email, nil
}
