package families

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-health-records/internal/domain/otp"
	"pet-health-records/internal/domain/users"
	"pet-health-records/internal/platform/logger"
	"pet-health-records/internal/ports/notify"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("family not found")
	ErrAlreadyExists = errors.New("family already exists")
	ErrAlreadyMember = errors.New("phone already belongs to an active member")
	ErrInvalidOTP    = errors.New("invalid or expired otp")
	ErrRateLimited   = errors.New("too many otp requests")
	ErrPhoneRequired = errors.New("user has no phone number")
)

// OTPIssuer es el subconjunto del servicio otp que usa families.
type OTPIssuer interface {
	Request(ctx context.Context, phone string, purpose otp.Purpose) (otp.Issued, error)
	Validate(ctx context.Context, phone, code string, purpose otp.Purpose) (otp.OTP, error)
}

type PhoneLookup interface {
	PhoneOf(ctx context.Context, userID string) (string, error)
}

type Service struct {
	repo   Repository
	otps   OTPIssuer
	phones PhoneLookup
	sender notify.Sender
	now    func() time.Time
}

func NewService(repo Repository, otps OTPIssuer, phones PhoneLookup, sender notify.Sender) *Service {
	return &Service{
		repo:   repo,
		otps:   otps,
		phones: phones,
		sender: sender,
		now:    time.Now,
	}
}

func (s *Service) Create(ctx context.Context, ownerUserID, name string) (Family, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	name = strings.TrimSpace(name)
	if ownerUserID == "" || name == "" {
		return Family{}, ErrInvalidInput
	}

	_, err := s.repo.GetFamilyByOwner(ctx, ownerUserID)
	if err == nil {
		return Family{}, ErrAlreadyExists
	}
	if !errors.Is(err, ErrNotFound) {
		return Family{}, err
	}

	now := s.now()
	f := Family{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateFamily(ctx, f); err != nil {
		return Family{}, err
	}
	return f, nil
}

func (s *Service) GetByOwner(ctx context.Context, ownerUserID string) (Family, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return Family{}, ErrNotFound
	}
	return s.repo.GetFamilyByOwner(ctx, ownerUserID)
}

type InviteInput struct {
	Phone       string
	AccessLevel AccessLevel
}

// Invite crea (o renueva) la invitación por teléfono y envía el OTP family_invite.
// Re-invitar un teléfono todavía invited actualiza el nivel y emite un OTP nuevo.
func (s *Service) Invite(ctx context.Context, familyID, ownerUserID string, in InviteInput) (Member, error) {
	f, err := s.ownedFamily(ctx, familyID, ownerUserID)
	if err != nil {
		return Member{}, err
	}

	phone, ok := users.NormalizePhone(in.Phone)
	if !ok {
		return Member{}, ErrInvalidInput
	}
	level := in.AccessLevel
	if level == "" {
		level = AccessReadOnly
	}
	if !level.Valid() {
		return Member{}, ErrInvalidInput
	}

	// el dueño no se invita a sí mismo
	if ownerPhone, err := s.phones.PhoneOf(ctx, f.OwnerUserID); err == nil && ownerPhone == phone {
		return Member{}, ErrInvalidInput
	}

	members, err := s.repo.ListMembers(ctx, f.ID)
	if err != nil {
		return Member{}, err
	}

	now := s.now()
	var m Member
	found := false
	for _, existing := range members {
		if existing.Phone != phone || existing.Status == MemberRemoved {
			continue
		}
		if existing.Status == MemberActive {
			return Member{}, ErrAlreadyMember
		}
		m = existing
		found = true
		break
	}

	if found {
		m.AccessLevel = level
		m.UpdatedAt = now
		if err := s.repo.UpdateMember(ctx, m); err != nil {
			return Member{}, err
		}
	} else {
		m = Member{
			ID:          uuid.NewString(),
			FamilyID:    f.ID,
			Phone:       phone,
			AccessLevel: level,
			Status:      MemberInvited,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.CreateMember(ctx, m); err != nil {
			return Member{}, err
		}
	}

	issued, err := s.otps.Request(ctx, phone, otp.PurposeFamilyInvite)
	if err != nil {
		if errors.Is(err, otp.ErrRateLimited) {
			return Member{}, ErrRateLimited
		}
		return Member{}, err
	}

	msg := fmt.Sprintf("Te invitaron a la familia %q. Tu código es %s (vence en %d minutos).", f.Name, issued.Code, issued.ExpiresInMinutes)
	if err := s.sender.Send(ctx, phone, msg); err != nil {
		logger.FromContext(ctx).Warn("family invite delivery failed", map[string]any{
			"err":       err,
			"family_id": f.ID,
			"member_id": m.ID,
		})
	}

	return m, nil
}

// Join activa la invitación pendiente del teléfono del usuario canjeando el OTP.
func (s *Service) Join(ctx context.Context, familyID, userID, code string) (Member, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.TrimSpace(code) == "" {
		return Member{}, ErrInvalidInput
	}

	f, err := s.repo.GetFamily(ctx, strings.TrimSpace(familyID))
	if err != nil {
		return Member{}, err
	}
	if f.OwnerUserID == userID {
		return Member{}, ErrInvalidInput
	}

	phone, err := s.phones.PhoneOf(ctx, userID)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return Member{}, err
	}
	if strings.TrimSpace(phone) == "" {
		return Member{}, ErrPhoneRequired
	}

	members, err := s.repo.ListMembers(ctx, f.ID)
	if err != nil {
		return Member{}, err
	}

	var m Member
	found := false
	for _, existing := range members {
		if existing.Phone == phone && existing.Status == MemberInvited {
			m = existing
			found = true
			break
		}
	}
	if !found {
		return Member{}, ErrNotFound
	}

	if _, err := s.otps.Validate(ctx, phone, code, otp.PurposeFamilyInvite); err != nil {
		if errors.Is(err, otp.ErrInvalidOTP) {
			return Member{}, ErrInvalidOTP
		}
		return Member{}, err
	}

	now := s.now()
	m.UserID = userID
	m.Status = MemberActive
	m.UpdatedAt = now
	m.JoinedAt = &now

	if err := s.repo.UpdateMember(ctx, m); err != nil {
		return Member{}, err
	}
	return m, nil
}

func (s *Service) UpdateAccessLevel(ctx context.Context, familyID, ownerUserID, memberID string, level AccessLevel) (Member, error) {
	if !level.Valid() {
		return Member{}, ErrInvalidInput
	}

	m, err := s.ownedMember(ctx, familyID, ownerUserID, memberID)
	if err != nil {
		return Member{}, err
	}
	if m.Status == MemberRemoved {
		return Member{}, ErrNotFound
	}

	m.AccessLevel = level
	m.UpdatedAt = s.now()
	if err := s.repo.UpdateMember(ctx, m); err != nil {
		return Member{}, err
	}
	return m, nil
}

// RemoveMember es idempotente.
func (s *Service) RemoveMember(ctx context.Context, familyID, ownerUserID, memberID string) (Member, error) {
	m, err := s.ownedMember(ctx, familyID, ownerUserID, memberID)
	if err != nil {
		return Member{}, err
	}
	if m.Status == MemberRemoved {
		return m, nil
	}

	m.Status = MemberRemoved
	m.UpdatedAt = s.now()
	if err := s.repo.UpdateMember(ctx, m); err != nil {
		return Member{}, err
	}
	return m, nil
}

// ListMembers: lo ven el dueño y los miembros activos.
func (s *Service) ListMembers(ctx context.Context, familyID, actorUserID string) ([]Member, error) {
	f, err := s.repo.GetFamily(ctx, strings.TrimSpace(familyID))
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, f.ID)
	if err != nil {
		return nil, err
	}

	if f.OwnerUserID == actorUserID {
		return members, nil
	}
	for _, m := range members {
		if m.UserID == actorUserID && m.Status == MemberActive {
			return members, nil
		}
	}
	return nil, ErrForbidden
}

// ActiveMembership devuelve la membresía activa de userID en la familia de ownerUserID.
// ErrNotFound si no hay familia o el usuario no es miembro activo.
func (s *Service) ActiveMembership(ctx context.Context, ownerUserID, userID string) (Member, error) {
	f, err := s.repo.GetFamilyByOwner(ctx, ownerUserID)
	if err != nil {
		return Member{}, err
	}

	members, err := s.repo.ListMembers(ctx, f.ID)
	if err != nil {
		return Member{}, err
	}
	for _, m := range members {
		if m.UserID == userID && m.Status == MemberActive {
			return m, nil
		}
	}
	return Member{}, ErrNotFound
}

// OwnersSharingWith devuelve los dueños cuyas familias tienen a userID como miembro activo.
func (s *Service) OwnersSharingWith(ctx context.Context, userID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	memberships, err := s.repo.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if m.Status != MemberActive {
			continue
		}
		f, err := s.repo.GetFamily(ctx, m.FamilyID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, f.OwnerUserID)
	}
	return out, nil
}

func (s *Service) ownedFamily(ctx context.Context, familyID, ownerUserID string) (Family, error) {
	f, err := s.repo.GetFamily(ctx, strings.TrimSpace(familyID))
	if err != nil {
		return Family{}, err
	}
	if f.OwnerUserID != strings.TrimSpace(ownerUserID) {
		return Family{}, ErrForbidden
	}
	return f, nil
}

func (s *Service) ownedMember(ctx context.Context, familyID, ownerUserID, memberID string) (Member, error) {
	f, err := s.ownedFamily(ctx, familyID, ownerUserID)
	if err != nil {
		return Member{}, err
	}
	m, err := s.repo.GetMember(ctx, strings.TrimSpace(memberID))
	if err != nil {
		return Member{}, err
	}
	if m.FamilyID != f.ID {
		return Member{}, ErrNotFound
	}
	return m, nil
}
