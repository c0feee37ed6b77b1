package clinicaccess

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-health-records/internal/domain/accessgrants"
	"pet-health-records/internal/domain/clinics"
	"pet-health-records/internal/domain/otp"
	"pet-health-records/internal/domain/pets"
	"pet-health-records/internal/domain/users"
	"pet-health-records/internal/platform/logger"
	"pet-health-records/internal/ports/notify"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrNotAuthorized = errors.New("not authorized")
	ErrInvalidOTP    = errors.New("invalid or expired otp")
	ErrRateLimited   = errors.New("too many otp requests")
)

type PetDirectory interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

type ClinicDirectory interface {
	Get(ctx context.Context, id string) (clinics.Clinic, error)
	IsAffiliated(ctx context.Context, userID, clinicID string) (bool, error)
	DoctorBelongs(ctx context.Context, clinicID, doctorID string) (bool, error)
}

type PhoneLookup interface {
	PhoneOf(ctx context.Context, userID string) (string, error)
}

// EmailLookup devuelve "" si el usuario no cargó e-mail.
type EmailLookup interface {
	EmailOf(ctx context.Context, userID string) (string, error)
}

// OTPIssuer: VerifyFor no consume; el consumo ocurre junto con el alta del grant.
type OTPIssuer interface {
	RequestFor(ctx context.Context, phone string, purpose otp.Purpose, subject string) (otp.Issued, error)
	VerifyFor(ctx context.Context, phone, code string, purpose otp.Purpose, subject string) (otp.OTP, error)
}

type GrantStore interface {
	Create(ctx context.Context, in accessgrants.CreateInput) (accessgrants.Grant, error)
	Revoke(ctx context.Context, grantID, ownerUserID string) (accessgrants.Grant, error)
}

// Coordinator orquesta el flujo request → OTP al dueño → grant → revoke.
type Coordinator struct {
	pets    PetDirectory
	clinics ClinicDirectory
	phones  PhoneLookup
	emails  EmailLookup
	otps    OTPIssuer
	grants  GrantStore
	sender  notify.Sender

	defaultHours int
}

type Deps struct {
	Pets    PetDirectory
	Clinics ClinicDirectory
	Phones  PhoneLookup
	Emails  EmailLookup // opcional: avisos por e-mail al dueño
	OTPs    OTPIssuer
	Grants  GrantStore
	Sender  notify.Sender

	DefaultGrantHours int // 0 = accessgrants.DefaultDurationHours
}

func NewCoordinator(d Deps) *Coordinator {
	hours := d.DefaultGrantHours
	if hours == 0 {
		hours = accessgrants.DefaultDurationHours
	}
	return &Coordinator{
		pets:         d.Pets,
		clinics:      d.Clinics,
		phones:       d.Phones,
		emails:       d.Emails,
		otps:         d.OTPs,
		grants:       d.Grants,
		sender:       d.Sender,
		defaultHours: hours,
	}
}

type RequestInput struct {
	PetID       string
	ClinicID    string
	RequesterID string
	Purpose     string
}

type RequestResult struct {
	OTPID            string
	PetID            string
	ClinicID         string
	ExpiresInMinutes int
	ExpiresAt        time.Time
}

// RequestAccess: un afiliado de la clínica pide acceso; se envía un OTP pet_access al teléfono del dueño.
func (c *Coordinator) RequestAccess(ctx context.Context, in RequestInput) (RequestResult, error) {
	requester := strings.TrimSpace(in.RequesterID)
	if requester == "" || strings.TrimSpace(in.PetID) == "" || strings.TrimSpace(in.ClinicID) == "" {
		return RequestResult{}, ErrInvalidInput
	}

	pet, clinic, err := c.lookup(ctx, in.PetID, in.ClinicID)
	if err != nil {
		return RequestResult{}, err
	}

	affiliated, err := c.clinics.IsAffiliated(ctx, requester, clinic.ID)
	if err != nil {
		return RequestResult{}, err
	}
	if !affiliated {
		return RequestResult{}, ErrNotAuthorized
	}

	phone, err := c.ownerPhone(ctx, pet.OwnerUserID)
	if err != nil {
		return RequestResult{}, err
	}

	issued, err := c.otps.RequestFor(ctx, phone, otp.PurposePetAccess, accessSubject(pet.ID, clinic.ID))
	if err != nil {
		if errors.Is(err, otp.ErrRateLimited) {
			return RequestResult{}, ErrRateLimited
		}
		return RequestResult{}, err
	}

	msg := fmt.Sprintf("%s solicita acceso al historial clínico de %s. Código: %s (vence en %d minutos).",
		clinic.Name, pet.Name, issued.Code, issued.ExpiresInMinutes)
	if p := strings.TrimSpace(in.Purpose); p != "" {
		msg += " Motivo: " + p
	}
	if err := c.sender.Send(ctx, phone, msg); err != nil {
		logger.FromContext(ctx).Warn("clinic access otp delivery failed", map[string]any{
			"err":       err,
			"pet_id":    pet.ID,
			"clinic_id": clinic.ID,
			"otp_id":    issued.OTP.ID,
		})
	}

	logger.FromContext(ctx).Info("clinic access requested", map[string]any{
		"pet_id":       pet.ID,
		"clinic_id":    clinic.ID,
		"requester_id": requester,
		"otp_id":       issued.OTP.ID,
	})

	return RequestResult{
		OTPID:            issued.OTP.ID,
		PetID:            pet.ID,
		ClinicID:         clinic.ID,
		ExpiresInMinutes: issued.ExpiresInMinutes,
		ExpiresAt:        issued.OTP.ExpiresAt,
	}, nil
}

type GrantInput struct {
	PetID         string
	ClinicID      string
	OTPCode       string
	DoctorID      string
	DurationHours int // 0 = default
	GranterID     string
	Purpose       string
}

// GrantAccess: el dueño confirma con el código recibido y se crea el grant activo.
// El OTP se consume en la misma operación atómica que inserta el grant.
func (c *Coordinator) GrantAccess(ctx context.Context, in GrantInput) (accessgrants.Grant, error) {
	hours := in.DurationHours
	if hours == 0 {
		hours = c.defaultHours
	}
	if hours < accessgrants.MinDurationHours || hours > accessgrants.MaxDurationHours {
		return accessgrants.Grant{}, fmt.Errorf("%w: duration_hours must be between %d and %d",
			ErrInvalidInput, accessgrants.MinDurationHours, accessgrants.MaxDurationHours)
	}
	granter := strings.TrimSpace(in.GranterID)
	if granter == "" || strings.TrimSpace(in.PetID) == "" || strings.TrimSpace(in.ClinicID) == "" {
		return accessgrants.Grant{}, ErrInvalidInput
	}

	pet, clinic, err := c.lookup(ctx, in.PetID, in.ClinicID)
	if err != nil {
		return accessgrants.Grant{}, err
	}

	// solo el dueño; la familia no otorga accesos
	if pet.OwnerUserID != granter {
		return accessgrants.Grant{}, ErrNotAuthorized
	}

	doctorID := strings.TrimSpace(in.DoctorID)
	if doctorID != "" {
		ok, err := c.clinics.DoctorBelongs(ctx, clinic.ID, doctorID)
		if err != nil {
			return accessgrants.Grant{}, err
		}
		if !ok {
			return accessgrants.Grant{}, fmt.Errorf("%w: doctor does not belong to clinic", ErrInvalidInput)
		}
	}

	phone, err := c.ownerPhone(ctx, pet.OwnerUserID)
	if err != nil {
		return accessgrants.Grant{}, err
	}

	o, err := c.otps.VerifyFor(ctx, phone, in.OTPCode, otp.PurposePetAccess, accessSubject(pet.ID, clinic.ID))
	if err != nil {
		if errors.Is(err, otp.ErrInvalidOTP) {
			return accessgrants.Grant{}, ErrInvalidOTP
		}
		return accessgrants.Grant{}, err
	}

	g, err := c.grants.Create(ctx, accessgrants.CreateInput{
		PetID:         pet.ID,
		ClinicID:      clinic.ID,
		DoctorID:      doctorID,
		OwnerUserID:   pet.OwnerUserID,
		DurationHours: hours,
		OTPID:         o.ID,
		Purpose:       in.Purpose,
	})
	if err != nil {
		switch {
		case errors.Is(err, accessgrants.ErrOTPUnavailable):
			// otro canje concurrente ganó
			return accessgrants.Grant{}, ErrInvalidOTP
		case errors.Is(err, accessgrants.ErrInvalidInput):
			return accessgrants.Grant{}, ErrInvalidInput
		default:
			return accessgrants.Grant{}, err
		}
	}

	logger.FromContext(ctx).Info("clinic access granted", map[string]any{
		"grant_id":   g.ID,
		"pet_id":     g.PetID,
		"clinic_id":  g.ClinicID,
		"expires_at": g.ExpiresAt,
	})
	c.notifyOwner(ctx, g.OwnerUserID, fmt.Sprintf(
		"Otorgaste a %s acceso al historial clínico de %s hasta el %s.",
		clinic.Name, pet.Name, g.ExpiresAt.UTC().Format("02/01/2006 15:04 UTC")))
	return g, nil
}

// RevokeAccess: solo el dueño que otorgó; idempotente sobre un grant ya revocado.
func (c *Coordinator) RevokeAccess(ctx context.Context, accessID, revokerID string) (accessgrants.Grant, error) {
	if strings.TrimSpace(accessID) == "" {
		return accessgrants.Grant{}, ErrNotFound
	}

	g, err := c.grants.Revoke(ctx, accessID, revokerID)
	if err != nil {
		switch {
		case errors.Is(err, accessgrants.ErrNotFound):
			return accessgrants.Grant{}, ErrNotFound
		case errors.Is(err, accessgrants.ErrForbidden), errors.Is(err, accessgrants.ErrInvalidInput):
			return accessgrants.Grant{}, ErrNotAuthorized
		default:
			return accessgrants.Grant{}, err
		}
	}

	logger.FromContext(ctx).Info("clinic access revoked", map[string]any{
		"grant_id":  g.ID,
		"pet_id":    g.PetID,
		"clinic_id": g.ClinicID,
	})
	c.notifyOwner(ctx, g.OwnerUserID, fmt.Sprintf(
		"Revocaste el acceso de la clínica %s al historial clínico de la mascota %s.", g.ClinicID, g.PetID))
	return g, nil
}

// accessSubject ata el OTP pet_access al par que lo pidió.
func accessSubject(petID, clinicID string) string {
	return "pet:" + petID + "/clinic:" + clinicID
}

// notifyOwner manda un aviso por e-mail; sin e-mail cargado no hace nada.
// Un fallo de entrega no deshace la operación.
func (c *Coordinator) notifyOwner(ctx context.Context, ownerUserID, msg string) {
	if c.emails == nil {
		return
	}
	email, err := c.emails.EmailOf(ctx, ownerUserID)
	if err != nil || strings.TrimSpace(email) == "" {
		return
	}
	if err := c.sender.Send(ctx, email, msg); err != nil {
		logger.FromContext(ctx).Warn("owner email notice failed", map[string]any{
			"err":     err,
			"user_id": ownerUserID,
		})
	}
}

func (c *Coordinator) lookup(ctx context.Context, petID, clinicID string) (pets.Pet, clinics.Clinic, error) {
	pet, err := c.pets.GetByID(ctx, strings.TrimSpace(petID))
	if err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return pets.Pet{}, clinics.Clinic{}, fmt.Errorf("%w: pet", ErrNotFound)
		}
		return pets.Pet{}, clinics.Clinic{}, err
	}

	clinic, err := c.clinics.Get(ctx, strings.TrimSpace(clinicID))
	if err != nil {
		if errors.Is(err, clinics.ErrNotFound) {
			return pets.Pet{}, clinics.Clinic{}, fmt.Errorf("%w: clinic", ErrNotFound)
		}
		return pets.Pet{}, clinics.Clinic{}, err
	}
	return pet, clinic, nil
}

func (c *Coordinator) ownerPhone(ctx context.Context, ownerUserID string) (string, error) {
	phone, err := c.phones.PhoneOf(ctx, ownerUserID)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return "", err
	}
	if strings.TrimSpace(phone) == "" {
		return "", fmt.Errorf("%w: pet owner has no phone number", ErrInvalidInput)
	}
	return phone, nil
}
