package otp

import "time"

type Purpose string

const (
	PurposeLogin        Purpose = "login"
	PurposeFamilyInvite Purpose = "family_invite"
	PurposePetAccess    Purpose = "pet_access"
	PurposePhoneVerify  Purpose = "phone_verify"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeLogin, PurposeFamilyInvite, PurposePetAccess, PurposePhoneVerify:
		return true
	default:
		return false
	}
}

const (
	CodeLength = 6
	DefaultTTL = 10 * time.Minute
)

// OTP es un código de un solo uso atado a (teléfono, propósito, subject).
// Subject acota el código a un recurso (p.ej. mascota + clínica); vacío = sin acotar.
// El código nunca se guarda en claro: CodeHash es bcrypt.
type OTP struct {
	ID        string
	Phone     string
	CodeHash  string
	Purpose   Purpose
	Subject   string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}

// Usable indica si el OTP todavía puede canjearse a now.
func (o OTP) Usable(now time.Time) bool {
	return !o.IsUsed && now.Before(o.ExpiresAt)
}

// Issued es lo que devuelve Request: el registro persistido y el código en claro
// (solo para entregarlo por SMS; nunca se devuelve por HTTP).
type Issued struct {
	OTP              OTP
	Code             string
	ExpiresInMinutes int
}
