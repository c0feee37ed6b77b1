package users

import "time"

// User es el perfil mínimo de una persona: dueño, familiar o personal de clínica.
// Phone es el canal de contacto para OTPs.
type User struct {
	ID    string
	Name  string
	Email string
	Phone string

	CreatedAt time.Time
	UpdatedAt time.Time
}
