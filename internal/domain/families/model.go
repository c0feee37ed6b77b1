package families

import "time"

type AccessLevel string

const (
	AccessFull     AccessLevel = "full"
	AccessReadOnly AccessLevel = "read_only"
)

func (a AccessLevel) Valid() bool {
	return a == AccessFull || a == AccessReadOnly
}

type MemberStatus string

const (
	MemberInvited MemberStatus = "invited"
	MemberActive  MemberStatus = "active"
	MemberRemoved MemberStatus = "removed"
)

// Family agrupa a las personas con las que un dueño comparte todas sus mascotas.
// Un dueño tiene a lo sumo una familia.
type Family struct {
	ID          string
	OwnerUserID string
	Name        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member se crea al invitar (por teléfono) y se activa cuando el invitado canjea el OTP.
type Member struct {
	ID          string
	FamilyID    string
	UserID      string // vacío mientras está invited
	Phone       string
	AccessLevel AccessLevel
	Status      MemberStatus

	CreatedAt time.Time
	UpdatedAt time.Time
	JoinedAt  *time.Time
}
