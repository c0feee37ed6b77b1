package permissions

import "fmt"

type Resource string

const (
	ResourceProfile  Resource = "profile"
	ResourceClinical Resource = "clinical"
)

type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// Capability = "<resource>:<action>", p.ej. "clinical:write".
type Capability string

func CapabilityFor(res Resource, act Action) Capability {
	return Capability(fmt.Sprintf("%s:%s", res, act))
}

var (
	ProfileRead   = CapabilityFor(ResourceProfile, ActionRead)
	ProfileWrite  = CapabilityFor(ResourceProfile, ActionWrite)
	ClinicalRead  = CapabilityFor(ResourceClinical, ActionRead)
	ClinicalWrite = CapabilityFor(ResourceClinical, ActionWrite)
)

// Actor es el rol con el que un usuario accede a una mascota puntual.
type Actor string

const (
	ActorOwner          Actor = "owner"
	ActorFamilyFull     Actor = "family_full"
	ActorFamilyReadOnly Actor = "family_read_only"
	ActorClinic         Actor = "clinic"
	ActorNone           Actor = "none"
)

// capabilities por actor. La clínica no ve ni edita el perfil: solo lo clínico.
var capabilities = map[Actor][]Capability{
	ActorOwner:          {ProfileRead, ProfileWrite, ClinicalRead, ClinicalWrite},
	ActorFamilyFull:     {ProfileRead, ProfileWrite, ClinicalRead, ClinicalWrite},
	ActorFamilyReadOnly: {ProfileRead, ClinicalRead},
	ActorClinic:         {ClinicalRead, ClinicalWrite},
}

// CapabilitiesOf devuelve una copia del set de capacidades del actor.
func CapabilitiesOf(a Actor) []Capability {
	caps := capabilities[a]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

func Has(a Actor, c Capability) bool {
	for _, x := range capabilities[a] {
		if x == c {
			return true
		}
	}
	return false
}

// Decision es el resultado de evaluar (usuario, mascota, capacidad).
// Si el acceso llega por un grant de clínica, ClinicID/GrantID lo identifican.
type Decision struct {
	Allowed bool
	Actor   Actor

	ClinicID string
	DoctorID string
	GrantID  string
}
