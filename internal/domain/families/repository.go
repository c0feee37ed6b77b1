package families

import "context"

type Repository interface {
	CreateFamily(ctx context.Context, f Family) error
	GetFamily(ctx context.Context, id string) (Family, error)
	GetFamilyByOwner(ctx context.Context, ownerUserID string) (Family, error)

	CreateMember(ctx context.Context, m Member) error
	UpdateMember(ctx context.Context, m Member) error
	GetMember(ctx context.Context, id string) (Member, error)
	ListMembers(ctx context.Context, familyID string) ([]Member, error)

	// ListMembershipsByUser devuelve los miembros (de cualquier familia) asociados a userID.
	ListMembershipsByUser(ctx context.Context, userID string) ([]Member, error)
}
