package pets

import "context"

// OwnerOf expone el ownerUserID de una mascota.
// Es el puerto PetOwnerLookup de permissions/accessgrants (evita ciclos de imports).
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}
