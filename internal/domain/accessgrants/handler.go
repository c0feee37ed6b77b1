package accessgrants

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-health-records/internal/middleware"
	"pet-health-records/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
// Si la mascota no existe el error debe matchear ErrPetNotFound.
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

// ClinicMembership responde si un usuario es admin o doctor de una clínica.
type ClinicMembership interface {
	IsAffiliated(ctx context.Context, userID, clinicID string) (bool, error)
}

func RegisterRoutes(r chi.Router, svc *Service, petOwners PetOwnerLookup, clinics ClinicMembership) {
	// Dueño: historial de accesos otorgados a clínicas
	r.Get("/pets/{petID}/clinic-access", listByPetHandler(svc, petOwners))

	// Clínica: accesos vigentes/históricos que recibió
	r.Get("/clinics/{clinicID}/access", listByClinicHandler(svc, clinics))

	r.Get("/clinic-access/{grantID}", getGrantHandler(svc, clinics))
}

// GrantResponse es la vista pública de un acceso de clínica.
type GrantResponse struct {
	ID          string     `json:"id"`
	PetID       string     `json:"pet_id"`
	ClinicID    string     `json:"clinic_id"`
	DoctorID    string     `json:"doctor_id,omitempty"`
	OwnerUserID string     `json:"owner_user_id"`
	Purpose     string     `json:"purpose,omitempty"`
	Status      Status     `json:"status"`
	GrantedAt   time.Time  `json:"granted_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// ToResponse expone la vista JSON del grant con el estado efectivo a now.
func ToResponse(g Grant, now time.Time) GrantResponse {
	return toGrantResponse(g, now)
}

// listByPetHandler godoc
// @Summary Listar accesos de clínicas a una mascota
// @Description Solo el dueño. El status es el efectivo (un grant vencido se informa como expired).
// @Tags clinic-access
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param petID path string true "Pet ID"
// @Success 200 {array} GrantResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/clinic-access [get]
func listByPetHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")

		ownerID, err := petOwners.OwnerOf(r.Context(), petID)
		if err != nil && !errors.Is(err, ErrPetNotFound) {
			logger.FromContext(r.Context()).Error("pet owner lookup failed", map[string]any{"err": err, "pet_id": petID})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if err != nil || strings.TrimSpace(ownerID) == "" {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		if ownerID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByPet(r.Context(), petID)
		if err != nil {
			logger.FromContext(r.Context()).Error("list grants by pet failed", map[string]any{"err": err, "pet_id": petID})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponses(items, svc.Now()))
	}
}

// listByClinicHandler godoc
// @Summary Listar accesos recibidos por una clínica
// @Tags clinic-access
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param clinicID path string true "Clinic ID"
// @Param status query string false "Filtrar por estado efectivo (active|expired|revoked)"
// @Success 200 {array} GrantResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /clinics/{clinicID}/access [get]
func listByClinicHandler(svc *Service, clinics ClinicMembership) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		clinicID := chi.URLParam(r, "clinicID")

		affiliated, err := clinics.IsAffiliated(r.Context(), claims.UserID, clinicID)
		if err != nil {
			logger.FromContext(r.Context()).Error("clinic affiliation lookup failed", map[string]any{"err": err})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !affiliated {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByClinic(r.Context(), clinicID)
		if err != nil {
			logger.FromContext(r.Context()).Error("list grants by clinic failed", map[string]any{"err": err, "clinic_id": clinicID})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := svc.Now()
		if f := Status(strings.TrimSpace(r.URL.Query().Get("status"))); f != "" {
			filtered := make([]Grant, 0, len(items))
			for _, g := range items {
				if EffectiveStatus(g, now) == f {
					filtered = append(filtered, g)
				}
			}
			items = filtered
		}

		writeJSON(w, http.StatusOK, toGrantResponses(items, now))
	}
}

func getGrantHandler(svc *Service, clinics ClinicMembership) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		g, err := svc.GetByID(r.Context(), chi.URLParam(r, "grantID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
				http.Error(w, "access grant not found", http.StatusNotFound)
				return
			}
			logger.FromContext(r.Context()).Error("get grant failed", map[string]any{"err": err})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if g.OwnerUserID != claims.UserID {
			affiliated, err := clinics.IsAffiliated(r.Context(), claims.UserID, g.ClinicID)
			if err != nil {
				logger.FromContext(r.Context()).Error("clinic affiliation lookup failed", map[string]any{"err": err})
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if !affiliated {
				// no filtramos existencia
				http.Error(w, "access grant not found", http.StatusNotFound)
				return
			}
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g, svc.Now()))
	}
}

func toGrantResponse(g Grant, now time.Time) GrantResponse {
	return GrantResponse{
		ID:          g.ID,
		PetID:       g.PetID,
		ClinicID:    g.ClinicID,
		DoctorID:    g.DoctorID,
		OwnerUserID: g.OwnerUserID,
		Purpose:     g.Purpose,
		Status:      EffectiveStatus(g, now),
		GrantedAt:   g.GrantedAt,
		ExpiresAt:   g.ExpiresAt,
		UpdatedAt:   g.UpdatedAt,
		RevokedAt:   g.RevokedAt,
	}
}

func toGrantResponses(items []Grant, now time.Time) []GrantResponse {
	out := make([]GrantResponse, 0, len(items))
	for _, g := range items {
		out = append(out, toGrantResponse(g, now))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
