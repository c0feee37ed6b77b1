package pets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-health-records/internal/domain/permissions"
	"pet-health-records/internal/middleware"
	"pet-health-records/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Authorizer es el evaluador de permisos visto desde pets.
type Authorizer interface {
	Check(ctx context.Context, userID, petID string, res permissions.Resource, act permissions.Action) (permissions.Decision, error)
}

// SharedOwners devuelve los dueños que comparten sus mascotas con un usuario (familia).
type SharedOwners interface {
	OwnersSharingWith(ctx context.Context, userID string) ([]string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, authz Authorizer, shared SharedOwners) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		// Perfil: profile:read / profile:write
		pr.Get("/{petID}", getPetHandler(svc, authz))
		pr.Patch("/{petID}", updatePetHandler(svc, authz))
	})

	// Mascotas que me comparte mi familia
	r.Get("/me/pets/shared", listMySharedPetsHandler(svc, authz, shared))
}

type createPetRequest struct {
	Name      string   `json:"name"`
	Species   string   `json:"species"`
	Breed     string   `json:"breed"`
	Sex       string   `json:"sex"`
	BirthDate string   `json:"birth_date"` // YYYY-MM-DD opcional
	Microchip string   `json:"microchip"`
	WeightKg  *float64 `json:"weight_kg"`
	Notes     string   `json:"notes"`
}

type petResponse struct {
	ID          string     `json:"id"`
	OwnerUserID string     `json:"owner_user_id"`
	Name        string     `json:"name"`
	Species     Species    `json:"species"`
	Breed       string     `json:"breed"`
	Sex         Sex        `json:"sex"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Microchip   string     `json:"microchip,omitempty"`
	WeightKg    *float64   `json:"weight_kg,omitempty"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type updatePetRequest struct {
	Name      *string  `json:"name"`
	Species   *string  `json:"species"`
	Breed     *string  `json:"breed"`
	Sex       *string  `json:"sex"`
	Microchip *string  `json:"microchip"`
	WeightKg  *float64 `json:"weight_kg"`
	Notes     *string  `json:"notes"`
	// birth_date se lee aparte para distinguir null de ausente
}

type sharedPetResponse struct {
	Pet          petResponse              `json:"pet"`
	Access       permissions.Actor        `json:"access"`
	Capabilities []permissions.Capability `json:"capabilities"`
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Description El usuario autenticado queda como dueño.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param payload body createPetRequest true "Mascota"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse("2006-01-02", req.BirthDate)
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: bd,
			Microchip: req.Microchip,
			WeightKg:  req.WeightKg,
			Notes:     req.Notes,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			logger.FromContext(r.Context()).Error("create pet failed", map[string]any{"err": err})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	// Solo las propias (las compartidas van por /me/pets/shared)
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			logger.FromContext(r.Context()).Error("list pets failed", map[string]any{"err": err})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Ver perfil de mascota
// @Description Dueño o familiar (profile:read). Las clínicas no ven el perfil.
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param petID path string true "Pet ID"
// @Success 200 {object} petResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		if !authorize(w, r, authz, claims.UserID, petID, permissions.ActionRead) {
			return
		}

		p, err := svc.GetByID(r.Context(), petID)
		if err != nil {
			writeLookupError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Editar perfil de mascota
// @Description PATCH: campos ausentes no se tocan; birth_date null limpia la fecha. Requiere profile:write.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param petID path string true "Pet ID"
// @Param payload body updatePetRequest true "Campos a modificar"
// @Success 200 {object} petResponse
// @Failure 400 {string} string "invalid input"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		if !authorize(w, r, authz, claims.UserID, petID, permissions.ActionWrite) {
			return
		}

		// Primero a map para detectar presencia de birth_date
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updatePetRequest
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var bd PatchBirthDate
		if v, exists := raw["birth_date"]; exists {
			bd.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "birth_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				t, err := time.Parse("2006-01-02", s)
				if err != nil {
					http.Error(w, "birth_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				bd.Value = &t
			}
		}

		updated, err := svc.UpdateProfile(r.Context(), petID, UpdateProfileInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: bd,
			Microchip: req.Microchip,
			WeightKg:  req.WeightKg,
			Notes:     req.Notes,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeLookupError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

func listMySharedPetsHandler(svc *Service, authz Authorizer, shared SharedOwners) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		owners, err := shared.OwnersSharingWith(r.Context(), claims.UserID)
		if err != nil {
			logger.FromContext(r.Context()).Error("shared owners lookup failed", map[string]any{"err": err})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		items, err := svc.ListByOwners(r.Context(), owners)
		if err != nil {
			logger.FromContext(r.Context()).Error("list shared pets failed", map[string]any{"err": err})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]sharedPetResponse, 0, len(items))
		for _, p := range items {
			d, err := authz.Check(r.Context(), claims.UserID, p.ID, permissions.ResourceProfile, permissions.ActionRead)
			if err != nil || !d.Allowed {
				continue
			}
			out = append(out, sharedPetResponse{
				Pet:          toPetResponse(p),
				Access:       d.Actor,
				Capabilities: permissions.CapabilitiesOf(d.Actor),
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// authorize chequea profile:<act> y escribe 404/403/500 si corresponde.
func authorize(w http.ResponseWriter, r *http.Request, authz Authorizer, userID, petID string, act permissions.Action) bool {
	d, err := authz.Check(r.Context(), userID, petID, permissions.ResourceProfile, act)
	if err != nil {
		writeLookupError(w, r, err)
		return false
	}
	if !d.Allowed {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "pet not found", http.StatusNotFound)
		return
	}
	logger.FromContext(r.Context()).Error("pet lookup failed", map[string]any{"err": err})
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:          p.ID,
		OwnerUserID: p.OwnerUserID,
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		Sex:         p.Sex,
		BirthDate:   p.BirthDate,
		Microchip:   p.Microchip,
		WeightKg:    p.WeightKg,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// writeJSON está duplicado en cada módulo a propósito; si se repite en más lugares, extraer.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
