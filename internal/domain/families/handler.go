package families

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-health-records/internal/middleware"
	"pet-health-records/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/families", func(fr chi.Router) {
		fr.Post("/", createFamilyHandler(svc))
		fr.Get("/me", getMyFamilyHandler(svc))

		fr.Route("/{familyID}", func(one chi.Router) {
			one.Post("/invitations", inviteHandler(svc))
			one.Post("/join", joinHandler(svc))
			one.Get("/members", listMembersHandler(svc))
			one.Patch("/members/{memberID}", updateMemberHandler(svc))
			one.Delete("/members/{memberID}", removeMemberHandler(svc))
		})
	})
}

type createFamilyRequest struct {
	Name string `json:"name"`
}

type familyResponse struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type inviteRequest struct {
	PhoneNumber string      `json:"phone_number"`
	AccessLevel AccessLevel `json:"access_level"` // full|read_only (default read_only)
}

type joinRequest struct {
	Code string `json:"code"`
}

type updateMemberRequest struct {
	AccessLevel AccessLevel `json:"access_level"`
}

type memberResponse struct {
	ID          string       `json:"id"`
	FamilyID    string       `json:"family_id"`
	UserID      string       `json:"user_id,omitempty"`
	PhoneNumber string       `json:"phone_number"`
	AccessLevel AccessLevel  `json:"access_level"`
	Status      MemberStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	JoinedAt    *time.Time   `json:"joined_at,omitempty"`
}

// createFamilyHandler godoc
// @Summary Crear mi familia
// @Tags families
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param payload body createFamilyRequest true "Familia"
// @Success 201 {object} familyResponse
// @Failure 400 {string} string "invalid input"
// @Failure 409 {string} string "family already exists"
// @Router /families [post]
func createFamilyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createFamilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		f, err := svc.Create(r.Context(), claims.UserID, req.Name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toFamilyResponse(f))
	}
}

func getMyFamilyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		f, err := svc.GetByOwner(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toFamilyResponse(f))
	}
}

// inviteHandler godoc
// @Summary Invitar a un familiar por teléfono
// @Description Crea la invitación y envía por SMS un OTP family_invite al teléfono invitado.
// @Tags families
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param familyID path string true "Family ID"
// @Param payload body inviteRequest true "Invitación"
// @Success 201 {object} memberResponse
// @Failure 400 {string} string "invalid input"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "family not found"
// @Failure 409 {string} string "phone already belongs to an active member"
// @Failure 429 {string} string "too many otp requests"
// @Router /families/{familyID}/invitations [post]
func inviteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req inviteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.Invite(r.Context(), chi.URLParam(r, "familyID"), claims.UserID, InviteInput{
			Phone:       req.PhoneNumber,
			AccessLevel: req.AccessLevel,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMemberResponse(m))
	}
}

// joinHandler godoc
// @Summary Unirme a una familia con el código recibido
// @Tags families
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param familyID path string true "Family ID"
// @Param payload body joinRequest true "Código OTP"
// @Success 200 {object} memberResponse
// @Failure 400 {string} string "invalid or expired otp"
// @Failure 404 {string} string "family not found"
// @Router /families/{familyID}/join [post]
func joinHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req joinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.Join(r.Context(), chi.URLParam(r, "familyID"), claims.UserID, req.Code)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toMemberResponse(m))
	}
}

func listMembersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListMembers(r.Context(), chi.URLParam(r, "familyID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		out := make([]memberResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMemberResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.UpdateAccessLevel(r.Context(), chi.URLParam(r, "familyID"), claims.UserID, chi.URLParam(r, "memberID"), req.AccessLevel)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toMemberResponse(m))
	}
}

func removeMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m, err := svc.RemoveMember(r.Context(), chi.URLParam(r, "familyID"), claims.UserID, chi.URLParam(r, "memberID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toMemberResponse(m))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidOTP), errors.Is(err, ErrPhoneRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrAlreadyMember):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrRateLimited):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	default:
		logger.FromContext(r.Context()).Error("families request failed", map[string]any{"err": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toFamilyResponse(f Family) familyResponse {
	return familyResponse{
		ID:          f.ID,
		OwnerUserID: f.OwnerUserID,
		Name:        f.Name,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func toMemberResponse(m Member) memberResponse {
	return memberResponse{
		ID:          m.ID,
		FamilyID:    m.FamilyID,
		UserID:      m.UserID,
		PhoneNumber: m.Phone,
		AccessLevel: m.AccessLevel,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		JoinedAt:    m.JoinedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
