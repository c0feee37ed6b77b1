package clinics

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
	r.Route("/clinics", func(cr chi.Router) {
		cr.Post("/", createClinicHandler(svc))
		cr.Get("/{clinicID}", getClinicHandler(svc))
		cr.Post("/{clinicID}/doctors", addDoctorHandler(svc))
		cr.Get("/{clinicID}/doctors", listDoctorsHandler(svc))
	})
}

type createClinicRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type clinicResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	AdminUserID string    `json:"admin_user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type addDoctorRequest struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	License string `json:"license"`
}

type doctorResponse struct {
	ID        string    `json:"id"`
	ClinicID  string    `json:"clinic_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	License   string    `json:"license,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// createClinicHandler godoc
// @Summary Registrar clínica
// @Description El usuario autenticado queda como admin de la clínica.
// @Tags clinics
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param payload body createClinicRequest true "Clínica"
// @Success 201 {object} clinicResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Router /clinics [post]
func createClinicHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createClinicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.Create(r.Context(), claims.UserID, CreateClinicInput(req))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toClinicResponse(c))
	}
}

func getClinicHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		c, err := svc.Get(r.Context(), chi.URLParam(r, "clinicID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toClinicResponse(c))
	}
}

// addDoctorHandler godoc
// @Summary Alta de doctor en la clínica
// @Tags clinics
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param clinicID path string true "Clinic ID"
// @Param payload body addDoctorRequest true "Doctor"
// @Success 201 {object} doctorResponse
// @Failure 400 {string} string "invalid input"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "clinic not found"
// @Failure 409 {string} string "user is already a doctor of this clinic"
// @Router /clinics/{clinicID}/doctors [post]
func addDoctorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req addDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		d, err := svc.AddDoctor(r.Context(), chi.URLParam(r, "clinicID"), claims.UserID, AddDoctorInput(req))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDoctorResponse(d))
	}
}

func listDoctorsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListDoctors(r.Context(), chi.URLParam(r, "clinicID"), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		out := make([]doctorResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDoctorResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrDoctorExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.FromContext(r.Context()).Error("clinics request failed", map[string]any{"err": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toClinicResponse(c Clinic) clinicResponse {
	return clinicResponse{
		ID:          c.ID,
		Name:        c.Name,
		Address:     c.Address,
		Phone:       c.Phone,
		AdminUserID: c.AdminUserID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toDoctorResponse(d Doctor) doctorResponse {
	return doctorResponse{
		ID:        d.ID,
		ClinicID:  d.ClinicID,
		UserID:    d.UserID,
		Name:      d.Name,
		License:   d.License,
		CreatedAt: d.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
