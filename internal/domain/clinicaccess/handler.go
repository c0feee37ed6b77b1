package clinicaccess

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-health-records/internal/domain/accessgrants"
	"pet-health-records/internal/middleware"
	"pet-health-records/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registra rutas planas: GET /clinic-access/{grantID} vive en accessgrants.
func RegisterRoutes(r chi.Router, c *Coordinator) {
	r.Post("/clinic-access/request", requestAccessHandler(c))
	r.Post("/clinic-access/grant", grantAccessHandler(c))
	r.Post("/clinic-access/revoke", revokeAccessHandler(c))
}

type requestAccessRequest struct {
	PetID    string `json:"pet_id"`
	ClinicID string `json:"clinic_id"`
	Purpose  string `json:"purpose"`
}

type requestAccessResponse struct {
	OTPID            string    `json:"otp_id"`
	PetID            string    `json:"pet_id"`
	ClinicID         string    `json:"clinic_id"`
	ExpiresInMinutes int       `json:"expires_in_minutes"`
	ExpiresAt        time.Time `json:"expires_at"`
	Message          string    `json:"message"`
}

type grantAccessRequest struct {
	PetID         string `json:"pet_id"`
	ClinicID      string `json:"clinic_id"`
	OTPCode       string `json:"otp_code"`
	DoctorID      string `json:"doctor_id"`
	DurationHours int    `json:"duration_hours"` // 1..168, default 24
	Purpose       string `json:"purpose"`
}

type revokeAccessRequest struct {
	AccessID string `json:"access_id"`
}

// requestAccessHandler godoc
// @Summary Solicitar acceso clínico a una mascota
// @Description Un admin/doctor de la clínica pide acceso. Se envía un OTP (pet_access) al teléfono del dueño.
// @Tags clinic-access
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param payload body requestAccessRequest true "Solicitud"
// @Success 200 {object} requestAccessResponse
// @Failure 400 {string} string "invalid input"
// @Failure 403 {string} string "not authorized"
// @Failure 404 {string} string "not found"
// @Failure 429 {string} string "too many otp requests"
// @Router /clinic-access/request [post]
func requestAccessHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req requestAccessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		res, err := c.RequestAccess(r.Context(), RequestInput{
			PetID:       req.PetID,
			ClinicID:    req.ClinicID,
			RequesterID: claims.UserID,
			Purpose:     req.Purpose,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, requestAccessResponse{
			OTPID:            res.OTPID,
			PetID:            res.PetID,
			ClinicID:         res.ClinicID,
			ExpiresInMinutes: res.ExpiresInMinutes,
			ExpiresAt:        res.ExpiresAt,
			Message:          "otp sent to pet owner",
		})
	}
}

// grantAccessHandler godoc
// @Summary Otorgar acceso a la clínica con el código OTP
// @Description Solo el dueño de la mascota. Crea un acceso activo por duration_hours (1..168, default 24).
// @Tags clinic-access
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param payload body grantAccessRequest true "Confirmación"
// @Success 201 {object} accessgrants.GrantResponse
// @Failure 400 {string} string "invalid or expired otp"
// @Failure 403 {string} string "not authorized"
// @Failure 404 {string} string "not found"
// @Router /clinic-access/grant [post]
func grantAccessHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req grantAccessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := c.GrantAccess(r.Context(), GrantInput{
			PetID:         req.PetID,
			ClinicID:      req.ClinicID,
			OTPCode:       req.OTPCode,
			DoctorID:      req.DoctorID,
			DurationHours: req.DurationHours,
			GranterID:     claims.UserID,
			Purpose:       req.Purpose,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, accessgrants.ToResponse(g, time.Now()))
	}
}

// revokeAccessHandler godoc
// @Summary Revocar acceso de una clínica
// @Description Solo el dueño que otorgó el acceso. Revocar dos veces no es error.
// @Tags clinic-access
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param payload body revokeAccessRequest true "Acceso a revocar"
// @Success 200 {object} accessgrants.GrantResponse
// @Failure 403 {string} string "not authorized"
// @Failure 404 {string} string "not found"
// @Router /clinic-access/revoke [post]
func revokeAccessHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req revokeAccessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := c.RevokeAccess(r.Context(), req.AccessID, claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, accessgrants.ToResponse(g, time.Now()))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidOTP):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotAuthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrRateLimited):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	default:
		logger.FromContext(r.Context()).Error("clinic access request failed", map[string]any{"err": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
