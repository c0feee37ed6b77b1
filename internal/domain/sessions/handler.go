package sessions

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
	r.Route("/auth/otp", func(ar chi.Router) {
		ar.Post("/request", requestOTPHandler(svc))
		ar.Post("/verify", verifyOTPHandler(svc))
	})
}

// RegisterPhoneRoutes monta la verificación de teléfono del usuario autenticado.
// No depende del modo de auth: también corre con X-Debug-User-ID.
func RegisterPhoneRoutes(r chi.Router, svc *Service) {
	r.Route("/users/me/phone", func(pr chi.Router) {
		pr.Post("/", requestPhoneHandler(svc))
		pr.Post("/verify", verifyPhoneHandler(svc))
	})
}

type otpRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type otpRequestResponse struct {
	Message          string    `json:"message"`
	ExpiresInMinutes int       `json:"expires_in_minutes"`
	ExpiresAt        time.Time `json:"expires_at"`
}

type verifyRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
}

type sessionResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	NewAccount  bool      `json:"new_account"`
}

// requestOTPHandler godoc
// @Summary Pedir código de ingreso
// @Description Envía un OTP (login) por SMS. La respuesta es la misma exista o no la cuenta.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body otpRequest true "Teléfono E.164"
// @Success 200 {object} otpRequestResponse
// @Failure 400 {string} string "invalid input"
// @Failure 429 {string} string "too many otp requests"
// @Router /auth/otp/request [post]
func requestOTPHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		ch, err := svc.RequestLogin(r.Context(), req.PhoneNumber)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, otpRequestResponse{
			Message:          "otp sent",
			ExpiresInMinutes: ch.ExpiresInMinutes,
			ExpiresAt:        ch.ExpiresAt,
		})
	}
}

// verifyOTPHandler godoc
// @Summary Canjear código de ingreso
// @Description Consume el OTP y devuelve un Bearer token (HS256).
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body verifyRequest true "Teléfono y código"
// @Success 200 {object} sessionResponse
// @Failure 400 {string} string "invalid or expired otp"
// @Router /auth/otp/verify [post]
func verifyOTPHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sess, err := svc.VerifyLogin(r.Context(), req.PhoneNumber, req.Code)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, sessionResponse{
			AccessToken: sess.Token,
			TokenType:   "Bearer",
			ExpiresAt:   sess.ExpiresAt,
			UserID:      sess.User.ID,
			NewAccount:  sess.Created,
		})
	}
}

type phoneResponse struct {
	UserID      string `json:"user_id"`
	PhoneNumber string `json:"phone_number"`
}

// requestPhoneHandler godoc
// @Summary Pedir código para verificar un teléfono
// @Description Envía un OTP (phone_verify) al número nuevo. El perfil no cambia hasta confirmar.
// @Tags users
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param payload body otpRequest true "Teléfono E.164"
// @Success 200 {object} otpRequestResponse
// @Failure 400 {string} string "invalid input"
// @Failure 409 {string} string "phone number already registered"
// @Failure 429 {string} string "too many otp requests"
// @Router /users/me/phone [post]
func requestPhoneHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req otpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		ch, err := svc.RequestPhoneChange(r.Context(), claims.UserID, req.PhoneNumber)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, otpRequestResponse{
			Message:          "otp sent",
			ExpiresInMinutes: ch.ExpiresInMinutes,
			ExpiresAt:        ch.ExpiresAt,
		})
	}
}

// verifyPhoneHandler godoc
// @Summary Confirmar teléfono con el código recibido
// @Tags users
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param payload body verifyRequest true "Teléfono y código"
// @Success 200 {object} phoneResponse
// @Failure 400 {string} string "invalid or expired otp"
// @Failure 409 {string} string "phone number already registered"
// @Router /users/me/phone/verify [post]
func verifyPhoneHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.ConfirmPhoneChange(r.Context(), claims.UserID, req.PhoneNumber, req.Code)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, phoneResponse{UserID: u.ID, PhoneNumber: u.Phone})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidOTP):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrPhoneTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrRateLimited):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	default:
		logger.FromContext(r.Context()).Error("auth request failed", map[string]any{"err": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
