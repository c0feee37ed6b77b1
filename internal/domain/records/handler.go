package records

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-health-records/internal/domain/permissions"
	"pet-health-records/internal/middleware"
	"pet-health-records/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Authorizer es el evaluador de permisos visto desde records.
type Authorizer interface {
	Check(ctx context.Context, userID, petID string, res permissions.Resource, act permissions.Action) (permissions.Decision, error)
}

func RegisterRoutes(r chi.Router, svc *Service, authz Authorizer) {
	r.Route("/pets/{petID}/records", func(rr chi.Router) {
		rr.Post("/", createRecordHandler(svc, authz))
		rr.Get("/", listRecordsHandler(svc, authz))
		rr.Get("/{recordID}", getRecordHandler(svc, authz))

		// Anular (void): clinical:write
		rr.Post("/{recordID}/void", voidRecordHandler(svc, authz))
	})
}

// createRecordRequest es el cuerpo para registrar un registro clínico.
type createRecordRequest struct {
	Type       RecordType `json:"type" enums:"allergy,vaccination,prescription,lab_test,medical_record,note"`
	OccurredAt string     `json:"occurred_at"` // RFC3339
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	Details    Details    `json:"details"`
}

// recordResponse representa un registro clínico devuelto por la API.
type recordResponse struct {
	ID         string     `json:"id"`
	PetID      string     `json:"pet_id"`
	Type       RecordType `json:"type"`
	OccurredAt time.Time  `json:"occurred_at"`
	RecordedAt time.Time  `json:"recorded_at"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	ActorType  ActorType  `json:"actor_type"`
	ActorID    string     `json:"actor_id"`
	ClinicID   string     `json:"clinic_id,omitempty"`
	DoctorID   string     `json:"doctor_id,omitempty"`
	Details    Details    `json:"details"`
	Status     Status     `json:"status"`
	VoidedAt   *time.Time `json:"voided_at,omitempty"`
}

// createRecordHandler godoc
// @Summary Crear registro clínico
// @Description Requiere clinical:write: dueño, familiar con acceso full o clínica con acceso activo. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>`.
// @Tags records
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param payload body createRecordRequest true "occurred_at en RFC3339; details según type"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/records [post]
func createRecordHandler(svc *Service, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		d, ok := authorize(w, r, authz, claims.UserID, petID, permissions.ActionWrite)
		if !ok {
			return
		}

		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			http.Error(w, "occurred_at must be RFC3339", http.StatusBadRequest)
			return
		}

		rec, err := svc.Create(r.Context(), petID, actorFrom(claims.UserID, d), CreateInput{
			Type:       req.Type,
			OccurredAt: t,
			Title:      req.Title,
			Notes:      req.Notes,
			Details:    req.Details,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

// listRecordsHandler godoc
// @Summary Listar historial clínico de una mascota
// @Description Requiere clinical:read. Filtros por tipos, rango de fechas y texto.
// @Tags records
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Máximo de registros (1-200). Por defecto 50"
// @Param types query string false "CSV de tipos (ej: vaccination,allergy)"
// @Param from query string false "occurred_at mínimo (RFC3339)"
// @Param to query string false "occurred_at máximo (RFC3339)"
// @Param q query string false "Texto libre en título/notas"
// @Param include_voided query bool false "Incluir anulados"
// @Success 200 {array} recordResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/records [get]
func listRecordsHandler(svc *Service, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		if _, ok := authorize(w, r, authz, claims.UserID, petID, permissions.ActionRead); !ok {
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPet(r.Context(), petID, filter)
		if err != nil {
			writeError(w, r, err)
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func getRecordHandler(svc *Service, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		if _, ok := authorize(w, r, authz, claims.UserID, petID, permissions.ActionRead); !ok {
			return
		}

		rec, err := svc.Get(r.Context(), petID, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

// voidRecordHandler godoc
// @Summary Anular (void) un registro
// @Description Requiere clinical:write. Una clínica solo anula registros cargados por ella.
// @Tags records
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param petID path string true "ID de la mascota"
// @Param recordID path string true "ID del registro"
// @Success 200 {object} recordResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "record not found"
// @Router /pets/{petID}/records/{recordID}/void [post]
func voidRecordHandler(svc *Service, authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")

		// Permisos primero, para no filtrar si existe el registro
		d, ok := authorize(w, r, authz, claims.UserID, petID, permissions.ActionWrite)
		if !ok {
			return
		}

		updated, err := svc.Void(r.Context(), petID, chi.URLParam(r, "recordID"), actorFrom(claims.UserID, d))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toRecordResponse(updated))
	}
}

// authorize chequea clinical:<act>; escribe 404/403/500 y devuelve false si no corresponde seguir.
func authorize(w http.ResponseWriter, r *http.Request, authz Authorizer, userID, petID string, act permissions.Action) (permissions.Decision, bool) {
	d, err := authz.Check(r.Context(), userID, petID, permissions.ResourceClinical, act)
	if err != nil {
		if errors.Is(err, permissions.ErrPetNotFound) {
			http.Error(w, "pet not found", http.StatusNotFound)
			return permissions.Decision{}, false
		}
		logger.FromContext(r.Context()).Error("permission check failed", map[string]any{"err": err, "pet_id": petID})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return permissions.Decision{}, false
	}
	if !d.Allowed {
		http.Error(w, "forbidden", http.StatusForbidden)
		return d, false
	}
	return d, true
}

func actorFrom(userID string, d permissions.Decision) Actor {
	switch d.Actor {
	case permissions.ActorClinic:
		return Actor{Type: ActorClinic, UserID: userID, ClinicID: d.ClinicID, DoctorID: d.DoctorID}
	case permissions.ActorFamilyFull, permissions.ActorFamilyReadOnly:
		return Actor{Type: ActorFamily, UserID: userID}
	default:
		return Actor{Type: ActorOwner, UserID: userID}
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	limit := DefaultListLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= MaxListLimit {
			limit = n
		}
	}

	filter := ListFilter{Limit: limit}

	// types=vaccination,allergy
	if v := strings.TrimSpace(q.Get("types")); v != "" {
		parts := strings.Split(v, ",")
		out := make([]RecordType, 0, len(parts))
		for _, p := range parts {
			t := RecordType(strings.TrimSpace(p))
			if t == "" {
				continue
			}
			if !t.Valid() {
				return ListFilter{}, errors.New("unknown record type: " + string(t))
			}
			out = append(out, t)
		}
		if len(out) > 0 {
			filter.Types = out
		}
	}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}

	filter.Query = strings.TrimSpace(q.Get("q"))
	filter.IncludeVoided = q.Get("include_voided") == "true"

	return filter, nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "record not found", http.StatusNotFound)
	default:
		logger.FromContext(r.Context()).Error("records request failed", map[string]any{"err": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRecordResponse(rec Record) recordResponse {
	return recordResponse{
		ID:         rec.ID,
		PetID:      rec.PetID,
		Type:       rec.Type,
		OccurredAt: rec.OccurredAt,
		RecordedAt: rec.RecordedAt,
		Title:      rec.Title,
		Notes:      rec.Notes,
		ActorType:  rec.Actor.Type,
		ActorID:    rec.Actor.UserID,
		ClinicID:   rec.Actor.ClinicID,
		DoctorID:   rec.Actor.DoctorID,
		Details:    rec.Details,
		Status:     rec.Status,
		VoidedAt:   rec.VoidedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
