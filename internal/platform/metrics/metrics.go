package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OTPIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pethealth",
		Name:      "otp_issued_total",
		Help:      "OTPs emitidos por propósito.",
	}, []string{"purpose"})

	OTPRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pethealth",
		Name:      "otp_rejected_total",
		Help:      "Validaciones de OTP fallidas por propósito.",
	}, []string{"purpose"})

	GrantsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pethealth",
		Name:      "clinic_access_grants_created_total",
		Help:      "Accesos de clínica otorgados.",
	})

	GrantsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pethealth",
		Name:      "clinic_access_grants_revoked_total",
		Help:      "Accesos de clínica revocados.",
	})

	PermissionDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pethealth",
		Name:      "permission_denied_total",
		Help:      "Chequeos de permiso denegados por recurso.",
	}, []string{"resource"})
)

// Handler expone /metrics para Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}
