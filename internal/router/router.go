package router

import (
	"database/sql"
	"net/http"
	"time"

	_ "pet-health-records/docs"

	"pet-health-records/internal/adapters/notify"
	mem "pet-health-records/internal/adapters/storage/memory"
	pg "pet-health-records/internal/adapters/storage/postgres"
	"pet-health-records/internal/domain/accessgrants"
	"pet-health-records/internal/domain/clinicaccess"
	"pet-health-records/internal/domain/clinics"
	"pet-health-records/internal/domain/families"
	"pet-health-records/internal/domain/otp"
	"pet-health-records/internal/domain/permissions"
	"pet-health-records/internal/domain/pets"
	"pet-health-records/internal/domain/records"
	"pet-health-records/internal/domain/sessions"
	"pet-health-records/internal/domain/users"
	"pet-health-records/internal/middleware"
	"pet-health-records/internal/platform/logger"
	"pet-health-records/internal/platform/metrics"
	"pet-health-records/internal/ports/auth"
	notifyport "pet-health-records/internal/ports/notify"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger logger.Logger
	Sender notifyport.Sender // nil = solo log

	OTPTTL      time.Duration
	OTPHashCost int
	OTPLimiter  otp.RateLimiter

	DefaultGrantHours int

	// Tokens habilita /auth/otp/*. Sin emisor de tokens no hay login por OTP;
	// la verificación de teléfono (/users/me/phone) se monta siempre.
	Tokens sessions.TokenIssuer
}

// Services expone los servicios armados (los usa cmd/api para tareas de mantenimiento).
type Services struct {
	OTP    *otp.Service
	Grants *accessgrants.Service
}

func NewRouter(opts Options) http.Handler {
	h, _ := Build(opts)
	return h
}

// Build arma repos, servicios y rutas.
func Build(opts Options) (http.Handler, Services) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	sender := opts.Sender
	if sender == nil {
		sender = notify.NewLog(log)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		userRepo    users.Repository
		petRepo     pets.Repository
		familyRepo  families.Repository
		clinicRepo  clinics.Repository
		otpRepo     otp.Repository
		grantsRepo  accessgrants.Repository
		recordsRepo records.Repository
	)

	if db := opts.DB; db != nil {
		x := pg.Wrap(db)
		userRepo = pg.NewUsersRepo(x)
		petRepo = pg.NewPetsRepo(db)
		familyRepo = pg.NewFamiliesRepo(x)
		clinicRepo = pg.NewClinicsRepo(x)
		otpRepo = pg.NewOTPRepo(x)
		grantsRepo = pg.NewAccessGrantsRepo(db)
		recordsRepo = pg.NewRecordsRepo(db)
	} else {
		otps := mem.NewOTPRepo()
		userRepo = mem.NewUserRepo()
		petRepo = mem.NewPetRepo()
		familyRepo = mem.NewFamilyRepo()
		clinicRepo = mem.NewClinicRepo()
		otpRepo = otps
		grantsRepo = mem.NewAccessGrantsRepo(otps)
		recordsRepo = mem.NewRecordRepo()
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo)
	petsSvc := pets.NewService(petRepo)
	clinicsSvc := clinics.NewService(clinicRepo)
	otpSvc := otp.NewService(otpRepo, otp.Config{
		TTL:      opts.OTPTTL,
		HashCost: opts.OTPHashCost,
		Limiter:  opts.OTPLimiter,
	})
	grantsSvc := accessgrants.NewService(grantsRepo)
	familiesSvc := families.NewService(familyRepo, otpSvc, usersSvc, sender)
	recordsSvc := records.NewService(recordsRepo)

	evaluator := permissions.NewEvaluator(petsSvc, familiesSvc, clinicsSvc, grantsSvc)
	coord := clinicaccess.NewCoordinator(clinicaccess.Deps{
		Pets:              petsSvc,
		Clinics:           clinicsSvc,
		Phones:            usersSvc,
		Emails:            usersSvc,
		OTPs:              otpSvc,
		Grants:            grantsSvc,
		Sender:            sender,
		DefaultGrantHours: opts.DefaultGrantHours,
	})

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc)
	pets.RegisterRoutes(r, petsSvc, evaluator, familiesSvc)
	families.RegisterRoutes(r, familiesSvc)
	clinics.RegisterRoutes(r, clinicsSvc)
	accessgrants.RegisterRoutes(r, grantsSvc, petsSvc, clinicsSvc)
	clinicaccess.RegisterRoutes(r, coord)
	records.RegisterRoutes(r, recordsSvc, evaluator)

	sessionsSvc := sessions.NewService(otpSvc, usersSvc, opts.Tokens, sender)
	sessions.RegisterPhoneRoutes(r, sessionsSvc)
	if opts.Tokens != nil {
		sessions.RegisterRoutes(r, sessionsSvc)
	}

	return r, Services{OTP: otpSvc, Grants: grantsSvc}
}
