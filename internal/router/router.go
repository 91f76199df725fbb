package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/physioflow/practice-api/internal/config"
	"github.com/physioflow/practice-api/internal/handler"
	appointmenthandler "github.com/physioflow/practice-api/internal/handler/appointment"
	audithandler "github.com/physioflow/practice-api/internal/handler/audit"
	authhandler "github.com/physioflow/practice-api/internal/handler/auth"
	patienthandler "github.com/physioflow/practice-api/internal/handler/patient"
	reporthandler "github.com/physioflow/practice-api/internal/handler/report"
	therapisthandler "github.com/physioflow/practice-api/internal/handler/therapist"
	transferhandler "github.com/physioflow/practice-api/internal/handler/transfer"
	"github.com/physioflow/practice-api/internal/middleware"
	"github.com/physioflow/practice-api/pkg/auth"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth        *authhandler.Handler
	Patient     *patienthandler.Handler
	Therapist   *therapisthandler.Handler
	Appointment *appointmenthandler.Handler
	Transfer    *transferhandler.Handler
	Report      *reporthandler.Handler
	Audit       *audithandler.Handler
}

// New builds the gin engine with the full middleware chain and all routes.
func New(cfg *config.Config, db *sqlx.DB, jwtSvc auth.JWTService, h Handlers) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.HTTPMetrics())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.RateLimiter(cfg.Server.RateLimitRPS*10, cfg.Server.RateLimitBurst*10))
	r.Use(middleware.ClientRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	r.Use(middleware.ErrorHandler())

	handler.NewHealthHandler(db).RegisterRoutes(r)

	v1 := r.Group("/api/v1")

	// Public routes.
	h.Auth.RegisterRoutes(v1.Group("/auth"))

	// Everything else requires a valid token.
	protected := v1.Group("")
	protected.Use(middleware.Auth(jwtSvc))
	{
		h.Patient.RegisterRoutes(protected)
		h.Appointment.RegisterRoutes(protected)
		h.Report.RegisterRoutes(protected)

		cached := protected.Group("")
		cached.Use(middleware.CacheControl(30))
		h.Therapist.RegisterRoutes(cached)

		// Transfers reassign a caseload; admin only, like the audit trail.
		admin := protected.Group("")
		admin.Use(middleware.AdminOnly())
		h.Transfer.RegisterRoutes(admin)
		h.Audit.RegisterRoutes(admin)
	}

	return r
}
