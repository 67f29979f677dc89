package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/hospital-guard-duty/internal/guard"
	"github.com/hackgods/hospital-guard-duty/internal/ward"
)

type RouterConfig struct {
	Guards    *guard.Service
	Vacations *guard.VacationService
	Wards     *ward.Service
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Guard assignment endpoints
	r.Post("/guards", createGuardHandler(cfg.Guards))
	r.Get("/guards/{number}", getGuardHandler(cfg.Guards))
	r.Put("/guards/{number}", updateGuardHandler(cfg.Guards))
	r.Delete("/guards/{number}", deleteGuardHandler(cfg.Guards))
	r.Get("/guards/{number}/audit", guardAuditHandler(cfg.Guards))

	// Vacation endpoints
	r.Post("/vacations", createVacationHandler(cfg.Vacations))
	r.Put("/vacations", replaceVacationHandler(cfg.Vacations))
	r.Delete("/vacations", deleteVacationHandler(cfg.Vacations))
	r.Get("/doctors/{license}/vacations", listVacationsHandler(cfg.Vacations))

	// Room and bed endpoints
	r.Post("/rooms", createRoomHandler(cfg.Wards))
	r.Get("/rooms/{number}", getRoomHandler(cfg.Wards))
	r.Delete("/rooms/{number}", removeRoomHandler(cfg.Wards))
	r.Get("/rooms/{number}/beds", listBedsHandler(cfg.Wards))
	r.Post("/rooms/{number}/beds", addBedHandler(cfg.Wards))
	r.Delete("/rooms/{number}/beds/{bed}", removeBedHandler(cfg.Wards))
	r.Post("/rooms/{number}/beds/{bed}/occupancy", occupyBedHandler(cfg.Wards))
	r.Delete("/rooms/{number}/beds/{bed}/occupancy", dischargeBedHandler(cfg.Wards))
	r.Get("/beds/available", availableBedsBySectorHandler(cfg.Wards))
	r.Get("/sectors/{sector}/beds/available", availableBedsDetailHandler(cfg.Wards))

	return r
}
