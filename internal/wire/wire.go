package wire

import (
	"net/http"

	"cinema-reservation/internal/adaptor"
	"cinema-reservation/internal/data/entity"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/usecase"
	"cinema-reservation/pkg/middleware"
	"cinema-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and the services behind it
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and the router on top of repo
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger, deps usecase.Dependencies) *App {
	service := usecase.NewService(repo, config, logger, deps)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, config, logger),
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS)

	auth := middleware.JWTAuth(config.JWT.Secret, logger)
	staff := middleware.RequireRole(logger, string(entity.RoleAdmin), string(entity.RoleCashier))
	admin := middleware.RequireRole(logger, string(entity.RoleAdmin))

	wireAuth(r, handler.Auth)
	wireShowtime(r, handler.Showtime)
	wireReservation(r, handler.Reservation, auth, staff, admin)
	wireCatalog(r, handler.Catalog, auth, staff, admin)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
