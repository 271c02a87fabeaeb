package usecase

import (
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/pkg/cache"
	"cinema-reservation/pkg/clock"
	"cinema-reservation/pkg/messaging"
	"cinema-reservation/pkg/utils"

	"go.uber.org/zap"
)

// Dependencies are the optional collaborators of the services. Nil fields fall back to no-op
// implementations and the wall clock.
type Dependencies struct {
	Cache     cache.Cache
	Publisher messaging.Publisher
	Clock     clock.Clock
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Publisher == nil {
		d.Publisher = messaging.Noop{}
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	return d
}

type Service struct {
	Auth         AuthService
	Catalog      CatalogService
	Availability AvailabilityService
	Reservation  ReservationService
}

func NewService(repo *repository.Repository, config *utils.Config, log *zap.Logger, deps Dependencies) *Service {
	deps = deps.withDefaults()

	return &Service{
		Auth:         NewAuthService(repo, config, log, deps.Clock),
		Catalog:      NewCatalogService(repo, config, log, deps.Clock),
		Availability: NewAvailabilityService(repo, config, log, deps),
		Reservation:  NewReservationService(repo, config, log, deps),
	}
}
