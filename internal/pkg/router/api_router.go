package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gigforge/gig-service/app/controllers"
	"github.com/gigforge/gig-service/app/services"
)

// Router installs a route group on the fiber app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// ApiRouter wires the gig routes. The gateway in front of this service
// handles authentication; routes here assume validated callers.
type ApiRouter struct {
	gigs   *controllers.GigController
	search *controllers.SearchController
	seed   *controllers.SeedController
}

func NewApiRouter(service *services.GigService) *ApiRouter {
	return &ApiRouter{
		gigs:   controllers.NewGigController(service),
		search: controllers.NewSearchController(service),
		seed:   controllers.NewSeedController(service),
	}
}

func (h *ApiRouter) InstallRouter(app *fiber.App) {
	app.Get("/gig-health", controllers.HandleHealth)

	v1 := app.Group("/api/v1/gigs")

	// ranked reads
	v1.Post("/search", h.search.HandleSearch)
	v1.Get("/category/:category", h.search.HandleCategory)
	v1.Get("/similar/:gigId", h.search.HandleSimilar)
	v1.Get("/top/:username?", h.search.HandleTop)

	// id and seller reads
	v1.Get("/seller/:username", h.gigs.HandleSellerGigs)
	v1.Get("/:gigId", h.gigs.HandleGetByID)

	// commands
	v1.Post("/", h.gigs.HandleCreate)
	v1.Put("/:gigId", h.gigs.HandleUpdate)
	v1.Put("/active/:gigId", h.gigs.HandleActivate)
	v1.Put("/inactive/:gigId", h.gigs.HandleDeactivate)
	v1.Delete("/:gigId", h.gigs.HandleDelete)

	// operations
	v1.Put("/seed/:count", h.seed.HandleSeed)
	v1.Post("/reindex", h.gigs.HandleReindexAll)
}

// InstallRouter registers all routers on the app.
func InstallRouter(app *fiber.App, routers ...Router) {
	for _, r := range routers {
		r.InstallRouter(app)
	}
}
