package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gigforge/gig-service/app/search"
	"github.com/gigforge/gig-service/app/services"
	"github.com/gigforge/gig-service/internal/pkg/apperror"
	"github.com/gigforge/gig-service/internal/pkg/cache"
)

// SearchController serves the ranked read paths: keyword search, category
// browse, similar gigs and top gigs.
type SearchController struct {
	service *services.GigService
}

func NewSearchController(service *services.GigService) *SearchController {
	return &SearchController{service: service}
}

// HandleSearch runs a keyword search from a JSON criteria body. An index
// outage degrades to an empty page rather than an error.
func (sc *SearchController) HandleSearch(c *fiber.Ctx) error {
	var params search.Params
	if err := c.BodyParser(&params); err != nil {
		return respondError(c, apperror.Validation("gigs:search", "Invalid search criteria."))
	}

	page := sc.service.Search(c.UserContext(), params)
	return c.JSON(fiber.Map{
		"gigs":  page.Gigs,
		"total": page.Total,
	})
}

// HandleCategory lists active gigs in a category.
func (sc *SearchController) HandleCategory(c *fiber.Ctx) error {
	gigs, err := sc.service.GetByCategory(c.UserContext(), c.Params("category"), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"gigs": gigs})
}

// HandleSimilar ranks gigs related to the reference gig.
func (sc *SearchController) HandleSimilar(c *fiber.Ctx) error {
	gigs, err := sc.service.GetSimilar(c.UserContext(), c.Params("gigId"), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Similar gigs",
		"gigs":    gigs,
	})
}

// HandleTop ranks listings for undirected browsing. The browsing user's
// selected category, remembered by the frontend in the cache, narrows the
// result when present; explicit query filters win over it.
func (sc *SearchController) HandleTop(c *fiber.Ctx) error {
	category := c.Query("category")
	if category == "" {
		if cached, err := cache.Get("selectedCategories:" + c.Params("username")); err == nil {
			category = cached
		}
	}

	gigs, err := sc.service.GetTop(c.UserContext(), c.Query("sellerId"), category, parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Top gigs",
		"gigs":    gigs,
	})
}
