package controllers

import (
	"encoding/json"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/gigforge/gig-service/app/models"
	"github.com/gigforge/gig-service/app/search"
	"github.com/gigforge/gig-service/app/services"
	"github.com/gigforge/gig-service/internal/pkg/apperror"
)

// GigController exposes the gig commands and id-based reads over HTTP.
// Authentication and gateway validation happen upstream; this layer only
// shapes requests and responses.
type GigController struct {
	service *services.GigService
}

func NewGigController(service *services.GigService) *GigController {
	return &GigController{service: service}
}

// HandleCreate creates a gig from a multipart form carrying a "payload"
// JSON part and a "coverImage" file part.
func (gc *GigController) HandleCreate(c *fiber.Ctx) error {
	var payload models.GigCreatePayload
	if err := json.Unmarshal([]byte(c.FormValue("payload")), &payload); err != nil {
		return respondError(c, apperror.Validation("gigs:create", "Invalid gig payload."))
	}

	cover, cleanup, err := coverFromForm(c)
	if err != nil {
		return respondError(c, err)
	}
	defer cleanup()

	gig, svcErr := gc.service.Create(c.UserContext(), &payload, cover)
	if svcErr != nil {
		return respondError(c, svcErr)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Gig created successfully",
		"gig":     gig,
	})
}

// HandleUpdate mutates the content fields; the cover file part is optional.
func (gc *GigController) HandleUpdate(c *fiber.Ctx) error {
	var payload models.GigUpdatePayload
	if err := json.Unmarshal([]byte(c.FormValue("payload")), &payload); err != nil {
		return respondError(c, apperror.Validation("gigs:update", "Invalid gig payload."))
	}

	cover, cleanup, err := coverFromForm(c)
	if err != nil && !apperror.Is(err, apperror.CodeValidation) {
		return respondError(c, err)
	}
	defer cleanup()

	gig, svcErr := gc.service.Update(c.UserContext(), c.Params("gigId"), &payload, cover)
	if svcErr != nil {
		return respondError(c, svcErr)
	}

	return c.JSON(fiber.Map{
		"message": "Gig updated successfully",
		"gig":     gig,
	})
}

// HandleActivate flips a gig back to active.
func (gc *GigController) HandleActivate(c *fiber.Ctx) error {
	return gc.setActive(c, true)
}

// HandleDeactivate takes a gig off the catalog; refused while active
// orders exist.
func (gc *GigController) HandleDeactivate(c *fiber.Ctx) error {
	return gc.setActive(c, false)
}

func (gc *GigController) setActive(c *fiber.Ctx, active bool) error {
	gig, err := gc.service.SetActiveStatus(c.UserContext(), c.Params("gigId"), active)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Gig active status updated successfully",
		"gig":     gig,
	})
}

func (gc *GigController) HandleDelete(c *fiber.Ctx) error {
	if err := gc.service.Delete(c.UserContext(), c.Params("gigId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Gig deleted successfully"})
}

// HandleGetByID serves a single gig from the index; inactive and missing
// gigs are both a 404.
func (gc *GigController) HandleGetByID(c *fiber.Ctx) error {
	gig, err := gc.service.GetByID(c.UserContext(), c.Params("gigId"))
	if err != nil {
		return respondError(c, err)
	}
	if gig == nil {
		return respondError(c, apperror.NotFound("gigs:get", "Gig not found."))
	}
	return c.JSON(fiber.Map{"gig": gig})
}

// HandleSellerGigs lists a seller's gigs; ?active=true|false narrows the
// state, absent returns both.
func (gc *GigController) HandleSellerGigs(c *fiber.Ctx) error {
	var active *bool
	switch c.Query("active") {
	case "true":
		v := true
		active = &v
	case "false":
		v := false
		active = &v
	}

	gigs, err := gc.service.GetSellerGigs(c.UserContext(), c.Params("username"), active)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"gigs": gigs})
}

// HandleReindexAll re-derives the whole index from the record store. This
// is the recovery path when propagation drift is detected.
func (gc *GigController) HandleReindexAll(c *fiber.Ctx) error {
	count, err := gc.service.ReindexAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Reindex completed",
		"count":   count,
	})
}

func coverFromForm(c *fiber.Ctx) (*services.CoverAsset, func(), error) {
	noop := func() {}

	fileHeader, err := c.FormFile("coverImage")
	if err != nil {
		return nil, noop, apperror.Validation("gigs:cover", "Cover image is required.")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, noop, apperror.Dependency("gigs:cover", err)
	}

	cover := &services.CoverAsset{
		FileName:    fileHeader.Filename,
		ContentType: contentTypeOf(fileHeader),
		Size:        fileHeader.Size,
		Body:        file,
	}
	return cover, func() { file.Close() }, nil
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// parsePage reads offset pagination from the query string.
func parsePage(c *fiber.Ctx) search.Paginate {
	return search.Paginate{
		From: c.QueryInt("from", 0),
		Size: c.QueryInt("size", 0),
	}
}
