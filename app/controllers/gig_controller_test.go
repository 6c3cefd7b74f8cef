package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigforge/gig-service/app/models"
	"github.com/gigforge/gig-service/app/repository"
	"github.com/gigforge/gig-service/app/search"
	"github.com/gigforge/gig-service/app/services"
	"github.com/gigforge/gig-service/internal/pkg/apperror"
)

// stubRepo satisfies the record-store contract; controller tests only
// exercise the read paths, so mutations are inert.
type stubRepo struct{}

func (stubRepo) Create(*models.Gig) error                       { return nil }
func (stubRepo) GetByID(string) (*models.Gig, error)            { return nil, nil }
func (stubRepo) Update(*models.Gig) error                       { return nil }
func (stubRepo) SoftDelete(string) (*models.Gig, error)         { return nil, nil }
func (stubRepo) ApplyRating(string, int) (*models.Gig, error)   { return nil, nil }
func (stubRepo) AdjustActiveOrderCount(string, int64) error     { return nil }
func (stubRepo) GetBySeller(string) ([]models.Gig, error)       { return nil, nil }
func (stubRepo) GetAllNotDeleted() ([]models.Gig, error)        { return nil, nil }
func (stubRepo) Count() (int64, error)                          { return 0, nil }
func (stubRepo) BulkUpdateProfilePicture(string, string) ([]models.Gig, error) {
	return nil, nil
}
func (stubRepo) Transaction(fn func(repository.GigRepository) error) error {
	return fn(stubRepo{})
}

// stubCatalog serves index reads from a fixed map and records the active
// filter it was asked for.
type stubCatalog struct {
	gigs         map[string]models.Gig
	activeFilter *bool
}

func (s *stubCatalog) IndexGig(context.Context, *models.Gig) error   { return nil }
func (s *stubCatalog) ReindexGig(context.Context, *models.Gig) error { return nil }
func (s *stubCatalog) RemoveGig(context.Context, string) error       { return nil }
func (s *stubCatalog) BulkIndex(context.Context, []models.Gig) error { return nil }
func (s *stubCatalog) Count(context.Context) (int64, error)          { return 0, nil }

func (s *stubCatalog) Search(context.Context, search.Params) *repository.SearchPage {
	return &repository.SearchPage{Gigs: []models.Gig{}, Total: 0}
}

func (s *stubCatalog) FindByID(ctx context.Context, id string) (*models.Gig, error) {
	gig, ok := s.gigs[id]
	if !ok || !gig.Active {
		return nil, nil
	}
	return &gig, nil
}

func (s *stubCatalog) FindBySellerID(ctx context.Context, sellerID string, active *bool, page search.Paginate) ([]models.Gig, error) {
	s.activeFilter = active
	return []models.Gig{}, nil
}

func (s *stubCatalog) FindBySellerUsername(ctx context.Context, username string, active *bool, page search.Paginate) ([]models.Gig, error) {
	s.activeFilter = active
	return []models.Gig{}, nil
}

func (s *stubCatalog) FindByCategory(context.Context, string, search.Paginate) ([]models.Gig, error) {
	return []models.Gig{}, nil
}

func (s *stubCatalog) FindSimilar(context.Context, string, search.Paginate) ([]models.Gig, error) {
	return nil, apperror.NotFound("catalog:find-similar", "Gig not found.")
}

func (s *stubCatalog) FindTop(context.Context, string, string, search.Paginate) ([]models.Gig, error) {
	return []models.Gig{}, nil
}

type nilPublisher struct{}

func (nilPublisher) Publish(context.Context, string, string, interface{}) error { return nil }

type nilAssets struct{}

func (nilAssets) UploadCover(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", nil
}

func newTestApp(catalog *stubCatalog) *fiber.App {
	service := services.NewGigService(stubRepo{}, catalog, nilPublisher{}, nilAssets{})
	gc := NewGigController(service)
	sc := NewSearchController(service)

	app := fiber.New()
	app.Get("/gig-health", HandleHealth)
	app.Post("/api/v1/gigs/search", sc.HandleSearch)
	app.Get("/api/v1/gigs/similar/:gigId", sc.HandleSimilar)
	app.Get("/api/v1/gigs/seller/:username", gc.HandleSellerGigs)
	app.Get("/api/v1/gigs/:gigId", gc.HandleGetByID)
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHandleHealth(t *testing.T) {
	app := newTestApp(&stubCatalog{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/gig-health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandleGetByID(t *testing.T) {
	catalog := &stubCatalog{gigs: map[string]models.Gig{
		"gig-1": {ID: "gig-1", Active: true, Title: "Logo design"},
	}}
	app := newTestApp(catalog)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/gigs/gig-1", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	gig := body["gig"].(map[string]interface{})
	assert.Equal(t, "Logo design", gig["title"])
}

func TestHandleGetByID_NotFound(t *testing.T) {
	catalog := &stubCatalog{gigs: map[string]models.Gig{
		"inactive": {ID: "inactive", Active: false},
	}}
	app := newTestApp(catalog)

	// missing and inactive answer identically
	for _, id := range []string{"missing", "inactive"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/gigs/"+id, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, string(apperror.CodeNotFound), body["error"])
	}
}

func TestHandleSellerGigs_ActiveQuery(t *testing.T) {
	catalog := &stubCatalog{}
	app := newTestApp(catalog)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/gigs/seller/anna?active=true", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, catalog.activeFilter)
	assert.True(t, *catalog.activeFilter)

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/gigs/seller/anna?active=false", nil), -1)
	require.NoError(t, err)
	require.NotNil(t, catalog.activeFilter)
	assert.False(t, *catalog.activeFilter)

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/gigs/seller/anna", nil), -1)
	require.NoError(t, err)
	assert.Nil(t, catalog.activeFilter)
}

func TestHandleSearch_InvalidBody(t *testing.T) {
	app := newTestApp(&stubCatalog{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/gigs/search", strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleSearch_EmptyCriteria(t *testing.T) {
	app := newTestApp(&stubCatalog{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/gigs/search", strings.NewReader(`{"keyword":"logo"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(0), body["total"])
}

func TestHandleSimilar_NotFound(t *testing.T) {
	app := newTestApp(&stubCatalog{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/gigs/similar/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRespondErrorMapping(t *testing.T) {
	app := fiber.New()
	app.Get("/err/:kind", func(c *fiber.Ctx) error {
		switch c.Params("kind") {
		case "validation":
			return respondError(c, apperror.Validation("op", "bad"))
		case "notfound":
			return respondError(c, apperror.NotFound("op", "missing"))
		case "conflict":
			return respondError(c, apperror.Conflict("op", "busy"))
		default:
			return respondError(c, apperror.Dependency("op", assert.AnError))
		}
	})

	cases := map[string]int{
		"validation": fiber.StatusBadRequest,
		"notfound":   fiber.StatusNotFound,
		"conflict":   fiber.StatusConflict,
		"dependency": fiber.StatusServiceUnavailable,
	}
	for kind, want := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/err/"+kind, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, kind)
	}
}
