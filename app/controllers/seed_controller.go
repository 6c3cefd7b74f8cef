package controllers

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gigforge/gig-service/app/models"
	"github.com/gigforge/gig-service/app/services"
	"github.com/gigforge/gig-service/internal/pkg/apperror"
	"github.com/gigforge/gig-service/internal/pkg/env"
	"github.com/gigforge/gig-service/internal/pkg/utils"
)

// SeedController fills the catalog with fixture gigs for development and
// demo environments.
type SeedController struct {
	service *services.GigService
}

func NewSeedController(service *services.GigService) *SeedController {
	return &SeedController{service: service}
}

// gigSeedRow is one fixture record from the seed CSV files.
type gigSeedRow struct {
	Title                string  `csv:"title"`
	BasicTitle           string  `csv:"basic_title"`
	Description          string  `csv:"description"`
	BasicDescription     string  `csv:"basic_description"`
	Categories           string  `csv:"categories"`
	SubCategories        string  `csv:"sub_categories"` // pipe-separated
	Tags                 string  `csv:"tags"`           // pipe-separated
	Price                float64 `csv:"price"`
	ExpectedDeliveryDays int     `csv:"expected_delivery_days"`
}

// HandleSeed creates :count gigs from the CSV fixtures, with randomized
// sellers and rating histories, and bulk-indexes them.
func (sc *SeedController) HandleSeed(c *fiber.Ctx) error {
	count, err := c.ParamsInt("count", 10)
	if err != nil || count < 1 {
		return respondError(c, apperror.Validation("gigs:seed", "Count must be a positive number."))
	}

	rows, err := loadSeedRows()
	if err != nil {
		return respondError(c, apperror.Dependency("gigs:seed", err))
	}
	if len(rows) == 0 {
		return respondError(c, apperror.Validation("gigs:seed", "No seed fixtures available."))
	}

	gigs := make([]models.Gig, 0, count)
	for i := 0; i < count; i++ {
		row := rows[i%len(rows)]
		gigs = append(gigs, buildSeedGig(row, i))
	}

	if err := sc.service.ImportGigs(c.UserContext(), gigs); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("Seeded %d gigs successfully", len(gigs)),
	})
}

func loadSeedRows() ([]gigSeedRow, error) {
	dir := env.GetEnv("SEED_DATA_DIR", "seed")
	file, err := os.Open(filepath.Join(dir, "gigs.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows []gigSeedRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func buildSeedGig(row gigSeedRow, n int) models.Gig {
	sellerID := uuid.New().String()
	username := fmt.Sprintf("seller%d", n+1)

	gig := models.Gig{
		ID:                   uuid.New().String(),
		SellerID:             sellerID,
		Username:             username,
		Email:                fmt.Sprintf("%s@example.com", username),
		ProfilePicture:       env.GetEnv("SEED_PROFILE_PICTURE_URL", "https://picsum.photos/seed/profile/200"),
		Title:                row.Title,
		BasicTitle:           row.BasicTitle,
		Description:          row.Description,
		BasicDescription:     row.BasicDescription,
		Categories:           utils.Slugify(row.Categories),
		SubCategories:        utils.SlugifyAll(strings.Split(row.SubCategories, "|")),
		Tags:                 utils.SlugifyAll(strings.Split(row.Tags, "|")),
		Price:                int64(row.Price * 100),
		Currency:             "USD",
		ExpectedDeliveryDays: row.ExpectedDeliveryDays,
		Active:               true,
		SortID:               int64(n + 1),
		CoverImage:           env.GetEnv("GIG_PLACEHOLDER_IMAGE_URL", "https://picsum.photos/seed/gig/1280/720"),
	}

	applySeedRatings(&gig)
	return gig
}

// applySeedRatings fabricates a consistent rating history: bucket sums and
// the aggregates always agree, like they would after real review events.
func applySeedRatings(gig *models.Gig) {
	buckets := []*models.RatingBucket{
		&gig.RatingCategories.One,
		&gig.RatingCategories.Two,
		&gig.RatingCategories.Three,
		&gig.RatingCategories.Four,
		&gig.RatingCategories.Five,
	}

	for value, bucket := range buckets {
		count := int64(rand.Intn(10 * (value + 1)))
		bucket.Count = count
		bucket.Value = count * int64(value+1)
		gig.RatingsCount += count
		gig.RatingSum += bucket.Value
	}
}
