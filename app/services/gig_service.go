package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/gigforge/gig-service/app/events"
	"github.com/gigforge/gig-service/app/models"
	"github.com/gigforge/gig-service/app/repository"
	"github.com/gigforge/gig-service/app/search"
	"github.com/gigforge/gig-service/internal/pkg/apperror"
	"github.com/gigforge/gig-service/internal/pkg/utils"
)

// EventPublisher emits listing lifecycle facts for other subsystems.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, payload interface{}) error
}

// AssetStore uploads a cover image and returns its public URL.
type AssetStore interface {
	UploadCover(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) (string, error)
}

// CoverAsset is an inbound cover image file.
type CoverAsset struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// GigService owns the gig business operations. Every mutation follows
// write-then-propagate: the record store commits first, then the change is
// projected into the search index. Index failures after commit surface as
// dependency errors so operators can detect drift; they never roll the
// record back.
type GigService struct {
	gigs      repository.GigRepository
	catalog   repository.CatalogRepository
	publisher EventPublisher
	assets    AssetStore
}

// NewGigService wires the service with its collaborators.
func NewGigService(gigs repository.GigRepository, catalog repository.CatalogRepository, publisher EventPublisher, assets AssetStore) *GigService {
	return &GigService{gigs: gigs, catalog: catalog, publisher: publisher, assets: assets}
}

// Search runs a ranked keyword search through the index.
func (s *GigService) Search(ctx context.Context, params search.Params) *repository.SearchPage {
	return s.catalog.Search(ctx, params)
}

// Create persists a new gig and projects it into the index. The cover
// asset is mandatory; its URL is stored, never the bytes.
func (s *GigService) Create(ctx context.Context, payload *models.GigCreatePayload, cover *CoverAsset) (*models.Gig, error) {
	if err := payload.Validate(); err != nil {
		return nil, apperror.Wrap(apperror.CodeValidation, "gigs:create", err.Error(), err)
	}
	if cover == nil {
		return nil, apperror.Validation("gigs:create", "Cover image is required.")
	}

	gigID := uuid.New().String()
	coverURL, err := s.assets.UploadCover(ctx, coverObjectKey(gigID, cover.FileName), cover.ContentType, cover.Body, cover.Size)
	if err != nil {
		return nil, err
	}

	count, err := s.gigs.Count()
	if err != nil {
		return nil, apperror.Dependency("gigs:create", err)
	}

	gig := &models.Gig{
		ID:                   gigID,
		SellerID:             payload.SellerID,
		Username:             payload.Username,
		Email:                payload.Email,
		ProfilePicture:       payload.ProfilePicture,
		Title:                payload.Title,
		BasicTitle:           payload.BasicTitle,
		Description:          payload.Description,
		BasicDescription:     payload.BasicDescription,
		Categories:           utils.Slugify(payload.Categories),
		SubCategories:        utils.SlugifyAll(payload.SubCategories),
		Tags:                 utils.SlugifyAll(payload.Tags),
		Price:                toMinorUnits(payload.Price),
		Currency:             "USD",
		ExpectedDeliveryDays: payload.ExpectedDeliveryDays,
		Active:               true,
		SortID:               count + 1,
		CoverImage:           coverURL,
	}

	err = s.gigs.Transaction(func(txRepo repository.GigRepository) error {
		return txRepo.Create(gig)
	})
	if err != nil {
		return nil, apperror.Dependency("gigs:create", err)
	}

	if err := s.catalog.IndexGig(ctx, gig); err != nil {
		return gig, err
	}

	log.Infof("[GigService] Gig created: id=%s seller=%s", gig.ID, gig.SellerID)

	message := events.GigMessage{Type: events.TypeGigCreated, SellerID: gig.SellerID, GigCount: 1}
	if err := s.publisher.Publish(ctx, events.ExchangeGigs, events.RoutingKeyGigCreated, message); err != nil {
		return gig, err
	}

	return gig, nil
}

// Update mutates the content fields of an existing gig and reindexes it.
func (s *GigService) Update(ctx context.Context, gigID string, payload *models.GigUpdatePayload, cover *CoverAsset) (*models.Gig, error) {
	if err := payload.Validate(); err != nil {
		return nil, apperror.Wrap(apperror.CodeValidation, "gigs:update", err.Error(), err)
	}

	coverURL := ""
	if cover != nil {
		url, err := s.assets.UploadCover(ctx, coverObjectKey(gigID, cover.FileName), cover.ContentType, cover.Body, cover.Size)
		if err != nil {
			return nil, err
		}
		coverURL = url
	}

	var gig *models.Gig
	err := s.gigs.Transaction(func(txRepo repository.GigRepository) error {
		existing, err := txRepo.GetByID(gigID)
		if err != nil {
			return apperror.Dependency("gigs:update", err)
		}
		if existing == nil {
			return apperror.NotFound("gigs:update", "Gig not found.")
		}

		existing.Title = payload.Title
		existing.BasicTitle = payload.BasicTitle
		existing.Description = payload.Description
		existing.BasicDescription = payload.BasicDescription
		existing.Categories = utils.Slugify(payload.Categories)
		existing.SubCategories = utils.SlugifyAll(payload.SubCategories)
		existing.Tags = utils.SlugifyAll(payload.Tags)
		existing.Price = toMinorUnits(payload.Price)
		existing.ExpectedDeliveryDays = payload.ExpectedDeliveryDays
		if coverURL != "" {
			existing.CoverImage = coverURL
		}

		if err := txRepo.Update(existing); err != nil {
			return apperror.Dependency("gigs:update", err)
		}
		gig = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.catalog.ReindexGig(ctx, gig); err != nil {
		return gig, err
	}
	return gig, nil
}

// SetActiveStatus toggles the active flag. A gig that is already in the
// target state reads as not found, matching the id-read contract.
// Deactivation is refused while active orders exist.
func (s *GigService) SetActiveStatus(ctx context.Context, gigID string, active bool) (*models.Gig, error) {
	var gig *models.Gig
	err := s.gigs.Transaction(func(txRepo repository.GigRepository) error {
		existing, err := txRepo.GetByID(gigID)
		if err != nil {
			return apperror.Dependency("gigs:toggle-active", err)
		}
		if existing == nil || existing.Active == active {
			return apperror.NotFound("gigs:toggle-active", "Gig not found.")
		}
		if !active && existing.ActiveOrderCount != 0 {
			return apperror.Conflict("gigs:toggle-active", "Cannot deactivate this gig while active orders exist.")
		}

		existing.Active = active
		if err := txRepo.Update(existing); err != nil {
			return apperror.Dependency("gigs:toggle-active", err)
		}
		gig = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.catalog.ReindexGig(ctx, gig); err != nil {
		return gig, err
	}
	return gig, nil
}

// Delete soft-deletes the gig, removes it from the index and announces the
// deletion. Deletion is terminal; a second attempt reads as not found.
func (s *GigService) Delete(ctx context.Context, gigID string) error {
	var gig *models.Gig
	err := s.gigs.Transaction(func(txRepo repository.GigRepository) error {
		deleted, err := txRepo.SoftDelete(gigID)
		if err != nil {
			return apperror.Dependency("gigs:delete", err)
		}
		if deleted == nil {
			return apperror.NotFound("gigs:delete", "Gig not found.")
		}
		gig = deleted
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.catalog.RemoveGig(ctx, gig.ID); err != nil {
		return err
	}

	log.Infof("[GigService] Gig deleted: id=%s seller=%s", gig.ID, gig.SellerID)

	message := events.GigMessage{Type: events.TypeGigDeleted, SellerID: gig.SellerID, GigCount: -1}
	return s.publisher.Publish(ctx, events.ExchangeGigs, events.RoutingKeyGigDeleted, message)
}

// ApplyRating folds one review fact into the rating aggregates. Called from
// the review consumer, so index propagation failures are logged rather than
// returned: a redelivery would double-apply the committed increments.
func (s *GigService) ApplyRating(ctx context.Context, gigID string, rating int) error {
	var gig *models.Gig
	err := s.gigs.Transaction(func(txRepo repository.GigRepository) error {
		updated, err := txRepo.ApplyRating(gigID, rating)
		if err != nil {
			return err
		}
		if updated == nil {
			return apperror.NotFound("gigs:update-review", "Gig not found.")
		}
		gig = updated
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.catalog.ReindexGig(ctx, gig); err != nil {
		log.Errorf("[GigService] Reindex after rating failed for %s: %v", gigID, err)
	}
	return nil
}

// AdjustActiveOrderCount applies an order-count delta. Decrements that
// would underflow are absorbed by the store-side guard as "already
// settled". Like ApplyRating, the index resync is best-effort.
func (s *GigService) AdjustActiveOrderCount(ctx context.Context, gigID string, delta int64) error {
	if err := s.gigs.AdjustActiveOrderCount(gigID, delta); err != nil {
		return err
	}

	gig, err := s.gigs.GetByID(gigID)
	if err != nil || gig == nil {
		return err
	}
	if err := s.catalog.ReindexGig(ctx, gig); err != nil {
		log.Errorf("[GigService] Reindex after order-count change failed for %s: %v", gigID, err)
	}
	return nil
}

// UpdateProfilePicture propagates a seller's new picture onto every
// non-deleted gig they own: record store first, then each affected index
// document.
func (s *GigService) UpdateProfilePicture(ctx context.Context, sellerID, profilePicture string) error {
	gigs, err := s.gigs.BulkUpdateProfilePicture(sellerID, profilePicture)
	if err != nil {
		return err
	}

	for i := range gigs {
		if err := s.catalog.ReindexGig(ctx, &gigs[i]); err != nil {
			log.Errorf("[GigService] Reindex after profile update failed for %s: %v", gigs[i].ID, err)
		}
	}

	log.Infof("[GigService] Profile picture propagated to %d gigs for seller %s", len(gigs), sellerID)
	return nil
}

// GetByID reads through the index; inactive gigs are indistinguishable
// from missing ones on this path.
func (s *GigService) GetByID(ctx context.Context, gigID string) (*models.Gig, error) {
	return s.catalog.FindByID(ctx, gigID)
}

// GetSellerGigs lists a seller's gigs by username, optionally filtered by
// active state.
func (s *GigService) GetSellerGigs(ctx context.Context, username string, active *bool) ([]models.Gig, error) {
	return s.catalog.FindBySellerUsername(ctx, username, active, search.Paginate{Size: 100})
}

// GetSellerGigsByID lists a seller's gigs by seller id.
func (s *GigService) GetSellerGigsByID(ctx context.Context, sellerID string, active *bool) ([]models.Gig, error) {
	return s.catalog.FindBySellerID(ctx, sellerID, active, search.Paginate{Size: 100})
}

// GetByCategory lists active gigs in a category.
func (s *GigService) GetByCategory(ctx context.Context, category string, page search.Paginate) ([]models.Gig, error) {
	return s.catalog.FindByCategory(ctx, category, page)
}

// GetSimilar ranks gigs related to the reference gig.
func (s *GigService) GetSimilar(ctx context.Context, gigID string, page search.Paginate) ([]models.Gig, error) {
	return s.catalog.FindSimilar(ctx, gigID, page)
}

// GetTop ranks listings for undirected browsing.
func (s *GigService) GetTop(ctx context.Context, sellerID, category string, page search.Paginate) ([]models.Gig, error) {
	return s.catalog.FindTop(ctx, sellerID, category, page)
}

// ImportGigs persists a batch of pre-built gigs and bulk-indexes them.
// Used by the seed path.
func (s *GigService) ImportGigs(ctx context.Context, gigs []models.Gig) error {
	err := s.gigs.Transaction(func(txRepo repository.GigRepository) error {
		for i := range gigs {
			if err := txRepo.Create(&gigs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperror.Dependency("gigs:import", err)
	}
	return s.catalog.BulkIndex(ctx, gigs)
}

// ReindexAll re-derives the whole index from the authoritative records.
// This is the recovery path for detected drift.
func (s *GigService) ReindexAll(ctx context.Context) (int, error) {
	gigs, err := s.gigs.GetAllNotDeleted()
	if err != nil {
		return 0, apperror.Dependency("gigs:reindex-all", err)
	}
	if err := s.catalog.BulkIndex(ctx, gigs); err != nil {
		return 0, err
	}
	log.Infof("[GigService] Reindexed %d gigs", len(gigs))
	return len(gigs), nil
}

func toMinorUnits(price float64) int64 {
	return int64(price*100 + 0.5)
}

func coverObjectKey(gigID, fileName string) string {
	ext := filepath.Ext(fileName)
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("gigs/%s%s", gigID, ext)
}
