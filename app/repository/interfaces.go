package repository

import (
	"context"

	"github.com/gigforge/gig-service/app/models"
	"github.com/gigforge/gig-service/app/search"
)

// GigRepository defines the record-store operations for gigs. The record
// store is authoritative: every index document is derived from it.
type GigRepository interface {
	Create(gig *models.Gig) error
	GetByID(id string) (*models.Gig, error)
	Update(gig *models.Gig) error
	SoftDelete(id string) (*models.Gig, error)
	ApplyRating(id string, rating int) (*models.Gig, error)
	AdjustActiveOrderCount(id string, delta int64) error
	GetBySeller(sellerID string) ([]models.Gig, error)
	BulkUpdateProfilePicture(sellerID, profilePicture string) ([]models.Gig, error)
	GetAllNotDeleted() ([]models.Gig, error)
	Count() (int64, error)

	// Transaction runs fn against a transaction-bound copy of the
	// repository; the index is never touched inside fn.
	Transaction(fn func(txRepo GigRepository) error) error
}

// SearchPage is one ranked page plus the total match count.
type SearchPage struct {
	Gigs  []models.Gig
	Total int64
}

// CatalogRepository is the index-facing contract. All ranked and filtered
// reads go through here and never touch the record store, because scoring
// depends on index-resident fields.
type CatalogRepository interface {
	IndexGig(ctx context.Context, gig *models.Gig) error
	ReindexGig(ctx context.Context, gig *models.Gig) error
	RemoveGig(ctx context.Context, id string) error
	BulkIndex(ctx context.Context, gigs []models.Gig) error
	Count(ctx context.Context) (int64, error)

	Search(ctx context.Context, params search.Params) *SearchPage
	FindByID(ctx context.Context, id string) (*models.Gig, error)
	FindBySellerID(ctx context.Context, sellerID string, active *bool, page search.Paginate) ([]models.Gig, error)
	FindBySellerUsername(ctx context.Context, username string, active *bool, page search.Paginate) ([]models.Gig, error)
	FindByCategory(ctx context.Context, category string, page search.Paginate) ([]models.Gig, error)
	FindSimilar(ctx context.Context, id string, page search.Paginate) ([]models.Gig, error)
	FindTop(ctx context.Context, sellerID, category string, page search.Paginate) ([]models.Gig, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Gig     GigRepository
	Catalog CatalogRepository
}
