package repository

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2/log"

	"github.com/gigforge/gig-service/app/models"
	"github.com/gigforge/gig-service/app/search"
	"github.com/gigforge/gig-service/internal/pkg/apperror"
	"github.com/gigforge/gig-service/internal/pkg/elastic"
)

// IndexClient is the slice of the search-engine client the catalog needs.
type IndexClient interface {
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id string) (json.RawMessage, bool, error)
	Index(ctx context.Context, id string, doc interface{}) error
	Delete(ctx context.Context, id string) error
	Bulk(ctx context.Context, docs []elastic.BulkDoc) error
	Search(ctx context.Context, body map[string]interface{}) *elastic.SearchResult
}

// Clock supplies the jitter seed for ranked queries; tests pin it.
type Clock func() int64

// catalogRepository implements CatalogRepository against the search index.
type catalogRepository struct {
	index IndexClient
	now   Clock
}

// NewCatalogRepository creates the index-facing catalog repository
func NewCatalogRepository(index IndexClient, now Clock) CatalogRepository {
	return &catalogRepository{index: index, now: now}
}

// IndexGig projects the committed record into the index as a full document.
// Replaying the same document is harmless, which makes failed propagations
// retryable by re-derivation.
func (r *catalogRepository) IndexGig(ctx context.Context, gig *models.Gig) error {
	return r.index.Index(ctx, gig.ID, gig)
}

// ReindexGig is a full-document replace, identical to the initial indexing.
func (r *catalogRepository) ReindexGig(ctx context.Context, gig *models.Gig) error {
	return r.index.Index(ctx, gig.ID, gig)
}

func (r *catalogRepository) RemoveGig(ctx context.Context, id string) error {
	return r.index.Delete(ctx, id)
}

func (r *catalogRepository) BulkIndex(ctx context.Context, gigs []models.Gig) error {
	docs := make([]elastic.BulkDoc, 0, len(gigs))
	for i := range gigs {
		docs = append(docs, elastic.BulkDoc{ID: gigs[i].ID, Source: &gigs[i]})
	}
	return r.index.Bulk(ctx, docs)
}

func (r *catalogRepository) Count(ctx context.Context) (int64, error) {
	return r.index.Count(ctx)
}

func (r *catalogRepository) Search(ctx context.Context, params search.Params) *SearchPage {
	body := search.BuildKeywordQuery(params, r.now())
	result := r.index.Search(ctx, body)
	return &SearchPage{Gigs: decodeHits(result.Hits), Total: result.Total}
}

// FindByID reads through the index only. Missing and inactive documents are
// both reported as absent so unauthenticated callers cannot tell them
// apart.
func (r *catalogRepository) FindByID(ctx context.Context, id string) (*models.Gig, error) {
	source, found, err := r.index.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var gig models.Gig
	if err := json.Unmarshal(source, &gig); err != nil {
		return nil, apperror.Dependency("catalog:decode-document", err)
	}
	if !gig.Active {
		return nil, nil
	}
	return &gig, nil
}

func (r *catalogRepository) FindBySellerID(ctx context.Context, sellerID string, active *bool, page search.Paginate) ([]models.Gig, error) {
	body := search.BuildSellerQuery("sellerId", sellerID, active, page)
	return decodeHits(r.index.Search(ctx, body).Hits), nil
}

func (r *catalogRepository) FindBySellerUsername(ctx context.Context, username string, active *bool, page search.Paginate) ([]models.Gig, error) {
	body := search.BuildSellerQuery("username", username, active, page)
	return decodeHits(r.index.Search(ctx, body).Hits), nil
}

func (r *catalogRepository) FindByCategory(ctx context.Context, category string, page search.Paginate) ([]models.Gig, error) {
	body := search.BuildCategoryQuery(category, page)
	return decodeHits(r.index.Search(ctx, body).Hits), nil
}

// FindSimilar loads the reference document and ranks topically related,
// comparably priced gigs around it.
func (r *catalogRepository) FindSimilar(ctx context.Context, id string, page search.Paginate) ([]models.Gig, error) {
	source, found, err := r.index.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NotFound("catalog:find-similar", "Gig not found.")
	}

	var ref models.Gig
	if err := json.Unmarshal(source, &ref); err != nil {
		return nil, apperror.Dependency("catalog:decode-document", err)
	}

	body := search.BuildSimilarQuery(&ref, page)
	return decodeHits(r.index.Search(ctx, body).Hits), nil
}

func (r *catalogRepository) FindTop(ctx context.Context, sellerID, category string, page search.Paginate) ([]models.Gig, error) {
	body := search.BuildTopQuery(sellerID, category, page, r.now())
	return decodeHits(r.index.Search(ctx, body).Hits), nil
}

// decodeHits unmarshals hit sources, skipping documents that fail to decode
// rather than dropping the whole page.
func decodeHits(hits []elastic.Hit) []models.Gig {
	gigs := make([]models.Gig, 0, len(hits))
	for _, hit := range hits {
		var gig models.Gig
		if err := json.Unmarshal(hit.Source, &gig); err != nil {
			log.Warnf("[Catalog] Skipping undecodable document %s: %v", hit.ID, err)
			continue
		}
		if gig.ID == "" {
			gig.ID = hit.ID
		}
		gigs = append(gigs, gig)
	}
	return gigs
}
