package search

import (
	"strings"

	"github.com/gigforge/gig-service/app/models"
)

// M is shorthand for a JSON object in a query body.
type M = map[string]interface{}

const (
	// DefaultSearchPageSize is the keyword search page size.
	DefaultSearchPageSize = 12
	// DefaultBrowsePageSize is the page size for top/similar/seller/category reads.
	DefaultBrowsePageSize = 10

	// Price proximity for "similar" gigs: scale is 30% of the reference
	// price but never narrower than this floor (minor units).
	minPriceScale = 500
)

// SortSpec selects the result ordering. An unknown By falls back to pure
// score ordering.
type SortSpec struct {
	By    string `json:"by"`
	Order string `json:"order"`
}

// Paginate is offset-based pagination into the ranked result set.
type Paginate struct {
	From int `json:"from"`
	Size int `json:"size"`
}

// Params captures a keyword search intent.
type Params struct {
	Keyword              string   `json:"keyword"`
	Categories           []string `json:"categories"`
	SubCategories        []string `json:"subCategories"`
	Tags                 []string `json:"tags"`
	ExcludeSellers       []string `json:"excludeSellers"`
	PriceMin             *float64 `json:"priceMin"` // major units
	PriceMax             *float64 `json:"priceMax"`
	ExpectedDeliveryDays *int     `json:"expectedDeliveryDays"`
	Sort                 SortSpec `json:"sort"`
	Paginate             Paginate `json:"paginate"`
}

var allowedSortFields = map[string]bool{
	"price":                true,
	"createdAt":            true,
	"ratingSum":            true,
	"expectedDeliveryDays": true,
}

// BuildKeywordQuery maps a search intent into a full query body. The rating
// boost and jitter multiply the text relevance score, so popularity can
// reorder relevant hits but never promote irrelevant ones. The seed feeds
// the random jitter; callers pass the current time, tests pass a constant.
func BuildKeywordQuery(p Params, seed int64) M {
	must := []M{}
	filter := []M{{"term": M{"active": true}}}
	mustNot := []M{}

	if keyword := strings.ToLower(strings.TrimSpace(p.Keyword)); keyword != "" {
		must = append(must, M{
			"bool": M{
				"should": []M{
					// Conjunctive cross-field relevance, title weighted highest
					{
						"multi_match": M{
							"query": keyword,
							"type":  "cross_fields",
							"fields": []string{
								"title^6",
								"basicTitle^4",
								"basicDescription^2",
								"tags^3",
								"categories^1.5",
								"subCategories^1.5",
								"username^0.5",
							},
							"operator":             "and",
							"minimum_should_match": "70%",
							"boost":                3,
						},
					},
					// Fuzzy variant tolerating typos
					{
						"multi_match": M{
							"query": keyword,
							"type":  "best_fields",
							"fields": []string{
								"title^6",
								"basicTitle^4",
								"tags^3",
								"categories^1.5",
								"subCategories^1.5",
								"username^0.5",
							},
							"fuzziness":            "AUTO",
							"operator":             "and",
							"minimum_should_match": "70%",
							"boost":                2,
						},
					},
					// Exact prefix on the raw title (autocomplete)
					{
						"prefix": M{
							"title.keyword": M{
								"value": keyword,
								"boost": 2.5,
							},
						},
					},
					// Wildcard fallback
					{
						"wildcard": M{
							"title.keyword": M{
								"value":            keyword + "*",
								"boost":            2.0,
								"case_insensitive": true,
							},
						},
					},
				},
				"minimum_should_match": 1,
			},
		})
	}

	if len(p.Categories) > 0 {
		filter = append(filter, M{"match": M{"categories": strings.Join(p.Categories, " ")}})
	}
	if len(p.SubCategories) > 0 {
		filter = append(filter, M{"match": M{"subCategories": strings.Join(p.SubCategories, " ")}})
	}
	if len(p.Tags) > 0 {
		filter = append(filter, M{"match": M{"tags": strings.Join(p.Tags, " ")}})
	}

	// Price filter applies only when both bounds are present; compared in
	// minor units against the stored price.
	if p.PriceMin != nil && p.PriceMax != nil {
		filter = append(filter, M{"range": M{"price": M{
			"gte": *p.PriceMin * 100,
			"lte": *p.PriceMax * 100,
		}}})
	}
	if p.ExpectedDeliveryDays != nil {
		filter = append(filter, M{"range": M{"expectedDeliveryDays": M{"lte": *p.ExpectedDeliveryDays}}})
	}

	if len(p.ExcludeSellers) > 0 {
		mustNot = append(mustNot, M{"terms": M{"sellerId.keyword": p.ExcludeSellers}})
	}

	boolQuery := M{"bool": M{"must": must, "filter": filter, "must_not": mustNot}}

	query := M{
		"function_score": M{
			"query": boolQuery,
			"functions": []M{
				{
					"field_value_factor": M{
						"field":    "ratingSum",
						"factor":   0.05,
						"modifier": "sqrt",
						"missing":  0,
					},
				},
				{
					"random_score": M{"seed": seed},
					"weight":       0.02,
				},
			},
			"score_mode": "sum",
			"boost_mode": "multiply",
		},
	}

	from, size := normalizePage(p.Paginate, DefaultSearchPageSize)
	return M{
		"query": query,
		"sort":  buildSort(p.Sort),
		"from":  from,
		"size":  size,
	}
}

// buildSort whitelists the sort field and keeps score as the tiebreak for
// field sorts.
func buildSort(sort SortSpec) []M {
	order := "desc"
	if sort.Order == "asc" {
		order = "asc"
	}

	if !allowedSortFields[sort.By] {
		return []M{{"_score": M{"order": order}}}
	}
	return []M{
		{sort.By: M{"order": order}},
		{"_score": M{"order": "desc"}},
	}
}

// BuildTopQuery ranks undirected browsing results. With no text query there
// is no relevance baseline to protect, so the rating, freshness and jitter
// terms are combined additively.
func BuildTopQuery(sellerID, category string, page Paginate, seed int64) M {
	must := []M{}
	filter := []M{{"term": M{"active": true}}}

	if strings.TrimSpace(sellerID) != "" {
		must = append(must, M{"term": M{"sellerId.keyword": sellerID}})
	}
	if strings.TrimSpace(category) != "" {
		must = append(must, M{
			"match": M{
				"categories": M{
					"query":    category,
					"operator": "and",
				},
			},
		})
	}

	query := M{
		"function_score": M{
			"query": M{"bool": M{"must": must, "filter": filter}},
			"functions": []M{
				{
					"field_value_factor": M{
						"field":    "ratingSum",
						"factor":   0.1,
						"modifier": "sqrt",
						"missing":  0,
					},
					"weight": 0.7,
				},
				{
					"gauss": M{
						"createdAt": M{
							"origin": "now",
							"scale":  "30d",
							"decay":  0.7,
						},
					},
					"weight": 0.2,
				},
				{
					"random_score": M{"seed": seed},
					"weight":       0.2,
				},
			},
			"score_mode": "sum",
			"boost_mode": "sum",
		},
	}

	from, size := normalizePage(page, DefaultBrowsePageSize)
	return M{
		"query": query,
		"sort":  []M{{"_score": M{"order": "desc"}}},
		"from":  from,
		"size":  size,
	}
}

// BuildSimilarQuery builds a self-referential relevance query from the
// reference gig's own text, boosted multiplicatively by rating, price
// proximity and freshness. Multiplicative combination means a gig scoring
// zero on any factor drops out of the top results.
func BuildSimilarQuery(ref *models.Gig, page Paginate) M {
	terms := []string{ref.Username, ref.Title, ref.BasicTitle, ref.BasicDescription, ref.Categories}
	terms = append(terms, ref.SubCategories...)
	terms = append(terms, ref.Tags...)

	priceValue := ref.Price
	if priceValue < 0 {
		priceValue = 0
	}
	priceScale := float64(priceValue) * 0.3
	if priceScale < minPriceScale {
		priceScale = minPriceScale
	}

	query := M{
		"function_score": M{
			"query": M{
				"bool": M{
					"must": []M{
						{
							"multi_match": M{
								"query": strings.Join(terms, " "),
								"fields": []string{
									"username^0.5",
									"title^4",
									"basicTitle^3",
									"basicDescription^1.5",
									"categories^2.5",
									"subCategories^2",
									"tags^1",
								},
								"type": "best_fields",
							},
						},
					},
					"filter":   []M{{"term": M{"active": true}}},
					"must_not": []M{{"term": M{"_id": ref.ID}}},
				},
			},
			"functions": []M{
				{
					"field_value_factor": M{
						"field":    "ratingSum",
						"factor":   3,
						"modifier": "log1p",
						"missing":  0,
					},
					"weight": 5,
				},
				{
					"gauss": M{
						"price": M{
							"origin": priceValue,
							"scale":  priceScale,
							"decay":  0.5,
						},
					},
					"weight": 10,
				},
				{
					"gauss": M{
						"createdAt": M{
							"origin": "now",
							"scale":  "30d",
							"offset": "7d",
							"decay":  0.5,
						},
					},
					"weight": 2,
				},
			},
			"score_mode": "multiply",
			"boost_mode": "multiply",
		},
	}

	from, size := normalizePage(page, DefaultBrowsePageSize)
	return M{
		"query": query,
		"from":  from,
		"size":  size,
	}
}

// BuildSellerQuery filters gigs by an exact seller field (sellerId or
// username). A nil active filter returns gigs in both states.
func BuildSellerQuery(field, value string, active *bool, page Paginate) M {
	filter := []M{
		{
			"query_string": M{
				"default_field": field,
				"query":         value,
			},
		},
	}
	if active != nil {
		filter = append(filter, M{"term": M{"active": *active}})
	}

	from, size := normalizePage(page, DefaultBrowsePageSize)
	return M{
		"query": M{"bool": M{"filter": filter}},
		"from":  from,
		"size":  size,
	}
}

// BuildCategoryQuery matches active gigs whose category contains the term.
func BuildCategoryQuery(category string, page Paginate) M {
	from, size := normalizePage(page, DefaultBrowsePageSize)
	return M{
		"query": M{
			"bool": M{
				"must": []M{
					{
						"query_string": M{
							"fields": []string{"categories"},
							"query":  "*" + category + "*",
						},
					},
				},
				"filter": []M{{"term": M{"active": true}}},
			},
		},
		"from": from,
		"size": size,
	}
}

func normalizePage(p Paginate, defaultSize int) (int, int) {
	from := p.From
	if from < 0 {
		from = 0
	}
	size := p.Size
	if size <= 0 {
		size = defaultSize
	}
	return from, size
}
