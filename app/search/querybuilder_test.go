package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigforge/gig-service/app/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func functionScoreOf(t *testing.T, body M) M {
	t.Helper()
	query, ok := body["query"].(M)
	require.True(t, ok)
	fs, ok := query["function_score"].(M)
	require.True(t, ok)
	return fs
}

func boolOf(t *testing.T, fs M) M {
	t.Helper()
	inner, ok := fs["query"].(M)
	require.True(t, ok)
	b, ok := inner["bool"].(M)
	require.True(t, ok)
	return b
}

func TestBuildKeywordQuery_Defaults(t *testing.T) {
	body := BuildKeywordQuery(Params{Keyword: "logo design"}, 42)

	assert.Equal(t, 0, body["from"])
	assert.Equal(t, DefaultSearchPageSize, body["size"])

	fs := functionScoreOf(t, body)
	assert.Equal(t, "multiply", fs["boost_mode"])
	assert.Equal(t, "sum", fs["score_mode"])

	functions := fs["functions"].([]M)
	require.Len(t, functions, 2)
	fvf := functions[0]["field_value_factor"].(M)
	assert.Equal(t, "ratingSum", fvf["field"])
	assert.Equal(t, 0.05, fvf["factor"])
	assert.Equal(t, "sqrt", fvf["modifier"])
	random := functions[1]["random_score"].(M)
	assert.Equal(t, int64(42), random["seed"])
	assert.Equal(t, 0.02, functions[1]["weight"])
}

func TestBuildKeywordQuery_KeywordClauses(t *testing.T) {
	body := BuildKeywordQuery(Params{Keyword: "  Logo Design  "}, 1)

	b := boolOf(t, functionScoreOf(t, body))
	must := b["must"].([]M)
	require.Len(t, must, 1)

	should := must[0]["bool"].(M)["should"].([]M)
	require.Len(t, should, 4)

	cross := should[0]["multi_match"].(M)
	assert.Equal(t, "logo design", cross["query"])
	assert.Equal(t, "cross_fields", cross["type"])
	assert.Equal(t, "and", cross["operator"])
	assert.Equal(t, "70%", cross["minimum_should_match"])

	fuzzy := should[1]["multi_match"].(M)
	assert.Equal(t, "best_fields", fuzzy["type"])
	assert.Equal(t, "AUTO", fuzzy["fuzziness"])

	prefix := should[2]["prefix"].(M)["title.keyword"].(M)
	assert.Equal(t, "logo design", prefix["value"])

	wildcard := should[3]["wildcard"].(M)["title.keyword"].(M)
	assert.Equal(t, "logo design*", wildcard["value"])
	assert.Equal(t, true, wildcard["case_insensitive"])
}

func TestBuildKeywordQuery_EmptyKeywordHasNoTextClause(t *testing.T) {
	body := BuildKeywordQuery(Params{Keyword: "   "}, 1)

	b := boolOf(t, functionScoreOf(t, body))
	assert.Empty(t, b["must"].([]M))
}

func TestBuildKeywordQuery_Filters(t *testing.T) {
	body := BuildKeywordQuery(Params{
		Categories:           []string{"graphics-design"},
		Tags:                 []string{"logo", "branding"},
		PriceMin:             floatPtr(10),
		PriceMax:             floatPtr(50),
		ExpectedDeliveryDays: intPtr(3),
		ExcludeSellers:       []string{"seller-1"},
	}, 1)

	b := boolOf(t, functionScoreOf(t, body))
	filter := b["filter"].([]M)
	require.Len(t, filter, 5)

	assert.Equal(t, M{"term": M{"active": true}}, filter[0])
	assert.Equal(t, M{"match": M{"categories": "graphics-design"}}, filter[1])
	assert.Equal(t, M{"match": M{"tags": "logo branding"}}, filter[2])

	// price bounds in minor units
	priceRange := filter[3]["range"].(M)["price"].(M)
	assert.Equal(t, float64(1000), priceRange["gte"])
	assert.Equal(t, float64(5000), priceRange["lte"])

	deliveryRange := filter[4]["range"].(M)["expectedDeliveryDays"].(M)
	assert.Equal(t, 3, deliveryRange["lte"])

	mustNot := b["must_not"].([]M)
	require.Len(t, mustNot, 1)
	assert.Equal(t, M{"terms": M{"sellerId.keyword": []string{"seller-1"}}}, mustNot[0])
}

func TestBuildKeywordQuery_PriceFilterNeedsBothBounds(t *testing.T) {
	body := BuildKeywordQuery(Params{PriceMin: floatPtr(10)}, 1)

	b := boolOf(t, functionScoreOf(t, body))
	filter := b["filter"].([]M)
	require.Len(t, filter, 1) // only the active filter
}

func TestBuildKeywordQuery_DeliveryFilterWithoutPrice(t *testing.T) {
	body := BuildKeywordQuery(Params{ExpectedDeliveryDays: intPtr(7)}, 1)

	b := boolOf(t, functionScoreOf(t, body))
	filter := b["filter"].([]M)
	require.Len(t, filter, 2)
	deliveryRange := filter[1]["range"].(M)["expectedDeliveryDays"].(M)
	assert.Equal(t, 7, deliveryRange["lte"])
}

func TestBuildSort(t *testing.T) {
	// whitelisted field keeps score as tiebreak
	sort := buildSort(SortSpec{By: "price", Order: "asc"})
	require.Len(t, sort, 2)
	assert.Equal(t, M{"price": M{"order": "asc"}}, sort[0])
	assert.Equal(t, M{"_score": M{"order": "desc"}}, sort[1])

	// unknown field falls back to score ordering
	sort = buildSort(SortSpec{By: "sellerId", Order: "asc"})
	require.Len(t, sort, 1)
	assert.Equal(t, M{"_score": M{"order": "asc"}}, sort[0])

	// anything but asc means desc
	sort = buildSort(SortSpec{By: "createdAt", Order: "DESCENDING"})
	assert.Equal(t, M{"createdAt": M{"order": "desc"}}, sort[0])
}

func TestBuildTopQuery(t *testing.T) {
	body := BuildTopQuery("seller-9", "graphics-design", Paginate{}, 7)

	assert.Equal(t, 0, body["from"])
	assert.Equal(t, DefaultBrowsePageSize, body["size"])

	fs := functionScoreOf(t, body)
	assert.Equal(t, "sum", fs["boost_mode"])
	assert.Equal(t, "sum", fs["score_mode"])

	functions := fs["functions"].([]M)
	require.Len(t, functions, 3)
	assert.Equal(t, 0.7, functions[0]["weight"])
	gauss := functions[1]["gauss"].(M)["createdAt"].(M)
	assert.Equal(t, "30d", gauss["scale"])
	assert.Equal(t, 0.7, gauss["decay"])
	assert.Equal(t, 0.2, functions[2]["weight"])

	b := boolOf(t, fs)
	must := b["must"].([]M)
	require.Len(t, must, 2)
	assert.Equal(t, M{"term": M{"sellerId.keyword": "seller-9"}}, must[0])
}

func TestBuildTopQuery_NoScopes(t *testing.T) {
	body := BuildTopQuery("", "", Paginate{From: 20, Size: 5}, 7)

	assert.Equal(t, 20, body["from"])
	assert.Equal(t, 5, body["size"])

	b := boolOf(t, functionScoreOf(t, body))
	assert.Empty(t, b["must"].([]M))
	assert.Equal(t, []M{{"term": M{"active": true}}}, b["filter"].([]M))
}

func TestBuildSimilarQuery(t *testing.T) {
	ref := &models.Gig{
		ID:            "gig-1",
		Username:      "anna",
		Title:         "I will design a logo",
		BasicTitle:    "Logo design",
		Categories:    "graphics-design",
		SubCategories: models.StringList{"logo-design"},
		Tags:          models.StringList{"logo"},
		Price:         10000,
	}

	body := BuildSimilarQuery(ref, Paginate{})
	fs := functionScoreOf(t, body)
	assert.Equal(t, "multiply", fs["boost_mode"])
	assert.Equal(t, "multiply", fs["score_mode"])

	b := boolOf(t, fs)
	mustNot := b["must_not"].([]M)
	require.Len(t, mustNot, 1)
	assert.Equal(t, M{"term": M{"_id": "gig-1"}}, mustNot[0])

	functions := fs["functions"].([]M)
	require.Len(t, functions, 3)

	fvf := functions[0]["field_value_factor"].(M)
	assert.Equal(t, "log1p", fvf["modifier"])
	assert.Equal(t, 5, functions[0]["weight"])

	price := functions[1]["gauss"].(M)["price"].(M)
	assert.Equal(t, int64(10000), price["origin"])
	assert.Equal(t, float64(3000), price["scale"])

	created := functions[2]["gauss"].(M)["createdAt"].(M)
	assert.Equal(t, "7d", created["offset"])
}

func TestBuildSimilarQuery_PriceScaleFloor(t *testing.T) {
	ref := &models.Gig{ID: "gig-2", Price: 600}

	body := BuildSimilarQuery(ref, Paginate{})
	functions := functionScoreOf(t, body)["functions"].([]M)
	price := functions[1]["gauss"].(M)["price"].(M)

	// 30% of 600 is below the floor
	assert.Equal(t, float64(minPriceScale), price["scale"])
}

func TestBuildSellerQuery(t *testing.T) {
	active := true
	body := BuildSellerQuery("username", "anna", &active, Paginate{})

	filter := body["query"].(M)["bool"].(M)["filter"].([]M)
	require.Len(t, filter, 2)
	qs := filter[0]["query_string"].(M)
	assert.Equal(t, "username", qs["default_field"])
	assert.Equal(t, "anna", qs["query"])
	assert.Equal(t, M{"term": M{"active": true}}, filter[1])

	// nil active returns both states
	body = BuildSellerQuery("sellerId", "s-1", nil, Paginate{})
	filter = body["query"].(M)["bool"].(M)["filter"].([]M)
	require.Len(t, filter, 1)
}

func TestBuildCategoryQuery(t *testing.T) {
	body := BuildCategoryQuery("design", Paginate{})

	b := body["query"].(M)["bool"].(M)
	qs := b["must"].([]M)[0]["query_string"].(M)
	assert.Equal(t, "*design*", qs["query"])
	assert.Equal(t, []M{{"term": M{"active": true}}}, b["filter"].([]M))
	assert.Equal(t, DefaultBrowsePageSize, body["size"])
}

func TestNormalizePage(t *testing.T) {
	from, size := normalizePage(Paginate{From: -5, Size: 0}, 12)
	assert.Equal(t, 0, from)
	assert.Equal(t, 12, size)

	from, size = normalizePage(Paginate{From: 24, Size: 12}, 10)
	assert.Equal(t, 24, from)
	assert.Equal(t, 12, size)
}
