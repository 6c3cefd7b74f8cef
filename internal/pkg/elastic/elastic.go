package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/gofiber/fiber/v2/log"

	"github.com/gigforge/gig-service/internal/pkg/apperror"
)

// Client wraps the search engine for a single index. Write failures surface
// as dependency errors; search failures degrade to an empty result so the
// read path never breaks a whole request on a transient index outage.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// Hit is a single ranked document with its server-assigned score.
type Hit struct {
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// SearchResult carries the page of hits plus the total match count.
type SearchResult struct {
	Hits  []Hit
	Total int64
}

// BulkDoc pairs a document id with its full source for bulk indexing.
type BulkDoc struct {
	ID     string
	Source interface{}
}

func NewClient(url, username, password, index string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}
	return &Client{es: es, index: index}, nil
}

// EnsureIndex creates the index when it does not exist yet.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperror.Dependency("elastic:ensure-index", err)
	}
	defer drain(res)

	if res.StatusCode == 200 {
		return nil
	}

	createRes, err := c.es.Indices.Create(c.index, c.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return apperror.Dependency("elastic:create-index", err)
	}
	defer drain(createRes)
	if createRes.IsError() {
		return apperror.Dependency("elastic:create-index", fmt.Errorf("index create failed: %s", createRes.String()))
	}

	log.Infof("[Elastic] Created index %s", c.index)
	return nil
}

// Count returns the number of documents currently in the index.
func (c *Client) Count(ctx context.Context) (int64, error) {
	res, err := c.es.Count(c.es.Count.WithContext(ctx), c.es.Count.WithIndex(c.index))
	if err != nil {
		return 0, apperror.Dependency("elastic:count", err)
	}
	defer drain(res)
	if res.IsError() {
		return 0, apperror.Dependency("elastic:count", fmt.Errorf("count failed: %s", res.String()))
	}

	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, apperror.Dependency("elastic:count", err)
	}
	return out.Count, nil
}

// Get fetches a document source by id. The second return value reports
// whether the document exists.
func (c *Client) Get(ctx context.Context, id string) (json.RawMessage, bool, error) {
	res, err := c.es.Get(c.index, id, c.es.Get.WithContext(ctx))
	if err != nil {
		return nil, false, apperror.Dependency("elastic:get", err)
	}
	defer drain(res)

	if res.StatusCode == 404 {
		return nil, false, nil
	}
	if res.IsError() {
		return nil, false, apperror.Dependency("elastic:get", fmt.Errorf("get failed: %s", res.String()))
	}

	var out struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, false, apperror.Dependency("elastic:get", err)
	}
	if !out.Found {
		return nil, false, nil
	}
	return out.Source, true, nil
}

// Index writes a full document, replacing any previous version. Repeating
// the call with the same document is a no-op for readers, which is what
// makes propagation retries safe.
func (c *Client) Index(ctx context.Context, id string, doc interface{}) error {
	res, err := c.es.Index(c.index, esutil.NewJSONReader(doc),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return apperror.Dependency("elastic:index", err)
	}
	defer drain(res)
	if res.IsError() {
		return apperror.Dependency("elastic:index", fmt.Errorf("index failed for %s: %s", id, res.String()))
	}
	return nil
}

// Update applies a partial document to an existing one.
func (c *Client) Update(ctx context.Context, id string, doc interface{}) error {
	body := map[string]interface{}{"doc": doc}
	res, err := c.es.Update(c.index, id, esutil.NewJSONReader(body),
		c.es.Update.WithContext(ctx),
		c.es.Update.WithRefresh("true"),
	)
	if err != nil {
		return apperror.Dependency("elastic:update", err)
	}
	defer drain(res)
	if res.IsError() {
		return apperror.Dependency("elastic:update", fmt.Errorf("update failed for %s: %s", id, res.String()))
	}
	return nil
}

// Delete removes a document by id. A missing document is not an error.
func (c *Client) Delete(ctx context.Context, id string) error {
	res, err := c.es.Delete(c.index, id,
		c.es.Delete.WithContext(ctx),
		c.es.Delete.WithRefresh("true"),
	)
	if err != nil {
		return apperror.Dependency("elastic:delete", err)
	}
	defer drain(res)
	if res.StatusCode == 404 {
		return nil
	}
	if res.IsError() {
		return apperror.Dependency("elastic:delete", fmt.Errorf("delete failed for %s: %s", id, res.String()))
	}
	return nil
}

// Bulk indexes a batch of full documents in one request.
func (c *Client) Bulk(ctx context.Context, docs []BulkDoc) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		meta := fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`, c.index, doc.ID)
		buf.WriteString(meta)
		buf.WriteByte('\n')
		src, err := json.Marshal(doc.Source)
		if err != nil {
			return apperror.Dependency("elastic:bulk", err)
		}
		buf.Write(src)
		buf.WriteByte('\n')
	}

	res, err := c.es.Bulk(bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return apperror.Dependency("elastic:bulk", err)
	}
	defer drain(res)
	if res.IsError() {
		return apperror.Dependency("elastic:bulk", fmt.Errorf("bulk index failed: %s", res.String()))
	}
	return nil
}

// DeleteByQuery removes every document matching the given query.
func (c *Client) DeleteByQuery(ctx context.Context, query map[string]interface{}) error {
	body := map[string]interface{}{"query": query}
	res, err := c.es.DeleteByQuery([]string{c.index}, esutil.NewJSONReader(body),
		c.es.DeleteByQuery.WithContext(ctx),
		c.es.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return apperror.Dependency("elastic:delete-by-query", err)
	}
	defer drain(res)
	if res.IsError() {
		return apperror.Dependency("elastic:delete-by-query", fmt.Errorf("delete by query failed: %s", res.String()))
	}
	return nil
}

// Search runs a full search body against the index. Errors are absorbed to
// an empty result: ranked reads degrade gracefully instead of failing the
// caller when the index is unreachable.
func (c *Client) Search(ctx context.Context, body map[string]interface{}) *SearchResult {
	empty := &SearchResult{Hits: []Hit{}}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(esutil.NewJSONReader(body)),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		log.Errorf("[Elastic] Search against %s failed: %v", c.index, err)
		return empty
	}
	defer drain(res)
	if res.IsError() {
		log.Errorf("[Elastic] Search against %s returned error: %s", c.index, res.String())
		return empty
	}

	var out struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []Hit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		log.Errorf("[Elastic] Failed to decode search response: %v", err)
		return empty
	}

	return &SearchResult{Hits: out.Hits.Hits, Total: out.Hits.Total.Value}
}

func drain(res *esapi.Response) {
	if res != nil && res.Body != nil {
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
	}
}
