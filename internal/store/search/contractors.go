// Package search serves contractor reads from an Elasticsearch index.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/models"
	"contractor-matching/internal/store"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// DefaultPageSize is the number of hits fetched per search_after page.
const DefaultPageSize = 1000

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Document is the indexed shape of a contractor.
type Document struct {
	models.Contractor
	Location *geoPoint `json:"location,omitempty"`
}

func NewDocument(c models.Contractor) Document {
	d := Document{Contractor: c}
	if c.ServiceArea != nil && c.ServiceArea.Validate() == nil {
		d.Location = &geoPoint{Lat: c.ServiceArea.Lat, Lon: c.ServiceArea.Lng}
	}
	return d
}

type searchHit struct {
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
	Sort   []interface{}   `json:"sort"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type getResponse struct {
	Found  bool     `json:"found"`
	Source Document `json:"_source"`
}

type ContractorStore struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
	logger   logger.Logger
}

func NewContractorStore(client *elasticsearch.Client, index string, log logger.Logger) *ContractorStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ContractorStore{
		client:   client,
		index:    index,
		pageSize: DefaultPageSize,
		logger:   log.WithFields(map[string]interface{}{"component": "contractor-search"}),
	}
}

// ListContractors pages through every hit in id order with search_after.
// A hit whose source does not decode is skipped with a warning.
func (s *ContractorStore) ListContractors(ctx context.Context, q models.ContractorQuery) ([]*models.Contractor, error) {
	var (
		out   []*models.Contractor
		after []interface{}
	)
	for {
		hits, err := s.searchPage(ctx, q, after)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			var d Document
			if err := json.Unmarshal(h.Source, &d); err != nil {
				s.logger.Warn("skipping undecodable contractor document", map[string]interface{}{
					"documentId": h.ID,
					"error":      err.Error(),
				})
				continue
			}
			c := d.Contractor
			out = append(out, &c)
		}
		if len(hits) < s.pageSize {
			return out, nil
		}
		after = hits[len(hits)-1].Sort
		if len(after) == 0 {
			return nil, fmt.Errorf("search contractors: hit %s has no sort values", hits[len(hits)-1].ID)
		}
	}
}

func (s *ContractorStore) searchPage(ctx context.Context, q models.ContractorQuery, after []interface{}) ([]searchHit, error) {
	body, err := json.Marshal(buildContractorQuery(q, s.pageSize, after))
	if err != nil {
		return nil, fmt.Errorf("encode contractor query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search contractors: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search contractors: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode contractor hits: %w", err)
	}
	return r.Hits.Hits, nil
}

func (s *ContractorStore) GetContractor(ctx context.Context, id string) (*models.Contractor, error) {
	req := esapi.GetRequest{Index: s.index, DocumentID: id}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("get contractor: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, store.ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("get contractor: %s", res.String())
	}

	var r getResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode contractor: %w", err)
	}
	if !r.Found {
		return nil, store.ErrNotFound
	}
	c := r.Source.Contractor
	return &c, nil
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (s *ContractorStore) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{s.index}}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: s.index, Body: strings.NewReader(indexMapping)}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index: %s", res.String())
	}
	return nil
}

// IndexContractor writes c and makes it visible to the next search.
func (s *ContractorStore) IndexContractor(ctx context.Context, c models.Contractor) error {
	body, err := json.Marshal(NewDocument(c))
	if err != nil {
		return fmt.Errorf("encode contractor %s: %w", c.ID, err)
	}

	res, err := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: c.ID,
		Body:       strings.NewReader(string(body)),
		Refresh:    "true",
	}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index contractor %s: %w", c.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index contractor %s: %s", c.ID, res.String())
	}
	return nil
}
