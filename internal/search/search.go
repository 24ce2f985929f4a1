// Package search indexes menu products into Elasticsearch and runs the
// per-restaurant menu search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/table_order/internal/models"
)

var ErrSearch = errors.New("search")

// ProductDoc is the indexed form of a product.
type ProductDoc struct {
	ID             string   `json:"id"`
	RestaurantID   string   `json:"restaurantId"`
	MenuCategoryID string   `json:"menuCategoryId"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Ingredients    []string `json:"ingredients"`
	Price          string   `json:"price"`
	ImageURL       string   `json:"imageUrl"`
}

func DocFromProduct(p models.Product) ProductDoc {
	return ProductDoc{
		ID:             p.ID.String(),
		RestaurantID:   p.RestaurantID.String(),
		MenuCategoryID: p.MenuCategoryID.String(),
		Name:           p.Name,
		Description:    p.Description,
		Ingredients:    []string(p.Ingredients),
		Price:          p.Price.StringFixed(2),
		ImageURL:       p.ImageURL,
	}
}

type Client struct {
	es    *elasticsearch.Client
	index string
}

func New(es *elasticsearch.Client, index string) *Client {
	return &Client{es: es, index: index}
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "restaurantId":   {"type": "keyword"},
      "menuCategoryId": {"type": "keyword"},
      "name":           {"type": "text"},
      "description":    {"type": "text"},
      "ingredients":    {"type": "text"},
      "price":          {"type": "keyword", "index": false},
      "imageUrl":       {"type": "keyword", "index": false}
    }
  }
}`

// EnsureIndex creates the products index when it does not exist yet.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: index exists: %v", ErrSearch, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("%w: create index: %v", ErrSearch, err)
	}
	return checkResponse(res, "create index")
}

func (c *Client) IndexProduct(ctx context.Context, doc ProductDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode document: %v", ErrSearch, err)
	}

	res, err := c.es.Index(c.index, bytes.NewReader(body),
		c.es.Index.WithDocumentID(doc.ID),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("%w: index document: %v", ErrSearch, err)
	}
	return checkResponse(res, "index document")
}

// Search runs a fuzzy multi_match over name, description and ingredients,
// restricted to one restaurant.
func (c *Client) Search(ctx context.Context, restaurantID, query string, from, size int) (int64, []ProductDoc, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^2", "description", "ingredients"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"restaurantId": restaurantID},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("%w: encode query: %v", ErrSearch, err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrSearch, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("%w: %s: %s", ErrSearch, res.Status(), msg)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source ProductDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("%w: decode response: %v", ErrSearch, err)
	}

	docs := make([]ProductDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%w: %s: %s: %s", ErrSearch, op, res.Status(), msg)
	}
	return nil
}
