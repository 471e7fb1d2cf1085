package search

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dbaltunis/interio-ai-canvas-sub011/config"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/models"
)

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexBatch indexes a batch order in Elasticsearch
func (c *ElasticClient) IndexBatch(ctx context.Context, batch *models.BatchOrder) error {
	log.Info().Str("batch_id", batch.ID.String()).Msg("indexing batch order")

	// Build the document to be indexed
	items := make([]map[string]interface{}, 0, len(batch.Items))
	for _, item := range batch.Items {
		items = append(items, map[string]interface{}{
			"id":                item.ID.String(),
			"queue_item_id":     item.QueueItemID.String(),
			"quantity":          item.Quantity,
			"unit_price":        item.UnitPrice,
			"total_price":       item.TotalPrice,
			"received_quantity": item.ReceivedQuantity,
		})
	}

	batchDoc := map[string]interface{}{
		"id":                     batch.ID.String(),
		"batch_number":           batch.BatchNumber,
		"supplier_id":            batch.SupplierID.String(),
		"status":                 batch.Status,
		"schedule_date":          batch.ScheduleDate,
		"sent_date":              batch.SentDate,
		"acknowledged_date":      batch.AcknowledgedDate,
		"expected_delivery_date": batch.ExpectedDeliveryDate,
		"actual_delivery_date":   batch.ActualDeliveryDate,
		"tracking_number":        batch.TrackingNumber,
		"total_items":            batch.TotalItems,
		"total_amount":           batch.TotalAmount,
		"items":                  items,
	}

	// Marshall the document to JSON
	docJson, err := json.Marshal(batchDoc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal batch document")
	}

	// Prepare the index request
	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: batch.ID.String(),
		Body:       bytes.NewReader(docJson),
		Refresh:    "true",
	}

	// Execute the request
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	// Check for errors in the response
	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	log.Info().Str("batch_id", batch.ID.String()).Msg("batch order indexed successfully")
	return nil
}

// SearchBatches searches for batch orders with the given criteria
func (c *ElasticClient) SearchBatches(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error) {
	// Convert query to JSON
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	// Prepare the search request
	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	// Execute the request
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	// Check for errors in the response
	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	// Parse the response
	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	// Extract the hits
	hits, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected search result format")
	}

	hitsArray, ok := hits["hits"].([]interface{})
	if !ok {
		return nil, errors.New("unexpected hits format")
	}

	// Extract the documents
	var docs []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}

		docs = append(docs, source)
	}

	return docs, nil
}
