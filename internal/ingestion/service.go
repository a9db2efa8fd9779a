package ingestion

import (
	"context"

	"github.com/jonathan/job-recommender/internal/schemas"
	"github.com/jonathan/job-recommender/internal/upstream"
)

// ServiceNormalizer delegates normalization to the external ingestion service.
type ServiceNormalizer struct {
	client *upstream.Client
}

// NewServiceNormalizer wraps an upstream client for the ingestion service.
func NewServiceNormalizer(client *upstream.Client) *ServiceNormalizer {
	return &ServiceNormalizer{client: client}
}

type normalizeResponse struct {
	NormalizedJob map[string]any `json:"normalizedJob"`
}

// NormalizeText calls /tools/normalize_text.
func (s *ServiceNormalizer) NormalizeText(ctx context.Context, text string) (*NormalizedJob, error) {
	var resp normalizeResponse
	err := s.client.PostJSON(ctx, "normalize_text", "/tools/normalize_text",
		map[string]string{"text": text}, schemas.NormalizeResponse, &resp)
	if err != nil {
		return nil, err
	}
	return Decode(resp.NormalizedJob)
}

// NormalizeURL calls /tools/fetch_url_and_normalize.
func (s *ServiceNormalizer) NormalizeURL(ctx context.Context, rawURL string) (*NormalizedJob, error) {
	var resp normalizeResponse
	err := s.client.PostJSON(ctx, "fetch_url_and_normalize", "/tools/fetch_url_and_normalize",
		map[string]string{"url": rawURL}, schemas.NormalizeResponse, &resp)
	if err != nil {
		return nil, err
	}
	return Decode(resp.NormalizedJob)
}

// NormalizeFile uploads the document to /tools/extract_file_and_normalize.
func (s *ServiceNormalizer) NormalizeFile(ctx context.Context, filename string, content []byte) (*NormalizedJob, error) {
	var resp normalizeResponse
	err := s.client.PostFile(ctx, "extract_file_and_normalize", "/tools/extract_file_and_normalize",
		"file", filename, content, schemas.NormalizeResponse, &resp)
	if err != nil {
		return nil, err
	}
	return Decode(resp.NormalizedJob)
}
