package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hexaosint/api/internal/config"
	"hexaosint/api/internal/dorks"
	"hexaosint/api/internal/ids"
	"hexaosint/api/internal/media/sniffer"
	"hexaosint/api/internal/models"
	"hexaosint/api/internal/providers/facecrawler"
	"hexaosint/api/internal/providers/serpapi"
)

// ScanStore persists scan history. Satisfied by repository.ScanRepository.
type ScanStore interface {
	CreateScan(ctx context.Context, scan models.ScanHistory, results []models.TargetResult) error
	UpdateStatusByRef(ctx context.Context, searchRef string, status models.ScanStatus) error
	ListByUser(ctx context.Context, userID string) ([]models.ScanHistory, error)
}

// SearchClient is the text-search provider. Satisfied by serpapi.Client.
type SearchClient interface {
	Search(ctx context.Context, query, location, engine string) ([]serpapi.OrganicResult, error)
}

// FaceClient is the face-matching provider. Satisfied by facecrawler.Client.
type FaceClient interface {
	Upload(ctx context.Context, filename string, image io.Reader) (string, error)
	Search(ctx context.Context, idSearch string, demo bool) (facecrawler.SearchStatus, error)
}

// EvidenceStore archives uploaded probe images. Satisfied by
// storage.EvidenceStore.
type EvidenceStore interface {
	Put(ctx context.Context, objectName, contentType string, data io.Reader, size int64) error
}

const (
	maxProbeImageBytes = 10 << 20
	faceCacheTTL       = 10 * time.Minute
)

type TargetService struct {
	scans    ScanStore
	search   SearchClient
	faces    FaceClient
	evidence EvidenceStore
	cache    *redis.Client
	cfg      config.ProvidersConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewTargetService(
	scans ScanStore,
	search SearchClient,
	faces FaceClient,
	evidence EvidenceStore,
	cache *redis.Client,
	cfg config.ProvidersConfig,
	log zerolog.Logger,
) *TargetService {
	return &TargetService{
		scans:    scans,
		search:   search,
		faces:    faces,
		evidence: evidence,
		cache:    cache,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type TextSearchInput struct {
	Name       string
	Categories []string
	Country    string
	Engine     string
}

type TextResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// TextSearch builds the dork query, forwards it to the search provider and
// records the scan with its results. An empty provider response is returned
// as-is without recording a scan.
func (s *TargetService) TextSearch(ctx context.Context, userID string, input TextSearchInput) ([]TextResult, error) {
	if input.Name == "" {
		return nil, ErrInvalidInput
	}
	query, err := dorks.BuildCombined(input.Name, input.Categories)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	country := input.Country
	if country == "" {
		country = s.cfg.SearchLocation
	}
	engine := input.Engine
	if engine == "" {
		engine = "google"
	}

	organic, err := s.search.Search(ctx, query, country, engine)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	if len(organic) == 0 {
		return []TextResult{}, nil
	}

	scan := models.ScanHistory{
		ID:         ids.New(),
		UserID:     userID,
		SearchType: models.SearchTypePerson,
		Engine:     engine,
		Query:      query,
		Metadata: map[string]any{
			"country":    country,
			"categories": input.Categories,
		},
		Status: models.ScanStatusCompleted,
	}

	results := make([]models.TargetResult, 0, len(organic))
	out := make([]TextResult, 0, len(organic))
	for _, item := range organic {
		results = append(results, models.TargetResult{
			ID:         ids.New(),
			ScanID:     scan.ID,
			Title:      item.Title,
			Link:       item.Link,
			Snippet:    item.Snippet,
			SourceType: item.Source,
		})
		out = append(out, TextResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
			Source:  item.Source,
		})
	}

	if err := s.scans.CreateScan(ctx, scan, results); err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}
	return out, nil
}

// ImageSendResult carries the provider-side search id the client polls with.
type ImageSendResult struct {
	IDSearch string
}

// ImageSend validates and archives a probe image, then forwards it to the
// face-matching provider. The whole image is buffered: it is read once but
// written to both the evidence bucket and the provider.
func (s *TargetService) ImageSend(ctx context.Context, userID, filename string, image io.Reader) (ImageSendResult, error) {
	data, err := io.ReadAll(io.LimitReader(image, maxProbeImageBytes+1))
	if err != nil {
		return ImageSendResult{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxProbeImageBytes {
		return ImageSendResult{}, ErrImageTooLarge
	}

	detected, err := sniffer.DetectHead(data)
	if err != nil {
		if errors.Is(err, sniffer.ErrUnknownType) {
			return ImageSendResult{}, ErrImageUnsupported
		}
		return ImageSendResult{}, err
	}

	objectName := fmt.Sprintf("probes/%s/%s.%s", userID, ids.New(), detected.Type)
	if err := s.evidence.Put(ctx, objectName, detected.MIME, bytes.NewReader(data), int64(len(data))); err != nil {
		// Archival is best effort; the lookup itself must not fail on it.
		s.log.Warn().Err(err).Str("object", objectName).Msg("evidence archive failed")
	}

	idSearch, err := s.faces.Upload(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return ImageSendResult{}, fmt.Errorf("image send: %w", err)
	}

	scan := models.ScanHistory{
		ID:         ids.New(),
		UserID:     userID,
		SearchType: models.SearchTypeFace,
		Engine:     "facecrawler",
		SearchRef:  idSearch,
		Metadata: map[string]any{
			"object": objectName,
		},
		Status: models.ScanStatusStarted,
	}
	if err := s.scans.CreateScan(ctx, scan, nil); err != nil {
		return ImageSendResult{}, fmt.Errorf("record scan: %w", err)
	}

	return ImageSendResult{IDSearch: idSearch}, nil
}

// ImageSearchStatus is what polling clients see: progress while the crawl
// runs, matched items once it finishes.
type ImageSearchStatus struct {
	Message  string           `json:"message"`
	Progress int              `json:"progress"`
	Data     []map[string]any `json:"data"`
	Total    int              `json:"total"`
}

func faceCacheKey(idSearch string) string {
	return "facesearch:" + idSearch
}

// ImageReceive polls the provider for search progress. Completed results
// are cached so repeated polls stop hitting the paid API.
func (s *TargetService) ImageReceive(ctx context.Context, idSearch string, demo bool) (ImageSearchStatus, error) {
	if idSearch == "" {
		return ImageSearchStatus{}, ErrInvalidInput
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, faceCacheKey(idSearch)).Bytes()
		if err == nil {
			var status ImageSearchStatus
			if err := json.Unmarshal(cached, &status); err == nil {
				return status, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("face search cache read failed")
		}
	}

	result, err := s.faces.Search(ctx, idSearch, demo)
	if err != nil {
		return ImageSearchStatus{}, fmt.Errorf("image search: %w", err)
	}

	if !result.Complete {
		return ImageSearchStatus{
			Message:  "running search...",
			Progress: result.Progress,
			Data:     []map[string]any{},
		}, nil
	}

	items := redactItems(result.Items)
	status := ImageSearchStatus{
		Message:  "search complete.",
		Progress: 100,
		Data:     items,
		Total:    len(items),
	}

	if err := s.scans.UpdateStatusByRef(ctx, idSearch, models.ScanStatusCompleted); err != nil {
		s.log.Warn().Err(err).Str("search_ref", idSearch).Msg("scan status update failed")
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(status); err == nil {
			if err := s.cache.Set(ctx, faceCacheKey(idSearch), encoded, faceCacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("face search cache write failed")
			}
		}
	}
	return status, nil
}

// redactItems strips inline image payloads from provider items before they
// are returned, logged or cached.
func redactItems(items []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		clean := make(map[string]any, len(item))
		for k, v := range item {
			if k == "base64" {
				continue
			}
			clean[k] = v
		}
		out = append(out, clean)
	}
	return out
}

// ListScans returns the caller's scan history.
func (s *TargetService) ListScans(ctx context.Context, userID string) ([]models.ScanHistory, error) {
	return s.scans.ListByUser(ctx, userID)
}
