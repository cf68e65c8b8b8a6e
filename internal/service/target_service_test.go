package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"hexaosint/api/internal/config"
	"hexaosint/api/internal/models"
	"hexaosint/api/internal/providers/facecrawler"
	"hexaosint/api/internal/providers/serpapi"
	"hexaosint/api/internal/repository"
)

var jpegProbe = append([]byte{0xff, 0xd8, 0xff, 0xe0}, bytes.Repeat([]byte{0x00}, 32)...)

type memScanStore struct {
	mu      sync.Mutex
	scans   []models.ScanHistory
	results map[string][]models.TargetResult
}

func newMemScanStore() *memScanStore {
	return &memScanStore{results: make(map[string][]models.TargetResult)}
}

func (s *memScanStore) CreateScan(_ context.Context, scan models.ScanHistory, results []models.TargetResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans = append(s.scans, scan)
	s.results[scan.ID] = results
	return nil
}

func (s *memScanStore) UpdateStatusByRef(_ context.Context, searchRef string, status models.ScanStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, scan := range s.scans {
		if scan.SearchRef == searchRef {
			s.scans[i].Status = status
			return nil
		}
	}
	return repository.ErrScanNotFound
}

func (s *memScanStore) ListByUser(_ context.Context, userID string) ([]models.ScanHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScanHistory
	for _, scan := range s.scans {
		if scan.UserID == userID {
			out = append(out, scan)
		}
	}
	return out, nil
}

type fakeSearchClient struct {
	results []serpapi.OrganicResult
	err     error
	queries []string
}

func (c *fakeSearchClient) Search(_ context.Context, query, _, _ string) ([]serpapi.OrganicResult, error) {
	c.queries = append(c.queries, query)
	return c.results, c.err
}

type fakeFaceClient struct {
	idSearch string
	status   facecrawler.SearchStatus
	uploads  int
	searches int
}

func (c *fakeFaceClient) Upload(_ context.Context, _ string, image io.Reader) (string, error) {
	c.uploads++
	if _, err := io.Copy(io.Discard, image); err != nil {
		return "", err
	}
	return c.idSearch, nil
}

func (c *fakeFaceClient) Search(_ context.Context, _ string, _ bool) (facecrawler.SearchStatus, error) {
	c.searches++
	return c.status, nil
}

type memEvidenceStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemEvidenceStore() *memEvidenceStore {
	return &memEvidenceStore{objects: make(map[string][]byte)}
}

func (s *memEvidenceStore) Put(_ context.Context, objectName, _ string, data io.Reader, _ int64) error {
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = payload
	return nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestTargetService(t *testing.T, search SearchClient, faces FaceClient) (*TargetService, *memScanStore, *memEvidenceStore) {
	t.Helper()
	scans := newMemScanStore()
	evidence := newMemEvidenceStore()
	svc := NewTargetService(scans, search, faces, evidence, testRedis(t), config.ProvidersConfig{
		SearchLocation: "Kazakhstan",
	}, zerolog.Nop())
	return svc, scans, evidence
}

func TestTextSearchRecordsScan(t *testing.T) {
	search := &fakeSearchClient{results: []serpapi.OrganicResult{
		{Title: "profile", Link: "https://facebook.com/x", Snippet: "snippet", Source: "SerpAPI"},
		{Title: "leak", Link: "https://pastebin.com/y", Snippet: "", Source: "SerpAPI"},
	}}
	svc, scans, _ := newTestTargetService(t, search, &fakeFaceClient{})
	ctx := context.Background()

	out, err := svc.TextSearch(ctx, "user-1", TextSearchInput{
		Name:       "John Doe",
		Categories: []string{"social", "logs"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "profile", out[0].Title)

	require.Len(t, search.queries, 1)
	require.Contains(t, search.queries[0], `site:facebook.com "John Doe"`)
	require.Contains(t, search.queries[0], " AND ")

	history, err := svc.ListScans(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.SearchTypePerson, history[0].SearchType)
	require.Equal(t, models.ScanStatusCompleted, history[0].Status)
	require.Len(t, scans.results[history[0].ID], 2)
}

func TestTextSearchEmptyResponseRecordsNothing(t *testing.T) {
	svc, scans, _ := newTestTargetService(t, &fakeSearchClient{}, &fakeFaceClient{})

	out, err := svc.TextSearch(context.Background(), "user-1", TextSearchInput{
		Name:       "Nobody",
		Categories: []string{"files"},
	})
	require.NoError(t, err)
	require.Empty(t, out)
	require.Empty(t, scans.scans)
}

func TestTextSearchValidatesInput(t *testing.T) {
	svc, _, _ := newTestTargetService(t, &fakeSearchClient{}, &fakeFaceClient{})
	ctx := context.Background()

	_, err := svc.TextSearch(ctx, "user-1", TextSearchInput{Name: "", Categories: []string{"social"}})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.TextSearch(ctx, "user-1", TextSearchInput{Name: "John", Categories: nil})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.TextSearch(ctx, "user-1", TextSearchInput{Name: "John", Categories: []string{"darkweb"}})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestImageSendArchivesAndRecords(t *testing.T) {
	faces := &fakeFaceClient{idSearch: "search-123"}
	svc, _, evidence := newTestTargetService(t, &fakeSearchClient{}, faces)
	ctx := context.Background()

	result, err := svc.ImageSend(ctx, "user-1", "probe.jpg", bytes.NewReader(jpegProbe))
	require.NoError(t, err)
	require.Equal(t, "search-123", result.IDSearch)
	require.Equal(t, 1, faces.uploads)

	// The probe landed in the evidence bucket under the uploader's prefix.
	require.Len(t, evidence.objects, 1)
	for name, data := range evidence.objects {
		require.True(t, strings.HasPrefix(name, "probes/user-1/"))
		require.True(t, strings.HasSuffix(name, ".jpeg"))
		require.Equal(t, jpegProbe, data)
	}

	history, err := svc.ListScans(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.SearchTypeFace, history[0].SearchType)
	require.Equal(t, models.ScanStatusStarted, history[0].Status)
	require.Equal(t, "search-123", history[0].SearchRef)
}

func TestImageSendRejectsUnsupportedType(t *testing.T) {
	svc, scans, _ := newTestTargetService(t, &fakeSearchClient{}, &fakeFaceClient{})

	_, err := svc.ImageSend(context.Background(), "user-1", "doc.gif", strings.NewReader("GIF89a not an accepted format"))
	require.ErrorIs(t, err, ErrImageUnsupported)
	require.Empty(t, scans.scans)
}

func TestImageSendRejectsOversizedImage(t *testing.T) {
	svc, _, _ := newTestTargetService(t, &fakeSearchClient{}, &fakeFaceClient{})

	huge := io.MultiReader(bytes.NewReader(jpegProbe), bytes.NewReader(make([]byte, maxProbeImageBytes)))
	_, err := svc.ImageSend(context.Background(), "user-1", "huge.jpg", huge)
	require.ErrorIs(t, err, ErrImageTooLarge)
}

func TestImageReceiveInProgress(t *testing.T) {
	faces := &fakeFaceClient{status: facecrawler.SearchStatus{Complete: false, Progress: 40}}
	svc, _, _ := newTestTargetService(t, &fakeSearchClient{}, faces)

	status, err := svc.ImageReceive(context.Background(), "search-123", false)
	require.NoError(t, err)
	require.Equal(t, 40, status.Progress)
	require.Empty(t, status.Data)
	require.Zero(t, status.Total)

	// In-progress responses are never cached.
	_, err = svc.ImageReceive(context.Background(), "search-123", false)
	require.NoError(t, err)
	require.Equal(t, 2, faces.searches)
}

func TestImageReceiveCompleteRedactsAndCaches(t *testing.T) {
	faces := &fakeFaceClient{
		idSearch: "search-123",
		status: facecrawler.SearchStatus{
			Complete: true,
			Progress: 100,
			Items: []map[string]any{
				{"url": "https://example.com/a", "score": 0.93, "base64": "aGlkZGVu"},
			},
		},
	}
	svc, _, _ := newTestTargetService(t, &fakeSearchClient{}, faces)
	ctx := context.Background()

	_, err := svc.ImageSend(ctx, "user-1", "probe.jpg", bytes.NewReader(jpegProbe))
	require.NoError(t, err)

	status, err := svc.ImageReceive(ctx, "search-123", false)
	require.NoError(t, err)
	require.Equal(t, 100, status.Progress)
	require.Equal(t, 1, status.Total)
	require.NotContains(t, status.Data[0], "base64")
	require.Equal(t, "https://example.com/a", status.Data[0]["url"])

	// The matching scan flipped to completed.
	history, err := svc.ListScans(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, models.ScanStatusCompleted, history[0].Status)

	// The second poll is served from cache.
	again, err := svc.ImageReceive(ctx, "search-123", false)
	require.NoError(t, err)
	require.Equal(t, status.Total, again.Total)
	require.Equal(t, 1, faces.searches)
}

func TestImageReceiveRequiresSearchID(t *testing.T) {
	svc, _, _ := newTestTargetService(t, &fakeSearchClient{}, &fakeFaceClient{})

	_, err := svc.ImageReceive(context.Background(), "", false)
	require.ErrorIs(t, err, ErrInvalidInput)
}
