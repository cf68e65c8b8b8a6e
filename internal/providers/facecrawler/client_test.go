package facecrawler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/upload_pic", r.URL.Path)
		require.Equal(t, "secret-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("images")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "probe.jpg", header.Filename)

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "fake image bytes", string(data))

		_, _ = w.Write([]byte(`{"id_search": "abc123"}`))
	}))
	defer srv.Close()

	client := New("secret-key", srv.URL)
	idSearch, err := client.Upload(context.Background(), "probe.jpg", strings.NewReader("fake image bytes"))
	require.NoError(t, err)
	require.Equal(t, "abc123", idSearch)
}

func TestUploadProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "no face detected"}`))
	}))
	defer srv.Close()

	client := New("secret-key", srv.URL)
	_, err := client.Upload(context.Background(), "probe.jpg", strings.NewReader("x"))
	require.ErrorContains(t, err, "no face detected")
}

func TestUploadMissingSearchID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New("secret-key", srv.URL)
	_, err := client.Upload(context.Background(), "probe.jpg", strings.NewReader("x"))
	require.Error(t, err)
}

func TestSearchInProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/search", r.URL.Path)
		require.Equal(t, "secret-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "abc123", req["id_search"])
		require.Equal(t, true, req["with_progress"])

		_, _ = w.Write([]byte(`{"progress": 55}`))
	}))
	defer srv.Close()

	client := New("secret-key", srv.URL)
	status, err := client.Search(context.Background(), "abc123", false)
	require.NoError(t, err)
	require.False(t, status.Complete)
	require.Equal(t, 55, status.Progress)
	require.Empty(t, status.Items)
}

func TestSearchComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"progress": 100,
			"output": {"items": [{"url": "https://example.com/a", "score": 0.91}]}
		}`))
	}))
	defer srv.Close()

	client := New("secret-key", srv.URL)
	status, err := client.Search(context.Background(), "abc123", false)
	require.NoError(t, err)
	require.True(t, status.Complete)
	require.Equal(t, 100, status.Progress)
	require.Len(t, status.Items, 1)
	require.Equal(t, "https://example.com/a", status.Items[0]["url"])
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New("secret-key", srv.URL)
	_, err := client.Search(context.Background(), "abc123", false)
	require.Error(t, err)
}
