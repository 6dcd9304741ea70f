package upstream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/voice-studio/constants"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDiscoverCreator(t *testing.T) {
	var got DiscoverRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/process-creator", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"extractedVideos":[
			{"id":"a","url":"https://tiktok.com/@x/video/1","title":"one","viewCount":10},
			{"id":"b","url":""},
			{"id":"c","url":"https://tiktok.com/@x/video/3"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", Token: "tok"}, nil, quietLogger())
	videos, err := c.DiscoverCreator(context.Background(), DiscoverRequest{Username: "x", Platform: constants.TikTok, VideoCount: 10})
	require.NoError(t, err)
	assert.Equal(t, DiscoverRequest{Username: "x", Platform: constants.TikTok, VideoCount: 10}, got)
	require.Len(t, videos, 2)
	assert.Equal(t, "one", videos[0].Title)
	assert.Equal(t, int64(10), videos[0].ViewCount)
}

func TestDiscoverCreatorErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"non-2xx", http.StatusBadGateway, `{"error":"scraper down"}`, "scraper down"},
		{"unsuccessful", http.StatusOK, `{"success":false,"error":"private account"}`, "private account"},
		{"empty", http.StatusOK, `{"success":true,"extractedVideos":[]}`, ErrNoVideos.Error()},
		{"garbage", http.StatusOK, `not json`, "decode discovery response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL}, nil, quietLogger())
			_, err := c.DiscoverCreator(context.Background(), DiscoverRequest{Username: "x"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAddVideoToCollection(t *testing.T) {
	var got AddVideoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/add-video-to-collection", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.URL == "bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"videoId":"vid-9"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil, quietLogger())
	id, err := c.AddVideoToCollection(context.Background(), AddVideoRequest{URL: "https://x/1", CollectionID: "col", Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, "vid-9", id)
	assert.Equal(t, "col", got.CollectionID)

	_, err = c.AddVideoToCollection(context.Background(), AddVideoRequest{URL: "bad"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
}
