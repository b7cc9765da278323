package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/guiyumin/transmote/internal/transmission"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		name    string
		torrent transmission.Torrent
		want    Status
	}{
		{"downloading", transmission.Torrent{Status: transmission.StatusDownloading, PercentDone: 0.5}, StatusDownloading},
		{"queued download", transmission.Torrent{Status: transmission.StatusQueuedDown}, StatusDownloading},
		{"seeding complete", transmission.Torrent{Status: transmission.StatusSeeding, PercentDone: 1}, StatusFinished},
		{"seeding partial selection", transmission.Torrent{Status: transmission.StatusSeeding, PercentDone: 0.8}, StatusSeeding},
		{"stopped complete", transmission.Torrent{Status: transmission.StatusStopped, PercentDone: 1}, StatusFinished},
		{"stopped partial", transmission.Torrent{Status: transmission.StatusStopped, PercentDone: 0.3}, StatusStopped},
		{"verifying wins over completion", transmission.Torrent{Status: transmission.StatusVerifying, PercentDone: 1}, StatusVerifying},
		{"queued verify", transmission.Torrent{Status: transmission.StatusQueuedVerify}, StatusVerifying},
		{"error wins over everything", transmission.Torrent{Status: transmission.StatusSeeding, PercentDone: 1, Error: 3}, StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapStatus(tt.torrent); got != tt.want {
				t.Errorf("mapStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func newTestEngine(t *testing.T, handler http.HandlerFunc) (Engine, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())
	return New("default", transmission.New(transmission.Config{Host: u.Hostname(), Port: port})), srv
}

func TestAddDuplicateIsRejected(t *testing.T) {
	e, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": "success",
			"arguments": map[string]interface{}{
				"torrent-duplicate": map[string]interface{}{"id": 5, "name": "dup"},
			},
		})
	})

	_, err := e.Add(context.Background(), AddSource{Magnet: "magnet:?xt=urn:btih:deadbeef"})
	if !IsRejected(err) {
		t.Fatalf("expected Rejected error, got %v", err)
	}
	if IsUnreachable(err) {
		t.Error("duplicate must not classify as Unreachable")
	}
}

func TestUnreachableClassification(t *testing.T) {
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close() // connection refused from here on

	_, err := e.List(context.Background())
	if !IsUnreachable(err) {
		t.Fatalf("expected Unreachable error, got %v", err)
	}

	var ee *Error
	if !errors.As(err, &ee) || ee.Endpoint != "default" {
		t.Errorf("expected endpoint tag on error, got %v", err)
	}
}

func TestFilesUnknownTorrentIsRejected(t *testing.T) {
	e, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result":    "success",
			"arguments": map[string]interface{}{"torrents": []interface{}{}},
		})
	})

	_, err := e.Files(context.Background(), 999)
	if !IsRejected(err) {
		t.Fatalf("expected Rejected for unknown torrent id, got %v", err)
	}
}

func TestFilesWantedFlags(t *testing.T) {
	e, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": "success",
			"arguments": map[string]interface{}{
				"torrents": []map[string]interface{}{{
					"files": []map[string]interface{}{
						{"name": "a.mkv", "length": 100},
						{"name": "b.srt", "length": 10},
					},
					"fileStats": []map[string]interface{}{
						{"wanted": true},
						{"wanted": false},
					},
				}},
			},
		})
	})

	files, err := e.Files(context.Background(), 1)
	if err != nil {
		t.Fatalf("Files() error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if !files[0].Wanted || files[1].Wanted {
		t.Errorf("unexpected wanted flags: %+v", files)
	}
	if files[1].Index != 1 {
		t.Errorf("indices must align with daemon order, got %+v", files[1])
	}
}
