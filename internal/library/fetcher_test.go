package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
	testutil "github.com/desertthunder/sortify/internal/testing"
)

// stubSource serves pre-built pages keyed by page URL.
type stubSource struct {
	pages map[string]*services.SpotifyPaginatedTracks
	err   error
	calls []string
}

func (s *stubSource) SavedTracks(ctx context.Context, cred models.Credential, pageURL string) (*services.SpotifyPaginatedTracks, error) {
	s.calls = append(s.calls, pageURL)
	if s.err != nil {
		return nil, s.err
	}
	page, ok := s.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("unexpected page %q", pageURL)
	}
	return page, nil
}

func savedItems(prefix string, n int) []services.SpotifySavedTrack {
	items := make([]services.SpotifySavedTrack, n)
	for i := range items {
		items[i] = services.SpotifySavedTrack{Track: &services.SpotifyTrack{
			ID:   fmt.Sprintf("%s%d", prefix, i),
			Name: fmt.Sprintf("%s-%d", prefix, i),
		}}
	}
	return items
}

func TestFetcher(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	t.Run("Two Pages", func(t *testing.T) {
		second := "page-2"
		src := &stubSource{pages: map[string]*services.SpotifyPaginatedTracks{
			"":     {Items: savedItems("a", 4), Total: 8, Next: &second},
			second: {Items: savedItems("b", 4), Total: 8},
		}}

		lib, err := NewFetcher(src, 100, logger).Fetch(ctx, models.Credential{AccessToken: "x"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(lib.Tracks) != 8 {
			t.Fatalf("expected 8 tracks, got %d", len(lib.Tracks))
		}
		if lib.Tracks[0].Name != "a-0" || lib.Tracks[4].Name != "b-0" {
			t.Errorf("tracks out of order: %v", lib.Names())
		}
		if len(lib.Batches) != 1 || len(lib.Batches[0]) != 8 {
			t.Errorf("expected a single batch of 8, got %v", lib.Batches)
		}
		if len(src.calls) != 2 || src.calls[1] != second {
			t.Errorf("expected next link to be followed verbatim, got %v", src.calls)
		}
	})

	t.Run("Keeps Items Without IDs As Unresolvable", func(t *testing.T) {
		items := savedItems("a", 3)
		items[1].Track.ID = ""
		items = append(items, services.SpotifySavedTrack{Track: nil})
		src := &stubSource{pages: map[string]*services.SpotifyPaginatedTracks{"": {Items: items, Total: 4}}}

		lib, err := NewFetcher(src, 100, logger).Fetch(ctx, models.Credential{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(lib.Tracks) != 2 || lib.Tracks[1].ID != "a2" {
			t.Errorf("unexpected tracks %v", lib.Tracks)
		}
		if len(lib.Batches) != 1 || len(lib.Batches[0]) != 2 {
			t.Errorf("expected id-less track kept out of batches, got %v", lib.Batches)
		}
		if len(lib.Unresolvable) != 1 || lib.Unresolvable[0].Name != items[1].Track.Name {
			t.Errorf("expected %q unresolvable, got %v", items[1].Track.Name, lib.Unresolvable)
		}
	})

	t.Run("Empty Library", func(t *testing.T) {
		src := &stubSource{pages: map[string]*services.SpotifyPaginatedTracks{"": {}}}

		lib, err := NewFetcher(src, 100, logger).Fetch(ctx, models.Credential{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(lib.Tracks) != 0 || len(lib.Batches) != 0 {
			t.Errorf("expected empty library, got %+v", lib)
		}
	})

	t.Run("Page Error Aborts", func(t *testing.T) {
		apiErr := &shared.FetchError{Op: http.MethodGet, URL: "u", StatusCode: http.StatusInternalServerError}
		src := &stubSource{err: apiErr}

		lib, err := NewFetcher(src, 100, logger).Fetch(ctx, models.Credential{})
		if lib != nil {
			t.Error("expected no partial library")
		}
		var fetchErr *shared.FetchError
		if !errors.As(err, &fetchErr) {
			t.Errorf("expected FetchError, got %v", err)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		src := &stubSource{pages: map[string]*services.SpotifyPaginatedTracks{"": {}}}
		if _, err := NewFetcher(src, 100, logger).Fetch(cctx, models.Credential{}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(src.calls) != 0 {
			t.Error("expected no page requests after cancellation")
		}
	})

	t.Run("Page Progress", func(t *testing.T) {
		second := "page-2"
		src := &stubSource{pages: map[string]*services.SpotifyPaginatedTracks{
			"":     {Items: savedItems("a", 2), Total: 3, Next: &second},
			second: {Items: savedItems("b", 1), Total: 3},
		}}

		var seen []int
		f := NewFetcher(src, 100, logger)
		f.OnPage(func(fetched, total int) {
			if total != 3 {
				t.Errorf("expected total 3, got %d", total)
			}
			seen = append(seen, fetched)
		})
		if _, err := f.Fetch(ctx, models.Credential{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(seen) != 2 || seen[0] != 2 || seen[1] != 3 {
			t.Errorf("unexpected progress %v", seen)
		}
	})

	t.Run("Against Fake Spotify", func(t *testing.T) {
		fake := testutil.NewFakeSpotify(t, testutil.GenerateTracks(120))
		srv, err := services.NewSpotifyService(
			map[string]string{"client_id": "c", "client_secret": "s"},
			services.Endpoints{AuthURL: fake.AuthURL(), TokenURL: fake.TokenURL(), APIURL: fake.APIURL()},
			fake.Server.Client(),
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		cred := models.Credential{AccessToken: testutil.TestAccessToken, ExpiresAt: time.Now().Add(time.Hour).Unix()}
		lib, err := NewFetcher(srv, 100, logger).Fetch(ctx, cred)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(lib.Tracks) != 120 {
			t.Errorf("expected 120 tracks, got %d", len(lib.Tracks))
		}
		if hits := fake.PageHits.Load(); hits != 3 {
			t.Errorf("expected 3 page requests, got %d", hits)
		}
		if len(lib.Batches) != 2 || len(lib.Batches[1]) != 20 {
			t.Errorf("expected batches of 100 and 20, got %d batches", len(lib.Batches))
		}
	})
}

func TestPartition(t *testing.T) {
	tracks := func(n int) []models.Track {
		out := make([]models.Track, n)
		for i := range out {
			out[i] = models.Track{ID: fmt.Sprint(i)}
		}
		return out
	}

	tc := []struct {
		name  string
		n     int
		sizes []int
	}{
		{"empty", 0, nil},
		{"one", 1, []int{1}},
		{"exactly one batch", 100, []int{100}},
		{"one over", 101, []int{100, 1}},
		{"several", 250, []int{100, 100, 50}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			in := tracks(tt.n)
			batches := Partition(in, 100)
			if len(batches) != len(tt.sizes) {
				t.Fatalf("expected %d batches, got %d", len(tt.sizes), len(batches))
			}

			var joined []models.Track
			for i, b := range batches {
				if len(b) != tt.sizes[i] {
					t.Errorf("batch %d: expected %d tracks, got %d", i, tt.sizes[i], len(b))
				}
				joined = append(joined, b...)
			}
			for i := range joined {
				if joined[i] != in[i] {
					t.Fatalf("concatenated batches differ from input at %d", i)
				}
			}
		})
	}
}
