package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
	th "github.com/desertthunder/sortify/internal/testing"
)

func fixture() *models.Grouping {
	return &models.Grouping{
		Playlists: []models.Playlist{
			{Label: "playlist #1", Mood: "Upbeat Party", Tracks: []string{"Song One", "Song, Two"}},
			{Label: "playlist #2", Mood: "Chill & Happy", Tracks: []string{"Song Three"}},
			{Label: "playlist #3"},
		},
		NotIncluded: []string{"Local File"},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(fixture())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Grouped 3 tracks into 3 playlists",
			"playlist #1: Upbeat Party (2)",
			"  Song One\n",
			"playlist #3 (0)",
			"Not included: (1)",
			"  Local File\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Text missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToText Without Exclusions", func(t *testing.T) {
		g := fixture()
		g.NotIncluded = nil

		data, err := ExportToText(g)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		if strings.Contains(string(data), models.NotIncludedKey) {
			t.Error("did not expect a not-included section")
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(fixture())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Playlists",
			"**Tracks**: 3",
			"**Not included**: 1",
			"## playlist #1",
			"**Mood**: Upbeat Party",
			"1. Song One",
			"2. Song, Two",
			"## playlist #3\n\n_No tracks_",
			"## Not included",
			"- Local File",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(fixture())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("CSV did not parse: %v", err)
		}

		if len(records) != 5 {
			t.Fatalf("expected header and 4 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Playlist,Mood,Position,Track" {
			t.Errorf("CSV headers = %v", records[0])
		}
		if records[2][3] != "Song, Two" || records[2][2] != "2" {
			t.Errorf("expected quoted second track at position 2, got %v", records[2])
		}
		if records[4][0] != models.NotIncludedKey || records[4][3] != "Local File" {
			t.Errorf("expected excluded track last, got %v", records[4])
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(fixture(), false)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var got map[string][]string
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("JSON did not parse: %v", err)
		}
		if len(got) != 4 {
			t.Errorf("expected 3 playlists and the not-included key, got %v", got)
		}
		if names, ok := got["playlist #3"]; !ok || names == nil || len(names) != 0 {
			t.Errorf("expected empty list for playlist #3, got %v", names)
		}
		if got[models.NotIncludedKey][0] != "Local File" {
			t.Errorf("expected Local File excluded, got %v", got[models.NotIncludedKey])
		}
	})
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{"", Text},
		{"txt", Text},
		{"Markdown", Markdown},
		{"md", Markdown},
		{" csv ", CSV},
		{"json", JSON},
	}
	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("ParseFormat(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out."+string(format))

			if err := WriteExport(fixture(), format, path); err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}

			th.AssertFileExists(t, path)
			if content := th.MustReadFile(t, path); !strings.Contains(content, "Song Three") {
				t.Errorf("expected Song Three in %s output, got: %s", format, content)
			}
		})
	}

	t.Run("Missing Path", func(t *testing.T) {
		if err := WriteExport(fixture(), Text, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out")
		if err := WriteExport(fixture(), Format("yaml"), path); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}
