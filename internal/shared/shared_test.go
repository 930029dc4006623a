package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeTrackKey(t *testing.T) {
	tc := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{
			name:   "basic normalization",
			title:  "Song Title",
			artist: "Artist Name",
			want:   "song title|artist name",
		},
		{
			name:   "extra whitespace",
			title:  "  Song   Title  ",
			artist: "  Artist   Name  ",
			want:   "song title|artist name",
		},
		{
			name:   "mixed case",
			title:  "SoNg TiTlE",
			artist: "ArTiSt NaMe",
			want:   "song title|artist name",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTrackKey(tt.title, tt.artist)
			if got != tt.want {
				t.Errorf("NormalizeTrackKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("ParseLogLevel", func(t *testing.T) {
		tc := map[string]log.Level{
			"":        log.InfoLevel,
			"debug":   log.DebugLevel,
			"WARN":    log.WarnLevel,
			"error":   log.ErrorLevel,
			"unknown": log.InfoLevel,
		}
		for in, want := range tc {
			if got := ParseLogLevel(in); got != want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
			}
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "cache")
		logger.Info("hello")
		if !strings.Contains(buf.String(), "component=cache") {
			t.Errorf("expected component field in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "tui.log")
		logger, closeLog, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		logger.Warn("to file", "key", "value")
		if err := closeLog(); err != nil {
			t.Fatalf("close: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !strings.Contains(string(content), "key=value") {
			t.Errorf("expected the entry in the file, got %q", content)
		}
	})

	t.Run("GenerateID is unique", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected unique ids")
		}
	})
}
