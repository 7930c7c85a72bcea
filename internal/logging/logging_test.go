package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

// captureLogOutput reinitializes the logger to write to a buffer, runs f and
// restores the default logger.
func captureLogOutput(level Level, format Format, f func()) string {
	var buf bytes.Buffer
	InitLogger(&buf, level, format)
	f()
	InitLogger(os.Stderr, LevelInfo, FormatText)
	return buf.String()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestInitLoggerJSON(t *testing.T) {
	output := captureLogOutput(LevelDebug, FormatJSON, func() {
		Debug("loaded bitmap", "width", 2)
	})

	var entry map[string]any
	if err := json.Unmarshal([]byte(output), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}
	if entry["msg"] != "loaded bitmap" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["width"] != float64(2) {
		t.Errorf("width = %v", entry["width"])
	}
	if _, ok := entry["time"].(string); !ok {
		t.Errorf("time should be an RFC3339 string, got %v", entry["time"])
	}
}

func TestLevelFiltering(t *testing.T) {
	output := captureLogOutput(LevelWarn, FormatText, func() {
		Info("hidden")
		Warn("shown")
		Error("also shown")
	})

	if strings.Contains(output, "hidden") {
		t.Errorf("info message logged at warn level: %s", output)
	}
	if !strings.Contains(output, "shown") || !strings.Contains(output, "also shown") {
		t.Errorf("missing warn/error messages: %s", output)
	}
}
