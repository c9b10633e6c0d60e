package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{256 * 1024 * 1024, "256.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1024 * 1024 * 1024 * 1024, "1.00 TB"},
	}

	for _, tt := range tests {
		result := formatBytes(tt.input)
		if result != tt.expected {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"100", 100},
		{"100B", 100},
		{"1KB", 1024},
		{"1.5KB", 1536},
		{"256MB", 256 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"1TB", 1024 * 1024 * 1024 * 1024},
	}

	for _, tt := range tests {
		result, err := ParseBytes(tt.input)
		if err != nil {
			t.Errorf("ParseBytes(%q): %v", tt.input, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, result, tt.expected)
		}
	}
}

func TestParseBytesInvalid(t *testing.T) {
	_, err := ParseBytes("invalid")
	if err == nil {
		t.Error("expected error for invalid input")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2h 3m 4s"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.input)
		if result != tt.expected {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestReporterByteTracking(t *testing.T) {
	reporter := NewReporter(Options{
		TotalSize:      1024,
		Output:         &bytes.Buffer{},
		UpdateInterval: 100 * time.Millisecond,
	})

	// Tracking works without starting the reporter.
	reporter.Add(256)
	if got := reporter.Completed(); got != 256 {
		t.Errorf("expected 256 bytes, got %d", got)
	}

	reporter.Add(256)
	if got := reporter.Completed(); got != 512 {
		t.Errorf("expected 512 bytes, got %d", got)
	}
}

func TestReporterStartStop(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(Options{
		TotalSize:      1024 * 1024,
		Output:         &buf,
		UpdateInterval: 10 * time.Millisecond,
		SourceURL:      "https://example.com/file.bin",
	})

	reporter.Start()
	reporter.Add(512 * 1024)
	time.Sleep(50 * time.Millisecond) // Let updates run
	reporter.Stop()
	time.Sleep(20 * time.Millisecond) // let the final status flush

	if got := reporter.Completed(); got != 512*1024 {
		t.Errorf("expected 512KB completed, got %d", got)
	}
	if !strings.Contains(buf.String(), "https://example.com/file.bin") {
		t.Error("expected source URL in output")
	}

	// Stop is idempotent.
	reporter.Stop()
}
