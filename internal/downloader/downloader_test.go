package downloader

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	dshttp "github.com/AvinasiLabs/delong-datasets/internal/http"
)

func fastOptions() dshttp.Options {
	return dshttp.Options{
		Timeout:         5 * time.Second,
		RetryAttempts:   1,
		RetryBackoff:    time.Millisecond,
		RetryMaxBackoff: 5 * time.Millisecond,
	}
}

// rangeServer serves data with HEAD metadata and honored Range requests.
func rangeServer(t *testing.T, data []byte, etag string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.Header().Set("Accept-Ranges", "bytes")
			w.Header().Set("ETag", `"`+etag+`"`)
			return
		}

		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			w.Header().Set("ETag", `"`+etag+`"`)
			w.Write(data)
			return
		}

		start, _ := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(rangeHeader, "bytes="), "-"), 10, 64)
		w.Header().Set("Content-Range", "bytes "+strconv.FormatInt(start, 10)+"-"+strconv.Itoa(len(data)-1)+"/"+strconv.Itoa(len(data)))
		w.Header().Set("ETag", `"`+etag+`"`)
		w.WriteHeader(http.StatusPartialContent)
		w.Write(data[start:])
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDownloadBasic(t *testing.T) {
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i % 256)
	}
	server := rangeServer(t, data, "v1")

	dest := filepath.Join(t.TempDir(), "out.bin")
	err := Download(context.Background(), server.URL, dest, Options{HTTPOptions: fastOptions()})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("content mismatch")
	}

	if _, err := os.Stat(dest + ".part"); !errors.Is(err, os.ErrNotExist) {
		t.Error("expected .part to be removed")
	}
	if _, err := os.Stat(dest + ".part.etag"); !errors.Is(err, os.ErrNotExist) {
		t.Error("expected etag sidecar to be removed")
	}
}

func TestDownloadResumeAppends(t *testing.T) {
	data := make([]byte, 32*1024)
	for i := range data {
		data[i] = byte(i % 251)
	}
	server := rangeServer(t, data, "v1")

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")

	// Simulate an interrupted download: first half already on disk.
	half := len(data) / 2
	if err := os.WriteFile(dest+".part", data[:half], 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest+".part.etag", []byte("v1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Download(context.Background(), server.URL, dest, Options{HTTPOptions: fastOptions()})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(data) {
		t.Fatalf("size = %d, want %d", len(got), len(data))
	}
	if !bytes.Equal(got, data) {
		t.Fatal("previously written bytes were not preserved")
	}
}

func TestDownloadServerIgnoresRange(t *testing.T) {
	data := []byte("the full and correct content")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Accept-Ranges", "bytes")
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			return
		}
		// Always 200 with the full body, even for range requests.
		w.Write(data)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(dest+".part", []byte("stale partial bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Download(context.Background(), server.URL, dest, Options{HTTPOptions: fastOptions()})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want full overwrite", got)
	}
}

func TestDownloadETagMismatchRestarts(t *testing.T) {
	data := []byte("version two of the content")
	sawRange := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Accept-Ranges", "bytes")
			w.Header().Set("ETag", `"v2"`)
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			return
		}
		if r.Header.Get("Range") != "" {
			sawRange = true
		}
		w.Header().Set("ETag", `"v2"`)
		w.Write(data)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(dest+".part", []byte("bytes from v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest+".part.etag", []byte("v1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Download(context.Background(), server.URL, dest, Options{HTTPOptions: fastOptions()})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	if sawRange {
		t.Error("expected restart without a Range request after ETag mismatch")
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want new content", got)
	}
}

func TestDownloadForceDiscardsPartial(t *testing.T) {
	data := []byte("fresh content")

	dest := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(dest+".part", []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	sawRange := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "" {
			sawRange = true
		}
		w.Write(data)
	}))
	defer server.Close()

	err := Download(context.Background(), server.URL, dest, Options{Force: true, HTTPOptions: fastOptions()})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if sawRange {
		t.Error("force download must not send a Range request")
	}
	got, _ := os.ReadFile(dest)
	if !bytes.Equal(got, data) {
		t.Fatal("content mismatch")
	}
}

func TestDownloadReplacesExistingDest(t *testing.T) {
	data := []byte("replacement")
	server := rangeServer(t, data, "v1")

	dest := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(dest, []byte("previous final file"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Download(context.Background(), server.URL, dest, Options{HTTPOptions: fastOptions()}); err != nil {
		t.Fatalf("Download: %v", err)
	}
	got, _ := os.ReadFile(dest)
	if !bytes.Equal(got, data) {
		t.Fatal("dest was not replaced")
	}
}

func TestDownloadNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.bin")
	err := Download(context.Background(), server.URL, dest, Options{HTTPOptions: fastOptions()})
	if !errors.Is(err, dshttp.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if _, statErr := os.Stat(dest); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("dest must not exist after failed download")
	}
}
