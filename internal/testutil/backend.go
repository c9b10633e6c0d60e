package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// TestCipher is the fixed cipher the mock verification service returns
// for any token.
const TestCipher = "a1b2c3d4e5f6789012345678901234567890abcdef1234567890abcdef123456"

// DefaultToken is the bearer token the mock backend accepts.
const DefaultToken = "demo-token"

// Dataset is a mock dataset table.
type Dataset struct {
	Columns []string
	Rows    [][]any
}

// SampleDataset is returned for any dataset when no valid runtime key
// is provided.
func SampleDataset() Dataset {
	return Dataset{
		Columns: []string{"patient_id", "age", "diagnosis", "tumor_size_mm"},
		Rows: [][]any{
			{"sample_001", 40, "benign", 10.0},
			{"sample_002", 50, "malignant", 20.0},
			{"sample_003", 45, "benign", 15.0},
		},
	}
}

// DemoDatasets returns the mock dataset catalog.
func DemoDatasets() map[string]Dataset {
	return map[string]Dataset{
		"demo-dataset-001": {
			Columns: []string{"patient_id", "age", "diagnosis", "tumor_size_mm"},
			Rows: [][]any{
				{"PT-00001", 45, "malignant", 23.5},
				{"PT-00002", 62, "benign", 12.8},
				{"PT-00003", 38, "malignant", 31.2},
				{"PT-00004", 55, "benign", 8.4},
				{"PT-00005", 71, "malignant", 45.6},
				{"PT-00006", 48, "malignant", 18.7},
				{"PT-00007", 59, "benign", 9.3},
				{"PT-00008", 66, "malignant", 42.1},
				{"PT-00009", 41, "benign", 11.5},
				{"PT-00010", 73, "malignant", 38.9},
			},
		},
		"medical_imaging_2024": {
			Columns: []string{"patient_id", "age", "diagnosis", "tumor_size_mm"},
			Rows: [][]any{
				{"PT-10001", 50, "malignant", 28.3},
				{"PT-10002", 67, "benign", 15.1},
				{"PT-10003", 42, "malignant", 35.7},
				{"PT-10004", 58, "benign", 12.4},
				{"PT-10005", 45, "malignant", 29.8},
			},
		},
		"genomics_study_2024": {
			Columns: []string{"sample_id", "gene", "mutation_status", "confidence"},
			Rows: [][]any{
				{"GEN-001", "BRCA1", "positive", 0.85},
				{"GEN-002", "BRCA2", "negative", 0.15},
				{"GEN-003", "TP53", "positive", 0.92},
				{"GEN-004", "KRAS", "positive", 0.78},
				{"GEN-005", "EGFR", "negative", 0.22},
			},
		},
	}
}

// Backend is an in-process mock of the dataset backend and the
// attestation verification service.
type Backend struct {
	// Token is the accepted bearer token.
	Token string

	// Datasets is the served catalog.
	Datasets map[string]Dataset

	// Cipher is returned by the verification endpoint.
	Cipher string

	// DecryptCalls counts decrypt requests, for pagination assertions.
	DecryptCalls atomic.Int64
}

// NewBackend creates a mock backend with the demo catalog.
func NewBackend() *Backend {
	return &Backend{
		Token:    DefaultToken,
		Datasets: DemoDatasets(),
		Cipher:   TestCipher,
	}
}

// Handler returns the backend's HTTP handler.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/datasets/decrypt", b.handleDecrypt)
	r.Post("/attestation/is_confidential", b.handleVerify)

	return r
}

type decryptRequest struct {
	DatasetID  string   `json:"dataset_id"`
	RuntimeKey string   `json:"runtime_key"`
	Columns    []string `json:"columns"`
	Offset     int      `json:"offset"`
	Limit      int      `json:"limit"`
}

func (b *Backend) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	b.DecryptCalls.Add(1)

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		writeError(w, http.StatusUnauthorized, "Missing Authorization header")
		return
	}
	if strings.TrimSpace(auth[len("Bearer "):]) != b.Token {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	var req decryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 1000
	}

	ds, ok := b.Datasets[req.DatasetID]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Dataset %s not found", req.DatasetID))
		return
	}

	// Gate: non-empty runtime key gets real data, empty gets the sample.
	dataType := "sample"
	table := SampleDataset()
	if req.RuntimeKey != "" {
		dataType = "real"
		table = ds
	}

	columns := table.Columns
	rows := table.Rows
	if len(req.Columns) > 0 {
		indices := make([]int, 0, len(req.Columns))
		for _, want := range req.Columns {
			idx := -1
			for i, col := range table.Columns {
				if col == want {
					idx = i
					break
				}
			}
			if idx < 0 {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid column name: %s", want))
				return
			}
			indices = append(indices, idx)
		}
		filtered := make([][]any, len(rows))
		for i, row := range rows {
			out := make([]any, len(indices))
			for j, idx := range indices {
				out[j] = row[idx]
			}
			filtered[i] = out
		}
		columns = req.Columns
		rows = filtered
	}

	total := len(rows)
	start := req.Offset
	if start > total {
		start = total
	}
	end := start + req.Limit
	if end > total {
		end = total
	}
	page := rows[start:end]

	writeJSON(w, http.StatusOK, map[string]any{
		"data":       page,
		"columns":    columns,
		"row_count":  len(page),
		"total_rows": total,
		"has_more":   end < total,
		"data_type":  dataType,
	})
}

func (b *Backend) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cipher": b.Cipher})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
