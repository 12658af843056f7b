package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseIndex(t *testing.T) {
	index := `# ENC cells
US5CA72M.000
US5CA72M.001

/harbor.gpkg
notes.txt
`
	objects, err := parseIndex(strings.NewReader(index))
	if err != nil {
		t.Fatalf("parseIndex() error = %v", err)
	}

	var keys []string
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	want := []string{"US5CA72M.000", "US5CA72M.001", "harbor.gpkg"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func newChartServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "enc" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/index.txt":
			_, _ = w.Write([]byte("US5CA72M.000\nUS5CA72M.001\n"))
		case "/US5CA72M.000":
			_, _ = w.Write([]byte("cell"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPStorage(t *testing.T) {
	srv := newChartServer(t)
	storage := NewHTTPStorage(HTTPConfig{BaseURL: srv.URL + "/", Username: "enc", Password: "secret"})
	ctx := context.Background()

	objects, err := storage.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("len(objects) = %d, want 2", len(objects))
	}

	dest := filepath.Join(t.TempDir(), "US5CA72M.000")
	if err := storage.Download(ctx, "US5CA72M.000", dest); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	data, _ := os.ReadFile(dest) //#nosec G304 -- test path
	if string(data) != "cell" {
		t.Errorf("content = %q, want %q", data, "cell")
	}

	if err := storage.Download(ctx, "missing.000", filepath.Join(t.TempDir(), "missing.000")); err == nil {
		t.Error("Download() of missing file error = nil")
	}

	exists, _ := storage.Exists(ctx, "US5CA72M.000")
	if !exists {
		t.Error("Exists() = false, want true")
	}
	exists, _ = storage.Exists(ctx, "missing.000")
	if exists {
		t.Error("Exists() = true for missing file")
	}
}

func TestHTTPStorage_Unauthorized(t *testing.T) {
	srv := newChartServer(t)
	storage := NewHTTPStorage(HTTPConfig{BaseURL: srv.URL})

	if _, err := storage.List(context.Background()); err == nil {
		t.Error("List() error = nil, want error")
	}
}
