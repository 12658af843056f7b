// Package storage provides object storage backends for chart files.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jobrunner/s57geojson/internal/domain"
)

// isChartObject reports whether a key names an S-57 base cell, an S-57
// update file or a GeoPackage.
func isChartObject(key string) bool {
	return domain.IsChartFile(key) || domain.IsUpdateFile(key)
}

// relativeKey strips the configured prefix from an object key.
func relativeKey(prefix, key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
}

// prefixedKey returns the object key for a key relative to prefix.
func prefixedKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}

// writeFile streams r into dest. The file is written under a temporary name
// and renamed so a reader never sees a partial chart.
func writeFile(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dest, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
