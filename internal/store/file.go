package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/faviy/demandcast/internal/artifact"
	"github.com/faviy/demandcast/internal/contracts"
)

const metaSuffix = "_forecast.json"

// forecastMeta holds the run fields the forecast table does not carry
type forecastMeta struct {
	Schema        string    `json:"schema"`
	Product       string    `json:"product"`
	Method        string    `json:"method"`
	FittedThrough time.Time `json:"fitted_through"`
	Horizon       int       `json:"horizon"`
	SavedAt       time.Time `json:"saved_at"`
}

// FileStore keeps one <product>_forecast.csv per product under dir.
// Files are replaced by rename, so readers see the old or the new table, never a partial one.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create forecast dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the forecast table path of product
func (s *FileStore) Path(product string) string {
	return filepath.Join(s.dir, artifact.ForecastFileName(product))
}

func (s *FileStore) metaPath(product string) string {
	return filepath.Join(s.dir, product+metaSuffix)
}

// Save writes the forecast table and its metadata
func (s *FileStore) Save(ctx context.Context, product string, forecast contracts.ForecastSeries) error {
	if err := checkForecast(product, forecast); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := WriteFileAtomic(s.Path(product), func(w io.Writer) error {
		return artifact.WriteForecast(w, forecast)
	})
	if err != nil {
		return fmt.Errorf("save forecast %s: %w", product, err)
	}

	meta := forecastMeta{
		Schema:        artifact.ForecastV1.String(),
		Product:       product,
		Method:        forecast.Method,
		FittedThrough: forecast.FittedThrough,
		Horizon:       forecast.Horizon,
		SavedAt:       time.Now().UTC(),
	}
	err = WriteFileAtomic(s.metaPath(product), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return fmt.Errorf("save forecast meta %s: %w", product, err)
	}
	return nil
}

// Load reads the product's forecast; a missing table is ErrNotFound
func (s *FileStore) Load(ctx context.Context, product string) (contracts.ForecastSeries, error) {
	if err := checkProduct(product); err != nil {
		return contracts.ForecastSeries{}, err
	}

	f, err := os.Open(s.Path(product))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return contracts.ForecastSeries{}, fmt.Errorf("forecast %s: %w", product, contracts.ErrNotFound)
		}
		return contracts.ForecastSeries{}, err
	}
	defer f.Close()

	forecast, err := artifact.ReadForecast(bufio.NewReader(f), product)
	if err != nil {
		return contracts.ForecastSeries{}, fmt.Errorf("load forecast %s: %w", product, err)
	}

	// 메타 파일은 선택 사항
	if data, err := os.ReadFile(s.metaPath(product)); err == nil {
		var meta forecastMeta
		if err := json.Unmarshal(data, &meta); err == nil {
			forecast.Method = meta.Method
			forecast.FittedThrough = meta.FittedThrough
			forecast.Horizon = meta.Horizon
		}
	}
	return forecast, nil
}

// List returns the products with a stored forecast table
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, artifact.ForecastSuffix) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, artifact.ForecastSuffix))
	}
	sort.Strings(out)
	return out, nil
}

// WriteFileAtomic writes to a temp file in the target's directory and renames it into place
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
