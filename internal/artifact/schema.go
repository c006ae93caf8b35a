package artifact

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/faviy/demandcast/internal/contracts"
)

// Schema is the fixed, versioned column layout of one artifact table
type Schema struct {
	Name     string
	Version  int
	Required []string
	Optional []string

	// Strict tables must carry exactly the required columns in order.
	// Non-strict tables may add unknown columns, which are ignored.
	Strict bool
}

// Artifact schemas, version 1
// ⭐ SSOT: 산출물 테이블 스키마
var (
	SalesV1 = Schema{
		Name:     "sales",
		Version:  1,
		Required: []string{"Date", "Product_Name", "Units_Sold"},
		Optional: []string{"Product_ID", "Category", "Restocked_Units", "Spoilage_Units", "Temperature", "Festival_Flag", "Festival_Name"},
	}

	CleanedV1 = Schema{
		Name:     "cleaned",
		Version:  1,
		Required: []string{"date", "smoothed_units_sold"},
		Strict:   true,
	}

	ForecastV1 = Schema{
		Name:     "forecast",
		Version:  1,
		Required: []string{"date", "predicted", "lower_bound", "upper_bound"},
		Strict:   true,
	}

	HolidaysV1 = Schema{
		Name:     "holidays",
		Version:  1,
		Required: []string{"date", "name"},
		Strict:   true,
	}

	AccuracyV1 = Schema{
		Name:     "accuracy",
		Version:  1,
		Required: []string{"product", "MAE", "RMSE", "MAPE"},
		Strict:   true,
	}
)

// String returns name@version
func (s Schema) String() string {
	return fmt.Sprintf("%s@v%d", s.Name, s.Version)
}

// Header returns the columns a writer emits
func (s Schema) Header() []string {
	return append([]string(nil), s.Required...)
}

// Bind validates header against the schema and maps every known column to its index
func (s Schema) Bind(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate column %q", contracts.ErrSchema, s, name)
		}
		cols[name] = i
	}

	if s.Strict {
		if len(header) != len(s.Required) {
			return nil, fmt.Errorf("%w: %s: expected columns %v, got %v", contracts.ErrSchema, s, s.Required, header)
		}
		for i, want := range s.Required {
			if idx, ok := cols[want]; !ok || idx != i {
				return nil, fmt.Errorf("%w: %s: column %d must be %q", contracts.ErrSchema, s, i, want)
			}
		}
		return cols, nil
	}

	for _, want := range s.Required {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("%w: %s: missing required column %q", contracts.ErrSchema, s, want)
		}
	}
	return cols, nil
}

// Open opens an artifact file, mapping absence onto ErrMissingArtifact
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", contracts.ErrMissingArtifact, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
