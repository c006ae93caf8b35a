package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/faviy/demandcast/internal/contracts"
)

var salesDateLayouts = []string{
	contracts.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-01-2006",
	"01/02/2006",
}

// ReadSalesFile reads the raw sales dataset
func ReadSalesFile(path string) ([]contracts.SaleRow, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadSales(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ReadSales parses raw sales rows; a malformed row is a schema error naming its line
func ReadSales(r io.Reader) ([]contracts.SaleRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: empty file", contracts.ErrSchema, SalesV1)
		}
		return nil, err
	}
	cols, err := SalesV1.Bind(header)
	if err != nil {
		return nil, err
	}

	var rows []contracts.SaleRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", contracts.ErrSchema, SalesV1, line, err)
		}
		if blankRecord(record) {
			continue
		}

		row, err := parseSale(record, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", contracts.ErrSchema, SalesV1, line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseSale(record []string, cols map[string]int) (contracts.SaleRow, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var row contracts.SaleRow
	var err error

	if row.Date, err = parseDate(field("Date")); err != nil {
		return row, err
	}
	row.ProductName = field("Product_Name")
	if row.ProductName == "" {
		return row, fmt.Errorf("empty Product_Name")
	}
	if row.UnitsSold, err = parseFloat("Units_Sold", field("Units_Sold"), true); err != nil {
		return row, err
	}

	row.ProductID = field("Product_ID")
	row.Category = field("Category")
	row.FestivalName = field("Festival_Name")

	if row.RestockedUnits, err = parseFloat("Restocked_Units", field("Restocked_Units"), false); err != nil {
		return row, err
	}
	if row.SpoilageUnits, err = parseFloat("Spoilage_Units", field("Spoilage_Units"), false); err != nil {
		return row, err
	}
	if row.Temperature, err = parseFloat("Temperature", field("Temperature"), false); err != nil {
		return row, err
	}
	if row.FestivalFlag, err = parseFlag(field("Festival_Flag")); err != nil {
		return row, err
	}
	return row, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range salesDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return contracts.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid Date %q", s)
}

func parseFloat(column, s string, required bool) (float64, error) {
	if s == "" {
		if required {
			return 0, fmt.Errorf("empty %s", column)
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", column, s)
	}
	return v, nil
}

// parseFlag accepts 0/1, true/false and numeric forms such as 1.0
func parseFlag(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v != 0, nil
	}
	return false, fmt.Errorf("invalid Festival_Flag %q", s)
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
