package artifact

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faviy/demandcast/internal/contracts"
)

func d(s string) time.Time {
	t, _ := time.Parse(contracts.DateLayout, s)
	return t
}

const salesCSV = `Date,Product_ID,Product_Name,Category,Units_Sold,Restocked_Units,Spoilage_Units,Temperature,Festival_Flag,Festival_Name,Shelf_Life_Days
2024-01-01,P1,Milk,Dairy,120,150,5,21.4,0,,2
2024-01-01,P2,Paneer (Cottage Cheese),Dairy,30,40,1,21.4,1,Makar Sankranti,5
2024-01-02,P1,Milk,Dairy,110.5,100,2,19.6,1.0,,2

`

func TestReadSales(t *testing.T) {
	rows, err := ReadSales(strings.NewReader(salesCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, d("2024-01-01"), rows[0].Date)
	assert.Equal(t, "Milk", rows[0].ProductName)
	assert.Equal(t, 120.0, rows[0].UnitsSold)
	assert.Equal(t, 150.0, rows[0].RestockedUnits)
	assert.Equal(t, 21.4, rows[0].Temperature)
	assert.False(t, rows[0].FestivalFlag)

	assert.Equal(t, "paneer_cottage_cheese", rows[1].ProductKey())
	assert.True(t, rows[1].FestivalFlag)
	assert.Equal(t, "Makar Sankranti", rows[1].FestivalName)

	assert.Equal(t, 110.5, rows[2].UnitsSold)
	assert.True(t, rows[2].FestivalFlag)
}

func TestReadSales_MinimalColumns(t *testing.T) {
	rows, err := ReadSales(strings.NewReader("Product_Name,Date,Units_Sold\nMilk,2024-03-01 08:00:00,4\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, d("2024-03-01"), rows[0].Date)
	assert.Zero(t, rows[0].SpoilageUnits)
}

func TestReadSales_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty file"},
		{"missing units", "Date,Product_Name\n2024-01-01,Milk\n", `"Units_Sold"`},
		{"bad date", "Date,Product_Name,Units_Sold\nyesterday,Milk,1\n", "line 2"},
		{"bad units", "Date,Product_Name,Units_Sold\n2024-01-01,Milk,lots\n", "Units_Sold"},
		{"empty product", "Date,Product_Name,Units_Sold\n2024-01-01,,1\n", "Product_Name"},
		{"bad flag", "Date,Product_Name,Units_Sold,Festival_Flag\n2024-01-01,Milk,1,maybe\n", "Festival_Flag"},
		{"duplicate column", "Date,Date,Product_Name,Units_Sold\n", "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSales(strings.NewReader(tt.input))
			require.ErrorIs(t, err, contracts.ErrSchema)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadSalesFile_Missing(t *testing.T) {
	_, err := ReadSalesFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, contracts.ErrMissingArtifact)

	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o644))
	rows, err := ReadSalesFile(path)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestCleaned_RoundTrip(t *testing.T) {
	series := contracts.DailySeries{Product: "milk", Points: []contracts.Point{
		{Date: d("2024-01-01"), Value: 10},
		{Date: d("2024-01-03"), Value: 12.25},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCleaned(&buf, series))
	assert.True(t, strings.HasPrefix(buf.String(), "date,smoothed_units_sold\n2024-01-01,10\n"))

	got, err := ReadCleaned(&buf, "milk")
	require.NoError(t, err)
	assert.Equal(t, series, got)
}

func TestForecast_RoundTrip(t *testing.T) {
	fc := contracts.ForecastSeries{Product: "milk", Points: []contracts.ForecastPoint{
		{Date: d("2024-01-01"), Predicted: 10, LowerBound: 8.5, UpperBound: 11.5},
		{Date: d("2024-01-02"), Predicted: 11, LowerBound: 9, UpperBound: 13},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteForecast(&buf, fc))

	got, err := ReadForecast(&buf, "milk")
	require.NoError(t, err)
	assert.Equal(t, fc.Points, got.Points)
}

func TestWriteForecast_RejectsInvertedBounds(t *testing.T) {
	fc := contracts.ForecastSeries{Product: "milk", Points: []contracts.ForecastPoint{
		{Date: d("2024-01-01"), Predicted: 10, LowerBound: 12, UpperBound: 11},
	}}
	assert.ErrorIs(t, WriteForecast(&bytes.Buffer{}, fc), contracts.ErrSchema)
}

func TestStrictSchemas(t *testing.T) {
	tests := []struct {
		name  string
		read  func(string) error
		input string
	}{
		{"forecast reordered", func(s string) error {
			_, err := ReadForecast(strings.NewReader(s), "milk")
			return err
		}, "date,lower_bound,predicted,upper_bound\n"},
		{"forecast legacy prophet", func(s string) error {
			_, err := ReadForecast(strings.NewReader(s), "milk")
			return err
		}, "ds,yhat,yhat_lower,yhat_upper\n"},
		{"cleaned extra column", func(s string) error {
			_, err := ReadCleaned(strings.NewReader(s), "milk")
			return err
		}, "date,smoothed_units_sold,raw\n"},
		{"holidays", func(s string) error {
			_, err := ReadHolidays(strings.NewReader(s))
			return err
		}, "Date,Festival_Name\n"},
		{"accuracy", func(s string) error {
			_, err := ReadAccuracy(strings.NewReader(s))
			return err
		}, "Product,MAE,RMSE\n"},
		{"short record", func(s string) error {
			_, err := ReadForecast(strings.NewReader(s), "milk")
			return err
		}, "date,predicted,lower_bound,upper_bound\n2024-01-01,1,0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.read(tt.input), contracts.ErrSchema)
		})
	}
}

func TestHolidays_RoundTrip(t *testing.T) {
	cal := contracts.NewHolidayCalendar([]contracts.Holiday{
		{Date: d("2024-11-01"), Name: "Diwali"},
		{Date: d("2024-03-25"), Name: "Holi"},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteHolidays(&buf, cal))
	assert.Equal(t, "date,name\n2024-03-25,Holi\n2024-11-01,Diwali\n", buf.String())

	got, err := ReadHolidays(&buf)
	require.NoError(t, err)
	assert.Equal(t, cal.Holidays(), got.Holidays())
}

func TestAccuracy_WriteRead(t *testing.T) {
	summary := contracts.AccuracySummary{Records: []contracts.AccuracyRecord{
		{Product: "paneer_cottage_cheese", MAE: 1.234, RMSE: 2.346, MAPE: 3.1},
		{Product: "milk", MAE: 10, RMSE: 12.5, MAPE: 8},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteAccuracy(&buf, summary))
	assert.Equal(t, "product,MAE,RMSE,MAPE\nPaneer Cottage Cheese,1.23,2.35,3.10\nMilk,10.00,12.50,8.00\n", buf.String())

	got, err := ReadAccuracy(&buf)
	require.NoError(t, err)
	require.Len(t, got.Records, 2)
	assert.Equal(t, "paneer_cottage_cheese", got.Records[0].Product)
	assert.Equal(t, 3.1, got.Records[0].MAPE)
}

func TestSchema_Bind(t *testing.T) {
	cols, err := SalesV1.Bind([]string{"\ufeffDate", " Product_Name ", "Units_Sold", "Extra"})
	require.NoError(t, err)
	assert.Equal(t, 0, cols["Date"])
	assert.Equal(t, 1, cols["Product_Name"])
	assert.Equal(t, "sales@v1", SalesV1.String())
}
