package contracts

import "time"

// SaleRow is one raw transactional row of the sales dataset
type SaleRow struct {
	Date           time.Time `json:"date"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Category       string    `json:"category"`
	UnitsSold      float64   `json:"units_sold"`
	RestockedUnits float64   `json:"restocked_units"`
	SpoilageUnits  float64   `json:"spoilage_units"`
	Temperature    float64   `json:"temperature"`
	FestivalFlag   bool      `json:"festival_flag"`
	FestivalName   string    `json:"festival_name"`
}

// ProductKey returns the normalized key of the row's product
func (r SaleRow) ProductKey() string {
	return ProductKey(r.ProductName)
}
