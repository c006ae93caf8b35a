package store

import (
	"fmt"

	"github.com/faviy/demandcast/internal/contracts"
)

// Store persists one forecast per product; Save replaces any prior forecast wholesale
type Store = contracts.ForecastStore

func checkProduct(product string) error {
	if product == "" || contracts.ProductKey(product) != product {
		return fmt.Errorf("invalid product key %q", product)
	}
	return nil
}

func checkForecast(product string, forecast contracts.ForecastSeries) error {
	if err := checkProduct(product); err != nil {
		return err
	}
	if forecast.Product != "" && forecast.Product != product {
		return fmt.Errorf("forecast belongs to %q, not %q", forecast.Product, product)
	}
	return forecast.Validate()
}

func clone(f contracts.ForecastSeries) contracts.ForecastSeries {
	out := f
	out.Points = append([]contracts.ForecastPoint(nil), f.Points...)
	return out
}
