package contracts

import "sort"

// Accuracy metrics
const (
	MetricMAE     = "MAE"
	MetricRMSE    = "RMSE"
	MetricMAPE    = "MAPE"
	MetricProduct = "product"
)

// AccuracyRecord holds the accuracy of one product's forecast against its actuals
type AccuracyRecord struct {
	Product      string  `json:"product"`
	N            int     `json:"n"`             // overlapping dates
	MAE          float64 `json:"mae"`
	RMSE         float64 `json:"rmse"`
	MAPE         float64 `json:"mape"`          // percent
	SkippedZeros int     `json:"skipped_zeros"` // rows excluded from MAPE because actual == 0
}

// Metric returns the named metric value
func (r AccuracyRecord) Metric(name string) float64 {
	switch name {
	case MetricMAE:
		return r.MAE
	case MetricRMSE:
		return r.RMSE
	default:
		return r.MAPE
	}
}

// ProductFailure records why a product dropped out of a run
type ProductFailure struct {
	Product string `json:"product"`
	Stage   string `json:"stage"`
	Reason  string `json:"reason"`
	Err     string `json:"error"`
}

// AccuracySummary is the ordered per-product accuracy table consumed by the dashboard
type AccuracySummary struct {
	Records  []AccuracyRecord `json:"records"`
	Failures []ProductFailure `json:"failures,omitempty"`
	SortedBy string           `json:"sorted_by"`
	Desc     bool             `json:"desc"`
}

// NewProductFailure builds a failure record, classifying err by Reason
func NewProductFailure(product, stage string, err error) ProductFailure {
	f := ProductFailure{Product: product, Stage: stage, Reason: Reason(err)}
	if err != nil {
		f.Err = err.Error()
	}
	return f
}

// SortBy reorders the records by metric; ties are always broken by ascending product.
// Unknown metrics fall back to MAPE.
func (s *AccuracySummary) SortBy(metric string, desc bool) {
	switch metric {
	case MetricMAE, MetricRMSE, MetricMAPE, MetricProduct:
	default:
		metric = MetricMAPE
	}

	sort.SliceStable(s.Records, func(i, j int) bool {
		a, b := s.Records[i], s.Records[j]
		if metric != MetricProduct {
			va, vb := a.Metric(metric), b.Metric(metric)
			if va != vb {
				if desc {
					return va > vb
				}
				return va < vb
			}
			return a.Product < b.Product
		}
		if desc {
			return a.Product > b.Product
		}
		return a.Product < b.Product
	})

	s.SortedBy = metric
	s.Desc = desc
}

// Record returns the record of product, if present
func (s AccuracySummary) Record(product string) (AccuracyRecord, bool) {
	for _, r := range s.Records {
		if r.Product == product {
			return r, true
		}
	}
	return AccuracyRecord{}, false
}
