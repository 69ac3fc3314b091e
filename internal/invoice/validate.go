package invoice

import "github.com/shopspring/decimal"

// Validation statuses.
const (
	StatusValid   = "valid"
	StatusWarning = "warning"
	StatusError   = "error"
)

// tolerance is the absolute slack allowed on every financial comparison.
// It matches the currency's minor-unit granularity; comparisons are never
// relative.
var tolerance = decimal.NewFromFloat(0.01)

// defaultVATRate is the single rate applied on this vendor's invoices.
var defaultVATRate = decimal.NewFromFloat(0.19)

// ValidationResult is one finding of the cross-field validator.
type ValidationResult struct {
	Field    string `json:"field"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Expected any    `json:"expected,omitempty"`
	Found    any    `json:"found,omitempty"`
}

// ValidationResponse is the full output of the cross-field validator.
type ValidationResponse struct {
	OverallValid bool               `json:"overall_valid"`
	Results      []ValidationResult `json:"results"`
	Score        float64            `json:"score"`
}

// Plausible is the coarse smoke test run after extraction: it reports
// whether the essential fields look genuinely extracted rather than still
// carrying their defaults. A field-by-field audit is Validate's job.
func Plausible(rec *Record) bool {
	if rec == nil {
		return false
	}
	if rec.ClientName == "" || rec.ClientName == PlaceholderClientName {
		return false
	}
	if rec.VehiclePlate == "" || rec.VehiclePlate == PlaceholderVehiclePlate {
		return false
	}
	if rec.TotalTTC == 0 {
		return false
	}
	return true
}

// Validate cross-checks a record's arithmetic and required fields. Each
// rule is independent; errors mark the record invalid, warnings only lower
// the score.
func Validate(rec *Record) *ValidationResponse {
	var results []ValidationResult

	required := []struct {
		field string
		empty bool
		found any
	}{
		{"client_name", rec.ClientName == "", rec.ClientName},
		{"invoice_number", rec.InvoiceNumber == "", rec.InvoiceNumber},
		{"vehicle_plate", rec.VehiclePlate == "", rec.VehiclePlate},
		{"total_ttc", rec.TotalTTC == 0, rec.TotalTTC},
	}
	for _, r := range required {
		if r.empty {
			results = append(results, ValidationResult{
				Field:    r.field,
				Status:   StatusError,
				Message:  "This field is required",
				Expected: "Non-empty value",
				Found:    r.found,
			})
		}
	}

	if len(rec.Items) > 0 {
		itemSum := decimal.Zero
		for _, item := range rec.Items {
			itemSum = itemSum.Add(decimal.NewFromFloat(item.TotalHT))
		}
		if !withinTolerance(itemSum, decimal.NewFromFloat(rec.SubtotalHT)) {
			results = append(results, ValidationResult{
				Field:    "subtotal_ht",
				Status:   StatusError,
				Message:  "Subtotal doesn't match sum of items",
				Expected: itemSum.InexactFloat64(),
				Found:    rec.SubtotalHT,
			})
		}
	}

	computedTotal := decimal.NewFromFloat(rec.SubtotalHT).
		Add(decimal.NewFromFloat(rec.TotalVAT)).
		Add(decimal.NewFromFloat(rec.FiscalStamp))
	if !withinTolerance(computedTotal, decimal.NewFromFloat(rec.TotalTTC)) {
		results = append(results, ValidationResult{
			Field:    "total_ttc",
			Status:   StatusWarning,
			Message:  "Total amount calculation mismatch",
			Expected: computedTotal.InexactFloat64(),
			Found:    rec.TotalTTC,
		})
	}

	expectedVAT := decimal.NewFromFloat(rec.SubtotalHT).Mul(defaultVATRate)
	if !withinTolerance(expectedVAT, decimal.NewFromFloat(rec.TotalVAT)) {
		results = append(results, ValidationResult{
			Field:    "total_vat",
			Status:   StatusWarning,
			Message:  "VAT amount doesn't match 19% of subtotal",
			Expected: expectedVAT.InexactFloat64(),
			Found:    rec.TotalVAT,
		})
	}

	errorCount, warningCount := 0, 0
	for _, r := range results {
		switch r.Status {
		case StatusError:
			errorCount++
		case StatusWarning:
			warningCount++
		}
	}

	score := 100.0
	if len(results) > 0 {
		score = float64(100 - (2*errorCount+warningCount)*10)
		if score < 0 {
			score = 0
		}
	}

	if results == nil {
		results = []ValidationResult{}
	}
	return &ValidationResponse{
		OverallValid: errorCount == 0,
		Results:      results,
		Score:        score,
	}
}

func withinTolerance(expected, found decimal.Decimal) bool {
	return expected.Sub(found).Abs().LessThanOrEqual(tolerance)
}
