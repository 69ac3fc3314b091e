// Package extraction turns the raw text of a SPEEDMECAHOME invoice into a
// fully populated invoice record. Every pass is best-effort: a pattern that
// does not match leaves its field unset and the defaulting pass fills it
// with a documented placeholder, so extraction never fails on missing
// fields. The only hard failure is a *ShapeError from the record builder.
package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fixiny/invoice-scan/internal/invoice"
)

var (
	reEmail       = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	reMobile      = regexp.MustCompile(`\+?\d{2,}[\s\d-]+`)
	reDate        = regexp.MustCompile(`Date\s+(\d{2}-\d{2}-\d{4})`)
	reInvoiceNum  = regexp.MustCompile(`BL-\d+`)
	rePlate       = regexp.MustCompile(`\d{1,4}\s*[A-Z]{1,3}\s*\d{1,4}`)
	reMileage     = regexp.MustCompile(`(\d+)\s*KM`)
	reItemRow     = regexp.MustCompile(`^\d+\s+`)
	reVATRow      = regexp.MustCompile(`(\d+)\s*%\s*([\d,]+\.?\d*)\s*DT\s*([\d,]+\.?\d*)\s*DT`)
	reAmountWords = regexp.MustCompile(`(?s)Arrêtée la présente facture.*?\n(.*?)(?:\n|$)`)
	reHasDigit    = regexp.MustCompile(`\d`)

	// item row token shapes
	reColumns    = regexp.MustCompile(`\s{2,}`)
	reQuantity   = regexp.MustCompile(`^\d{1,2}$`)
	rePriceDT    = regexp.MustCompile(`^[\d,]+\.?\d*\s*DT$`)
	rePricePlain = regexp.MustCompile(`^\d+[,.]\d+$`)
	reBareNumber = regexp.MustCompile(`^\d+[,.]?\d*$`)
	rePercent    = regexp.MustCompile(`^\d+\s*%$`)
)

// TimeSource provides the current time, injectable for tests so that
// defaulted invoice dates are reproducible.
type TimeSource interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Extractor runs the extraction passes over invoice text.
type Extractor struct {
	defaults Defaults
	clock    TimeSource
}

// New creates an Extractor with the SPEEDMECAHOME defaults and the system
// clock.
func New() *Extractor {
	return &Extractor{defaults: SpeedmecahomeDefaults(), clock: systemClock{}}
}

// NewWithClock creates an Extractor with custom defaults and time source.
func NewWithClock(defaults Defaults, clock TimeSource) *Extractor {
	return &Extractor{defaults: defaults, clock: clock}
}

// Extract parses invoice text into a complete record. Missing fields are
// defaulted, so the returned record is always fully populated; the only
// error is a *ShapeError when a captured amount is not numeric.
func (e *Extractor) Extract(text string) (*invoice.Record, error) {
	lines := strings.Split(text, "\n")

	d := &Draft{}
	extractClientInfo(lines, d)
	extractMetadata(lines, d)
	extractVehicleInfo(lines, d)
	e.extractLineItems(lines, d)
	extractFinancials(text, d)
	e.applyDefaults(d)

	return d.Build()
}

// extractClientInfo scans for the client block: the line after a CLIENT
// header is the client name, an MF line with a digit is the tax code, the
// first email-shaped substring is the email, and a digit run on a line with
// a Mobile/Tél marker is the mobile number.
func extractClientInfo(lines []string, d *Draft) {
	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		if strings.Contains(line, "CLIENT") && i+1 < len(lines) {
			d.ClientName = strPtr(strings.TrimSpace(lines[i+1]))
		}

		if strings.Contains(line, "MF") && reHasDigit.MatchString(line) {
			d.ClientMF = strPtr(line)
		}

		// first email wins, later matches are ignored
		if d.ClientEmail == nil {
			if m := reEmail.FindString(line); m != "" {
				d.ClientEmail = strPtr(m)
			}
		}

		if strings.Contains(line, "Mobile") || strings.Contains(line, "Tél") {
			if m := reMobile.FindString(line); m != "" {
				d.ClientMobile = strPtr(strings.TrimSpace(m))
			}
		}
	}
}

// extractMetadata captures the invoice date and number. Invalid dates are
// discarded; the invoice number does not stop at the first match, so the
// last BL- reference in document order wins.
func extractMetadata(lines []string, d *Draft) {
	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		if m := reDate.FindStringSubmatch(line); m != nil {
			if t, err := time.Parse("02-01-2006", m[1]); err == nil {
				d.InvoiceDate = &t
			}
		}

		if m := reInvoiceNum.FindString(line); m != "" {
			d.InvoiceNumber = strPtr(m)
		}
	}
}

// extractVehicleInfo locates the registration plate (a short line with a
// digits-letters-digits group) and then searches the same line plus the
// next three for a "<digits> KM" mileage token.
func extractVehicleInfo(lines []string, d *Draft) {
	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		m := rePlate.FindString(line)
		if m == "" || utf8.RuneCountInString(line) >= 20 {
			continue
		}
		d.VehiclePlate = strPtr(strings.TrimSpace(m))

		if km := reMileage.FindStringSubmatch(line); km != nil {
			d.VehicleMileage = strPtr(km[1] + " KM")
			continue
		}
		for j := i + 1; j < len(lines) && j < i+4; j++ {
			if km := reMileage.FindStringSubmatch(lines[j]); km != nil {
				d.VehicleMileage = strPtr(km[1] + " KM")
				break
			}
		}
	}
}

// extractLineItems walks the items table: it opens at the column header
// line, closes at the first totals/VAT line, and treats every line starting
// with a digit in between as a candidate row.
func (e *Extractor) extractLineItems(lines []string, d *Draft) {
	inSection := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		if strings.Contains(line, "Description") && strings.Contains(line, "Quantité") && strings.Contains(line, "PU HT") {
			inSection = true
			continue
		}
		if inSection && (strings.Contains(line, "SOUS-TOTAL") || strings.Contains(line, "TVA") || strings.Contains(line, "TOTAL")) {
			break
		}
		if inSection && reItemRow.MatchString(line) {
			if item, ok := e.parseItemRow(line); ok {
				d.Items = append(d.Items, item)
			}
		}
	}
}

// parseItemRow splits a row on runs of two or more spaces and classifies
// each token by shape: a bare one/two-digit token is the quantity, the
// first price-shaped token is the unit price and the second the line total,
// everything else that is not numeric joins the description. Known
// limitation: when the quantity sits between the two prices, the second
// price can be misread; the order-dependence is deliberate.
func (e *Extractor) parseItemRow(line string) (invoice.Item, bool) {
	cols := reColumns.Split(strings.TrimSpace(line), -1)

	var desc []string
	quantity := 1.0
	var unitPrice, totalHT float64

	for _, col := range cols {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		switch {
		case reQuantity.MatchString(col):
			if q, err := strconv.ParseFloat(col, 64); err == nil {
				quantity = q
			}
		case rePriceDT.MatchString(col) || rePricePlain.MatchString(col):
			v, err := parseAmount(col)
			if err != nil {
				continue
			}
			if unitPrice == 0 {
				unitPrice = v.InexactFloat64()
			} else {
				totalHT = v.InexactFloat64()
			}
		case !reBareNumber.MatchString(col) && !rePercent.MatchString(col):
			desc = append(desc, col)
		}
	}

	if len(desc) == 0 || unitPrice <= 0 {
		return invoice.Item{}, false
	}

	description := strings.Join(desc, " ")
	if totalHT <= 0 {
		totalHT = unitPrice * quantity
	}
	return invoice.Item{
		ItemNumber:  strconv.Itoa(len(description)), // rows carry no stable number
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		VATRate:     e.defaults.VATRate,
		TotalHT:     totalHT,
	}, true
}

// extractFinancials runs the ordered rule lists for each total over the
// whole document, then picks up the single VAT-breakdown row and the
// amount-in-words line.
func extractFinancials(text string, d *Draft) {
	d.SubtotalHT = firstMatch(subtotalRules, text)
	d.TotalHT = firstMatch(totalHTRules, text)
	d.TotalVAT = firstMatch(totalVATRules, text)
	d.FiscalStamp = firstMatch(fiscalStampRules, text)
	d.TotalTTC = firstMatch(totalTTCRules, text)

	if m := reVATRow.FindStringSubmatch(text); m != nil {
		rate, rateErr := strconv.Atoi(m[1])
		base, baseErr := parseAmount(m[2])
		amount, amountErr := parseAmount(m[3])
		if rateErr == nil && baseErr == nil && amountErr == nil {
			d.VATBreakdown = []invoice.VATBreakdown{{
				Rate:   float64(rate) / 100,
				Base:   base.InexactFloat64(),
				Amount: amount.InexactFloat64(),
			}}
		}
	}

	if m := reAmountWords.FindStringSubmatch(text); m != nil {
		d.AmountInWords = strPtr(strings.TrimSpace(m[1]))
	}
}
