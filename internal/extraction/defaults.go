package extraction

import (
	"github.com/shopspring/decimal"

	"github.com/fixiny/invoice-scan/internal/invoice"
)

// Defaults holds the per-vendor placeholder values and fixed rates the
// defaulting pass writes into a draft. Keeping them in one injected struct
// means a different vendor layout only needs a different Defaults value.
type Defaults struct {
	ClientName     string
	ClientMF       string
	ClientEmail    string
	ClientMobile   string
	InvoiceNumber  string
	VehiclePlate   string
	VehicleMileage string
	AmountInWords  string

	VATRate     float64 // fraction, e.g. 0.19
	FiscalStamp float64 // currency units added to every invoice
}

// SpeedmecahomeDefaults returns the defaults for the one vendor layout this
// service understands.
func SpeedmecahomeDefaults() Defaults {
	return Defaults{
		ClientName:     invoice.PlaceholderClientName,
		ClientMF:       invoice.PlaceholderClientMF,
		ClientEmail:    invoice.PlaceholderClientEmail,
		ClientMobile:   invoice.PlaceholderClientMobile,
		InvoiceNumber:  invoice.PlaceholderInvoiceNumber,
		VehiclePlate:   invoice.PlaceholderVehiclePlate,
		VehicleMileage: invoice.PlaceholderVehicleMileage,
		AmountInWords:  invoice.PlaceholderAmountInWords,
		VATRate:        0.19,
		FiscalStamp:    1.0,
	}
}

// applyDefaults fills every unset draft field so the record builder always
// receives a complete field set. It never fails; extraction gaps are masked
// behind placeholders and the plausibility check is how callers detect that
// masking happened.
func (e *Extractor) applyDefaults(d *Draft) {
	def := e.defaults

	fill := func(p **string, v string) {
		if *p == nil {
			*p = strPtr(v)
		}
	}

	fill(&d.ClientName, def.ClientName)
	fill(&d.ClientMF, def.ClientMF)
	fill(&d.ClientEmail, def.ClientEmail)
	fill(&d.ClientMobile, def.ClientMobile)
	fill(&d.InvoiceNumber, def.InvoiceNumber)
	fill(&d.VehiclePlate, def.VehiclePlate)
	fill(&d.VehicleMileage, def.VehicleMileage)
	fill(&d.AmountInWords, def.AmountInWords)

	if d.InvoiceDate == nil {
		now := e.clock.Now()
		d.InvoiceDate = &now
	}

	fill(&d.SubtotalHT, "0")
	fill(&d.TotalHT, "0")
	fill(&d.TotalVAT, "0")
	fill(&d.FiscalStamp, "0")
	fill(&d.TotalTTC, "0")

	// Single-rate vendor: when no breakdown row was legible, synthesize the
	// one 19% row from whatever totals are set.
	if len(d.VATBreakdown) == 0 {
		d.VATBreakdown = []invoice.VATBreakdown{{
			Rate:   def.VATRate,
			Base:   d.amount(d.SubtotalHT).InexactFloat64(),
			Amount: d.amount(d.TotalVAT).InexactFloat64(),
		}}
	}

	// Recover a usable grand total when only the subtotal line was legible.
	subtotal := d.amount(d.SubtotalHT)
	if d.amount(d.TotalTTC).IsZero() && subtotal.IsPositive() {
		vat := subtotal.Mul(decimal.NewFromFloat(def.VATRate))
		stamp := decimal.NewFromFloat(def.FiscalStamp)
		d.TotalVAT = strPtr(vat.String())
		d.FiscalStamp = strPtr(stamp.String())
		d.TotalTTC = strPtr(subtotal.Add(vat).Add(stamp).String())
	}
}
