package extraction

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fixiny/invoice-scan/internal/invoice"
)

// ShapeError reports a captured value that cannot be coerced into the typed
// record. It is the only hard failure the pipeline produces: pattern misses
// are absorbed by the defaulting pass, but a matched amount that is not a
// number means the record cannot be built at all.
type ShapeError struct {
	Field string
	Value string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid value for %s: cannot coerce %q to a number", e.Field, e.Value)
}

// Draft accumulates the output of the extraction passes. Pointer fields are
// unset until a pattern matched; the defaulting pass fills the rest. Amount
// fields hold normalized text (decimal comma already replaced) and are only
// coerced to numbers when the record is built.
type Draft struct {
	ClientName   *string
	ClientMF     *string
	ClientEmail  *string
	ClientMobile *string

	InvoiceDate    *time.Time
	InvoiceNumber  *string
	VehiclePlate   *string
	VehicleMileage *string

	Items []invoice.Item

	SubtotalHT   *string
	TotalHT      *string
	TotalVAT     *string
	FiscalStamp  *string
	TotalTTC     *string
	VATBreakdown []invoice.VATBreakdown

	AmountInWords *string
}

// Build converts the fully defaulted draft into a typed record. Every scalar
// field must already be set; amounts are parsed here and a bad one surfaces
// as a *ShapeError.
func (d *Draft) Build() (*invoice.Record, error) {
	rec := &invoice.Record{
		SupplierName:    invoice.SupplierName,
		SupplierAddress: invoice.SupplierAddress,
		SupplierPhone:   invoice.SupplierPhone,
		SupplierVATCode: invoice.SupplierVATCode,
		SupplierEmail:   invoice.SupplierEmail,
		SupplierBank:    invoice.SupplierBank,
		SupplierIBAN:    invoice.SupplierIBAN,

		ClientName:   strVal(d.ClientName),
		ClientMF:     strVal(d.ClientMF),
		ClientEmail:  strVal(d.ClientEmail),
		ClientMobile: strVal(d.ClientMobile),

		InvoiceNumber:  strVal(d.InvoiceNumber),
		VehiclePlate:   strVal(d.VehiclePlate),
		VehicleMileage: strVal(d.VehicleMileage),
		AmountInWords:  strVal(d.AmountInWords),
	}
	if d.InvoiceDate != nil {
		rec.InvoiceDate = *d.InvoiceDate
	}

	amounts := []struct {
		field string
		src   *string
		dst   *float64
	}{
		{"subtotal_ht", d.SubtotalHT, &rec.SubtotalHT},
		{"total_ht", d.TotalHT, &rec.TotalHT},
		{"total_vat", d.TotalVAT, &rec.TotalVAT},
		{"fiscal_stamp", d.FiscalStamp, &rec.FiscalStamp},
		{"total_ttc", d.TotalTTC, &rec.TotalTTC},
	}
	for _, a := range amounts {
		v, err := parseAmount(strVal(a.src))
		if err != nil {
			return nil, &ShapeError{Field: a.field, Value: strVal(a.src)}
		}
		*a.dst = v.InexactFloat64()
	}

	rec.Items = d.Items
	if rec.Items == nil {
		rec.Items = []invoice.Item{}
	}
	rec.VATBreakdown = d.VATBreakdown
	if rec.VATBreakdown == nil {
		rec.VATBreakdown = []invoice.VATBreakdown{}
	}

	return rec, nil
}

// amount reads an amount field for derivation purposes. Unset or unparsable
// values count as zero; the parse error is left for Build to report.
func (d *Draft) amount(src *string) decimal.Decimal {
	if src == nil {
		return decimal.Zero
	}
	v, err := parseAmount(*src)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// parseAmount normalizes a captured amount (decimal comma, trailing "DT")
// into a decimal value.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "DT")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strPtr(s string) *string { return &s }
