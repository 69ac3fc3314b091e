package invoice

import "time"

// Supplier identity for SPEEDMECAHOME invoices. These are fixed values on
// every invoice this service understands; they are never extracted.
const (
	SupplierName    = "SPEEDMECAHOME"
	SupplierAddress = "Route X20, 2091 jardin d'el menzah 2"
	SupplierPhone   = "+21629097633"
	SupplierVATCode = "1755825 N A M 000"
	SupplierEmail   = "contact.fixiny@gmail.com"
	SupplierBank    = "Banque Baraka-Al Baraka Bank"
	SupplierIBAN    = "TN59 3201 8788 1161 5185 2185"
)

// Placeholder values written by the defaulting pass when a field could not
// be located in the document. The plausibility check compares against these.
const (
	PlaceholderClientName     = "Client Non Spécifié"
	PlaceholderClientMF       = "MF NON SPECIFIE"
	PlaceholderClientEmail    = "email@example.com"
	PlaceholderClientMobile   = "+21600000000"
	PlaceholderInvoiceNumber  = "BL-000000"
	PlaceholderVehiclePlate   = "000 TU 0000"
	PlaceholderVehicleMileage = "0 KM"
	PlaceholderAmountInWords  = "Montant non spécifié"
)

// Item is a single row of the invoice items table, in document order.
type Item struct {
	ItemNumber  string  `json:"item_number"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate"`
	TotalHT     float64 `json:"total_ht"`
}

// VATBreakdown is one row of the VAT summary, one per distinct rate.
// SPEEDMECAHOME invoices carry a single 19% row.
type VATBreakdown struct {
	Rate   float64 `json:"rate"`
	Base   float64 `json:"base"`
	Amount float64 `json:"amount"`
}

// Record is a fully populated invoice. Every field always has a value: the
// extraction pipeline defaults anything it could not find before building
// one of these. JSON field names are the wire names the frontend expects,
// so a record returned by /extract-invoice can be posted back unchanged to
// /validate-invoice.
type Record struct {
	SupplierName    string `json:"supplier_name"`
	SupplierAddress string `json:"supplier_address"`
	SupplierPhone   string `json:"supplier_phone"`
	SupplierVATCode string `json:"supplier_vat_code"`
	SupplierEmail   string `json:"supplier_email"`
	SupplierBank    string `json:"supplier_bank"`
	SupplierIBAN    string `json:"supplier_iban"`

	ClientName   string `json:"client_name"`
	ClientMF     string `json:"client_mf"`
	ClientEmail  string `json:"client_email"`
	ClientMobile string `json:"client_mobile"`

	InvoiceDate    time.Time `json:"invoice_date"`
	InvoiceNumber  string    `json:"invoice_number"`
	VehiclePlate   string    `json:"vehicle_plate"`
	VehicleMileage string    `json:"vehicle_mileage"`

	Items []Item `json:"items"`

	SubtotalHT    float64        `json:"subtotal_ht"`
	VATBreakdown  []VATBreakdown `json:"vat_breakdown"`
	TotalHT       float64        `json:"total_ht"`
	TotalVAT      float64        `json:"total_vat"`
	FiscalStamp   float64        `json:"fiscal_stamp"`
	TotalTTC      float64        `json:"total_ttc"`
	AmountInWords string         `json:"amount_in_words"`
}

// StoredExtraction is the archive envelope persisted for every successful
// extraction, so past uploads can be listed and re-downloaded.
type StoredExtraction struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Method      string    `json:"method"` // "pdf-text" or "pdf-ocr"
	Plausible   bool      `json:"plausible"`
	Record      *Record   `json:"record"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
