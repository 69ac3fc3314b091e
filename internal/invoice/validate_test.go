package invoice

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// consistentRecord builds a record whose arithmetic checks out exactly.
func consistentRecord() *Record {
	return &Record{
		ClientName:    "Ahmed Ben Salah",
		InvoiceNumber: "BL-001234",
		VehiclePlate:  "201 TU 9392",
		Items: []Item{
			{Description: "Vidange moteur", Quantity: 1, UnitPrice: 25.5, TotalHT: 25.5},
			{Description: "Filtre à huile", Quantity: 2, UnitPrice: 13.05, TotalHT: 26.1},
		},
		SubtotalHT:  51.6,
		TotalVAT:    9.804,
		FiscalStamp: 1.0,
		TotalTTC:    62.404,
	}
}

var _ = Describe("Validate", func() {
	var (
		record   *Record
		response *ValidationResponse
	)

	JustBeforeEach(func() {
		response = Validate(record)
	})

	When("every check passes", func() {
		BeforeEach(func() {
			record = consistentRecord()
		})

		It("should be overall valid", func() {
			Expect(response.OverallValid).To(BeTrue())
		})

		It("should report no findings", func() {
			Expect(response.Results).To(BeEmpty())
		})

		It("should score a perfect 100", func() {
			Expect(response.Score).To(Equal(100.0))
		})
	})

	When("the subtotal disagrees with the item sum", func() {
		BeforeEach(func() {
			record = &Record{
				ClientName:    "Ahmed Ben Salah",
				InvoiceNumber: "BL-001234",
				VehiclePlate:  "201 TU 9392",
				Items: []Item{
					{Description: "Pièce A", Quantity: 1, UnitPrice: 60, TotalHT: 60},
					{Description: "Pièce B", Quantity: 1, UnitPrice: 40, TotalHT: 40},
				},
				SubtotalHT:  105,
				TotalVAT:    19.95,
				FiscalStamp: 1.0,
				TotalTTC:    125.95,
			}
		})

		It("should not be overall valid", func() {
			Expect(response.OverallValid).To(BeFalse())
		})

		It("should report exactly one finding", func() {
			Expect(response.Results).To(HaveLen(1))
		})

		It("should flag the subtotal as an error with both values", func() {
			Expect(response.Results[0].Field).To(Equal("subtotal_ht"))
			Expect(response.Results[0].Status).To(Equal(StatusError))
			Expect(response.Results[0].Expected).To(Equal(100.0))
			Expect(response.Results[0].Found).To(Equal(105.0))
		})

		It("should score 80", func() {
			Expect(response.Score).To(Equal(80.0))
		})
	})

	When("the subtotal is off by less than a centime", func() {
		BeforeEach(func() {
			record = consistentRecord()
			record.SubtotalHT = 51.605
			record.TotalTTC = 62.409
			record.TotalVAT = 9.805
		})

		It("should stay overall valid", func() {
			Expect(response.OverallValid).To(BeTrue())
		})

		It("should report no findings", func() {
			Expect(response.Results).To(BeEmpty())
		})
	})

	When("the record has no items", func() {
		BeforeEach(func() {
			record = consistentRecord()
			record.Items = nil
		})

		It("should skip the subtotal check", func() {
			Expect(response.OverallValid).To(BeTrue())
			Expect(response.Results).To(BeEmpty())
		})
	})

	When("the grand total does not add up", func() {
		BeforeEach(func() {
			record = consistentRecord()
			record.TotalTTC = 70
		})

		It("should stay overall valid", func() {
			Expect(response.OverallValid).To(BeTrue())
		})

		It("should flag the total as a warning", func() {
			Expect(response.Results).To(HaveLen(1))
			Expect(response.Results[0].Field).To(Equal("total_ttc"))
			Expect(response.Results[0].Status).To(Equal(StatusWarning))
		})

		It("should score 90", func() {
			Expect(response.Score).To(Equal(90.0))
		})
	})

	When("the VAT is not 19% of the subtotal", func() {
		BeforeEach(func() {
			record = consistentRecord()
			record.TotalVAT = 5
			record.TotalTTC = 57.6
		})

		It("should flag the VAT as a warning", func() {
			found := false
			for _, r := range response.Results {
				if r.Field == "total_vat" {
					found = true
					Expect(r.Status).To(Equal(StatusWarning))
				}
			}
			Expect(found).To(BeTrue())
		})
	})

	When("the required fields are empty", func() {
		BeforeEach(func() {
			record = &Record{}
		})

		It("should not be overall valid", func() {
			Expect(response.OverallValid).To(BeFalse())
		})

		It("should report each missing required field as an error", func() {
			fields := make([]string, 0, len(response.Results))
			for _, r := range response.Results {
				if r.Status == StatusError {
					fields = append(fields, r.Field)
				}
			}
			Expect(fields).To(ContainElements("client_name", "invoice_number", "vehicle_plate", "total_ttc"))
		})

		It("should score 20", func() {
			Expect(response.Score).To(Equal(20.0))
		})
	})

	When("everything is wrong at once", func() {
		BeforeEach(func() {
			record = &Record{
				Items:      []Item{{Description: "Pièce", Quantity: 1, UnitPrice: 10, TotalHT: 10}},
				SubtotalHT: 50,
				TotalVAT:   2,
			}
		})

		It("should not be overall valid", func() {
			Expect(response.OverallValid).To(BeFalse())
		})

		It("should floor the score at 0", func() {
			Expect(response.Score).To(Equal(0.0))
		})
	})
})

var _ = Describe("Plausible", func() {
	It("accepts a fully extracted record", func() {
		Expect(Plausible(consistentRecord())).To(BeTrue())
	})

	It("rejects a nil record", func() {
		Expect(Plausible(nil)).To(BeFalse())
	})

	It("rejects a placeholder client name", func() {
		record := consistentRecord()
		record.ClientName = PlaceholderClientName
		Expect(Plausible(record)).To(BeFalse())
	})

	It("rejects a placeholder vehicle plate", func() {
		record := consistentRecord()
		record.VehiclePlate = PlaceholderVehiclePlate
		Expect(Plausible(record)).To(BeFalse())
	})

	It("rejects a zero grand total", func() {
		record := consistentRecord()
		record.TotalTTC = 0
		Expect(Plausible(record)).To(BeFalse())
	})
})
