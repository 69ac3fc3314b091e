package invoice

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveExtraction", func() {
		var (
			stored *StoredExtraction
			err    error
		)

		BeforeEach(func() {
			stored = &StoredExtraction{
				ID:          "test-id",
				Filename:    "test-id_facture.pdf",
				ContentType: "application/pdf",
				Method:      "pdf-text",
				Plausible:   true,
				Record: &Record{
					ClientName:    "Ahmed Ben Salah",
					InvoiceNumber: "BL-001234",
					VehiclePlate:  "201 TU 9392",
					TotalTTC:      62.404,
				},
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
		})

		JustBeforeEach(func() {
			err = db.SaveExtraction(stored)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the extraction to the database", func() {
				saved, getErr := db.GetExtraction("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("test-id"))
			})
		})
	})

	Describe("GetExtraction", func() {
		var (
			id     string
			stored *StoredExtraction
			err    error
		)

		JustBeforeEach(func() {
			stored, err = db.GetExtraction(id)
		})

		When("extraction exists", func() {
			BeforeEach(func() {
				id = "test-id"
				testStored := &StoredExtraction{
					ID:          "test-id",
					Filename:    "test-id_facture.pdf",
					ContentType: "application/pdf",
					Method:      "pdf-ocr",
					Record: &Record{
						ClientName: "Ahmed Ben Salah",
						TotalTTC:   62.404,
					},
					CreatedAt: time.Now(),
					UpdatedAt: time.Now(),
				}
				Expect(db.SaveExtraction(testStored)).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the correct extraction ID", func() {
				Expect(stored.ID).To(Equal("test-id"))
			})

			It("should return the extraction method", func() {
				Expect(stored.Method).To(Equal("pdf-ocr"))
			})

			It("should round-trip the nested record", func() {
				Expect(stored.Record.ClientName).To(Equal("Ahmed Ben Salah"))
				Expect(stored.Record.TotalTTC).To(Equal(62.404))
			})
		})

		When("extraction does not exist", func() {
			var expectedErr error

			BeforeEach(func() {
				id = "nonexistent"
				expectedErr = errors.New("extraction not found: nonexistent")
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(expectedErr))
			})
		})
	})

	Describe("ListExtractions", func() {
		var (
			extractions []*StoredExtraction
			err         error
		)

		JustBeforeEach(func() {
			extractions, err = db.ListExtractions()
		})

		When("extractions exist", func() {
			BeforeEach(func() {
				stored1 := &StoredExtraction{
					ID:        "id1",
					Record:    &Record{ClientName: "Client 1"},
					CreatedAt: time.Now(),
					UpdatedAt: time.Now(),
				}
				stored2 := &StoredExtraction{
					ID:        "id2",
					Record:    &Record{ClientName: "Client 2"},
					CreatedAt: time.Now(),
					UpdatedAt: time.Now(),
				}
				Expect(db.SaveExtraction(stored1)).NotTo(HaveOccurred())
				Expect(db.SaveExtraction(stored2)).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return all extractions", func() {
				Expect(extractions).To(HaveLen(2))
			})
		})

		When("no extractions exist", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an empty list", func() {
				Expect(extractions).To(BeEmpty())
			})
		})
	})

	Describe("DeleteExtraction", func() {
		var (
			id  string
			err error
		)

		JustBeforeEach(func() {
			err = db.DeleteExtraction(id)
		})

		When("extraction exists", func() {
			BeforeEach(func() {
				id = "test-id"
				stored := &StoredExtraction{
					ID:        "test-id",
					Record:    &Record{ClientName: "Client"},
					CreatedAt: time.Now(),
					UpdatedAt: time.Now(),
				}
				Expect(db.SaveExtraction(stored)).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should remove the extraction from the database", func() {
				_, getErr := db.GetExtraction("test-id")
				Expect(getErr).To(HaveOccurred())
			})
		})

		When("extraction does not exist", func() {
			BeforeEach(func() {
				id = "nonexistent"
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})

	Describe("Close", func() {
		It("should not return an error", func() {
			err := db.Close()
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
