package receipt

import (
	"bytes"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/receipt-manager/internal/extraction"
)

var _ = Describe("ExportReceiptsXLSX", func() {
	var (
		db      *mockDB
		service *Service
		from    string
		to      string
		data    []byte
		err     error
	)

	BeforeEach(func() {
		db = newMockDB()
		timeSrc := &mockTimeSource{now: time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(db, newMockScanner(), newMockStorage(), &mockIDGenerator{id: "x"}, timeSrc)

		db.receipts["r1"] = &Receipt{
			ID:       "r1",
			UserID:   "alice",
			Date:     strPtr("2024-03-15"),
			Total:    floatPtr(12.5),
			Merchant: strPtr("Starbucks Store #123"),
			Category: "Food & Drink",
			Location: &extraction.Location{City: "Seattle", State: "WA", Full: "Seattle, WA"},
			Status:   StatusProcessed,
		}
		db.receipts["r2"] = &Receipt{
			ID:       "r2",
			UserID:   "alice",
			Date:     strPtr("2024-02-01"),
			Total:    floatPtr(40),
			Category: "Food & Drink",
			Status:   StatusProcessed,
		}
		db.receipts["r3"] = &Receipt{ID: "r3", UserID: "bob", Date: strPtr("2024-03-15"), Total: floatPtr(1)}
		from, to = "", ""
	})

	JustBeforeEach(func() {
		data, err = service.ExportReceiptsXLSX("alice", from, to)
	})

	open := func() *excelize.File {
		f, openErr := excelize.OpenReader(bytes.NewReader(data))
		Expect(openErr).NotTo(HaveOccurred())
		return f
	}

	It("should write a header and one row per receipt", func() {
		Expect(err).NotTo(HaveOccurred())
		f := open()
		defer f.Close()

		rows, rowsErr := f.GetRows(receiptsSheet)
		Expect(rowsErr).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(3))
		Expect(rows[0]).To(Equal(exportHeaders))
		Expect(rows[1][0]).To(Equal("2024-03-15"))
		Expect(rows[1][1]).To(Equal("Starbucks Store #123"))
		Expect(rows[1][4]).To(Equal("Seattle, WA"))
	})

	It("should total each category", func() {
		f := open()
		defer f.Close()

		value, cellErr := f.GetCellValue(summarySheet, "A2")
		Expect(cellErr).NotTo(HaveOccurred())
		Expect(value).To(Equal("Food & Drink"))

		raw, cellErr := f.GetCellValue(summarySheet, "B2", excelize.Options{RawCellValue: true})
		Expect(cellErr).NotTo(HaveOccurred())
		Expect(raw).To(Equal("52.5"))
	})

	When("a date range is given", func() {
		BeforeEach(func() {
			from, to = "2024-03-01", "2024-03-31"
		})

		It("should only export receipts in range", func() {
			f := open()
			defer f.Close()
			rows, _ := f.GetRows(receiptsSheet)
			Expect(rows).To(HaveLen(2))
		})
	})

	When("only one end of the range is given", func() {
		BeforeEach(func() {
			from = "2024-03-01"
		})

		It("should be an invalid argument", func() {
			Expect(CodeOf(err)).To(Equal(CodeInvalidArgument))
		})
	})
})
