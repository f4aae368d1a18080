package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractTotal", func() {
	DescribeTable("finding the receipt total",
		func(text string, expected float64) {
			Expect(ExtractTotal(text)).To(HaveValue(Equal(expected)))
		},
		Entry("labelled total", "Total: $12.34", 12.34),
		Entry("total after subtotal", "Subtotal: $10.00\nTotal: $12.34", 12.34),
		Entry("grand total beats total", "Total: $50.00\nGrand Total: $45.00", 45.00),
		Entry("thousands separator", "TOTAL 1,234.56", 1234.56),
		Entry("amount due", "Amount Due: $30.25", 30.25),
		Entry("balance due", "Balance Due $19.99", 19.99),
		Entry("amount before the keyword", "$22.10 TOTAL", 22.10),
		Entry("subtotal when no total is printed", "Subtotal: $10.00\nTax: $0.80", 10.00),
		Entry("bare dollar amount", "Coffee $5.99", 5.99),
		Entry("larger of two equal-priority totals", "Total: $10.00\nTotal: $12.50", 12.50),
	)

	DescribeTable("rejecting implausible amounts",
		func(text string) {
			Expect(ExtractTotal(text)).To(BeNil())
		},
		Entry("no amounts", "hello"),
		Entry("empty text", ""),
		Entry("amount above the ceiling", "$99999.99"),
		Entry("zero total", "Total: $0.00"),
		Entry("whole dollars without cents", "Total: $12"),
		Entry("separators without digits", "Total: $,.50"),
	)

	It("should skip an out-of-range total and use the next best", func() {
		Expect(ExtractTotal("Total: $25000.00\nSubtotal: $18.00")).To(HaveValue(Equal(18.00)))
	})

	Describe("candidates", func() {
		It("should collect every in-range match with its priority", func() {
			candidates := amountCandidates("Total: $12.34")
			Expect(candidates).NotTo(BeEmpty())
			Expect(candidates[0].Priority).To(Equal(90))
			Expect(candidates[0].Value).To(Equal(12.34))
		})
	})
})
