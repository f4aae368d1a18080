package extraction

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractMerchant", func() {
	DescribeTable("picking the business name",
		func(text string, expected string) {
			Expect(ExtractMerchant(text)).To(HaveValue(Equal(expected)))
		},
		Entry("skips a numeric first line", "12345\nJoe's Pizza LLC", "Joe's Pizza LLC"),
		Entry("skips a generic heading", "RECEIPT\nCorner Cafe\nTotal: $4.00", "Corner Cafe"),
		Entry("first line wins a tie in content", "Alpha Goods\nBeta Goods", "Alpha Goods"),
		Entry("business suffix beats position", "Welcome\nAcme Corp", "Acme Corp"),
		Entry("skips dates and prices", "03/15/2024\n$12.00\nMain Street Grill", "Main Street Grill"),
		Entry("co. suffix", "Thanks\nSmith & Co.", "Smith & Co."),
		Entry("skips a named-month date", "Mar 15, 2024\nBob's Diner", "Bob's Diner"),
		Entry("skips a day-first named date", "15 March 2024\nHarbor Books", "Harbor Books"),
	)

	DescribeTable("finding nothing",
		func(text string) {
			Expect(ExtractMerchant(text)).To(BeNil())
		},
		Entry("empty text", ""),
		Entry("name below the header window", "1\n2\n3\n4\n5\nBig Store Inc"),
		Entry("only generic headings", "Invoice\nbill\nORDER"),
		Entry("only a date", "September 5 2024"),
		Entry("too long", strings.Repeat("x", 51)),
	)

	Describe("scoring", func() {
		It("should add the suffix, type and position bonuses", func() {
			Expect(merchantScore("Corner Store Inc", 0)).To(Equal(120))
			Expect(merchantScore("Corner Store", 1)).To(Equal(80))
			Expect(merchantScore("Somewhere", 4)).To(Equal(50))
		})

		It("should not treat 'bar' inside a word as a business type", func() {
			Expect(merchantScore("Barnaby Books", 2)).To(Equal(50))
		})
	})
})
