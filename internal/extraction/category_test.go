package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SuggestCategory", func() {
	DescribeTable("classifying text",
		func(text string, expected Category) {
			Expect(SuggestCategory(text)).To(Equal(expected))
		},
		Entry("coffee chain", "STARBUCKS #4521", FoodAndDrink),
		Entry("rideshare", "Uber Trip", Transportation),
		Entry("grocer", "Kroger", Groceries),
		Entry("pharmacy", "CVS/pharmacy", Healthcare),
		Entry("insurer", "State Farm Insurance", Insurance),
		Entry("bank", "Bank of Springfield", Banking),
		Entry("substring match on hotel", "The Hotelier Lounge", Travel),
		Entry("fallback word pattern for fuel", "Joe's Fuel Stop", Transportation),
		Entry("fallback word pattern for shop", "Main Street Shop", Shopping),
		Entry("fallback word pattern for tickets", "City Museum tickets", Entertainment),
		Entry("nothing recognisable", "random unmatched text", Other),
		Entry("empty text", "", Other),
	)

	It("should list every category", func() {
		Expect(Categories).To(HaveLen(11))
		Expect(Categories).To(ContainElement(Other))
	})
})

var _ = Describe("ClassifyReceipt", func() {
	It("should use the merchant when it is recognised", func() {
		merchant := "Shell Station"
		Expect(ClassifyReceipt(&merchant, "pizza slice $3.00")).To(Equal(Transportation))
	})

	It("should fall back to the full text when the merchant is Other", func() {
		merchant := "Generic Holdings"
		Expect(ClassifyReceipt(&merchant, "Generic Holdings\nlarge coffee $3.00")).To(Equal(FoodAndDrink))
	})

	It("should classify the full text without a merchant", func() {
		Expect(ClassifyReceipt(nil, "Walgreens #88")).To(Equal(Healthcare))
	})
})
