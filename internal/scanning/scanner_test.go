package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PlainText", func() {
	var (
		scanner     *PlainText
		data        []byte
		contentType string
		text        string
		err         error
	)

	BeforeEach(func() {
		scanner = NewPlainText()
		data = []byte("  Corner Cafe\nTotal: $4.00\n")
	})

	JustBeforeEach(func() {
		text, err = scanner.ScanText(data, contentType)
	})

	When("the upload is text", func() {
		BeforeEach(func() {
			contentType = "text/plain; charset=utf-8"
		})

		It("should return the trimmed text", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Corner Cafe\nTotal: $4.00"))
		})
	})

	When("the upload is an image", func() {
		BeforeEach(func() {
			contentType = "image/png"
		})

		It("should reject it", func() {
			Expect(err).To(MatchError(ErrUnsupportedContentType))
		})
	})

	It("should close without error", func() {
		Expect(scanner.Close()).To(Succeed())
	})
})
