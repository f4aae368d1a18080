package receipt

import (
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Error", func() {
	It("should include the cause in the message", func() {
		err := newError(CodeInternal, "saving failed", errors.New("disk full"))
		Expect(err.Error()).To(Equal("internal: saving failed: disk full"))
	})

	It("should unwrap to the cause", func() {
		err := newError(CodeNotFound, "receipt not found", fmt.Errorf("receipt r1: %w", ErrNotFound))
		Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
	})

	DescribeTable("CodeOf",
		func(err error, expected Code) {
			Expect(CodeOf(err)).To(Equal(expected))
		},
		Entry("nil", nil, Code("")),
		Entry("classified", newError(CodePermissionDenied, "no", nil), CodePermissionDenied),
		Entry("wrapped classified", fmt.Errorf("outer: %w", newError(CodeUnavailable, "down", nil)), CodeUnavailable),
		Entry("bare not found", fmt.Errorf("trip t1: %w", ErrNotFound), CodeNotFound),
		Entry("anything else", errors.New("boom"), CodeInternal),
	)

	DescribeTable("MessageOf",
		func(err error, expected string) {
			Expect(MessageOf(err)).To(Equal(expected))
		},
		Entry("classified", newError(CodeInvalidArgument, "file data is required", nil), "file data is required"),
		Entry("bare not found", ErrNotFound, "not found"),
		Entry("unclassified errors are hidden", errors.New("db path /var/lib/x"), "internal error"),
	)

	DescribeTable("HTTPStatus",
		func(code Code, expected int) {
			Expect(HTTPStatus(code)).To(Equal(expected))
		},
		Entry(nil, CodeUnauthenticated, http.StatusUnauthorized),
		Entry(nil, CodeInvalidArgument, http.StatusBadRequest),
		Entry(nil, CodeNotFound, http.StatusNotFound),
		Entry(nil, CodePermissionDenied, http.StatusForbidden),
		Entry(nil, CodeUnavailable, http.StatusServiceUnavailable),
		Entry(nil, CodeInternal, http.StatusInternalServerError),
	)

	Describe("classify", func() {
		It("should keep an existing code", func() {
			original := newError(CodeNotFound, "no text found in image", nil)
			Expect(classify(original, "processing failed")).To(BeIdenticalTo(error(original)))
		})

		It("should wrap unclassified errors as internal", func() {
			err := classify(errors.New("boom"), "processing failed")
			Expect(CodeOf(err)).To(Equal(CodeInternal))
			Expect(MessageOf(err)).To(Equal("processing failed"))
		})
	})
})
