package receipt

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		basePath string
		storage  *LocalStorage
	)

	BeforeEach(func() {
		basePath = filepath.Join(GinkgoT().TempDir(), "files")
		var err error
		storage, err = NewLocalStorage(basePath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create the base directory", func() {
		info, err := os.Stat(basePath)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	Describe("Save", func() {
		It("should write into a per-user directory", func() {
			path, err := storage.Save("alice/r1_receipt.jpg", []byte("image"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("alice/r1_receipt.jpg"))

			data, err := os.ReadFile(filepath.Join(basePath, "alice", "r1_receipt.jpg"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("image"))
		})

		DescribeTable("rejecting paths outside the base directory",
			func(path string) {
				_, err := storage.Save(path, []byte("x"))
				Expect(errors.Is(err, ErrInvalidPath)).To(BeTrue())
			},
			Entry("empty", ""),
			Entry("absolute", "/etc/passwd"),
			Entry("parent", ".."),
			Entry("escaping", "alice/../../escape.txt"),
		)

		It("should allow dots that stay inside", func() {
			_, err := storage.Save("alice/../bob/r1.png", []byte("x"))
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Join(basePath, "bob", "r1.png")).To(BeAnExistingFile())
		})
	})

	Describe("Get", func() {
		It("should read a saved file", func() {
			_, err := storage.Save("alice/r1.txt", []byte("hello"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get("alice/r1.txt")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("hello")))
		})

		It("should fail for missing files", func() {
			_, err := storage.Get("alice/missing.txt")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("should remove the file", func() {
			_, err := storage.Save("alice/r1.txt", []byte("hello"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("alice/r1.txt")).To(Succeed())
			Expect(filepath.Join(basePath, "alice", "r1.txt")).NotTo(BeAnExistingFile())
		})

		It("should fail for missing files", func() {
			Expect(storage.Delete("alice/missing.txt")).NotTo(Succeed())
		})
	})
})
