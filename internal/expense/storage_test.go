package expense

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = filepath.Join(GinkgoT().TempDir(), "receipts")
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the storage directory", func() {
		info, err := os.Stat(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	Describe("Save", func() {
		var (
			name      string
			savedName string
			err       error
		)

		BeforeEach(func() {
			name = "test.jpg"
		})

		JustBeforeEach(func() {
			savedName, err = storage.Save(name, []byte("test file content"))
		})

		When("saving succeeds", func() {
			It("should return the name", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedName).To(Equal(name))
			})

			It("should write the file to disk", func() {
				content, readErr := os.ReadFile(filepath.Join(tmpDir, name))
				Expect(readErr).NotTo(HaveOccurred())
				Expect(string(content)).To(Equal("test file content"))
			})
		})

		When("the name points outside the directory", func() {
			BeforeEach(func() {
				name = "../escape.jpg"
			})

			It("refuses to write", func() {
				Expect(err).To(MatchError(ContainSubstring("invalid file name")))
				_, statErr := os.Stat(filepath.Join(filepath.Dir(tmpDir), "escape.jpg"))
				Expect(os.IsNotExist(statErr)).To(BeTrue())
			})
		})
	})

	Describe("Get", func() {
		It("reads a saved file", func() {
			_, err := storage.Save("a.png", []byte("png"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get("a.png")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("png")))
		})

		It("returns an error for missing files", func() {
			_, err := storage.Get("missing.png")
			Expect(err).To(MatchError(ContainSubstring("reading file")))
		})

		It("refuses directory names", func() {
			_, err := storage.Get("..")
			Expect(err).To(MatchError(ContainSubstring("invalid file name")))
		})
	})

	Describe("Delete", func() {
		It("removes a saved file", func() {
			_, err := storage.Save("a.png", []byte("png"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("a.png")).To(Succeed())
			_, err = os.Stat(filepath.Join(tmpDir, "a.png"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("returns an error for missing files", func() {
			Expect(storage.Delete("missing.png")).To(MatchError(ContainSubstring("deleting file")))
		})
	})
})
