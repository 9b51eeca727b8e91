package extraction

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeBackend is a mock implementation of Backend
type fakeBackend struct {
	name      string
	available bool
	doc       Document
	err       error
	calls     int
}

func (f *fakeBackend) Name() string    { return f.name }
func (f *fakeBackend) Available() bool { return f.available }

func (f *fakeBackend) Extract(ctx context.Context, path string) (Document, error) {
	f.calls++
	return f.doc, f.err
}

var _ = Describe("Engine", func() {
	var backend *fakeBackend

	BeforeEach(func() {
		backend = &fakeBackend{name: "fake", available: true}
	})

	Describe("NewEngine", func() {
		It("rejects an unavailable backend", func() {
			backend.available = false
			_, err := NewEngine(backend, nil)
			Expect(err).To(MatchError(ErrBackendUnavailable))
		})

		It("rejects a nil backend", func() {
			_, err := NewEngine(nil, nil)
			Expect(err).To(HaveOccurred())
		})

		It("reports the backend name", func() {
			engine, err := NewEngine(backend, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(engine.Backend()).To(Equal("fake"))
		})
	})

	Describe("Extract", func() {
		var (
			engine *Engine
			doc    Document
			err    error
		)

		JustBeforeEach(func() {
			var newErr error
			engine, newErr = NewEngine(backend, nil)
			Expect(newErr).NotTo(HaveOccurred())
			doc, err = engine.Extract(context.Background(), "receipt.pdf")
		})

		When("the backend succeeds", func() {
			BeforeEach(func() {
				backend.doc = Document{Pages: []string{"ACME", "Total 5.00"}, Confidence: 0.8}
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns the pages and confidence", func() {
				Expect(doc.Pages).To(Equal([]string{"ACME", "Total 5.00"}))
				Expect(doc.Confidence).To(Equal(0.8))
			})

			It("stamps the backend name", func() {
				Expect(doc.Backend).To(Equal("fake"))
			})

			It("joins pages with markers", func() {
				Expect(doc.Text()).To(HavePrefix("--- PAGE 1 ---\nACME\n"))
				Expect(doc.Text()).To(ContainSubstring("--- PAGE 2 ---\nTotal 5.00\n"))
			})
		})

		When("the backend reports confidence out of range", func() {
			BeforeEach(func() {
				backend.doc = Document{Pages: []string{"x"}, Confidence: 87}
			})

			It("clamps it to 1", func() {
				Expect(doc.Confidence).To(Equal(1.0))
			})
		})

		When("the backend reports negative confidence", func() {
			BeforeEach(func() {
				backend.doc = Document{Pages: []string{"x"}, Confidence: -0.2}
			})

			It("clamps it to 0", func() {
				Expect(doc.Confidence).To(BeZero())
			})
		})

		When("the document cannot be read", func() {
			BeforeEach(func() {
				backend.err = fmt.Errorf("%w: bad xref", ErrDocumentRead)
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(ErrDocumentRead))
			})
		})

		When("the backend fails for another reason", func() {
			BeforeEach(func() {
				backend.doc = Document{Pages: []string{"partial"}, Confidence: 0.5}
				backend.err = errors.New("ocr engine crashed")
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns an empty zero-confidence document", func() {
				Expect(doc.Text()).To(BeEmpty())
				Expect(doc.Confidence).To(BeZero())
				Expect(doc.Backend).To(Equal("fake"))
			})
		})
	})

	Describe("ExtractText", func() {
		It("returns text and confidence", func() {
			backend.doc = Document{Pages: []string{"ACME"}, Confidence: 0.95}
			engine, err := NewEngine(backend, nil)
			Expect(err).NotTo(HaveOccurred())

			text, conf, err := engine.ExtractText(context.Background(), "r.pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("--- PAGE 1 ---\nACME\n\n"))
			Expect(conf).To(Equal(0.95))
		})
	})
})
