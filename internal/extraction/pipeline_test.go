package extraction

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeRecognizer is a mock implementation of Recognizer keyed by file name
type fakeRecognizer struct {
	mu      sync.Mutex
	results map[string]PageResult
	errs    map[string]error
	delays  map[string]time.Duration
	seen    []string
}

func newFakeRecognizer() *fakeRecognizer {
	return &fakeRecognizer{
		results: make(map[string]PageResult),
		errs:    make(map[string]error),
		delays:  make(map[string]time.Duration),
	}
}

func (f *fakeRecognizer) Recognize(ctx context.Context, imagePath string) (PageResult, error) {
	name := filepath.Base(imagePath)
	f.mu.Lock()
	f.seen = append(f.seen, name)
	delay := f.delays[name]
	res, err := f.results[name], f.errs[name]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return res, err
}

func writeTestPNG(path string) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, 4, color.Black)
	}
	f, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	Expect(png.Encode(f, img)).To(Succeed())
}

var _ = Describe("rasterPipeline", func() {
	var (
		rec *fakeRecognizer
		p   rasterPipeline
	)

	BeforeEach(func() {
		rec = newFakeRecognizer()
		p = rasterPipeline{
			name:       BackendTesseract,
			cfg:        Config{PageWorkers: 3, TempDir: GinkgoT().TempDir()}.withDefaults(),
			recognizer: rec,
		}
	})

	Describe("recognizePages", func() {
		It("keeps page order regardless of completion order", func() {
			rec.results["page-0001.png"] = PageResult{Text: "one", Confidence: 0.9}
			rec.results["page-0002.png"] = PageResult{Text: "two", Confidence: 0.8}
			rec.results["page-0003.png"] = PageResult{Text: "three", Confidence: 0.7}
			rec.delays["page-0001.png"] = 30 * time.Millisecond
			rec.delays["page-0002.png"] = 15 * time.Millisecond

			results := p.recognizePages(context.Background(), []string{
				"/tmp/x/page-0001.png", "/tmp/x/page-0002.png", "/tmp/x/page-0003.png",
			})
			Expect(results).To(HaveLen(3))
			Expect(results[0].Text).To(Equal("one"))
			Expect(results[1].Text).To(Equal("two"))
			Expect(results[2].Text).To(Equal("three"))
		})

		It("leaves a failed page empty without affecting the others", func() {
			rec.results["page-0001.png"] = PageResult{Text: "one", Confidence: 0.9}
			rec.errs["page-0002.png"] = errors.New("tesseract crashed")

			results := p.recognizePages(context.Background(), []string{"page-0001.png", "page-0002.png"})
			Expect(results[0].Text).To(Equal("one"))
			Expect(results[1]).To(Equal(PageResult{}))
		})

		It("skips pages that could not be rendered", func() {
			rec.results["page-0002.png"] = PageResult{Text: "two", Confidence: 0.6}

			results := p.recognizePages(context.Background(), []string{"", "page-0002.png"})
			Expect(results[0]).To(Equal(PageResult{}))
			Expect(results[1].Text).To(Equal("two"))
			Expect(rec.seen).To(ConsistOf("page-0002.png"))
		})

		It("clamps recognizer confidence", func() {
			rec.results["page-0001.png"] = PageResult{Text: "x", Confidence: 3}
			results := p.recognizePages(context.Background(), []string{"page-0001.png"})
			Expect(results[0].Confidence).To(Equal(1.0))
		})
	})

	Describe("assemble", func() {
		It("averages confidence over every page", func() {
			doc := assemble(BackendTesseract, []PageResult{
				{Text: "a", Confidence: 0.9},
				{Text: "", Confidence: 0},
				{Text: "c", Confidence: 0.6},
			})
			Expect(doc.Pages).To(Equal([]string{"a", "", "c"}))
			Expect(doc.Confidence).To(BeNumerically("~", 0.5, 1e-9))
			Expect(doc.Backend).To(Equal(BackendTesseract))
		})

		It("returns zero confidence for no pages", func() {
			doc := assemble(BackendVision, nil)
			Expect(doc.Confidence).To(BeZero())
			Expect(doc.Text()).To(BeEmpty())
		})
	})

	Describe("extract", func() {
		var (
			srcDir string
			doc    Document
		)

		BeforeEach(func() {
			srcDir = GinkgoT().TempDir()
		})

		When("the input is an image", func() {
			BeforeEach(func() {
				src := filepath.Join(srcDir, "photo.png")
				writeTestPNG(src)
				rec.results["page-0001.png"] = PageResult{Text: "ACME\nTotal 5.00", Confidence: 0.82}
				doc = p.extract(context.Background(), src)
			})

			It("treats it as a single page", func() {
				Expect(doc.Pages).To(Equal([]string{"ACME\nTotal 5.00"}))
				Expect(doc.Confidence).To(Equal(0.82))
			})

			It("removes its render directory", func() {
				entries, err := os.ReadDir(p.cfg.TempDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(BeEmpty())
			})
		})

		When("the input cannot be decoded", func() {
			BeforeEach(func() {
				src := filepath.Join(srcDir, "junk.bin")
				Expect(os.WriteFile(src, []byte("not an image"), 0600)).To(Succeed())
				doc = p.extract(context.Background(), src)
			})

			It("returns an empty zero-confidence document", func() {
				Expect(doc.Pages).To(BeEmpty())
				Expect(doc.Confidence).To(BeZero())
			})

			It("still removes its render directory", func() {
				entries, err := os.ReadDir(p.cfg.TempDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(BeEmpty())
			})
		})

		When("the input does not exist", func() {
			It("returns an empty document", func() {
				doc = p.extract(context.Background(), filepath.Join(srcDir, "missing.pdf"))
				Expect(doc.Text()).To(BeEmpty())
				Expect(doc.Confidence).To(BeZero())
			})
		})
	})
})

var _ = Describe("Tesseract", func() {
	It("is always available", func() {
		Expect(NewTesseract(Config{}).Available()).To(BeTrue())
	})

	It("never returns an error for unreadable input", func() {
		t := newTesseractWithRecognizer(Config{TempDir: GinkgoT().TempDir()}, newFakeRecognizer())
		doc, err := t.Extract(context.Background(), "/does/not/exist.pdf")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Confidence).To(BeZero())
	})

	DescribeTable("meanWordConfidence",
		func(confs []float64, want float64) {
			Expect(meanWordConfidence(confs)).To(BeNumerically("~", want, 1e-9))
		},
		Entry("averages and normalizes", []float64{90, 80, 70}, 0.8),
		Entry("ignores words without confidence", []float64{-1, 96, -1, 94}, 0.95),
		Entry("no scored words", []float64{-1, -1}, 0.0),
		Entry("no words", []float64{}, 0.0),
	)
})

var _ = Describe("format sniffing", func() {
	It("detects PDFs by header", func() {
		Expect(isPDFFormat([]byte("%PDF-1.7\n..."))).To(BeTrue())
		Expect(isPDFFormat([]byte("\n%PDF-1.4"))).To(BeTrue())
		Expect(isPDFFormat([]byte("\x89PNG\r\n"))).To(BeFalse())
		Expect(isPDFFormat(nil)).To(BeFalse())
	})

	It("detects HEIC by ftyp brand", func() {
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypheic\x00\x00"))).To(BeTrue())
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypmp42\x00\x00"))).To(BeFalse())
		Expect(isHEICFormat([]byte("short"))).To(BeFalse())
	})
})
