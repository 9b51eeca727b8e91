package receipt

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("paginate", func() {
	var receipts []*Receipt

	BeforeEach(func() {
		receipts = make([]*Receipt, 0, 25)
		for i := 0; i < 25; i++ {
			receipts = append(receipts, &Receipt{ID: fmt.Sprintf("r-%02d", i)})
		}
	})

	ids := func(p *Page) []string {
		out := make([]string, 0, len(p.Receipts))
		for _, r := range p.Receipts {
			out = append(out, r.ID)
		}
		return out
	}

	It("returns the first page by default", func() {
		p := paginate(receipts, 0, 0)
		Expect(p.CurrentPage).To(Equal(1))
		Expect(p.PerPage).To(Equal(DefaultPerPage))
		Expect(p.Total).To(Equal(25))
		Expect(p.Pages).To(Equal(3))
		Expect(ids(p)).To(HaveLen(10))
		Expect(ids(p)[0]).To(Equal("r-00"))
	})

	It("returns a partial last page", func() {
		p := paginate(receipts, 3, 10)
		Expect(ids(p)).To(Equal([]string{"r-20", "r-21", "r-22", "r-23", "r-24"}))
	})

	It("returns an empty page past the end", func() {
		p := paginate(receipts, 4, 10)
		Expect(p.Receipts).NotTo(BeNil())
		Expect(p.Receipts).To(BeEmpty())
		Expect(p.Total).To(Equal(25))
	})

	It("handles an empty listing", func() {
		p := paginate(nil, 1, 10)
		Expect(p.Receipts).To(BeEmpty())
		Expect(p.Pages).To(BeZero())
	})
})
