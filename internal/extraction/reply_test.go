package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseVisionReply", func() {
	var (
		reply string
		page  PageResult
	)

	JustBeforeEach(func() {
		page = parseVisionReply(reply)
	})

	When("the reply has scored blocks", func() {
		BeforeEach(func() {
			reply = `{"blocks": [{"text": "ACME STORE", "confidence": 0.9}, {"text": "Total $5.00", "confidence": 0.7}]}`
		})

		It("joins block text in order", func() {
			Expect(page.Text).To(Equal("ACME STORE\nTotal $5.00"))
		})

		It("averages block confidence", func() {
			Expect(page.Confidence).To(BeNumerically("~", 0.8, 1e-9))
		})
	})

	When("the reply is wrapped in a markdown code block", func() {
		BeforeEach(func() {
			reply = "```json\n{\"blocks\": [{\"text\": \"ACME\", \"confidence\": 0.6}]}\n```"
		})

		It("parses the blocks", func() {
			Expect(page.Text).To(Equal("ACME"))
			Expect(page.Confidence).To(BeNumerically("~", 0.6, 1e-9))
		})
	})

	When("blocks carry percent confidences", func() {
		BeforeEach(func() {
			reply = `{"blocks": [{"text": "ACME", "confidence": 80}]}`
		})

		It("normalizes them", func() {
			Expect(page.Confidence).To(BeNumerically("~", 0.8, 1e-9))
		})
	})

	When("blocks have no confidence", func() {
		BeforeEach(func() {
			reply = `{"blocks": [{"text": "ACME"}, {"text": "Total 5.00"}]}`
		})

		It("uses the fallback estimate", func() {
			Expect(page.Confidence).To(Equal(visionFallbackConfidence))
		})
	})

	When("the reply is plain text", func() {
		BeforeEach(func() {
			reply = "ACME STORE\nTotal 5.00"
		})

		It("keeps the text", func() {
			Expect(page.Text).To(Equal("ACME STORE\nTotal 5.00"))
		})

		It("uses the fallback estimate", func() {
			Expect(page.Confidence).To(Equal(visionFallbackConfidence))
		})
	})

	When("the reply is empty", func() {
		BeforeEach(func() {
			reply = "  "
		})

		It("returns an empty page with zero confidence", func() {
			Expect(page).To(Equal(PageResult{}))
		})
	})

	When("the blocks are all blank", func() {
		BeforeEach(func() {
			reply = `{"blocks": [{"text": " ", "confidence": 0.9}]}`
		})

		It("reports zero confidence", func() {
			Expect(page.Text).To(BeEmpty())
			Expect(page.Confidence).To(BeZero())
		})
	})
})
