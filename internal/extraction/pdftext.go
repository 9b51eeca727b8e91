package extraction

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// openPDF opens path with the text-layer reader. The pdf library panics on
// some malformed inputs, so panics are turned into errors.
func openPDF(path string) (r *pdf.Reader, c io.Closer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader crashed: %v", rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if r.NumPage() == 0 {
		f.Close()
		return nil, nil, fmt.Errorf("pdf has no pages")
	}
	return r, f, nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	r, c, err := openPDF(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDocumentRead, err)
	}
	defer c.Close()
	return r.NumPage(), nil
}

// plainPageText returns the embedded text of page i (1-indexed).
func plainPageText(r *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d crashed: %v", i, rec)
		}
	}()

	page := r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	text, err = page.GetPlainText(fonts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// columnGap is the horizontal distance, in font sizes, above which two runs
// on the same row are treated as separate columns.
const columnGap = 1.5

// layoutPageText returns page i as rows of text, left to right, with wide
// horizontal gaps kept as double spaces.
func layoutPageText(r *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d crashed: %v", i, rec)
		}
	}()

	page := r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := joinRow(row.Content); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// joinRow concatenates the runs of one row, inserting a single space for a
// word gap and two for a column gap.
func joinRow(runs pdf.TextHorizontal) string {
	var b strings.Builder
	for j, run := range runs {
		if j > 0 {
			prev := runs[j-1]
			gap := run.X - (prev.X + prev.W)
			switch {
			case prev.FontSize > 0 && gap > columnGap*prev.FontSize:
				b.WriteString("  ")
			case gap > 0.5:
				b.WriteString(" ")
			}
		}
		b.WriteString(run.S)
	}
	return strings.TrimRight(b.String(), " ")
}
