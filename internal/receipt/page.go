package receipt

// DefaultPerPage is the page size used when none is requested.
const DefaultPerPage = 10

// Page is one slice of a newest-first receipt listing.
type Page struct {
	Receipts    []*Receipt `json:"receipts"`
	Total       int        `json:"total"`
	Pages       int        `json:"pages"`
	CurrentPage int        `json:"current_page"`
	PerPage     int        `json:"per_page"`
}

// paginate cuts receipts into pages. Pages are 1-indexed; a page past the
// end is empty rather than an error.
func paginate(receipts []*Receipt, page, perPage int) *Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	total := len(receipts)
	p := &Page{
		Receipts:    make([]*Receipt, 0, perPage),
		Total:       total,
		Pages:       (total + perPage - 1) / perPage,
		CurrentPage: page,
		PerPage:     perPage,
	}

	start := (page - 1) * perPage
	if start >= total {
		return p
	}
	end := min(start+perPage, total)
	p.Receipts = append(p.Receipts, receipts[start:end]...)
	return p
}
