package insights

// PageCursor tracks one section's position. Pages are 1-indexed and RowsPerPage is
// fixed for the lifetime of the section.
type PageCursor struct {
	Page        int  `json:"page"`
	RowsPerPage int  `json:"rows_per_page"`
	TotalRows   int  `json:"total_rows"`
	Known       bool `json:"known"`
}

// NewPageCursor returns a cursor on page 1 with an unknown total.
func NewPageCursor(rowsPerPage int) PageCursor {
	if rowsPerPage <= 0 {
		rowsPerPage = 1
	}
	return PageCursor{Page: 1, RowsPerPage: rowsPerPage}
}

// TotalPages is ceil(TotalRows / RowsPerPage).
func (c PageCursor) TotalPages() int {
	if c.RowsPerPage <= 0 || c.TotalRows <= 0 {
		return 0
	}
	return (c.TotalRows + c.RowsPerPage - 1) / c.RowsPerPage
}

// Offset is the index of the first row on the current page.
func (c PageCursor) Offset() int {
	return c.offsetFor(c.Page)
}

func (c PageCursor) offsetFor(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * c.RowsPerPage
}

// Accepts reports whether page n is inside the navigable range.
func (c PageCursor) Accepts(n int) bool {
	if n < 1 {
		return false
	}
	if !c.Known {
		return true
	}
	return n <= c.TotalPages()
}
