// Package pagination holds the shared page/offset math for list endpoints.
package pagination

// DefaultPerPage bounds list sizes when the caller does not ask for a size.
const (
	DefaultPerPage int32 = 20
	MaxPerPage     int32 = 100
)

// Page describes one page of a listing. An empty result set is reported with
// Total and TotalPages zero, never as an error.
type Page struct {
	Page       int32 `json:"page"`
	PerPage    int32 `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int32 `json:"total_pages"`
}

// Normalize clamps page and perPage to sane bounds.
func Normalize(page, perPage int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// New builds the page descriptor for a listing with the given total.
func New(page, perPage int32, total int64) Page {
	page, perPage = Normalize(page, perPage)
	totalPages := int32(0)
	if total > 0 {
		totalPages = int32((total + int64(perPage) - 1) / int64(perPage))
	}
	return Page{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the row offset for the page.
func Offset(page, perPage int32) int32 {
	page, perPage = Normalize(page, perPage)
	return (page - 1) * perPage
}
