package report

// DefaultPageSize is the number of achievements per report page.
const DefaultPageSize = 10

// Page describes one page of a paginated list. TotalPages is at least 1,
// so an empty list renders as page 1 of 1.
type Page struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// TotalPages is ceil(n/size) with a floor of 1.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (n + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// Paginate returns the requested 1-indexed page of items. Out-of-range
// page numbers are clamped into [1, TotalPages].
func Paginate[T any](items []T, page, size int) ([]T, Page) {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := TotalPages(len(items), size)
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	start := (page - 1) * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return items[start:end:end], Page{
		CurrentPage: page,
		TotalPages:  total,
		PageSize:    size,
		TotalItems:  len(items),
		HasPrevious: page > 1,
		HasNext:     page < total,
	}
}
