package domain

// PageMeta is the pagination envelope returned with every paginated collection
type PageMeta struct {
	Prev  *int `json:"prev"`                   // Previous page, nil on the first page
	Page  int  `json:"page" validate:"gte=1"`  // Current page, 1-based
	Next  *int `json:"next"`                   // Next page, nil on the last page
	Count int  `json:"count" validate:"gte=0"` // Total items across all pages
	Pages int  `json:"pages" validate:"gte=0"` // Total number of pages
}

func (m *PageMeta) HasPrev() bool {
	return m != nil && m.Prev != nil
}

func (m *PageMeta) HasNext() bool {
	return m != nil && m.Next != nil
}

// TotalPages never reports fewer than one page, so an empty catalog still
// has a valid current page.
func (m *PageMeta) TotalPages() int {
	if m == nil || m.Pages < 1 {
		return 1
	}
	return m.Pages
}
