package service

// InRange reports whether page is a valid target for a view with total pages
func InRange(page, total int) bool {
	return page >= 1 && page <= total
}

type PageLink struct {
	Number  int
	Current bool
	Gap     bool // Placeholder for a run of hidden pages
}

type Pagination struct {
	Current int
	Total   int
	HasPrev bool
	HasNext bool
	Prev    int
	Next    int
	Links   []PageLink
}

// NewPagination builds the windowed page control: the first and last page
// plus window pages on each side of the current one, with gaps in between.
func NewPagination(current, total, window int) Pagination {
	if total < 1 {
		total = 1
	}
	current = min(max(current, 1), total)
	window = max(window, 0)

	p := Pagination{
		Current: current,
		Total:   total,
		HasPrev: current > 1,
		HasNext: current < total,
		Prev:    current - 1,
		Next:    current + 1,
	}

	pages := []int{1}
	for n := max(current-window, 2); n <= min(current+window, total-1); n++ {
		pages = append(pages, n)
	}
	if total > 1 {
		pages = append(pages, total)
	}

	for i, n := range pages {
		if i > 0 && n > pages[i-1]+1 {
			p.Links = append(p.Links, PageLink{Gap: true})
		}
		p.Links = append(p.Links, PageLink{Number: n, Current: n == current})
	}

	return p
}
