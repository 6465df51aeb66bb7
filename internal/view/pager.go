package view

// pagerWindow is how many consecutive page numbers the pager shows.
const pagerWindow = 5

// PagerItem is one numbered button or an ellipsis.
type PagerItem struct {
	Number   int
	Href     string
	Current  bool
	Ellipsis bool
}

// Pager is the pagination control strip. Prev and Next are empty when
// disabled.
type Pager struct {
	Current int
	Total   int
	Prev    string
	Next    string
	Items   []PagerItem
}

// NewPager lays out the pager for page current of total. Up to five
// consecutive numbers are centred on current; the first and last page stay
// reachable, with an ellipsis over any gap. It returns nil when there is
// only one page.
func NewPager(current, total int, href func(page int) string) *Pager {
	if total <= 1 {
		return nil
	}
	current = max(1, min(current, total))

	start := max(1, current-pagerWindow/2)
	end := min(total, start+pagerWindow-1)
	start = max(1, end-pagerWindow+1)

	p := &Pager{Current: current, Total: total}
	if current > 1 {
		p.Prev = href(current - 1)
	}
	if current < total {
		p.Next = href(current + 1)
	}

	number := func(n int) PagerItem {
		return PagerItem{Number: n, Href: href(n), Current: n == current}
	}
	if start > 1 {
		p.Items = append(p.Items, number(1))
		if start > 2 {
			p.Items = append(p.Items, PagerItem{Ellipsis: true})
		}
	}
	for n := start; n <= end; n++ {
		p.Items = append(p.Items, number(n))
	}
	if end < total {
		if end < total-1 {
			p.Items = append(p.Items, PagerItem{Ellipsis: true})
		}
		p.Items = append(p.Items, number(total))
	}
	return p
}

// Numbers lists the page numbers shown, 0 standing for an ellipsis.
func (p *Pager) Numbers() []int {
	if p == nil {
		return nil
	}
	out := make([]int, len(p.Items))
	for i, it := range p.Items {
		if !it.Ellipsis {
			out[i] = it.Number
		}
	}
	return out
}
