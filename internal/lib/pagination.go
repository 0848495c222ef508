package lib

// PageCount returns the number of pages needed to hold total items at the
// given page size. A non-positive limit counts as a single page.
func PageCount(total, limit int) int {
	if total <= 0 {
		return 0
	}
	if limit <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

// NextPage returns the page to request after the given one, or 0 when the
// listing is exhausted. Gating on total_pages here keeps every "load more"
// caller from issuing a request the server would answer with an empty page.
func NextPage(page, totalPages int) int {
	if page < 1 || page >= totalPages {
		return 0
	}
	return page + 1
}
