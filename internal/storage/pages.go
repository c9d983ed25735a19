package storage

// TotalPages returns the number of pages needed for totalItems at the given
// page size.
func TotalPages(totalItems int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((totalItems + int64(limit) - 1) / int64(limit))
}

// ReclaimPage adjusts a requested page number after the underlying set
// shrank, so the caller never lands past the end of its filtered listing.
// An empty listing reclaims to page 1.
func ReclaimPage(page int, totalItems int64, limit int) int {
	totalPages := TotalPages(totalItems, limit)
	if totalPages == 0 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	if page < 1 {
		return 1
	}
	return page
}
