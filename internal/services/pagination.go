package services

// PageMeta is the pagination envelope returned by every list endpoint.
// Prev/next pages are pointers so absent neighbours serialize as null.
type PageMeta struct {
	Total                 int  `json:"total"`
	Limit                 int  `json:"limit"`
	Page                  int  `json:"page"`
	TotalPages            int  `json:"totalPages"`
	SerialNumberStartFrom int  `json:"serialNumberStartFrom"`
	HasPrevPage           bool `json:"hasPrevPage"`
	HasNextPage           bool `json:"hasNextPage"`
	PrevPage              *int `json:"prevPage"`
	NextPage              *int `json:"nextPage"`
}

const defaultPageLimit = 10

// paginate slices an already-filtered result set. Pagination always runs
// after filtering and enrichment, so Total reflects what the caller may
// actually see. A page beyond the end yields an empty slice with intact
// metadata.
func paginate[T any](items []T, page, limit int) ([]T, PageMeta) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if page <= 0 {
		page = 1
	}

	total := len(items)
	totalPages := (total + limit - 1) / limit

	meta := PageMeta{
		Total:                 total,
		Limit:                 limit,
		Page:                  page,
		TotalPages:            totalPages,
		SerialNumberStartFrom: (page-1)*limit + 1,
		HasPrevPage:           page > 1,
		HasNextPage:           page < totalPages,
	}
	if meta.HasPrevPage {
		prev := page - 1
		meta.PrevPage = &prev
	}
	if meta.HasNextPage {
		next := page + 1
		meta.NextPage = &next
	}

	start := (page - 1) * limit
	if start >= total {
		return []T{}, meta
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], meta
}
