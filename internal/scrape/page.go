// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package scrape

// DefaultPerPage is the row count used when a page size is not supplied.
const DefaultPerPage = 20

// PageInfo describes one page of a paginated target list.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalRows  int `json:"total_rows"`
	TotalPages int `json:"total_pages"`
}

// Paginate slices targets down to the requested page. Out-of-range requests
// clamp rather than error: page < 1 becomes 1, a page past the end becomes
// the last page, and perPage <= 0 falls back to DefaultPerPage.
func Paginate(targets []Target, page, perPage int) ([]Target, PageInfo) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}

	total := len(targets)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	info := PageInfo{
		Page:       page,
		PerPage:    perPage,
		TotalRows:  total,
		TotalPages: totalPages,
	}

	start := (page - 1) * perPage
	if start >= total {
		return []Target{}, info
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return targets[start:end], info
}
