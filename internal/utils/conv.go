package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// PageParams turns raw page/per_page query values into a 1-based page and a
// bounded page size.
func PageParams(pageStr, perPageStr string, defPerPage, maxPerPage int) (page, perPage int) {
	page = StringToInt(pageStr)
	if page < 1 {
		page = 1
	}
	perPage = StringToInt(perPageStr)
	if perPage < 1 {
		perPage = defPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}
