package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

const MaxPageSize = 100

// MaxPage keeps (page-1)*limit from overflowing an int.
const MaxPage = math.MaxInt32 / MaxPageSize

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// PageParams is the parsed page/limit pair of a list request.
type PageParams struct {
	Page  int
	Limit int
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePagination reads ?page= and ?limit=. Invalid or missing values fall
// back to page 1 and defaultLimit; page is capped at MaxPage and limit at
// MaxPageSize.
func ParsePagination(c *gin.Context, defaultLimit int) PageParams {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	return PageParams{Page: page, Limit: limit}
}

func NewPagination(total int64, p PageParams) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{Total: total, Page: p.Page, Limit: p.Limit, Pages: pages}
}
