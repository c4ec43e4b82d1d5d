package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// pageParams reads offset and limit from the query string. Out-of-range
// values fall back to the defaults instead of failing the request.
func pageParams(c *fiber.Ctx, defaultLimit, maxLimit int) (offset, limit int) {
	offset = max(c.QueryInt("offset", 0), 0)
	limit = c.QueryInt("limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	return offset, limit
}

// page cuts items down to the window described by offset and limit. The
// result is never nil so that it encodes as [].
func page[T any](items []T, offset, limit int) ([]T, Pagination) {
	pg := Pagination{Offset: offset, Limit: limit, Total: len(items)}
	if offset >= len(items) {
		return []T{}, pg
	}
	return items[offset:min(offset+limit, len(items))], pg
}

// SetLinkHeaders adds RFC 8288 Link headers for the first, previous, next
// and last windows of the current path.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	type rel struct {
		offset int
		name   string
	}
	rels := []rel{{0, "first"}}
	if p.Offset > 0 {
		rels = append(rels, rel{max(p.Offset-p.Limit, 0), "prev"})
	}
	if p.Offset+p.Limit < p.Total {
		rels = append(rels, rel{p.Offset + p.Limit, "next"})
	}
	rels = append(rels, rel{max(p.Total-p.Limit, 0), "last"})

	links := make([]string, 0, len(rels))
	for _, r := range rels {
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, c.Path(), r.offset, p.Limit, r.name))
	}
	c.Set("Link", strings.Join(links, ", "))
}
