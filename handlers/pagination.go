package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Timestamp-cursor pagination for the sighting and session listings. The
// cursor is the timestamp of the last row the client received (reported_at
// for sightings, checked_in_at for session history), sent back as the
// `before` query parameter in RFC3339Nano.

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type PaginationParams struct {
	Limit  int
	Before *time.Time
}

// CursorResponse wraps one page. NextCursor is empty on the last page.
type CursorResponse struct {
	Data       interface{} `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

// ParsePagination reads limit and before from the query string. Malformed
// values fall back to the defaults rather than erroring.
func ParsePagination(c *gin.Context) PaginationParams {
	p := PaginationParams{Limit: DefaultLimit}

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			p.Limit = l
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if beforeStr := c.Query("before"); beforeStr != "" {
		if t, err := time.Parse(time.RFC3339Nano, beforeStr); err == nil {
			p.Before = &t
		}
	}

	return p
}
