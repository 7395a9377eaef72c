package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// ParsePagination reads the offset and limit query parameters for list
// endpoints. Offset defaults to 0; limit defaults to 50 and is capped at
// 100 so a single request cannot drag an unbounded audit range.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 || limit > maxPageLimit {
		return 0, 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", maxPageLimit)
	}

	return offset, limit, nil
}
