package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

var errBadID = errors.New("bad id")

// pathID parses the numeric :id path param.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return id, nil
}

// pagination reads page/limit query params with sane bounds.  limit is
// capped at 100 so a single request cannot drag the whole table.
func pagination(c echo.Context, defLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = defLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// pageMeta is the pagination block every list response carries.
func pageMeta(page, limit, total int) echo.Map {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return echo.Map{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": pages,
	}
}
