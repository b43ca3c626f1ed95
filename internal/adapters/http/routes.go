package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/usecases"
)

// ListRoutesHandler returns collection routes. Filters: today=true,
// completed_since (RFC 3339 or YYYY-MM-DD), status and container_id.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := usecases.RouteQuery{
			Today:       c.QueryBool("today", false),
			Status:      domain.RouteStatus(c.Query("status")),
			ContainerID: int64(c.QueryInt("container_id", 0)),
			Limit:       500,
		}
		if raw := c.Query("completed_since"); raw != "" {
			since, err := parseSince(raw)
			if err != nil {
				return errBadRequest(c, "completed_since must be RFC 3339 or YYYY-MM-DD")
			}
			q.CompletedSince = &since
		}

		routes, err := deps.Routes.List(c.UserContext(), q)
		if errors.Is(err, usecases.ErrInvalidRouteQuery) {
			return errBadRequest(c, err.Error())
		}
		if err != nil {
			return errInternal(c, err.Error())
		}

		page, pg := paginate(c, routes, 50, 500)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

func parseSince(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, raw, time.Local)
}
