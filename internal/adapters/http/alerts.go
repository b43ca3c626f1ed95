package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/looopone/internal/core/domain"
)

// ListAlertsHandler returns open alerts, or all alerts with ?all=true.
func ListAlertsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		alerts, err := deps.Alerts.List(c.UserContext(), c.QueryBool("all", false))
		if err != nil {
			return errInternal(c, err.Error())
		}

		page, pg := paginate(c, alerts, 50, 200)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// ResolveAlertHandler marks an alert as resolved.
func ResolveAlertHandler(deps *Dependencies) fiber.Handler {
	type resolveRequest struct {
		ResolvedBy string `json:"resolved_by" form:"resolved_by"`
	}

	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return errBadRequest(c, "id must be a positive integer")
		}

		var req resolveRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		err = deps.Alerts.Resolve(c.UserContext(), id, req.ResolvedBy)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "alert not found or already resolved")
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"status": "resolved", "id": id})
	}
}
