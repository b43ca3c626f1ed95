package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/usecases"
)

// ListContainersHandler returns active containers for the map, filtered by
// type, min_fill, status (or "all") and a search over container_id, address
// and neighborhood.
func ListContainersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := domain.ContainerFilter{
			Type:         domain.ContainerType(c.Query("type")),
			Status:       domain.ContainerStatus(c.Query("status")),
			MinFillLevel: c.QueryInt("min_fill", 0),
			Search:       c.Query("search"),
		}
		if filter.MinFillLevel < 0 || filter.MinFillLevel > 100 {
			return errBadRequest(c, "min_fill must be between 0 and 100")
		}

		containers, err := deps.Containers.ListActive(c.UserContext(), filter)
		if errors.Is(err, usecases.ErrInvalidContainerQuery) {
			return errBadRequest(c, err.Error())
		}
		if err != nil {
			return errInternal(c, err.Error())
		}

		page, pg := paginate(c, containers, 500, 1000)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetContainerHandler returns one container by numeric ID with its recent
// alerts and collection routes.
func GetContainerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return errBadRequest(c, "id must be a positive integer")
		}

		container, err := deps.Containers.Detail(c.UserContext(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "container not found")
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(container)
	}
}

// NearbyContainersHandler returns containers around lat/lon, nearest first.
func NearbyContainersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, okLat := parseFloat(c.Query("lat"))
		lon, okLon := parseFloat(c.Query("lon"))
		if !okLat || !okLon {
			return errBadRequest(c, "lat and lon are required")
		}
		radius := c.QueryFloat("radius", 500)
		if radius <= 0 || radius > 5000 {
			return errBadRequest(c, "radius must be between 1 and 5000 meters")
		}

		containers, err := deps.Containers.FindNearby(c.UserContext(), lat, lon, radius, c.QueryInt("limit", 20))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(containers)
	}
}

// AttentionHandler returns containers that need a visit.
func AttentionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		containers, err := deps.Containers.AttentionNeeded(c.UserContext(), c.QueryInt("limit", 10))
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(containers)
	}
}

// StatsHandler returns dashboard totals.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := deps.Containers.Stats(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(stats)
	}
}

// MapCenterHandler returns the map center and the maps API key for the UI.
func MapCenterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center := deps.Municipalities.Center(c.UserContext())
		return c.JSON(fiber.Map{
			"center":       center,
			"maps_api_key": deps.MapsAPIKey,
		})
	}
}
