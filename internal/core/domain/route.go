package domain

import "time"

// RouteStatus is the lifecycle state of a collection route.
type RouteStatus string

const (
	RoutePending    RouteStatus = "pending"
	RouteInProgress RouteStatus = "in_progress"
	RouteCompleted  RouteStatus = "completed"
	RouteCancelled  RouteStatus = "cancelled"
)

// Valid reports whether s is a known route status.
func (s RouteStatus) Valid() bool {
	switch s {
	case RoutePending, RouteInProgress, RouteCompleted, RouteCancelled:
		return true
	}
	return false
}

// CollectionRoute is a planned or completed waste collection run over a set
// of containers.
type CollectionRoute struct {
	ID              int64       `json:"id"`
	Name            string      `json:"route_name"`
	Driver          string      `json:"driver,omitempty"`
	VehiclePlate    string      `json:"vehicle_plate"`
	ContainerIDs    []int64     `json:"container_ids"`
	ScheduledDate   time.Time   `json:"scheduled_date"`
	StartedAt       *time.Time  `json:"started_at,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	Status          RouteStatus `json:"status"`
	TotalDistanceKm *float64    `json:"total_distance_km,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// ContainersCount returns how many containers the route visits.
func (r *CollectionRoute) ContainersCount() int {
	return len(r.ContainerIDs)
}

// RouteFilter narrows route listings. Zero values do not filter.
// ScheduledFrom is inclusive, ScheduledBefore exclusive.
type RouteFilter struct {
	ScheduledFrom   *time.Time
	ScheduledBefore *time.Time
	CompletedSince  *time.Time
	Status          RouteStatus
	ContainerID     int64
	OldestFirst     bool
	Limit           int
}

// ContainerDetail is a container with its recent alerts and routes.
type ContainerDetail struct {
	Container
	RecentAlerts []Alert           `json:"recent_alerts"`
	RecentRoutes []CollectionRoute `json:"recent_routes"`
}
