package domain

import (
	"time"
)

// ContainerType is the waste stream a container collects.
type ContainerType string

const (
	ContainerOrganic ContainerType = "organic"
	ContainerPaper   ContainerType = "paper"
	ContainerPlastic ContainerType = "plastic"
	ContainerGlass   ContainerType = "glass"
	ContainerMetal   ContainerType = "metal"
	ContainerGeneral ContainerType = "general"
)

// ContainerStatus is the operational state of a container.
type ContainerStatus string

const (
	StatusActive      ContainerStatus = "active"
	StatusMaintenance ContainerStatus = "maintenance"
	StatusDamaged     ContainerStatus = "damaged"
	StatusInactive    ContainerStatus = "inactive"
)

// FullThreshold is the fill level (percent) at which a container counts as full.
const FullThreshold = 80

// Container represents a smart trash container, or a citizen report pinned
// on the map (ReportType is set in that case).
type Container struct {
	ID           int64           `json:"id"`
	ContainerID  string          `json:"container_id"`
	Type         ContainerType   `json:"container_type"`
	Capacity     int             `json:"capacity"`
	FillLevel    int             `json:"fill_level"`
	Location     GeoPoint        `json:"location"`
	Address      string          `json:"address"`
	Neighborhood string          `json:"neighborhood"`
	Status       ContainerStatus `json:"status"`
	BatteryLevel int             `json:"battery_level"`
	Temperature  *float64        `json:"temperature,omitempty"`
	ReportType   string          `json:"report_type,omitempty"`
	Description  string          `json:"description,omitempty"`
	LastEmptied  *time.Time      `json:"last_emptied,omitempty"`
	LastUpdated  time.Time       `json:"last_updated"`
	CreatedAt    time.Time       `json:"created_at"`
	Distance     *float64        `json:"distance,omitempty"` // computed field
}

// IsFull reports whether the fill level reached FullThreshold.
func (c *Container) IsFull() bool {
	return c.FillLevel >= FullThreshold
}

// NeedsAttention reports whether the container should be surfaced on the dashboard.
func (c *Container) NeedsAttention() bool {
	return c.FillLevel >= 70 || c.BatteryLevel < 20 ||
		c.Status == StatusMaintenance || c.Status == StatusDamaged
}

// ContainerFilter narrows container listings for the map.
// Status "all" lists every status; empty means active. Search matches
// container_id, address or neighborhood case-insensitively.
type ContainerFilter struct {
	Type         ContainerType
	MinFillLevel int
	Status       ContainerStatus
	Search       string
}

// StatusAny in a ContainerFilter disables the status filter.
const StatusAny ContainerStatus = "all"

// AlertType classifies an alert.
type AlertType string

const (
	AlertFull        AlertType = "full"
	AlertMaintenance AlertType = "maintenance"
	AlertDamage      AlertType = "damage"
	AlertBattery     AlertType = "battery"
	AlertTemperature AlertType = "temperature"
	AlertOffline     AlertType = "offline"
)

// AlertPriority orders alerts on the dashboard.
type AlertPriority string

const (
	PriorityLow      AlertPriority = "low"
	PriorityMedium   AlertPriority = "medium"
	PriorityHigh     AlertPriority = "high"
	PriorityCritical AlertPriority = "critical"
)

// Alert is a system alert raised against a container.
type Alert struct {
	ID          int64         `json:"id"`
	ContainerID int64         `json:"container_id"`
	Type        AlertType     `json:"alert_type"`
	Priority    AlertPriority `json:"priority"`
	Message     string        `json:"message"`
	IsResolved  bool          `json:"is_resolved"`
	ResolvedBy  string        `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Municipality holds the operating municipality's settings.
type Municipality struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	City           string   `json:"city"`
	District       string   `json:"district"`
	Center         GeoPoint `json:"center"`
	AlertThreshold int      `json:"alert_threshold"`
	IsActive       bool     `json:"is_active"`
}

// DashboardStats summarizes container and alert state.
type DashboardStats struct {
	TotalContainers int     `json:"total_containers"`
	FullContainers  int     `json:"full_containers"`
	AvgFillLevel    float64 `json:"avg_fill_level"`
	ActiveAlerts    int     `json:"active_alerts"`
	CriticalAlerts  int     `json:"critical_alerts"`
	TodayRoutes     int     `json:"today_routes"`
	CompletedRoutes int     `json:"completed_routes_7d"`
}
