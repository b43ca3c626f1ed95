package domain

import (
	"strings"
	"time"
)

// ReportCategory is the normalized tag of a citizen report.
type ReportCategory string

const (
	CategoryStreetMarket   ReportCategory = "HALK_PAZARI"
	CategoryRubble         ReportCategory = "MOLOZ"
	CategoryRoad           ReportCategory = "ROAD"
	CategoryOverflow       ReportCategory = "OVERFLOW"
	CategoryIllegalDumping ReportCategory = "ILLEGAL_DUMPING"
	CategoryOrganic        ReportCategory = "ORGANIC"
	CategoryPaper          ReportCategory = "PAPER"
	CategoryPlastic        ReportCategory = "PLASTIC"
	CategoryGlass          ReportCategory = "GLASS"
	CategoryMetal          ReportCategory = "METAL"
	CategoryGeneral        ReportCategory = "GENERAL"
	CategoryOther          ReportCategory = "OTHER"
)

// categoryContainerTypes maps every known category to the container type it is
// filed under.
var categoryContainerTypes = map[ReportCategory]ContainerType{
	CategoryStreetMarket:   ContainerOrganic,
	CategoryRubble:         ContainerGeneral,
	CategoryRoad:           ContainerGeneral,
	CategoryOverflow:       ContainerGeneral,
	CategoryIllegalDumping: ContainerGeneral,
	CategoryOrganic:        ContainerOrganic,
	CategoryPaper:          ContainerPaper,
	CategoryPlastic:        ContainerPlastic,
	CategoryGlass:          ContainerGlass,
	CategoryMetal:          ContainerMetal,
	CategoryGeneral:        ContainerGeneral,
	CategoryOther:          ContainerGeneral,
}

// NormalizeCategory maps free-form input onto the known categories.
// Unknown or empty input becomes CategoryOther; a citizen report is never
// dropped over a spelling mismatch.
func NormalizeCategory(raw string) ReportCategory {
	c := ReportCategory(strings.ToUpper(strings.TrimSpace(raw)))
	c = ReportCategory(strings.ReplaceAll(string(c), "-", "_"))
	c = ReportCategory(strings.ReplaceAll(string(c), " ", "_"))
	if _, ok := categoryContainerTypes[c]; ok {
		return c
	}
	return CategoryOther
}

// ContainerType returns the container type a category is filed under.
func (c ReportCategory) ContainerType() ContainerType {
	if t, ok := categoryContainerTypes[c]; ok {
		return t
	}
	return ContainerGeneral
}

// AlertType returns the alert raised when triaging a report of this category.
func (c ReportCategory) AlertType() AlertType {
	switch c {
	case CategoryStreetMarket, CategoryOverflow, CategoryOrganic, CategoryPaper,
		CategoryPlastic, CategoryGlass, CategoryMetal, CategoryGeneral:
		return AlertFull
	case CategoryRoad:
		return AlertDamage
	default:
		return AlertMaintenance
	}
}

// AlertPriority returns the priority of the alert raised for this category.
func (c ReportCategory) AlertPriority() AlertPriority {
	switch c {
	case CategoryRoad, CategoryIllegalDumping:
		return PriorityHigh
	case CategoryOverflow, CategoryStreetMarket, CategoryRubble:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// MaxDescriptionLength bounds stored report descriptions (in characters).
const MaxDescriptionLength = 255

// ReportInput is a citizen submission before normalization. Location is nil
// when the client sent no usable coordinate.
type ReportInput struct {
	Category    string
	Description string
	Location    *GeoPoint
}

// Report is an accepted citizen report.
type Report struct {
	ID            string         `json:"id"`
	Category      ReportCategory `json:"category"`
	ContainerType ContainerType  `json:"container_type"`
	Description   string         `json:"description"`
	Location      GeoPoint       `json:"location"`
	CreatedAt     time.Time      `json:"created_at"`
}
