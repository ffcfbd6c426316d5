package domain

import (
	"encoding/json"
	"time"
)

// ReportStatus is the lifecycle state of a community incident report
type ReportStatus string

const (
	ReportOpen         ReportStatus = "open"
	ReportAcknowledged ReportStatus = "acknowledged"
	ReportResolved     ReportStatus = "resolved"
)

// Valid reports whether s is a known status
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportOpen, ReportAcknowledged, ReportResolved:
		return true
	}
	return false
}

// IncidentReport is a user-submitted incident
type IncidentReport struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"ownerId"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Lat         float64      `json:"lat"`
	Lon         float64      `json:"lon"`
	Status      ReportStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// SimulationStatus records whether every provider contributed to a simulation
type SimulationStatus string

const (
	SimulationCompleted SimulationStatus = "completed"
	SimulationDegraded  SimulationStatus = "degraded"
)

// Simulation is a persisted simulation run
type Simulation struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"ownerId"`
	Origin      Coordinates      `json:"origin"`
	Destination Coordinates      `json:"destination"`
	Status      SimulationStatus `json:"status"`
	Result      json.RawMessage  `json:"result"`
	CreatedAt   time.Time        `json:"createdAt"`
}
