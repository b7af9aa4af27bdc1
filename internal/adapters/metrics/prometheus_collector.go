package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace for all metrics
const namespace = "fleet"

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalFleet is the singleton fleet metrics collector
	// Set by SetGlobalFleetCollector() when metrics are enabled
	globalFleet FleetRecorder
)

// FleetRecorder defines the interface for recording fleet lifecycle metrics.
// Application code records through the package-level functions, which are
// no-ops until a collector is installed.
type FleetRecorder interface {
	RecordMissionRestart(shipSymbol string)
	RecordEvent(eventType string)
	RecordTradeSide(side string)
	SetAgentCredits(credits int)
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalFleetCollector installs the fleet collector behind the
// package-level record functions
func SetGlobalFleetCollector(collector FleetRecorder) {
	globalFleet = collector
}

// RecordMissionRestart records a mission crash restart globally
func RecordMissionRestart(shipSymbol string) {
	if globalFleet != nil {
		globalFleet.RecordMissionRestart(shipSymbol)
	}
}

// RecordEvent records a fleet event emission globally
func RecordEvent(eventType string) {
	if globalFleet != nil {
		globalFleet.RecordEvent(eventType)
	}
}

// RecordTradeSide records a completed buy or sell globally
func RecordTradeSide(side string) {
	if globalFleet != nil {
		globalFleet.RecordTradeSide(side)
	}
}

// SetAgentCredits updates the agent credits gauge globally
func SetAgentCredits(credits int) {
	if globalFleet != nil {
		globalFleet.SetAgentCredits(credits)
	}
}
