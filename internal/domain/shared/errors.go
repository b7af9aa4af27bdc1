package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Mission errors

type MissionError struct {
	*DomainError
	Ship    string
	Mission string
}

func NewMissionError(ship, mission, message string) *MissionError {
	return &MissionError{
		DomainError: &DomainError{Message: fmt.Sprintf("%s [%s]: %s", ship, mission, message)},
		Ship:        ship,
		Mission:     mission,
	}
}

// RouteInfeasibleError signals that no fuel-safe path exists between two waypoints
type RouteInfeasibleError struct {
	*DomainError
	Origin      string
	Destination string
	Reason      string
}

func NewRouteInfeasibleError(origin, destination, reason string) *RouteInfeasibleError {
	return &RouteInfeasibleError{
		DomainError: &DomainError{Message: fmt.Sprintf("no route %s -> %s: %s", origin, destination, reason)},
		Origin:      origin,
		Destination: destination,
		Reason:      reason,
	}
}
