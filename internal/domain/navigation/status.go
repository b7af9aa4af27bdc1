package navigation

// NavStatus represents ship navigation status
type NavStatus string

const (
	NavStatusDocked    NavStatus = "DOCKED"
	NavStatusInOrbit   NavStatus = "IN_ORBIT"
	NavStatusInTransit NavStatus = "IN_TRANSIT"
)

var validNavStatuses = map[NavStatus]bool{
	NavStatusDocked:    true,
	NavStatusInOrbit:   true,
	NavStatusInTransit: true,
}

// IsValid reports whether the status is one the API can return
func (s NavStatus) IsValid() bool {
	return validNavStatuses[s]
}

func (s NavStatus) String() string {
	return string(s)
}
