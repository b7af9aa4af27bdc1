package fleet

import "fmt"

// MissionKind identifies a registered mission behavior.
type MissionKind string

const (
	MissionTrade     MissionKind = "trade"
	MissionScan      MissionKind = "scan"
	MissionContract  MissionKind = "contract"
	MissionGateBuild MissionKind = "gate_build"
	MissionIdle      MissionKind = "idle"
)

var validMissionKinds = map[MissionKind]bool{
	MissionTrade:     true,
	MissionScan:      true,
	MissionContract:  true,
	MissionGateBuild: true,
	MissionIdle:      true,
}

// ParseMissionKind converts a mission name string (e.g. from a CLI override)
// into a MissionKind.
func ParseMissionKind(s string) (MissionKind, error) {
	kind := MissionKind(s)
	if !validMissionKinds[kind] {
		return "", fmt.Errorf("unknown mission kind: %q", s)
	}
	return kind, nil
}
