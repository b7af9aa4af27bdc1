package missions

import (
	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
)

// NewRegistry wires every mission the commander can assign. Idle is
// deliberately absent: an idle ship gets no goroutine.
func NewRegistry() *fleet.MissionRegistry {
	r := fleet.NewMissionRegistry()
	r.Register(domainFleet.MissionTrade, Trade)
	r.Register(domainFleet.MissionScan, Scan)
	r.Register(domainFleet.MissionContract, Contract)
	r.Register(domainFleet.MissionGateBuild, GateBuild)
	return r
}
