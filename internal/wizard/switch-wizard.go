package wizard

import (
	"errors"
	"sync/atomic"

	"github.com/JosineyJr/switch_router/internal/structs"
	"github.com/rs/zerolog"
)

var ErrNoHealthySwitches = errors.New("no healthy switches available")

type HealthSource interface {
	HealthySwitches() []structs.Switch
}

// SwitchWizard picks switches round-robin over whatever the healthy set is at
// call time. The cursor is shared by all callers.
type SwitchWizard struct {
	hs     HealthSource
	cursor atomic.Uint64
	log    zerolog.Logger
}

func NewSwitchWizard(hs HealthSource, l zerolog.Logger) *SwitchWizard {
	return &SwitchWizard{hs: hs, log: l}
}

// SelectNext returns the endpoint URL of the next healthy switch. The cursor
// only advances when a switch is returned.
func (sw *SwitchWizard) SelectNext() (string, error) {
	healthy := sw.hs.HealthySwitches()
	if len(healthy) == 0 {
		sw.log.Error().Err(ErrNoHealthySwitches).Send()
		return "", ErrNoHealthySwitches
	}

	idx := sw.cursor.Add(1) - 1
	return healthy[idx%uint64(len(healthy))].EndpointURL, nil
}
