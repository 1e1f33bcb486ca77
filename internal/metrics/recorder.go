package metrics

import (
	"time"

	"github.com/JosineyJr/switch_router/internal/structs"
)

type Recorder interface {
	RecordProbe(endpoint string, healthy bool, latency time.Duration)
	RecordTransaction(tx structs.Transaction)
}

type Nop struct{}

func (Nop) RecordProbe(string, bool, time.Duration) {}

func (Nop) RecordTransaction(structs.Transaction) {}
