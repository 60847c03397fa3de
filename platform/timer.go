package platform

import (
	"time"

	"github.com/taka-mtk/mtk/kernel"
)

// TickPeriod is the simulated timer interrupt period.
const TickPeriod = 10 * time.Millisecond

// StartTimer launches a goroutine that advances k's tick counter every
// TickPeriod, standing in for the hardware timer interrupt. It never
// calls Yield, P, or V: that is the one contract a real ISR is held to.
// Send on stop to shut it down.
func StartTimer(k *kernel.Kernel, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(TickPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				k.AdvanceTick()
			case <-stop:
				return
			}
		}
	}()
}
