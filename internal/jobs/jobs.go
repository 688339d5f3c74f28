package job

import (
	"fmt"

	"github.com/robfig/cron"
)

// Register adds the stale-claim sweep and, when cycleSpec is set, the
// in-process dispatch cycle to c.
func Register(c *cron.Cron, stale *StaleClaimJob, cycle *CycleJob, cycleSpec string) error {
	if err := c.AddFunc(staleClaimInterval, stale.ReleaseStaleClaims); err != nil {
		return fmt.Errorf("register stale claim job: %w", err)
	}

	if cycleSpec == "" || cycle == nil {
		return nil
	}
	if err := c.AddFunc(cycleSpec, cycle.RunCycle); err != nil {
		return fmt.Errorf("register dispatch cycle %q: %w", cycleSpec, err)
	}
	return nil
}
