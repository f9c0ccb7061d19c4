package health

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Poster is the part of the control plane the liveness check needs
type Poster interface {
	Post(fn func(ctx context.Context)) error
	Pending() int
}

// ControlPlaneCheck posts a no-op task and waits for the loop to run it.
// A loop that does not answer within timeout is unhealthy; a backlog
// above warnDepth is degraded.
func ControlPlaneCheck(plane Poster, warnDepth int, timeout time.Duration) Checker {
	return NewChecker("control-plane", func(ctx context.Context) CheckResult {
		pending := plane.Pending()
		result := CheckResult{
			Name:    "control-plane",
			Status:  StatusHealthy,
			Details: map[string]interface{}{"pending": pending},
		}

		ran := make(chan struct{})
		if err := plane.Post(func(context.Context) { close(ran) }); err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			return result
		}

		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-ran:
		case <-timer.C:
			result.Status = StatusUnhealthy
			result.Message = fmt.Sprintf("loop did not respond within %v", timeout)
			return result
		case <-ctx.Done():
			result.Status = StatusUnknown
			result.Message = ctx.Err().Error()
			return result
		}

		if warnDepth > 0 && pending > warnDepth {
			result.Status = StatusDegraded
			result.Message = fmt.Sprintf("%d commands queued", pending)
			return result
		}
		result.Message = "loop responsive"
		return result
	})
}

// Pinger is implemented by stores that can verify their connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuditCheck reports unhealthy when the audit store cannot be reached and
// degraded when the recorder dropped entries since the previous run
func AuditCheck(store Pinger, drops DropCounter) Checker {
	var last atomic.Int64
	return NewChecker("audit", func(ctx context.Context) CheckResult {
		if err := store.Ping(ctx); err != nil {
			return CheckResult{Name: "audit", Status: StatusUnhealthy, Message: err.Error()}
		}
		result := CheckResult{Name: "audit", Status: StatusHealthy, Message: "store reachable"}
		if drops == nil {
			return result
		}
		total := drops.Dropped()
		result.Details = map[string]interface{}{"dropped": total}
		if n := total - last.Swap(total); n > 0 {
			result.Status = StatusDegraded
			result.Message = fmt.Sprintf("%d entries dropped since last check", n)
		}
		return result
	})
}
