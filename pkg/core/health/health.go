// Package health aggregates the liveness of the control plane and its
// satellites (audit store, data plane) into a report and publishes it
// through the standard gRPC health service.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status is the verdict of one check or of the whole report
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

// rank orders statuses from best to worst
func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 3
	default:
		return 2
	}
}

// CheckResult is the outcome of a single check
type CheckResult struct {
	Name      string                 `json:"name"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Duration  time.Duration          `json:"duration"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Checker inspects one component
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

type namedCheck struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

func (c *namedCheck) Name() string                          { return c.name }
func (c *namedCheck) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// NewChecker wraps fn as a checker called name
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return &namedCheck{name: name, fn: fn}
}

// DropCounter reports entries an asynchronous writer had to discard
type DropCounter interface {
	Dropped() int64
}

// Registry runs the registered checks and samples the control-plane
// backlog and audit losses into every report
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	plane    Poster
	drops    DropCounter
	service  string
	version  string
	startAt  time.Time
}

// NewRegistry creates an empty registry for service
func NewRegistry(service, version string) *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		service:  service,
		version:  version,
		startAt:  time.Now(),
	}
}

// Register adds checker, replacing one with the same name
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// RegisterFunc is Register for a bare function
func (r *Registry) RegisterFunc(name string, fn func(ctx context.Context) CheckResult) {
	r.Register(NewChecker(name, fn))
}

// WatchControlPlane registers the liveness check for plane and reports its
// queue depth in every report
func (r *Registry) WatchControlPlane(plane Poster, warnDepth int, timeout time.Duration) {
	r.Register(ControlPlaneCheck(plane, warnDepth, timeout))
	r.mu.Lock()
	r.plane = plane
	r.mu.Unlock()
}

// WatchAudit registers the audit store check and reports the recorder's
// dropped entries in every report
func (r *Registry) WatchAudit(store Pinger, drops DropCounter) {
	r.Register(AuditCheck(store, drops))
	r.mu.Lock()
	r.drops = drops
	r.mu.Unlock()
}

// Check runs every check concurrently. The report takes the worst status
// of its checks.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	checkers := make([]Checker, 0, len(r.checkers))
	for _, c := range r.checkers {
		checkers = append(checkers, c)
	}
	plane, drops := r.plane, r.drops
	r.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			start := time.Now()
			res := c.Check(ctx)
			res.Duration = time.Since(start)
			res.Timestamp = time.Now()
			if res.Name == "" {
				res.Name = c.Name()
			}
			results[i] = res
		}(i, c)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	report := &Report{
		Service:   r.service,
		Version:   r.version,
		Status:    StatusHealthy,
		Uptime:    time.Since(r.startAt),
		Timestamp: time.Now(),
		Checks:    results,
	}
	for _, res := range results {
		if res.Status.rank() > report.Status.rank() {
			report.Status = res.Status
		}
	}
	if plane != nil {
		report.QueueDepth = plane.Pending()
	}
	if drops != nil {
		report.AuditDropped = drops.Dropped()
	}
	return report
}

// CheckWithTimeout is Check bounded by timeout
func (r *Registry) CheckWithTimeout(timeout time.Duration) *Report {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.Check(ctx)
}

// Report is the health of the service at one instant
type Report struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Uptime    time.Duration `json:"uptime"`
	Timestamp time.Time     `json:"timestamp"`
	// QueueDepth is the number of commands waiting for the control plane
	QueueDepth int `json:"queue_depth"`
	// AuditDropped counts audit entries lost since startup
	AuditDropped int64         `json:"audit_dropped"`
	Checks       []CheckResult `json:"checks"`
}

// Failing returns the checks that are not healthy
func (r *Report) Failing() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if c.Status != StatusHealthy {
			out = append(out, c)
		}
	}
	return out
}

func (r *Report) String() string {
	return fmt.Sprintf("%s %s: %s, up %v, queue %d, audit dropped %d, %d checks",
		r.Service, r.Version, r.Status, r.Uptime.Truncate(time.Second), r.QueueDepth, r.AuditDropped, len(r.Checks))
}
