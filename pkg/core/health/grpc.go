package health

import (
	"context"
	"time"

	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServingStatus maps a report status onto the gRPC health protocol.
// Degraded still serves.
func ServingStatus(s Status) healthpb.HealthCheckResponse_ServingStatus {
	switch s {
	case StatusHealthy, StatusDegraded:
		return healthpb.HealthCheckResponse_SERVING
	case StatusUnhealthy:
		return healthpb.HealthCheckResponse_NOT_SERVING
	default:
		return healthpb.HealthCheckResponse_UNKNOWN
	}
}

// Publish runs the registry every interval and sets the serving status of
// service (and the empty overall service) on srv. It blocks until ctx is
// done, then marks everything not serving.
func Publish(ctx context.Context, r *Registry, srv *grpchealth.Server, service string, interval, timeout time.Duration) error {
	update := func() {
		report := r.CheckWithTimeout(timeout)
		status := ServingStatus(report.Status)
		srv.SetServingStatus("", status)
		srv.SetServingStatus(service, status)
	}

	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			srv.Shutdown()
			return nil
		case <-ticker.C:
			update()
		}
	}
}
