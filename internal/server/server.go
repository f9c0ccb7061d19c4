package server

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl"
	grpcx "github.com/msto63/netplane/pkg/core/grpc"
	"github.com/msto63/netplane/pkg/core/health"
	"github.com/msto63/netplane/pkg/core/version"
)

// DefaultSource labels commands that arrive without a source header
const DefaultSource = "grpc"

// ControlService implements ControlServer on top of an engine
type ControlService struct {
	engine  *rcl.Engine
	timeout time.Duration
	logger  *mdwlog.Logger
}

// NewControlService creates the service. timeout bounds how long a call
// waits for its command; zero waits for the caller's deadline only.
func NewControlService(engine *rcl.Engine, timeout time.Duration, logger *mdwlog.Logger) *ControlService {
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	return &ControlService{
		engine:  engine,
		timeout: timeout,
		logger:  logger.WithField("component", "grpc"),
	}
}

// Execute runs one command line
func (s *ControlService) Execute(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	requestID := grpcx.GetRequestID(ctx)
	source := DefaultSource
	if src := grpcx.GetSource(ctx); src != "" {
		source = DefaultSource + ":" + src
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	future := s.engine.Submit(source, in.GetValue())
	result, err := future.WaitContext(ctx)
	if err != nil {
		if !rcl.IsUserError(err) {
			s.logger.WarnWithErr("command failed", err, mdwlog.Fields{
				"request_id": requestID,
				"command_id": future.ID(),
			})
		}
		return nil, toStatus(err, requestID)
	}
	return encodeResult(future.ID(), result)
}

// Help returns the command language reference
func (s *ControlService) Help(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(s.engine.Help()), nil
}

// Version reports build and grammar versions
func (s *ControlService) Version(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"platform":       version.Platform,
		"commit":         version.Commit,
		"grammar":        version.Grammar,
		"api":            version.API,
		"modify_enabled": s.engine.ModifyEnabled(),
	})
}

var _ ControlServer = (*ControlService)(nil)

// Options configures a Server
type Options struct {
	Engine  *rcl.Engine
	Config  grpcx.ServerConfig
	Logger  *mdwlog.Logger
	Health  *health.Registry
	// CommandTimeout bounds each Execute call; zero means no bound
	CommandTimeout time.Duration
	// HealthInterval is how often the health registry is published
	HealthInterval time.Duration
}

// Server serves the control and health services
type Server struct {
	grpc     *grpcx.Server
	health   *grpchealth.Server
	registry *health.Registry
	interval time.Duration
	logger   *mdwlog.Logger
}

// New creates a server; nothing listens until Serve
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = 10 * time.Second
	}
	if opts.Health == nil {
		opts.Health = health.NewRegistry("netplane", version.Platform)
		opts.Health.WatchControlPlane(opts.Engine.ControlPlane(), 0, time.Second)
	}

	gs := grpcx.NewServer(opts.Config, opts.Logger)
	hs := grpchealth.NewServer()

	RegisterControlServer(gs.GRPCServer(), NewControlService(opts.Engine, opts.CommandTimeout, opts.Logger))
	healthpb.RegisterHealthServer(gs.GRPCServer(), hs)

	return &Server{
		grpc:     gs,
		health:   hs,
		registry: opts.Health,
		interval: opts.HealthInterval,
		logger:   opts.Logger.WithField("component", "grpc"),
	}
}

// Listen binds the listener so Address reports the real port
func (s *Server) Listen() error { return s.grpc.Listen() }

// Address returns the listen address
func (s *Server) Address() string { return s.grpc.Address() }

// Serve runs the gRPC server and the health publisher until ctx is done
func (s *Server) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.grpc.Serve(ctx)
	})
	g.Go(func() error {
		return health.Publish(ctx, s.registry, s.health, ServiceName, s.interval, time.Second)
	})
	return g.Wait()
}
