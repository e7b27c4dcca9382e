package catalogue

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/rpc"
	"github.com/zero-day-ai/gridsync/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server implements rpc.CatalogueServiceServer over a Backend.
type Server struct {
	backend    Backend
	logger     *slog.Logger
	instanceID string
}

var _ rpc.CatalogueServiceServer = (*Server)(nil)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInstanceID overrides the generated instance id.
func WithInstanceID(id string) Option {
	return func(s *Server) {
		if id != "" {
			s.instanceID = id
		}
	}
}

// NewServer creates a catalogue server.
func NewServer(backend Backend, opts ...Option) *Server {
	s := &Server{
		backend:    backend,
		logger:     slog.Default(),
		instanceID: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("instance_id", s.instanceID)
	return s
}

// InstanceID identifies this server process, e.g. in service discovery.
func (s *Server) InstanceID() string { return s.instanceID }

// FetchByIds streams the stored objects for the requested identifiers, in request
// order. Identifiers with no stored object are skipped.
func (s *Server) FetchByIds(in *structpb.ListValue, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	values := in.GetValues()
	s.logger.DebugContext(ctx, "FetchByIds", "count", len(values))

	if len(values) > rpc.MaxIdentifiersPerCall {
		return status.Errorf(codes.InvalidArgument, "%d identifiers exceeds the limit of %d per call", len(values), rpc.MaxIdentifiersPerCall)
	}

	sent := 0
	for _, v := range values {
		id := v.GetStringValue()
		if id == "" {
			continue
		}

		obj, err := s.backend.Get(ctx, id)
		if err != nil {
			s.logger.ErrorContext(ctx, "backend lookup failed", "mrid", id, "error", err)
			return status.Errorf(codes.Internal, "lookup %s: %v", id, err)
		}
		if obj == nil {
			continue
		}

		msg, err := obj.ToStruct()
		if err != nil {
			s.logger.ErrorContext(ctx, "encode failed", "mrid", id, "error", err)
			return status.Errorf(codes.Internal, "encode %s: %v", id, err)
		}
		if err := stream.Send(msg); err != nil {
			return err
		}
		sent++
	}

	s.logger.DebugContext(ctx, "FetchByIds complete", "requested", len(values), "sent", sent)
	return nil
}

// FetchEquipmentForContainer streams the identifiers of the equipment in a
// container. Energizing and energized containers selected by the options are
// streamed first, followed by the equipment of every selected container. An
// unknown container yields an empty stream.
func (s *Server) FetchEquipmentForContainer(in *structpb.Struct, stream grpc.ServerStreamingServer[wrapperspb.StringValue]) error {
	ctx := stream.Context()

	containerID, opts, err := wire.ParseContainerRequest(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	s.logger.DebugContext(ctx, "FetchEquipmentForContainer",
		"container", containerID,
		"include_energizing", opts.IncludeEnergizing,
		"include_energized", opts.IncludeEnergized,
		"network_state", opts.NetworkState)

	ids, err := s.equipmentFor(ctx, containerID, opts)
	if err != nil {
		s.logger.ErrorContext(ctx, "equipment lookup failed", "container", containerID, "error", err)
		return status.Errorf(codes.Internal, "equipment for %s: %v", containerID, err)
	}

	for _, id := range ids {
		if err := stream.Send(wrapperspb.String(id)); err != nil {
			return err
		}
	}
	return nil
}

// FetchHierarchy returns the aggregate-level objects selected by the request.
func (s *Server) FetchHierarchy(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	opts, err := wire.HierarchyOptionsFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	kinds := opts.Kinds()
	s.logger.DebugContext(ctx, "FetchHierarchy", "kinds", kinds)

	objs, err := s.backend.OfKinds(ctx, kinds...)
	if err != nil {
		s.logger.ErrorContext(ctx, "hierarchy lookup failed", "error", err)
		return nil, status.Errorf(codes.Internal, "hierarchy: %v", err)
	}

	resp, err := (&wire.Hierarchy{Objects: objs}).ToStruct()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode hierarchy: %v", err)
	}
	return resp, nil
}

// FetchMetadata returns the service metadata.
func (s *Server) FetchMetadata(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.logger.DebugContext(ctx, "FetchMetadata")

	md, err := s.backend.Metadata(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "metadata lookup failed", "error", err)
		return nil, status.Errorf(codes.Internal, "metadata: %v", err)
	}
	resp, err := md.ToStruct()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode metadata: %v", err)
	}
	return resp, nil
}

func (s *Server) equipmentFor(ctx context.Context, containerID string, opts wire.ContainerOptions) ([]string, error) {
	root, err := s.backend.Get(ctx, containerID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}

	related, err := s.relatedContainers(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{containerID: {}}
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, c := range related {
		add(c)
	}
	for _, c := range append([]string{containerID}, related...) {
		for _, state := range states(opts.NetworkState) {
			members, err := s.backend.Members(ctx, c, state)
			if err != nil {
				return nil, err
			}
			for _, m := range members {
				add(m)
			}
		}
	}
	return ids, nil
}

// relatedContainers returns the energizing and energized containers of root
// selected by opts.
func (s *Server) relatedContainers(ctx context.Context, root *wire.Object, opts wire.ContainerOptions) ([]string, error) {
	var out []string

	switch root.Kind {
	case cim.KindFeeder:
		if opts.IncludeEnergizing == wire.EnergizingSubstations {
			out = append(out, root.Targets(graph.FeederNormalEnergizingSubstation)...)
		}
		if opts.IncludeEnergized == wire.EnergizedLvFeeders {
			out = append(out, root.Targets(graph.FeederNormalEnergizedLvFeeders)...)
		}

	case cim.KindLvFeeder:
		if opts.IncludeEnergizing == wire.EnergizingFeeders || opts.IncludeEnergizing == wire.EnergizingSubstations {
			feeders := root.Targets(graph.LvFeederNormalEnergizingFeeders)
			out = append(out, feeders...)
			if opts.IncludeEnergizing == wire.EnergizingSubstations {
				subs, err := s.follow(ctx, feeders, graph.FeederNormalEnergizingSubstation)
				if err != nil {
					return nil, err
				}
				out = append(out, subs...)
			}
		}

	case cim.KindSubstation:
		if opts.IncludeEnergized == wire.EnergizedFeeders || opts.IncludeEnergized == wire.EnergizedLvFeeders {
			feeders := root.Targets(graph.SubstationNormalEnergizedFeeders)
			out = append(out, feeders...)
			if opts.IncludeEnergized == wire.EnergizedLvFeeders {
				lv, err := s.follow(ctx, feeders, graph.FeederNormalEnergizedLvFeeders)
				if err != nil {
					return nil, err
				}
				out = append(out, lv...)
			}
		}
	}
	return out, nil
}

// follow returns the targets of relationship across every stored object in ids.
func (s *Server) follow(ctx context.Context, ids []string, relationship string) ([]string, error) {
	var out []string
	for _, id := range ids {
		obj, err := s.backend.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if obj != nil {
			out = append(out, obj.Targets(relationship)...)
		}
	}
	return out, nil
}
