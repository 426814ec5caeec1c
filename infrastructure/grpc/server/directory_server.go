package server

import (
	"chat-relay/contract"
	"chat-relay/errors"
	pb "chat-relay/proto/directory"
	"context"
	"log/slog"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// DirectoryServer exposes one zone of the directory tree over gRPC.
// Domain errors cross the wire as status codes, see errors.MapToGRPCError.
type DirectoryServer struct {
	pb.UnimplementedDirectoryServiceServer
	log  *slog.Logger
	zone contract.ZoneHandle
}

func NewDirectoryServer(log *slog.Logger, zone contract.ZoneHandle) *DirectoryServer {
	return &DirectoryServer{log: log, zone: zone}
}

func (s *DirectoryServer) RegisterZone(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	path, address := pb.String(req, pb.FieldPath), pb.String(req, pb.FieldAddress)
	if err := s.zone.RegisterZone(ctx, path, address); err != nil {
		s.log.Debug("Zone registration refused", "path", path, "address", address, "error", err)
		return nil, errors.MapToGRPCError(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *DirectoryServer) RegisterAddress(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	name, address := pb.String(req, pb.FieldName), pb.String(req, pb.FieldAddress)
	if err := s.zone.RegisterAddress(ctx, name, address); err != nil {
		s.log.Debug("Address registration refused", "name", name, "error", err)
		return nil, errors.MapToGRPCError(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *DirectoryServer) Lookup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	address, found, err := s.zone.Lookup(ctx, pb.String(req, pb.FieldName))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return pb.NewAddressResponse(address, found), nil
}

func (s *DirectoryServer) ResolveZone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	address, found, err := s.zone.ResolveZone(ctx, pb.String(req, pb.FieldLabel))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return pb.NewAddressResponse(address, found), nil
}
