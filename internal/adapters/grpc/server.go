package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/application"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
)

type DeliveryInternalService interface {
	GetDeliveryStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateAccessToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type DeliveryInternalServer struct {
	service *application.Service
}

func NewDeliveryInternalServer(service *application.Service) *DeliveryInternalServer {
	return &DeliveryInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc DeliveryInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "kazi.delivery.v1.DeliveryInternalService",
		HandlerType: (*DeliveryInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetDeliveryStatus",
				Handler:    getDeliveryStatusHandler(svc),
			},
			{
				MethodName: "ValidateAccessToken",
				Handler:    validateAccessTokenHandler(svc),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "contracts/proto/delivery/v1/delivery_internal.proto",
	}, svc)
}

func (s *DeliveryInternalServer) GetDeliveryStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rawID := req.GetFields()["delivery_id"].GetStringValue()
	if rawID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing delivery_id")
	}
	deliveryID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed delivery_id")
	}

	res, err := s.service.GetDeliveryStatus(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "delivery not found")
		}
		return nil, status.Errorf(codes.Internal, "get delivery status: %v", err)
	}

	fields := map[string]any{
		"delivery_id":       res.DeliveryID.String(),
		"file_name":         res.FileName,
		"file_size":         res.FileSize,
		"mime_type":         res.MimeType,
		"requires_password": res.RequiresPassword,
		"requires_payment":  res.RequiresPayment,
		"escrow_enabled":    res.EscrowEnabled,
		"status":            res.Status,
		"download_count":    res.DownloadCount,
		"is_expired":        res.IsExpired,
		"limit_reached":     res.LimitReached,
		"can_download":      res.CanDownload,
	}
	if res.PaymentAmount != nil {
		fields["payment_amount"] = *res.PaymentAmount
	}
	if res.MaxDownloads != nil {
		fields["max_downloads"] = *res.MaxDownloads
	}
	if res.ExpiresAt != nil {
		fields["expires_at"] = res.ExpiresAt.Unix()
	}

	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *DeliveryInternalServer) ValidateAccessToken(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := req.GetFields()["token"].GetStringValue()
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	claims, err := s.service.VerifyToken(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	fields := map[string]any{
		"valid":       true,
		"delivery_id": claims.DeliveryID.String(),
		"expires_at":  claims.ExpiresAt.Unix(),
	}
	if claims.UserID != nil {
		fields["user_id"] = claims.UserID.String()
	}

	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func getDeliveryStatusHandler(svc DeliveryInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.GetDeliveryStatus(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/kazi.delivery.v1.DeliveryInternalService/GetDeliveryStatus",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.GetDeliveryStatus(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

func validateAccessTokenHandler(svc DeliveryInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.ValidateAccessToken(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/kazi.delivery.v1.DeliveryInternalService/ValidateAccessToken",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.ValidateAccessToken(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
