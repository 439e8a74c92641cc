package api

import (
	"context"
	"encoding/json"
	"fmt"

	"provider/internal/domain"
	"provider/internal/models"
	"provider/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// provider.v1.QuoteService carries google.protobuf.Struct messages in both
// directions, so no generated code is needed.
const (
	quoteServiceName        = "provider.v1.QuoteService"
	quoteMethod             = "/provider.v1.QuoteService/Quote"
	checkAvailabilityMethod = "/provider.v1.QuoteService/CheckAvailability"
	healthMethodPrefix      = "/grpc.health.v1.Health/"
)

// QuoteServiceServer is the server API for provider.v1.QuoteService.
type QuoteServiceServer interface {
	Quote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckAvailability(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var QuoteServiceDesc = grpc.ServiceDesc{
	ServiceName: quoteServiceName,
	HandlerType: (*QuoteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Quote", Handler: unaryStructHandler(quoteMethod, QuoteServiceServer.Quote)},
		{MethodName: "CheckAvailability", Handler: unaryStructHandler(checkAvailabilityMethod, QuoteServiceServer.CheckAvailability)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "provider/v1/quote.proto",
}

func RegisterQuoteServiceServer(s grpc.ServiceRegistrar, srv QuoteServiceServer) {
	s.RegisterService(&QuoteServiceDesc, srv)
}

type structMethod func(QuoteServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryStructHandler(fullMethod string, call structMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(QuoteServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(QuoteServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// QuoteServiceClient is the client API for provider.v1.QuoteService.
type QuoteServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewQuoteServiceClient(cc grpc.ClientConnInterface) *QuoteServiceClient {
	return &QuoteServiceClient{cc: cc}
}

func (c *QuoteServiceClient) Quote(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, quoteMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QuoteServiceClient) CheckAvailability(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, checkAvailabilityMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// QuoteService serves the availability engine over gRPC.
type QuoteService struct {
	bookings *service.BookingService
}

func NewQuoteService(bookings *service.BookingService) *QuoteService {
	return &QuoteService{bookings: bookings}
}

func (s *QuoteService) Quote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := quoteRequestFromStruct(req)
	if err != nil {
		return nil, grpcError(err)
	}
	quote, err := s.bookings.Quote(ctx, in)
	if err != nil {
		return nil, grpcError(err)
	}
	return quoteToStruct(quote)
}

func (s *QuoteService) CheckAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := quoteRequestFromStruct(req)
	if err != nil {
		return nil, grpcError(err)
	}
	quote, err := s.bookings.CheckAvailability(ctx, in)
	if err != nil {
		return nil, grpcError(err)
	}
	return quoteToStruct(quote)
}

func quoteRequestFromStruct(req *structpb.Struct) (service.QuoteRequest, error) {
	var out service.QuoteRequest
	fields := req.GetFields()

	listingID := fields["listing_id"].GetNumberValue()
	if listingID <= 0 || listingID != float64(int64(listingID)) {
		return out, domain.Validationf("listing_id must be a positive integer")
	}
	out.ListingID = int64(listingID)

	var err error
	if out.CheckIn, err = parseDay("check_in", fields["check_in"].GetStringValue()); err != nil {
		return out, err
	}
	if out.CheckOut, err = parseDay("check_out", fields["check_out"].GetStringValue()); err != nil {
		return out, err
	}

	if v, ok := fields["occupants"]; ok {
		n := v.GetNumberValue()
		if n < 1 || n != float64(int(n)) {
			return out, domain.Validationf("occupants must be a positive integer")
		}
		out.Occupants = int(n)
	}
	return out, nil
}

// quoteToStruct converts the quote through its JSON form so the gRPC and HTTP
// representations share field names.
func quoteToStruct(quote *models.Quote) (*structpb.Struct, error) {
	data, err := json.Marshal(quote)
	if err != nil {
		return nil, grpcError(fmt.Errorf("encode quote: %w", err))
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, grpcError(fmt.Errorf("decode quote: %w", err))
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, grpcError(fmt.Errorf("build quote struct: %w", err))
	}
	return out, nil
}
