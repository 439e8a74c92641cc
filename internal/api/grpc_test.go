package api

import (
	"context"
	"io"
	"net"
	"reflect"
	"testing"
	"time"

	"provider/internal/config"
	"provider/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func newBufconnServer(t *testing.T, cfg config.APIConfig) (*QuoteServiceClient, *grpc.ClientConn) {
	t.Helper()
	db := newTestDB(t)
	svc := newTestServices(db)
	ctx := context.Background()

	listing := &models.Listing{Name: "Casa Azul", Available: true, Occupants: 2}
	require.NoError(t, svc.Listings.CreateListing(ctx, listing))
	require.NoError(t, svc.Listings.CreateSeasonalPrice(ctx, &models.SeasonalPrice{
		ListingID: listing.ID,
		Price:     100,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}))

	lis := bufconn.Listen(1 << 20)
	logger := zerolog.New(io.Discard)
	server, err := NewGRPCServerWithListener(&cfg, lis, svc.Bookings, &logger)
	require.NoError(t, err)
	go func() { _ = server.Serve() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewQuoteServiceClient(conn), conn
}

func quoteArgs(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestQuoteService_Quote(t *testing.T) {
	client, _ := newBufconnServer(t, config.APIConfig{})
	ctx := context.Background()

	args := quoteArgs(t, map[string]any{
		"listing_id": 9000, "check_in": "2026-01-10", "check_out": "2026-01-13", "occupants": 2,
	})
	quote, err := client.Quote(ctx, args)
	require.NoError(t, err)
	assert.Equal(t, float64(300), quote.GetFields()["total_price"].GetNumberValue())
	assert.Equal(t, float64(100), quote.GetFields()["price_per_day"].GetNumberValue())
	assert.Equal(t, "Casa Azul", quote.GetFields()["listing"].GetStructValue().GetFields()["name"].GetStringValue())

	avail, err := client.CheckAvailability(ctx, args)
	require.NoError(t, err)
	assert.Equal(t, quote.GetFields()["total_price"].GetNumberValue(), avail.GetFields()["total_price"].GetNumberValue())
}

func TestQuoteService_Errors(t *testing.T) {
	client, _ := newBufconnServer(t, config.APIConfig{})
	ctx := context.Background()

	tests := []struct {
		name   string
		fields map[string]any
		want   codes.Code
	}{
		{"ZeroLength", map[string]any{"listing_id": 9000, "check_in": "2026-01-10", "check_out": "2026-01-10"}, codes.InvalidArgument},
		{"MissingListing", map[string]any{"check_in": "2026-01-10", "check_out": "2026-01-13"}, codes.InvalidArgument},
		{"FractionalOccupants", map[string]any{"listing_id": 9000, "check_in": "2026-01-10", "check_out": "2026-01-13", "occupants": 1.5}, codes.InvalidArgument},
		{"TooManyOccupants", map[string]any{"listing_id": 9000, "check_in": "2026-01-10", "check_out": "2026-01-13", "occupants": 3}, codes.InvalidArgument},
		{"UnknownListing", map[string]any{"listing_id": 1, "check_in": "2026-01-10", "check_out": "2026-01-13"}, codes.NotFound},
		{"NoPrices", map[string]any{"listing_id": 9000, "check_in": "2026-07-10", "check_out": "2026-07-13"}, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Quote(ctx, quoteArgs(t, tt.fields))
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestGRPCHealth(t *testing.T) {
	cfg := config.APIConfig{
		Enabled: true,
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{{Key: "k", Extra: "e"}},
		},
	}
	_, conn := newBufconnServer(t, cfg)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: quoteServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestGRPCAuth(t *testing.T) {
	cfg := config.APIConfig{
		Enabled: true,
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{{Key: "k", Extra: "e", Permissions: []string{"read:quotes"}}},
		},
	}
	client, _ := newBufconnServer(t, cfg)
	args := quoteArgs(t, map[string]any{"listing_id": 9000, "check_in": "2026-01-10", "check_out": "2026-01-11"})

	_, err := client.Quote(context.Background(), args)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-api-key", "k", "x-api-extra", "e")
	quote, err := client.Quote(ctx, args)
	require.NoError(t, err)
	assert.Equal(t, float64(100), quote.GetFields()["total_price"].GetNumberValue())
}

func TestGrpcErrorMapping(t *testing.T) {
	assert.NoError(t, grpcError(nil))
	assert.Equal(t, codes.Internal, status.Code(grpcError(io.ErrUnexpectedEOF)))
	st, _ := status.FromError(grpcError(io.ErrUnexpectedEOF))
	assert.Equal(t, internalErrorMessage, st.Message())
}

func TestChainUnaryInterceptors(t *testing.T) {
	callCount := 0
	var calls []string

	interceptor1 := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		calls = append(calls, "interceptor1")
		return handler(ctx, req)
	}

	interceptor2 := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		calls = append(calls, "interceptor2")
		return handler(ctx, req)
	}

	handler := func(ctx context.Context, req any) (any, error) {
		callCount++
		calls = append(calls, "handler")
		return "result", nil
	}

	chained := ChainUnaryInterceptors(interceptor1, interceptor2)
	info := &grpc.UnaryServerInfo{FullMethod: "test"}

	result, err := chained(context.Background(), "request", info, handler)
	if err != nil {
		t.Fatalf("chained interceptor: %v", err)
	}
	if result != "result" {
		t.Fatalf("expected 'result', got %v", result)
	}
	if callCount != 1 {
		t.Fatalf("expected handler called once, got %d", callCount)
	}

	expected := []string{"interceptor1", "interceptor2", "handler"}
	if !reflect.DeepEqual(calls, expected) {
		t.Fatalf("expected calls %v, got %v", expected, calls)
	}
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	interceptor := RecoveryUnaryInterceptor(nil)
	info := &grpc.UnaryServerInfo{FullMethod: quoteMethod}

	_, err := interceptor(context.Background(), "req", info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err := interceptor(context.Background(), "req", info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestGRPCServer_New(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(io.Discard)
	cfg := config.APIConfig{GRPC: config.APIGRPCConfig{Port: 0, Reflection: true}}

	s, err := NewGRPCServer(&cfg, newTestServices(db).Bookings, &logger)
	require.NoError(t, err)
	assert.NotEmpty(t, s.Addr())

	go func() { _ = s.Serve() }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	s.Shutdown(ctx)
}

func TestBuildTLSConfig(t *testing.T) {
	t.Run("EmptyPaths", func(t *testing.T) {
		_, err := buildTLSConfig(config.APITLSConfig{Enabled: true})
		assert.Error(t, err)
	})

	t.Run("InvalidCert", func(t *testing.T) {
		_, err := buildTLSConfig(config.APITLSConfig{
			Enabled:  true,
			CertFile: "/nonexistent",
			KeyFile:  "/nonexistent",
		})
		assert.Error(t, err)
	})

	t.Run("TLSWithInvalidFilesFailsServer", func(t *testing.T) {
		cfg := config.APIConfig{GRPC: config.APIGRPCConfig{TLS: config.APITLSConfig{Enabled: true}}}
		_, err := NewGRPCServerWithListener(&cfg, bufconn.Listen(1024), nil, nil)
		assert.Error(t, err)
	})
}
