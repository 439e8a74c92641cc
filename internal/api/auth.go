package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"provider/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	clientKeyUnknown      = "unknown"

	permAll            = "*"
	permReadQuotes     = "read:quotes"
	permReadCatalog    = "read:catalog"
	permWriteCatalog   = "write:catalog"
	permWriteBookings  = "write:bookings"
	permManageWebhooks = "manage:webhooks"
)

var (
	errMissingCredentials = errors.New("missing api key headers")
	errUnknownKey         = errors.New("invalid api key")
	errExtraMismatch      = errors.New("invalid extra header")
	errPermissionDenied   = errors.New("permission denied")
	errRateLimited        = errors.New("rate limit exceeded")
)

// keyring resolves API clients and their token buckets. Both transports share it.
type keyring struct {
	cfg       *config.APIConfig
	byKey     map[string]config.APIClientKey
	keyHeader string
	extraName string
	buckets   *rateLimiter
}

func newKeyring(cfg *config.APIConfig) *keyring {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &keyring{
		cfg:       cfg,
		byKey:     m,
		keyHeader: headerName(cfg.Auth.HeaderAPIKey, apiKeyHeaderDefault),
		extraName: headerName(cfg.Auth.HeaderExtra, apiExtraHeaderDefault),
		buckets:   newRateLimiter(cfg),
	}
}

// headerName lowercases a configured header, falling back to def when unset.
func headerName(configured, def string) string {
	name := strings.ToLower(strings.TrimSpace(configured))
	if name == "" {
		return def
	}
	return name
}

// authorize checks the credential pair and that the client holds perm.
// An empty perm only authenticates.
func (k *keyring) authorize(apiKey, extra, perm string) error {
	if apiKey == "" || extra == "" {
		return errMissingCredentials
	}
	client, ok := k.byKey[apiKey]
	if !ok {
		return errUnknownKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return errExtraMismatch
	}
	if perm == "" || grants(client.Permissions, perm) {
		return nil
	}
	return errPermissionDenied
}

// grants reports whether held covers want. No permissions at all means every
// permission; "*" and "verb:*" are wildcards.
func grants(held []string, want string) bool {
	if len(held) == 0 {
		return true
	}
	verb, _, _ := strings.Cut(want, ":")
	for _, p := range held {
		switch p = strings.TrimSpace(p); p {
		case want, permAll, verb + ":*":
			return true
		}
	}
	return false
}

// allow takes a token from the bucket of the given client key.
func (k *keyring) allow(clientKey string) error {
	if k.cfg.RateLimit.RPS <= 0 {
		return nil
	}
	if !k.buckets.getLimiter(clientKey).Allow() {
		return errRateLimited
	}
	return nil
}

// AuthInterceptor guards the gRPC services with the API-key scheme.
type AuthInterceptor struct {
	keys *keyring
}

func NewAuthInterceptor(cfg *config.APIConfig) *AuthInterceptor {
	return &AuthInterceptor{keys: newKeyring(cfg)}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		cfg := a.keys.cfg
		if !cfg.Enabled || strings.HasPrefix(info.FullMethod, healthMethodPrefix) {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		apiKey := first(md.Get(a.keys.keyHeader))

		if cfg.Auth.Enabled {
			if md == nil {
				return nil, status.Error(codes.Unauthenticated, "missing metadata")
			}
			extra := first(md.Get(a.keys.extraName))
			if err := a.keys.authorize(apiKey, extra, requiredPermission(info.FullMethod)); err != nil {
				return nil, authStatus(err)
			}
		}

		if apiKey == "" {
			apiKey = peerAddr(ctx)
		}
		if err := a.keys.allow(apiKey); err != nil {
			return nil, authStatus(err)
		}
		return handler(ctx, req)
	}
}

func requiredPermission(fullMethod string) string {
	switch fullMethod {
	case quoteMethod, checkAvailabilityMethod:
		return permReadQuotes
	default:
		return ""
	}
}

func authStatus(err error) error {
	switch {
	case errors.Is(err, errPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, errRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Unauthenticated, err.Error())
	}
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
