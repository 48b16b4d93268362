package httpx

import "docchat/config"

const googleKeyHeader = "x-goog-api-key"

type AuthStyle int

const (
	AuthNone AuthStyle = iota
	AuthBearer
	AuthGoogleKey
)

// NewBaseConnector builds the long-lived connector for one provider from the
// shared HTTP settings.
func NewBaseConnector(provider, baseURL, apiKeyEnv string, auth AuthStyle, cfg config.HTTPConfig, extra ...HttpOpts) *Connector {
	opts := []HttpOpts{
		WithRequestTimeout(cfg.Timeout),
		WithConnClientTimeout(cfg.ConnTimeout),
		WithResponseHeaderTimeout(cfg.Timeout),
	}
	opts = append(opts, extra...)

	switch auth {
	case AuthBearer:
		opts = append(opts, WithBearerKeyFromEnv(apiKeyEnv))
	case AuthGoogleKey:
		opts = append(opts, WithHeaderKeyFromEnv(apiKeyEnv, googleKeyHeader))
	}
	if cfg.LogRequests {
		opts = append(opts, WithRequestLogging())
	}
	// outermost, so throttled requests wait before anything else runs
	opts = append(opts, WithRateLimit(cfg.RequestsPerSecond, cfg.Burst))

	return NewConnector(&ConnectorConfig{Provider: provider, BaseURL: baseURL}, opts...)
}
