package httpx

import (
	"fmt"
	"net/http"
	"os"
)

// MissingCredentialError means the environment variable holding the API key
// is unset or empty at request time.
type MissingCredentialError struct {
	EnvVar string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("API key not found in environment variable: %s", e.EnvVar)
}

// authTransport reads the key on every request so a key set after startup is
// picked up without rebuilding the client.
type authTransport struct {
	envVar    string
	header    string
	prefix    string
	transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := os.Getenv(t.envVar)
	if key == "" {
		return nil, &MissingCredentialError{EnvVar: t.envVar}
	}

	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set(t.header, t.prefix+key)

	return t.transport.RoundTrip(reqCopy)
}

// WithBearerKeyFromEnv sends "Authorization: Bearer <key>".
func WithBearerKeyFromEnv(envVar string) HttpOpts {
	return withKeyFromEnv(envVar, "Authorization", "Bearer ")
}

// WithHeaderKeyFromEnv sends the raw key in the given header.
func WithHeaderKeyFromEnv(envVar, header string) HttpOpts {
	return withKeyFromEnv(envVar, header, "")
}

func withKeyFromEnv(envVar, header, prefix string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &authTransport{
			envVar:    envVar,
			header:    header,
			prefix:    prefix,
			transport: rt,
		}
	})
}
