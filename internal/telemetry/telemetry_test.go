package telemetry_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-pkce-client/internal/telemetry"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "pkce-client", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx))
}

func TestSetup_ExportsSpans(t *testing.T) {
	var exports atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/traces" {
			exports.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(collector.Close)

	shutdown, err := telemetry.Setup(context.Background(), "pkce-client", collector.URL+"/v1/traces")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "token.refresh_token")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	require.Equal(t, int32(1), exports.Load())
}
