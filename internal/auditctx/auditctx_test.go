package auditctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOriginRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	ctx := WithOrigin(context.Background(), Origin{IPAddress: "203.0.113.7", UserAgent: "curl/8"})
	origin, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "203.0.113.7", origin.IPAddress)
	require.Equal(t, "curl/8", origin.UserAgent)
}

func TestNilContext(t *testing.T) {
	_, ok := FromContext(nil)
	require.False(t, ok)

	origin, ok := FromContext(WithOrigin(nil, Origin{RequestID: "r1"}))
	require.True(t, ok)
	require.Equal(t, "r1", origin.RequestID)
}
