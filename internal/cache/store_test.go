package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	require.Equal(t, "info:counters", Key("info", "counters"))
	require.Equal(t, "ratelimit:1.2.3.4|/v1/login/email", Key("ratelimit", "", "1.2.3.4|/v1/login/email"))
	require.Equal(t, "info", Key("info"))
}
