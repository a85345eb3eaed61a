package telephony

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+91 98765-43210", "919876543210"},
		{"9876543210", "919876543210"},   // bare 10-digit mobile gets the country code
		{"919876543210", "919876543210"}, // already prefixed
		{"1234567890", "1234567890"},     // 10 digits but not a mobile range
		{"(080) 2345 6789", "08023456789"},
		{"", ""},
		{"abc", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeNumber(tc.in), "input %q", tc.in)
	}
}

func TestConnectNCCO(t *testing.T) {
	ncco := ConnectNCCO("https://calls.example.com/", "14155550100", "abc-123", "tenant-1")

	require.Len(t, ncco, 1)
	action := ncco[0]
	assert.Equal(t, "connect", action["action"])
	assert.Equal(t, []string{"https://calls.example.com/webhooks/event"}, action["eventUrl"])
	assert.Equal(t, "14155550100", action["from"])

	endpoints, ok := action["endpoint"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, endpoints, 1)
	ep := endpoints[0]
	assert.Equal(t, "websocket", ep["type"])
	assert.Equal(t, "wss://calls.example.com/socket/abc-123", ep["uri"])
	assert.Equal(t, "audio/l16;rate=16000", ep["content-type"])
	assert.Equal(t, map[string]string{"call_uuid": "abc-123", "tenant_id": "tenant-1"}, ep["headers"])
}
