package gateway

import (
	"testing"

	"github.com/soyeahso/queueboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// --- ClientRegistry tests ---

func TestClientRegistryNew(t *testing.T) {
	reg := NewClientRegistry(IncludeSelf, testLog())
	require.NotNil(t, reg)
	assert.Equal(t, 0, reg.Count())
	assert.Equal(t, IncludeSelf, reg.Policy())
}

func TestClientRegistryPolicyDefaultsToIncludeSelf(t *testing.T) {
	assert.Equal(t, IncludeSelf, NewClientRegistry("", testLog()).Policy())
	assert.Equal(t, IncludeSelf, NewClientRegistry("bogus", testLog()).Policy())
	assert.Equal(t, ExcludeSelf, NewClientRegistry(ExcludeSelf, testLog()).Policy())
}

func TestClientRegistryAddAndGet(t *testing.T) {
	reg := NewClientRegistry(IncludeSelf, testLog())

	c := &Client{ConnID: "conn-1", RemoteAddr: "10.0.0.1:5555"}
	assert.Equal(t, StateConnecting, c.State())
	reg.Add(c)

	assert.Equal(t, 1, reg.Count())
	assert.Equal(t, StateConnected, c.State())

	got, ok := reg.Get("conn-1")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.1:5555", got.RemoteAddr)
}

func TestClientRegistryGetNotFound(t *testing.T) {
	reg := NewClientRegistry(IncludeSelf, testLog())

	_, ok := reg.Get("nonexistent")
	assert.False(t, ok)
}

func TestClientRegistryRemove(t *testing.T) {
	reg := NewClientRegistry(IncludeSelf, testLog())

	c := &Client{ConnID: "conn-1"}
	reg.Add(c)
	assert.True(t, reg.Remove("conn-1"))
	assert.Equal(t, 0, reg.Count())
	assert.False(t, reg.Remove("conn-1"))

	_, ok := reg.Get("conn-1")
	assert.False(t, ok)
}

func TestClientRegistryCloseAll(t *testing.T) {
	reg := NewClientRegistry(IncludeSelf, testLog())

	a := &Client{ConnID: "a"}
	b := &Client{ConnID: "b"}
	reg.Add(a)
	reg.Add(b)

	reg.CloseAll()
	assert.Equal(t, 0, reg.Count())
	assert.Equal(t, StateDisconnected, a.State())
	assert.Equal(t, StateDisconnected, b.State())
}

func TestClientSendAfterClose(t *testing.T) {
	c := &Client{ConnID: "gone"}
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Send(Frame{Type: FrameTypeEvent}), ErrClientClosed)
}

func TestClientClosedBeforeRegisterStaysDisconnected(t *testing.T) {
	reg := NewClientRegistry(IncludeSelf, testLog())
	c := &Client{ConnID: "late"}
	c.Close()
	reg.Add(c)
	assert.Equal(t, StateDisconnected, c.State())
}

func TestBroadcastSkipsClosedClients(t *testing.T) {
	reg := NewClientRegistry(IncludeSelf, testLog())
	c := &Client{ConnID: "closed"}
	reg.Add(c)
	c.Close()

	assert.Equal(t, 0, reg.Broadcast(EventCellUpdated, map[string]any{"agent": "Victor"}, 1, ""))
}

func TestConnStateString(t *testing.T) {
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "unknown", ConnState(42).String())
}
