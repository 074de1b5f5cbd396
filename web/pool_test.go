package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPoolReusesCachedClients(t *testing.T) {
	p := NewClientPool(WithServerChaining(false))
	a, err := p.Client("https://qbank.example.com/v1", "t1")
	require.NoError(t, err)
	assert.False(t, a.chaining, "pool options apply to new clients")

	b, err := p.Client("https://qbank.example.com/v1", "t1")
	require.NoError(t, err)
	assert.NotSame(t, a, b, "a client in use is not handed out twice")

	p.Cache(a)
	p.Cache(a)
	c, err := p.Client("https://qbank.example.com/v1", "t1")
	require.NoError(t, err)
	assert.Same(t, a, c)

	d, err := p.Client("https://qbank.example.com/v1", "t2")
	require.NoError(t, err)
	assert.NotSame(t, a, d, "clients are pooled per token")

	e, err := p.Client("https://qbank.example.com/v1", "t1")
	require.NoError(t, err)
	assert.NotSame(t, a, e, "caching twice must not duplicate the client")
}

func TestClientPoolIgnoresCustomTransports(t *testing.T) {
	p := NewClientPool()
	p.Cache(NewClientWithTransport(&mockTransport{}))
	assert.Empty(t, p.subPools)
}
