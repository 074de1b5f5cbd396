package web

import (
	"sync"
)

// ClientPool holds a pool of QBank clients.  Clients for multiple endpoints
// with multiple tokens can be stored in the same pool.  ClientPools have a
// mutex to make accessing and caching clients safe.
type ClientPool struct {
	mutex    sync.Mutex
	subPools map[clientPoolKey]*clientSubPool
	options  []ClientOption
}

// NewClientPool creates a new pool of Clients.  The options are applied to
// every client the pool creates.
func NewClientPool(options ...ClientOption) *ClientPool {
	return &ClientPool{
		mutex:    sync.Mutex{},
		subPools: make(map[clientPoolKey]*clientSubPool),
		options:  options,
	}
}

// Client gets an existing cached client or creates one.
func (p *ClientPool) Client(endpoint, token string) (*Client, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if c, ok := p.getOrCreateSubPool(clientPoolKey{endpoint, token}).getClient(); ok {
		return c, nil
	}
	return NewClient(endpoint, token, p.options...)
}

// Cache the given client in the pool.  Only clients created with NewClient
// can be cached; others are ignored.
func (p *ClientPool) Cache(c *Client) {
	if c.key == (clientPoolKey{}) {
		logger.Warn("client %p has no endpoint; not caching it", c)
		return
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.getOrCreateSubPool(c.key).cacheClient(c)
}

func (p *ClientPool) getOrCreateSubPool(k clientPoolKey) *clientSubPool {
	sp, ok := p.subPools[k]
	if !ok {
		sp = newClientSubPool()
		p.subPools[k] = sp
	}
	return sp
}

type clientPoolKey struct {
	endpoint string
	token    string
}

type clientSubPool struct {
	clients []*Client
	cache   []int
	inuse   map[*Client]int
}

func newClientSubPool() *clientSubPool {
	return &clientSubPool{
		clients: make([]*Client, 0, 1),
		cache:   make([]int, 0, 1),
		inuse:   make(map[*Client]int, 1),
	}
}

// getClient pulls a cached client from the subpool.  This function is not
// threadsafe; make sure you only use it while holding the ClientPool's lock.
func (sp *clientSubPool) getClient() (*Client, bool) {
	length := len(sp.cache)
	if length == 0 {
		return nil, false
	}
	index := sp.cache[length-1]
	sp.cache = sp.cache[:length-1]
	client := sp.clients[index]
	sp.inuse[client] = index
	return client, true
}

// cacheClient stores a client into the pool of clients.  Caching a client
// that is already cached does nothing.
func (sp *clientSubPool) cacheClient(c *Client) {
	index, ok := sp.inuse[c]
	if !ok {
		for _, i := range sp.cache {
			if sp.clients[i] == c {
				return
			}
		}
		index = len(sp.clients)
		sp.clients = append(sp.clients, c)
	}
	delete(sp.inuse, c)
	sp.cache = append(sp.cache, index)
}
