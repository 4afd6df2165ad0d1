package boundary

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"
)

const (
	valkeyKeyPrefix  = "vppmon:boundary:"
	defaultValkeyTTL = 24 * time.Hour
)

// ValkeyCache shares fetched boundary documents between replicas.
type ValkeyCache struct {
	client valkey.Client
	ttl    time.Duration
}

// NewValkeyCache connects to a Valkey (Redis-compatible) server.
func NewValkeyCache(addr string, ttl time.Duration) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return newValkeyCache(client, ttl), nil
}

// newValkeyCache wraps client. A non-positive ttl means 24h.
func newValkeyCache(client valkey.Client, ttl time.Duration) *ValkeyCache {
	if ttl <= 0 {
		ttl = defaultValkeyTTL
	}
	return &ValkeyCache{client: client, ttl: ttl}
}

// Name implements Cache.
func (c *ValkeyCache) Name() string {
	return OriginValkey
}

func dataKey(layer Layer) string { return valkeyKeyPrefix + string(layer) }
func timeKey(layer Layer) string { return valkeyKeyPrefix + string(layer) + ":fetched_at" }

// Load returns the cached document for layer.
func (c *ValkeyCache) Load(ctx context.Context, layer Layer) ([]byte, time.Time, error) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(dataKey(layer)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, time.Time{}, ErrCacheMiss
		}
		return nil, time.Time{}, fmt.Errorf("valkey get: %w", err)
	}

	var ts time.Time
	if s, err := c.client.Do(ctx, c.client.B().Get().Key(timeKey(layer)).Build()).ToString(); err == nil {
		if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
			ts = time.Unix(unix, 0)
		}
	}
	return data, ts, nil
}

// Save stores data for layer with the configured TTL.
func (c *ValkeyCache) Save(ctx context.Context, layer Layer, data []byte, ts time.Time) error {
	cmds := valkey.Commands{
		c.client.B().Set().Key(dataKey(layer)).Value(valkey.BinaryString(data)).Ex(c.ttl).Build(),
		c.client.B().Set().Key(timeKey(layer)).Value(strconv.FormatInt(ts.Unix(), 10)).Ex(c.ttl).Build(),
	}
	for _, resp := range c.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("valkey set: %w", err)
		}
	}
	return nil
}

// Close releases the client.
func (c *ValkeyCache) Close() {
	c.client.Close()
}
