package boundary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/valkey-io/valkey-go"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"
)

func TestValkeyCacheSave(t *testing.T) {
	tests := []struct {
		name   string
		ttl    time.Duration
		wantEx string
	}{
		{"configured ttl", 90 * time.Minute, "5400"},
		{"zero ttl defaults to a day", 0, "86400"},
		{"negative ttl defaults to a day", -time.Second, "86400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mock.NewClient(ctrl)
			ts := time.Unix(1_700_000_000, 0)

			client.EXPECT().DoMulti(gomock.Any(),
				mock.Match("SET", "vppmon:boundary:world", "{}", "EX", tt.wantEx),
				mock.Match("SET", "vppmon:boundary:world:fetched_at", "1700000000", "EX", tt.wantEx),
			).Return([]valkey.ValkeyResult{
				mock.Result(mock.ValkeyString("OK")),
				mock.Result(mock.ValkeyString("OK")),
			})

			c := newValkeyCache(client, tt.ttl)
			if err := c.Save(context.Background(), LayerWorld, []byte("{}"), ts); err != nil {
				t.Fatalf("Save: %v", err)
			}
		})
	}
}

func TestValkeyCacheSaveError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)

	client.EXPECT().DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).Return([]valkey.ValkeyResult{
		mock.Result(mock.ValkeyString("OK")),
		mock.ErrorResult(errors.New("READONLY")),
	})

	c := newValkeyCache(client, time.Hour)
	if err := c.Save(context.Background(), LayerChina, []byte("x"), time.Now()); err == nil {
		t.Error("expected error from failed SET")
	}
}

func TestValkeyCacheLoad(t *testing.T) {
	tests := []struct {
		name      string
		fetchedAt valkey.ValkeyResult
		wantTS    time.Time
	}{
		{"with timestamp", mock.Result(mock.ValkeyString("1700000000")), time.Unix(1_700_000_000, 0)},
		{"missing timestamp", mock.Result(mock.ValkeyNil()), time.Time{}},
		{"garbled timestamp", mock.Result(mock.ValkeyString("yesterday")), time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mock.NewClient(ctrl)
			ctx := context.Background()

			gomock.InOrder(
				client.EXPECT().Do(ctx, mock.Match("GET", "vppmon:boundary:china")).
					Return(mock.Result(mock.ValkeyBlobString(`{"type":"FeatureCollection"}`))),
				client.EXPECT().Do(ctx, mock.Match("GET", "vppmon:boundary:china:fetched_at")).
					Return(tt.fetchedAt),
			)

			data, ts, err := newValkeyCache(client, time.Hour).Load(ctx, LayerChina)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if string(data) != `{"type":"FeatureCollection"}` {
				t.Errorf("data = %q", data)
			}
			if !ts.Equal(tt.wantTS) {
				t.Errorf("ts = %v, want %v", ts, tt.wantTS)
			}
		})
	}
}

func TestValkeyCacheLoadMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	ctx := context.Background()

	client.EXPECT().Do(ctx, mock.Match("GET", "vppmon:boundary:world")).Return(mock.Result(mock.ValkeyNil()))

	_, ts, err := newValkeyCache(client, time.Hour).Load(ctx, LayerWorld)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss", err)
	}
	if !ts.IsZero() {
		t.Errorf("ts = %v, want zero", ts)
	}
}

func TestValkeyCacheLoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	ctx := context.Background()

	client.EXPECT().Do(ctx, mock.Match("GET", "vppmon:boundary:world")).Return(mock.ErrorResult(errors.New("connection reset")))

	_, _, err := newValkeyCache(client, time.Hour).Load(ctx, LayerWorld)
	if err == nil || errors.Is(err, ErrCacheMiss) {
		t.Errorf("err = %v, want a transport error", err)
	}
}

func TestValkeyCacheName(t *testing.T) {
	c := newValkeyCache(mock.NewClient(gomock.NewController(t)), 0)
	if c.Name() != OriginValkey {
		t.Errorf("Name = %q", c.Name())
	}
	if c.ttl != 24*time.Hour {
		t.Errorf("ttl = %v, want 24h", c.ttl)
	}
}
