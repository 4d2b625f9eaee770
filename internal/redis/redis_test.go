package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type payload struct {
	Name string       `msgpack:"name"`
	Ring [][2]float64 `msgpack:"ring"`
}

func TestStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := Connect(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()
	s := NewStore(client)

	in := payload{Name: "Zone Alpha", Ring: [][2]float64{{-40, 45}, {-30, 45}, {-30, 50}}}
	if err := s.Set(ctx, "zones:test", in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out payload
	ok, err := s.Get(ctx, "zones:test", &out)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if out.Name != in.Name || len(out.Ring) != 3 || out.Ring[2] != in.Ring[2] {
		t.Fatalf("out = %+v", out)
	}

	mr.FastForward(2 * time.Minute)
	ok, err = s.Get(ctx, "zones:test", &out)
	if err != nil || ok {
		t.Fatalf("expired key: ok=%v err=%v", ok, err)
	}
}

func TestStoreMissingKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	var out payload
	ok, err := NewStore(client).Get(context.Background(), "nope", &out)
	if ok || err != nil {
		t.Fatalf("ok=%v err=%v, want false, nil", ok, err)
	}
}

func TestConnectBadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "not a url"); err == nil {
		t.Fatalf("expected error")
	}
}
