package tiles

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"slippymap/diskcache"
	"slippymap/geo"
	"slippymap/params"
)

// fakeFetcher records requests and never answers by itself; tests deliver
// outcomes through HandleResponse/HandleError like the host loop would.
type fakeFetcher struct {
	ids  []RequestID
	urls []string
}

func (f *fakeFetcher) Fetch(id RequestID, url string) {
	f.ids = append(f.ids, id)
	f.urls = append(f.urls, url)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testCache(t *testing.T) (*Cache, *fakeFetcher, *diskcache.Store) {
	t.Helper()
	store := diskcache.NewStore(&params.DiskCacheConfig{
		RootDir:      t.TempDir(),
		MaxCacheSize: 1 << 20,
	})
	fetcher := &fakeFetcher{}
	return NewCache(nil, store, fetcher), fetcher, store
}

func TestRequestTile_Idempotent(t *testing.T) {
	c, fetcher, _ := testCache(t)
	addr := geo.TileAddress{X: 1, Y: 2, Z: 3}

	c.RequestTile(addr)
	c.RequestTile(addr)

	if len(fetcher.ids) != 1 {
		t.Errorf("Expected 1 fetch, got %d", len(fetcher.ids))
	}
	if len(c.pending) != 1 {
		t.Errorf("Expected 1 pending entry, got %d", len(c.pending))
	}
	if _, ok := c.states[addr].(Loading); !ok {
		t.Errorf("Expected Loading state, got %T", c.states[addr])
	}
}

func TestRequestTile_DiskHitAvoidsNetwork(t *testing.T) {
	c, fetcher, store := testCache(t)
	addr := geo.TileAddress{X: 10, Y: 12, Z: 5}
	store.Save(addr, pngBytes(t))

	c.RequestTile(addr)

	if len(fetcher.ids) != 0 {
		t.Errorf("Expected no network fetch on disk hit, got %d", len(fetcher.ids))
	}
	if _, ok := c.GetTile(addr); !ok {
		t.Errorf("Expected tile loaded synchronously from disk")
	}
}

func TestRequestTile_CorruptDiskRefetches(t *testing.T) {
	c, fetcher, store := testCache(t)
	addr := geo.TileAddress{X: 4, Y: 4, Z: 4}
	store.Save(addr, []byte("garbage, not a png"))

	c.RequestTile(addr)

	if len(fetcher.ids) != 1 {
		t.Errorf("Expected re-download on corrupt cache file, got %d fetches", len(fetcher.ids))
	}
}

func TestHandleResponse_Success(t *testing.T) {
	c, fetcher, store := testCache(t)
	addr := geo.TileAddress{X: 7, Y: 8, Z: 9}
	c.RequestTile(addr)

	redraw := c.HandleResponse(fetcher.ids[0], 200, pngBytes(t))

	if !redraw {
		t.Errorf("Expected redraw-worthy change on decode success")
	}
	if _, ok := c.GetTile(addr); !ok {
		t.Errorf("Expected Loaded state")
	}
	if len(c.pending) != 0 {
		t.Errorf("Expected pending entry removed, got %d", len(c.pending))
	}
	if _, ok := store.Load(addr); !ok {
		t.Errorf("Expected decoded tile written through to disk")
	}
}

func TestHandleResponse_DecodeFailureNeverPersists(t *testing.T) {
	c, fetcher, store := testCache(t)
	addr := geo.TileAddress{X: 1, Y: 1, Z: 1}
	c.RequestTile(addr)

	redraw := c.HandleResponse(fetcher.ids[0], 200, []byte("garbage"))

	if redraw {
		t.Errorf("Expected no redraw on decode failure")
	}
	if _, err := os.Stat(store.TilePath(addr)); !os.IsNotExist(err) {
		t.Errorf("Expected no file persisted for undecodable bytes")
	}
	st, ok := c.states[addr].(Errored)
	if !ok {
		t.Fatalf("Expected Errored state, got %T", c.states[addr])
	}
	if st.Msg == "" {
		t.Errorf("Expected descriptive decode error message")
	}
}

func TestHandleResponse_HTTPStatusError(t *testing.T) {
	c, fetcher, _ := testCache(t)
	addr := geo.TileAddress{X: 2, Y: 2, Z: 2}
	c.RequestTile(addr)

	c.HandleResponse(fetcher.ids[0], 404, []byte("not found"))

	st, ok := c.states[addr].(Errored)
	if !ok {
		t.Fatalf("Expected Errored state, got %T", c.states[addr])
	}
	if st.Msg != "HTTP 404" {
		t.Errorf("Expected 'HTTP 404', got %q", st.Msg)
	}
}

func TestHandleResponse_EmptyBody(t *testing.T) {
	c, fetcher, _ := testCache(t)
	addr := geo.TileAddress{X: 3, Y: 3, Z: 3}
	c.RequestTile(addr)

	c.HandleResponse(fetcher.ids[0], 200, nil)

	st, ok := c.states[addr].(Errored)
	if !ok {
		t.Fatalf("Expected Errored state, got %T", c.states[addr])
	}
	if st.Msg != "Empty response body" {
		t.Errorf("Expected 'Empty response body', got %q", st.Msg)
	}
}

func TestHandleError_TransportFailure(t *testing.T) {
	c, fetcher, _ := testCache(t)
	addr := geo.TileAddress{X: 5, Y: 6, Z: 7}
	c.RequestTile(addr)

	c.HandleError(fetcher.ids[0], errors.New("connection refused"))

	if len(c.pending) != 0 {
		t.Errorf("Expected pending entry removed")
	}
	st, ok := c.states[addr].(Errored)
	if !ok {
		t.Fatalf("Expected Errored state, got %T", c.states[addr])
	}
	if st.Msg != "connection refused" {
		t.Errorf("Expected transport error message, got %q", st.Msg)
	}
}

func TestErroredTileNotRetried(t *testing.T) {
	c, fetcher, _ := testCache(t)
	addr := geo.TileAddress{X: 9, Y: 9, Z: 9}
	c.RequestTile(addr)
	c.HandleError(fetcher.ids[0], errors.New("boom"))

	c.RequestTile(addr)

	if len(fetcher.ids) != 1 {
		t.Errorf("Expected no retry for Errored tile, got %d fetches", len(fetcher.ids))
	}
}

func TestHandleResponse_UnknownRequestID(t *testing.T) {
	c, _, _ := testCache(t)
	if c.HandleResponse(RequestID(42), 200, pngBytes(t)) {
		t.Errorf("Expected unknown request id ignored")
	}
	c.HandleError(RequestID(43), errors.New("late"))
	if len(c.states) != 0 {
		t.Errorf("Expected no state installed for unknown id")
	}
}

func TestRequestIDsStrictlyIncrease(t *testing.T) {
	c, fetcher, _ := testCache(t)
	c.RequestTile(geo.TileAddress{X: 1, Y: 0, Z: 2})
	c.RequestTile(geo.TileAddress{X: 2, Y: 0, Z: 2})
	c.HandleError(fetcher.ids[0], errors.New("gone"))
	c.RequestTile(geo.TileAddress{X: 3, Y: 0, Z: 2})

	for i := 1; i < len(fetcher.ids); i++ {
		if fetcher.ids[i] <= fetcher.ids[i-1] {
			t.Errorf("Expected strictly increasing ids, got %v", fetcher.ids)
		}
	}
}

func TestURLTemplate(t *testing.T) {
	c, _, _ := testCache(t)
	c.SetTileServer("https://tiles.example.com/{z}/{x}/{y}.png")
	got := c.URL(geo.TileAddress{X: 655, Y: 1583, Z: 12})
	expected := "https://tiles.example.com/12/655/1583.png"
	if got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}

func TestClear(t *testing.T) {
	c, fetcher, store := testCache(t)
	loadedAddr := geo.TileAddress{X: 1, Y: 1, Z: 4}
	pendingAddr := geo.TileAddress{X: 2, Y: 2, Z: 4}
	c.RequestTile(loadedAddr)
	c.HandleResponse(fetcher.ids[0], 200, pngBytes(t))
	c.RequestTile(pendingAddr)

	c.Clear()

	if len(c.states) != 0 || len(c.pending) != 0 {
		t.Errorf("Expected all in-memory state dropped")
	}
	if _, ok := store.Load(loadedAddr); ok {
		t.Errorf("Expected disk store purged")
	}

	// A fresh request after clear is allowed again.
	c.RequestTile(loadedAddr)
	if len(fetcher.ids) != 3 {
		t.Errorf("Expected a fresh fetch after clear, got %d total", len(fetcher.ids))
	}
}

func TestLoadedLRU_BoundsMemory(t *testing.T) {
	store := diskcache.NewStore(&params.DiskCacheConfig{RootDir: t.TempDir(), MaxCacheSize: 1 << 20})
	fetcher := &fakeFetcher{}
	config := params.DefaultTileCacheConfig()
	config.LoadedTileLimit = 2
	c := NewCache(config, store, fetcher)

	body := pngBytes(t)
	addrs := []geo.TileAddress{
		{X: 1, Y: 0, Z: 6}, {X: 2, Y: 0, Z: 6}, {X: 3, Y: 0, Z: 6},
	}
	for i, addr := range addrs {
		c.RequestTile(addr)
		c.HandleResponse(fetcher.ids[i], 200, body)
	}

	if _, ok := c.states[addrs[0]]; ok {
		t.Errorf("Expected oldest loaded tile evicted from memory tier")
	}
	if _, ok := c.GetTile(addrs[2]); !ok {
		t.Errorf("Expected newest tile kept")
	}

	// Evicted-from-memory tiles fall back to disk, not network.
	before := len(fetcher.ids)
	c.RequestTile(addrs[0])
	if len(fetcher.ids) != before {
		t.Errorf("Expected disk fast path on re-request, got a network fetch")
	}
	if _, ok := c.GetTile(addrs[0]); !ok {
		t.Errorf("Expected re-request to reload from disk")
	}
}

func TestEvictionCadence(t *testing.T) {
	store := diskcache.NewStore(&params.DiskCacheConfig{RootDir: t.TempDir(), MaxCacheSize: 1})
	fetcher := &fakeFetcher{}
	config := params.DefaultTileCacheConfig()
	config.EvictEvery = 2
	c := NewCache(config, store, fetcher)

	body := pngBytes(t)
	a1 := geo.TileAddress{X: 1, Y: 1, Z: 8}
	a2 := geo.TileAddress{X: 2, Y: 2, Z: 8}

	c.RequestTile(a1)
	c.HandleResponse(fetcher.ids[0], 200, body)
	if store.TotalSize() == 0 {
		t.Fatal("Expected first save kept, sweep not yet due")
	}

	c.RequestTile(a2)
	c.HandleResponse(fetcher.ids[1], 200, body)
	if got := store.TotalSize(); got > 1 {
		t.Errorf("Expected eviction sweep on 2nd save to enforce budget, size %d", got)
	}
}

func TestFindFallback(t *testing.T) {
	c, fetcher, _ := testCache(t)
	ancestor := geo.TileAddress{X: 1, Y: 1, Z: 1}
	c.RequestTile(ancestor)
	c.HandleResponse(fetcher.ids[0], 200, pngBytes(t))

	// Four levels below the loaded ancestor.
	addr := geo.TileAddress{X: 31, Y: 16, Z: 5}
	fb, ok := c.FindFallback(addr, DefaultFallbackDepth)
	if !ok {
		t.Fatal("Expected fallback found")
	}
	if fb.Addr != ancestor {
		t.Errorf("Expected ancestor %v, got %v", ancestor, fb.Addr)
	}
	if fb.UVScale != 1.0/16.0 {
		t.Errorf("Expected uvScale 1/16, got %f", fb.UVScale)
	}
	if fb.UVOffset != [2]float64{15.0 / 16.0, 0} {
		t.Errorf("Expected uvOffset (15/16, 0), got %v", fb.UVOffset)
	}
}

func TestFindFallback_NearestAncestorWins(t *testing.T) {
	c, fetcher, _ := testCache(t)
	far := geo.TileAddress{X: 0, Y: 0, Z: 2}
	near := geo.TileAddress{X: 1, Y: 1, Z: 3}
	c.RequestTile(far)
	c.HandleResponse(fetcher.ids[0], 200, pngBytes(t))
	c.RequestTile(near)
	c.HandleResponse(fetcher.ids[1], 200, pngBytes(t))

	fb, ok := c.FindFallback(geo.TileAddress{X: 2, Y: 3, Z: 4}, DefaultFallbackDepth)
	if !ok {
		t.Fatal("Expected fallback found")
	}
	if fb.Addr != near {
		t.Errorf("Expected nearest loaded ancestor %v, got %v", near, fb.Addr)
	}
	if fb.UVScale != 0.5 {
		t.Errorf("Expected uvScale 0.5, got %f", fb.UVScale)
	}
}

func TestFindFallback_DepthLimit(t *testing.T) {
	c, fetcher, _ := testCache(t)
	// Loaded ancestor five levels up: out of reach.
	ancestor := geo.TileAddress{X: 0, Y: 0, Z: 1}
	c.RequestTile(ancestor)
	c.HandleResponse(fetcher.ids[0], 200, pngBytes(t))

	if _, ok := c.FindFallback(geo.TileAddress{X: 0, Y: 0, Z: 6}, DefaultFallbackDepth); ok {
		t.Errorf("Expected no fallback beyond the search depth")
	}
}

func TestFindFallback_LoadingAncestorSkipped(t *testing.T) {
	c, _, _ := testCache(t)
	c.RequestTile(geo.TileAddress{X: 1, Y: 1, Z: 3}) // stays Loading

	if _, ok := c.FindFallback(geo.TileAddress{X: 2, Y: 2, Z: 4}, DefaultFallbackDepth); ok {
		t.Errorf("Expected Loading ancestor not used as fallback")
	}
}
