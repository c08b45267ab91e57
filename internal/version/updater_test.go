package version

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mullvad/talpid-daemon/internal/core"
)

func TestUpdaterDevBuildNeverContactsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	u, handle := NewUpdater(client, t.TempDir(), "2020.5-dev-f16be4", nil, false)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() { u.Run(ctx); close(done) }()

	handle.SetShowBetaReleases(true)
	<-done

	require.False(t, called)
}

func TestUpdaterPublishesAndCachesOnSuccessfulCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2020.3", r.URL.Query().Get("product_version"))
		json.NewEncoder(w).Encode(CheckResponse{
			Supported:    true,
			Latest:       "2020.4",
			LatestStable: "2020.4",
			LatestBeta:   "2020.4-beta1",
		})
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	bus := core.NewEventBus()
	published := make(chan core.VersionInfoPayload, 1)
	bus.Subscribe(core.EventVersionInfo, func(e core.Event) {
		published <- e.Payload.(core.VersionInfoPayload)
	})

	client := NewClient(srv.URL, srv.Client())
	u, _ := NewUpdater(client, cacheDir, "2020.3", bus, false)
	u.nextUpdateTime = time.Now()
	u.checkInterval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() { u.Run(ctx); close(done) }()

	select {
	case payload := <-published:
		require.Equal(t, "2020.4", payload.SuggestedUpgrade)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a published version info event")
	}
	cancel()
	<-done

	loaded := loadCache(cacheDir, "2020.3", false)
	require.Equal(t, "2020.4", loaded.LatestStable)
}
