package version

import (
	"context"
	"time"

	"github.com/mullvad/talpid-daemon/internal/core"
)

const (
	// DownloadTimeout bounds a single version-check HTTP round trip.
	DownloadTimeout = 15 * time.Second
	// UpdateCheckInterval is how often the updater wakes to compare the
	// wall clock against nextUpdateTime. Polling on a short interval
	// instead of sleeping for UpdateInterval directly means a host
	// suspension doesn't push the next real check out by the full
	// wall-clock suspension length (monotonic timers don't tick while
	// suspended).
	UpdateCheckInterval = 5 * time.Minute
	// UpdateInterval is the spacing between successful checks.
	UpdateInterval = 24 * time.Hour
	// UpdateIntervalError is the retry backoff after a failed check.
	UpdateIntervalError = 6 * time.Hour
)

// Handle lets other components change show_beta_releases while the
// updater is running, without reaching into its internals.
type Handle struct {
	setShowBeta chan bool
}

// SetShowBetaReleases asks the updater to include beta releases in its
// suggested-upgrade computation from now on. A no-op once the updater has
// exited (dev build, or shut down).
func (h *Handle) SetShowBetaReleases(show bool) {
	select {
	case h.setShowBeta <- show:
	default:
		core.Log.Errorf("Version", "updater already down, can't send new show_beta_releases state")
	}
}

// Updater is the §4.F cooperative task: a single loop that checks for new
// releases on a schedule, publishes what it finds to the event bus, and
// persists it to the on-disk cache.
type Updater struct {
	client         *Client
	cacheDir       string
	productVersion string
	platform       Platform
	bus            *core.EventBus

	current    AppVersion
	isDevBuild bool

	showBetaReleases bool
	lastInfo         Info
	nextUpdateTime   time.Time
	checkInterval    time.Duration

	setShowBeta chan bool
}

// NewUpdater constructs an Updater seeded from the on-disk cache (or safe
// defaults if no usable cache exists).
func NewUpdater(client *Client, cacheDir, productVersion string, bus *core.EventBus, showBetaReleases bool) (*Updater, *Handle) {
	current, isDevBuild := ParseAppVersion(productVersion)
	// A version string that fails to parse IS the dev-build signal (§4.F):
	// ParseAppVersion returning ok==false means isDevBuild should be true.
	isDevBuild = !isDevBuild

	setShowBeta := make(chan bool, 1)
	u := &Updater{
		client:           client,
		cacheDir:         cacheDir,
		productVersion:   productVersion,
		platform:         CurrentPlatform(),
		bus:              bus,
		current:          current,
		isDevBuild:       isDevBuild,
		showBetaReleases: showBetaReleases,
		lastInfo:         loadCache(cacheDir, productVersion, isDevBuild),
		nextUpdateTime:   time.Now(),
		checkInterval:    UpdateCheckInterval,
		setShowBeta:      setShowBeta,
	}
	return u, &Handle{setShowBeta: setShowBeta}
}

// Run blocks until ctx is cancelled or the control channel is drained and
// closed by a matching shutdown. Dev builds never touch the network: the
// loop only drains setShowBeta until shutdown.
func (u *Updater) Run(ctx context.Context) {
	if u.isDevBuild {
		u.drainUntilDone(ctx)
		return
	}

	ticker := time.NewTicker(u.checkInterval)
	defer ticker.Stop()

	type downloadResult struct {
		resp CheckResponse
		err  error
	}
	var downloadCh chan downloadResult
	downloading := false

	for {
		select {
		case <-ctx.Done():
			return

		case show, ok := <-u.setShowBeta:
			if !ok {
				return
			}
			u.showBetaReleases = show

		case <-ticker.C:
			if downloading || time.Now().Before(u.nextUpdateTime) {
				continue
			}
			downloading = true
			downloadCh = make(chan downloadResult, 1)
			go func() {
				resp, err := retryWithBackoff(ctx, UpdateIntervalError, func(ctx context.Context) (CheckResponse, error) {
					return u.client.Check(ctx, u.productVersion, u.platform)
				})
				select {
				case downloadCh <- downloadResult{resp: resp, err: err}:
				case <-ctx.Done():
				}
			}()

		case res := <-downloadCh:
			downloading = false
			u.nextUpdateTime = time.Now().Add(UpdateInterval)

			if res.err != nil {
				core.Log.Errorf("Version", "failed to fetch version info: %v", res.err)
				continue
			}

			info := u.responseToInfo(res.resp)
			u.lastInfo = info
			if u.bus != nil {
				u.bus.Publish(core.Event{
					Type: core.EventVersionInfo,
					Payload: core.VersionInfoPayload{
						Current:          u.productVersion,
						Latest:           res.resp.Latest,
						SuggestedUpgrade: info.SuggestedUpgrade,
					},
				})
			}
			if err := writeCache(u.cacheDir, u.productVersion, info); err != nil {
				core.Log.Errorf("Version", "failed to save version cache to disk: %v", err)
			}
		}
	}
}

func (u *Updater) drainUntilDone(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-u.setShowBeta:
			if !ok {
				return
			}
		}
	}
}

func (u *Updater) responseToInfo(resp CheckResponse) Info {
	showBeta := u.showBetaReleases || u.current.IsBeta()
	return Info{
		Supported:        resp.Supported,
		LatestStable:     resp.LatestStable,
		LatestBeta:       resp.LatestBeta,
		SuggestedUpgrade: SuggestedUpgrade(u.current, resp, showBeta),
	}
}
