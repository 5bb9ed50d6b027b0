// Package notify watches a giver's received claims and derives two UI
// signals from them: a pending-count badge and a one-shot "new claim"
// banner. There is no push channel; everything comes from periodic
// polling of the claims-received view.
package notify

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/eatyaar/backend/client"
)

const (
	defaultInterval  = 30 * time.Second
	defaultBannerTTL = 6 * time.Second
	badgeCeiling     = 9
)

// ClaimsSource provides the received-claims view. *client.Client
// satisfies it.
type ClaimsSource interface {
	ReceivedClaims(ctx context.Context) ([]client.ReceivedClaim, error)
}

// Banner is the transient "new claim" alert. The display fields come
// from the last pending claim in the fetched collection: the poller only
// reacts to a net count increase, so when several changes land in one
// polling window the name shown may not be the newest arrival. That is
// the known, intended behavior.
type Banner struct {
	ListingTitle  string
	ClaimedByName string
}

// Options tunes the poller. Zero values mean 30s interval, 6s banner
// lifetime and the real clock.
type Options struct {
	Interval  time.Duration
	BannerTTL time.Duration
	Clock     Clock
}

// Poller tracks the pending-claim count across polls. Start it after
// login, Stop it on logout; Stop cancels the loop, zeroes the badge and
// discards any poll still in flight.
type Poller struct {
	source    ClaimsSource
	clock     Clock
	interval  time.Duration
	bannerTTL time.Duration

	mu          sync.Mutex
	running     bool
	generation  int
	cancel      context.CancelFunc
	inFlight    bool
	prevCount   int
	pending     int
	banner      *Banner
	bannerTimer Timer
}

func NewPoller(source ClaimsSource, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.BannerTTL <= 0 {
		opts.BannerTTL = defaultBannerTTL
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	return &Poller{
		source:    source,
		clock:     opts.Clock,
		interval:  opts.Interval,
		bannerTTL: opts.BannerTTL,
	}
}

// Start begins polling: one immediate poll, then one per interval.
// Calling Start on a running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.running = true
	p.cancel = cancel
	gen := p.generation
	p.mu.Unlock()

	go p.loop(ctx, gen)
}

func (p *Poller) loop(ctx context.Context, gen int) {
	p.poll(ctx, gen)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.poll(ctx, gen)
		}
	}
}

// Stop cancels the polling loop and resets the badge to zero. A poll
// already in flight will find the generation advanced when it resolves
// and throw its result away.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	p.generation++
	p.cancel()
	p.cancel = nil
	p.prevCount = 0
	p.pending = 0
	p.clearBannerLocked()
}

// PendingCount is the badge value: the number of PENDING claims seen on
// the last successful poll.
func (p *Poller) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Badge renders the count for display, capped at ">9". Empty when zero.
func (p *Poller) Badge() string {
	p.mu.Lock()
	n := p.pending
	p.mu.Unlock()
	switch {
	case n <= 0:
		return ""
	case n > badgeCeiling:
		return ">9"
	default:
		return strconv.Itoa(n)
	}
}

// Banner returns the active banner, if any.
func (p *Poller) Banner() (Banner, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.banner == nil {
		return Banner{}, false
	}
	return *p.banner, true
}

// Dismiss clears the banner early. The count baseline is untouched, so
// a dismiss racing a poll cannot suppress or duplicate future banners.
func (p *Poller) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearBannerLocked()
}

// poll performs one fetch-and-diff cycle. A tick that arrives while a
// previous poll is still in flight is skipped, not queued. Fetch errors
// are swallowed and leave the baseline alone, so a transient failure
// cannot fake a "new claim" when service resumes.
func (p *Poller) poll(ctx context.Context, gen int) {
	p.mu.Lock()
	if p.inFlight || p.generation != gen {
		p.mu.Unlock()
		return
	}
	p.inFlight = true
	p.mu.Unlock()

	claims, err := p.source.ReceivedClaims(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false

	// Stopped (or restarted) while the request was in the air: the
	// response is stale, drop it.
	if p.generation != gen || !p.running {
		return
	}
	if err != nil {
		return
	}

	pending := make([]client.ReceivedClaim, 0, len(claims))
	for _, cl := range claims {
		if cl.Status == "PENDING" {
			pending = append(pending, cl)
		}
	}
	count := len(pending)

	if count > p.prevCount {
		newest := pending[count-1]
		p.setBannerLocked(Banner{
			ListingTitle:  newest.ListingTitle,
			ClaimedByName: newest.ClaimedByName,
		})
	}

	p.prevCount = count
	p.pending = count
}

func (p *Poller) setBannerLocked(b Banner) {
	if p.bannerTimer != nil {
		p.bannerTimer.Stop()
	}
	p.banner = &b
	gen := p.generation
	p.bannerTimer = p.clock.AfterFunc(p.bannerTTL, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.generation == gen {
			p.banner = nil
			p.bannerTimer = nil
		}
	})
}

func (p *Poller) clearBannerLocked() {
	if p.bannerTimer != nil {
		p.bannerTimer.Stop()
		p.bannerTimer = nil
	}
	p.banner = nil
}
