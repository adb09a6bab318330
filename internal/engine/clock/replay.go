package clock

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// Replay wraps a Clock and paces its ticks in wall time, replaying one
// bar per interval scaled by the speed factor. Useful to feed a paper
// run at simulated real time.
type Replay struct {
	inner   Clock
	ctx     context.Context
	limiter *rate.Limiter
}

// NewReplay paces ticks of inner at one bar per barInterval/speed.
// speed 1 replays in real time, speed 60 replays a minute per second.
func NewReplay(ctx context.Context, inner Clock, barInterval time.Duration, speed float64) (*Replay, error) {
	if barInterval <= 0 {
		return nil, fmt.Errorf("clock.NewReplay: bar interval must be positive")
	}
	if speed <= 0 {
		return nil, fmt.Errorf("clock.NewReplay: speed must be positive")
	}
	every := time.Duration(float64(barInterval) / speed)
	return &Replay{
		inner:   inner,
		ctx:     ctx,
		limiter: rate.NewLimiter(rate.Every(every), 1),
	}, nil
}

// Tick blocks until the pacing limiter admits the next bar. It returns
// ok=false when the inner clock is exhausted or the context is done.
func (c *Replay) Tick() (domain.Bar, bool) {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return domain.Bar{}, false
	}
	return c.inner.Tick()
}

func (c *Replay) Reset() {
	c.inner.Reset()
}
