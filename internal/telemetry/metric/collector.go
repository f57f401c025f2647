package metric

import (
	"context"
	"log/slog"
	"time"

	"github.com/yndnr/streamcoord-go/internal/cluster"
)

// Collector polls a Coordinator on an interval and keeps the gauge-style
// metrics in a Registry current. Counter-style metrics (phase retries,
// elections, membership reconciliations) are not updated by this poller,
// and no other package updates them either.
type Collector struct {
	coord    *cluster.Coordinator
	registry *Registry
	interval time.Duration
	logger   *slog.Logger
}

// NewCollector returns a Collector that samples coord every interval.
func NewCollector(coord *cluster.Coordinator, registry *Registry, interval time.Duration, logger *slog.Logger) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{coord: coord, registry: registry, interval: interval, logger: logger}
}

// Run samples metrics until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	streams := c.coord.Client().Status(context.Background())
	c.registry.StreamsActive.Set(float64(len(streams)))

	voters, err := c.coord.VoterCount()
	if err != nil {
		c.logger.Warn("metric collector: read voter count", "error", err)
		return
	}
	c.registry.RaftVoters.Set(float64(voters))
}
