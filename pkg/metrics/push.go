package metrics

import (
	"context"

	"github.com/kingdave4/Nba-Data-Lake/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// Pusher publishes registered metrics to a Prometheus Pushgateway. The
// pipeline is a one-shot job with no scrape surface, so metrics leave the
// process with an explicit push at the end of a run.
type Pusher struct {
	pusher *push.Pusher
	logger *logger.Logger
	url    string
}

// NewPusher creates a pusher for the given gateway URL. An empty URL yields
// a pusher whose Push is a no-op, so callers do not need to branch.
func NewPusher(url, job string, l *logger.Logger) *Pusher {
	p := &Pusher{
		logger: l,
		url:    url,
	}
	if url != "" {
		p.pusher = push.New(url, job).Gatherer(prometheus.DefaultGatherer)
	}
	return p
}

// Push sends all registered metrics to the gateway
func (p *Pusher) Push(ctx context.Context) error {
	if p.pusher == nil {
		return nil
	}
	p.logger.Info("pushing metrics", zap.String("gateway", p.url))
	return p.pusher.PushContext(ctx)
}
