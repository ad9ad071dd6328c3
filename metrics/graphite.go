package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/AlexAkulov/orgfox/helpers"
	"github.com/go-kit/kit/log"
	m "github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/graphite"
	"github.com/rs/zerolog"
)

type graphiteRepo struct {
	sendTicker  *time.Ticker
	graphite    *graphite.Graphite
	endSendLoop func()
}

// newGraphiteRepo collects metrics in memory, start pushes them to the address every sendInterval
func newGraphiteRepo(prefix string, logger *zerolog.Logger) *graphiteRepo {
	return &graphiteRepo{
		graphite:    graphite.New(preparePrefix(prefix), makeLog(logger)),
		endSendLoop: func() {},
	}
}

func (r *graphiteRepo) start(address string, sendInterval time.Duration) {
	r.sendTicker = time.NewTicker(sendInterval)
	ctx, endSend := context.WithCancel(context.Background())
	r.endSendLoop = endSend
	go r.graphite.SendLoop(ctx, r.sendTicker.C, "tcp", address)
}

func makeLog(logger *zerolog.Logger) log.Logger {
	if logger == nil {
		return log.NewNopLogger()
	}
	return helpers.WrapDebug(*logger)
}

func preparePrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, ".")
	return prefix + "."
}

func (r *graphiteRepo) CreateCounter(name string) m.Counter {
	return r.graphite.NewCounter(name)
}

func (r *graphiteRepo) CreateGauge(name string) m.Gauge {
	return r.graphite.NewGauge(name)
}

// histograms report percentiles of 50 buckets
func (r *graphiteRepo) CreateHistogram(name string) m.Histogram {
	return r.graphite.NewHistogram(name, 50)
}

func (r *graphiteRepo) Stop() (err error) {
	defer helpers.RecoverTo(&err)
	if r.sendTicker != nil {
		r.sendTicker.Stop()
	}
	r.endSendLoop()
	return nil
}
