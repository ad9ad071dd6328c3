package metrics

import (
	"github.com/AlexAkulov/orgfox/config"
	m "github.com/go-kit/kit/metrics"
	"github.com/rs/zerolog"
)

type IMetricsRepo interface {
	CreateCounter(string) m.Counter
	CreateGauge(string) m.Gauge
	CreateHistogram(string) m.Histogram
	Stop() error
}

// StartMetricsRepo - graphite when an address is configured, otherwise everything is discarded
func StartMetricsRepo(config *config.Metrics, log zerolog.Logger) IMetricsRepo {
	if config.GraphiteAddress != "" && config.Prefix != "" && config.SendInterval > 0 {
		log.Info().Str("service", "metrics").Str("address", config.GraphiteAddress).Msg("send to graphite")
		repo := newGraphiteRepo(config.Prefix, &log)
		repo.start(config.GraphiteAddress, config.SendInterval)
		return repo
	}
	return &noopRepo{}
}
