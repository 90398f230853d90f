package decoder

import "github.com/prometheus/client_golang/prometheus"

var (
	packetsDecoded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "decoder_packets_total",
		Help:      "Total number of datagrams handed to the decoder, by outcome",
	}, []string{"outcome"})

	flowSetsDecoded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "decoder_flowsets_total",
		Help:      "Total number of decoded FlowSets per type",
	}, []string{"type"})

	recordsDecoded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "decoder_data_records_total",
		Help:      "Total number of decoded data records",
	})

	templatesLearned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "decoder_templates_learned_total",
		Help:      "Total number of template definitions installed into the cache",
	})

	unknownTemplates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "decoder_unknown_template_total",
		Help:      "Total number of Data FlowSets skipped because their template was not cached",
	})
)

// Metrics returns the decoder's prometheus collectors for registration by
// the embedding process
func Metrics() []prometheus.Collector {
	return []prometheus.Collector{
		packetsDecoded,
		flowSetsDecoded,
		recordsDecoded,
		templatesLearned,
		unknownTemplates,
	}
}
