package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "confidential_airdrop"

// Result labels
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	EncryptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "encryptions_total",
		Help:      "Number of encryption requests by result.",
	}, []string{"result"})

	DecryptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decryptions_total",
		Help:      "Number of decryption exchanges by result.",
	}, []string{"result"})

	DecryptionGrantsReused = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decryption_grants_reused_total",
		Help:      "Number of decryption exchanges served with a cached grant.",
	})

	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Number of batch airdrop submissions by final status.",
	}, []string{"status"})

	BatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_recipients",
		Help:      "Number of recipients per batch airdrop.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	EngineInitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "engine_init_seconds",
		Help:      "Duration of confidential compute engine bring-ups.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Registry holds every collector of the application.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		EncryptionsTotal,
		DecryptionsTotal,
		DecryptionGrantsReused,
		SubmissionsTotal,
		BatchSize,
		EngineInitSeconds,
		prometheus.NewGoCollector(),
	)
}

// ResultLabel maps an error to the result label.
func ResultLabel(err error) string {
	if err != nil {
		return ResultFailure
	}

	return ResultSuccess
}
