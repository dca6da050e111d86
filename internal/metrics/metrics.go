package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventhall"

// Registry is the Prometheus registry every collector in the server
// registers against.
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels on a constant gauge.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// EventsCreatedTotal counts event submissions entering moderation.
var EventsCreatedTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_created_total",
		Help:      "Total number of events submitted for approval",
	},
)

// EventsModeratedTotal counts moderation decisions by resulting status.
var EventsModeratedTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_moderated_total",
		Help:      "Total number of event moderation decisions",
	},
	[]string{"status"},
)

// LikesToggledTotal counts like toggles by resulting state.
var LikesToggledTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "likes_toggled_total",
		Help:      "Total number of like toggles",
	},
	[]string{"liked"},
)

// RegistrationsTotal counts successful event registrations.
var RegistrationsTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of event registrations",
	},
)

// AdminApplicationsTotal counts admin application submissions and
// review decisions by outcome.
var AdminApplicationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_applications_total",
		Help:      "Total number of admin application events",
	},
	[]string{"action"}, // action: submitted|approved|rejected
)

// EmailsSentTotal counts notification emails by kind and outcome.
var EmailsSentTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Total number of notification email attempts",
	},
	[]string{"kind", "outcome"},
)

// Init registers runtime collectors and stamps build information.
func Init(version, commit, buildDate string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
