package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "editorhost",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"window", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "editorhost",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"window", "method", "path", "status"},
	)
	dispatcherMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "editorhost",
			Subsystem: "dispatcher",
			Name:      "messages_total",
			Help:      "Inter-process control messages by direction, type and result.",
		},
		[]string{"direction", "type", "result"},
	)
	pendingForceQuits = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "editorhost",
			Subsystem: "dispatcher",
			Name:      "pending_force_quits",
			Help:      "Windows currently being torn down.",
		},
	)
	forceQuits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "editorhost",
			Subsystem: "activity",
			Name:      "force_quits_total",
			Help:      "Force-quit requests by the path that handled them.",
		},
		[]string{"target", "path"},
	)
	spawns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "editorhost",
			Subsystem: "activity",
			Name:      "spawns_total",
			Help:      "New instance launches by window role and outcome.",
		},
		[]string{"window", "mode", "success"},
	)
	gameMenuActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "editorhost",
			Subsystem: "gamemenu",
			Name:      "actions_total",
			Help:      "Game menu actions applied to the runtime.",
		},
		[]string{"action", "applied"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			dispatcherMessages,
			pendingForceQuits,
			forceQuits,
			spawns,
			gameMenuActions,
		)
	})
}

func RecordHTTPRequest(window, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(window, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(window, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordDispatcherMessage counts one control message. direction is "in" or "out".
func RecordDispatcherMessage(direction, messageType, result string) {
	RegisterMetrics()
	dispatcherMessages.WithLabelValues(direction, messageType, result).Inc()
}

func SetPendingForceQuits(n int) {
	RegisterMetrics()
	pendingForceQuits.Set(float64(n))
}

func RecordForceQuit(target, path string) {
	RegisterMetrics()
	forceQuits.WithLabelValues(target, path).Inc()
}

// RecordSpawn counts a launch. mode is "spawn", "restart" or "deferred".
func RecordSpawn(window, mode string, success bool) {
	RegisterMetrics()
	spawns.WithLabelValues(window, mode, strconv.FormatBool(success)).Inc()
}

func RecordGameMenuAction(action string, applied bool) {
	RegisterMetrics()
	gameMenuActions.WithLabelValues(action, strconv.FormatBool(applied)).Inc()
}
