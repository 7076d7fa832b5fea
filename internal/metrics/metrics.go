package metrics

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "cryptoalerts"
	subsystem = "telegram_bot"
)

// Store persists metric snapshots between restarts
type Store interface {
	SaveMetric(name, labelKey, labelValue string, value float64) error
	GetMetric(name string) (float64, error)
	GetMetricsWithLabels(name string) (map[string]map[string]float64, error)
}

// BotMetrics groups the bot's prometheus collectors. A nil *BotMetrics is a
// valid no-op recorder.
type BotMetrics struct {
	CommandsProcessed  prometheus.Counter
	MessagesHandled    prometheus.Counter
	ChannelsCount      prometheus.Gauge
	ChannelNames       *prometheus.CounterVec
	MessagesPerChannel *prometheus.CounterVec
	AlertsTriggered    prometheus.Counter
	QuoteFailures      prometheus.Counter
	RateLimited        prometheus.Counter

	mutex       sync.Mutex
	channelsSet map[int64]string
}

// NewBotMetrics creates the collectors and registers them with reg.
// activeAlerts backs the active_alerts gauge and may be nil.
func NewBotMetrics(reg prometheus.Registerer, activeAlerts func() int) (*BotMetrics, error) {
	m := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		ChannelsCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "channels_count",
			Help:      "The current number of unique chats the bot is operating in",
		}),
		ChannelNames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "channel_names",
				Help:      "Tracks chats the bot has interacted with",
			},
			[]string{"chat_id", "chat_name"},
		),
		MessagesPerChannel: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "messages_per_channel",
				Help:      "The total number of messages handled per chat",
			},
			[]string{"chat_id", "chat_name"},
		),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alerts_triggered",
			Help:      "The total number of price alerts that fired",
		}),
		QuoteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "quote_failures",
			Help:      "The total number of alert checks skipped because no quote was available",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rate_limited",
			Help:      "The total number of messages dropped by the per-user rate limiter",
		}),
		channelsSet: make(map[int64]string),
	}

	collectors := []prometheus.Collector{
		m.CommandsProcessed,
		m.MessagesHandled,
		m.ChannelsCount,
		m.ChannelNames,
		m.MessagesPerChannel,
		m.AlertsTriggered,
		m.QuoteFailures,
		m.RateLimited,
	}
	if activeAlerts != nil {
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_alerts",
			Help:      "The current number of active price alerts",
		}, func() float64 { return float64(activeAlerts()) }))
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "could not register collector")
		}
	}

	return m, nil
}

// CommandProcessed counts a command whose reply was sent
func (m *BotMetrics) CommandProcessed() {
	if m == nil {
		return
	}
	m.CommandsProcessed.Inc()
}

// MessageHandled counts an incoming command message and the chat it came from
func (m *BotMetrics) MessageHandled(chatID int64, chatName string) {
	if m == nil {
		return
	}
	m.MessagesHandled.Inc()
	m.updateChannelsSet(chatID, chatName)
	m.MessagesPerChannel.WithLabelValues(strconv.FormatInt(chatID, 10), chatName).Inc()
}

// AlertTriggered counts a fired alert
func (m *BotMetrics) AlertTriggered() {
	if m == nil {
		return
	}
	m.AlertsTriggered.Inc()
}

// QuoteFailed counts a check skipped for lack of a quote
func (m *BotMetrics) QuoteFailed() {
	if m == nil {
		return
	}
	m.QuoteFailures.Inc()
}

// MessageRateLimited counts a message dropped by the rate limiter
func (m *BotMetrics) MessageRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

func (m *BotMetrics) updateChannelsSet(chatID int64, chatName string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.channelsSet[chatID]; !exists {
		m.channelsSet[chatID] = chatName
		m.ChannelsCount.Set(float64(len(m.channelsSet)))

		m.ChannelNames.WithLabelValues(strconv.FormatInt(chatID, 10), chatName).Inc()
	}
}

// Load restores counters from the store
func (m *BotMetrics) Load(store Store) error {
	if m == nil || store == nil {
		return nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for name, counter := range map[string]prometheus.Counter{
		"commands_processed": m.CommandsProcessed,
		"messages_handled":   m.MessagesHandled,
		"alerts_triggered":   m.AlertsTriggered,
		"quote_failures":     m.QuoteFailures,
		"rate_limited":       m.RateLimited,
	} {
		value, err := store.GetMetric(name)
		if err != nil {
			return errors.Wrapf(err, "load %s", name)
		}
		counter.Add(value)
	}

	channels, err := store.GetMetricsWithLabels("channel_names")
	if err != nil {
		return errors.Wrap(err, "load channel_names")
	}
	for chatIDStr, names := range channels {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Warnf("Failed to parse chatID %s: %v", chatIDStr, err)
			continue
		}
		for chatName := range names {
			m.ChannelNames.WithLabelValues(chatIDStr, chatName).Add(1)
			m.channelsSet[chatID] = chatName
		}
	}
	m.ChannelsCount.Set(float64(len(m.channelsSet)))

	perChannel, err := store.GetMetricsWithLabels("messages_per_channel")
	if err != nil {
		return errors.Wrap(err, "load messages_per_channel")
	}
	for chatID, names := range perChannel {
		for chatName, value := range names {
			m.MessagesPerChannel.WithLabelValues(chatID, chatName).Add(value)
		}
	}

	log.Info("Metrics loaded from database.")
	return nil
}

// Save writes a snapshot of every counter to the store
func (m *BotMetrics) Save(store Store) error {
	if m == nil || store == nil {
		return nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for name, counter := range map[string]prometheus.Counter{
		"commands_processed": m.CommandsProcessed,
		"messages_handled":   m.MessagesHandled,
		"alerts_triggered":   m.AlertsTriggered,
		"quote_failures":     m.QuoteFailures,
		"rate_limited":       m.RateLimited,
	} {
		if err := store.SaveMetric(name, "", "", GetMetricValue(counter)); err != nil {
			return errors.Wrapf(err, "save %s", name)
		}
	}

	for chatID, chatName := range m.channelsSet {
		if err := store.SaveMetric("channel_names", fmt.Sprintf("%d", chatID), chatName, 1); err != nil {
			return errors.Wrap(err, "save channel_names")
		}
	}

	metricChan := make(chan prometheus.Metric)
	go func() {
		m.MessagesPerChannel.Collect(metricChan)
		close(metricChan)
	}()

	var saveErr error
	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Warnf("Failed to read messages_per_channel metric: %v", err)
			continue
		}
		var chatID, chatName string
		for _, label := range metricProto.GetLabel() {
			switch label.GetName() {
			case "chat_id":
				chatID = label.GetValue()
			case "chat_name":
				chatName = label.GetValue()
			}
		}
		if saveErr != nil {
			continue
		}
		saveErr = store.SaveMetric("messages_per_channel", chatID, chatName, metricProto.GetCounter().GetValue())
	}
	if saveErr != nil {
		return errors.Wrap(saveErr, "save messages_per_channel")
	}

	log.Debug("Metrics saved to database.")
	return nil
}

// GetMetricValue reads the current value of a single counter or gauge
func GetMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	m, ok := <-metricChan
	if !ok {
		return 0
	}

	metricProto := &dto.Metric{}
	if err := m.Write(metricProto); err != nil {
		log.Warnf("Failed to read metric value: %v", err)
		return 0
	}

	switch {
	case metricProto.Counter != nil:
		return metricProto.Counter.GetValue()
	case metricProto.Gauge != nil:
		return metricProto.Gauge.GetValue()
	}
	return 0
}
