package service

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/yourusername/pairtrade-analytics/pkg/analytics"
	"github.com/yourusername/pairtrade-analytics/pkg/series"
)

// BarMessage is the JSON bar update published by the resampling layer on
// "bars.<timeframe>.<symbol>".
type BarMessage struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"ts"` // Unix nanoseconds
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// SignalMessage is the snapshot summary published on
// "signals.<timeframe>.<symbol1>-<symbol2>" after each completed bar.
type SignalMessage struct {
	Symbol1     string  `json:"symbol1"`
	Symbol2     string  `json:"symbol2"`
	Timeframe   string  `json:"timeframe"`
	Timestamp   int64   `json:"ts"`
	HedgeRatio  float64 `json:"hedge_ratio"`
	Spread      float64 `json:"spread"`
	ZScore      float64 `json:"zscore"`
	ZScoreValid bool    `json:"zscore_valid"`
	Correlation float64 `json:"correlation"`
}

// pairTracker buffers the two legs of one configured pair.
type pairTracker struct {
	cfg  PairConfig
	leg1 *series.PriceSeries
	leg2 *series.PriceSeries
	mu   sync.Mutex
}

// SignalService subscribes to bar updates and republishes signal snapshots.
// The analytics core stays pure; this adapter owns all bus plumbing.
type SignalService struct {
	config   *Config
	conn     *nats.Conn
	gen      *analytics.SignalGenerator
	trackers []*pairTracker
	subs     []*nats.Subscription
}

// NewSignalService creates the service from a validated configuration.
func NewSignalService(config *Config) *SignalService {
	trackers := make([]*pairTracker, 0, len(config.Pairs))
	for _, p := range config.Pairs {
		trackers = append(trackers, &pairTracker{
			cfg:  p,
			leg1: &series.PriceSeries{Symbol: p.Symbol1},
			leg2: &series.PriceSeries{Symbol: p.Symbol2},
		})
	}
	return &SignalService{
		config:   config,
		gen:      analytics.NewSignalGenerator(),
		trackers: trackers,
	}
}

// Start connects to NATS and subscribes to the bar subjects of every
// configured pair.
func (s *SignalService) Start() error {
	conn, err := nats.Connect(s.config.NATSAddr)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	s.conn = conn
	log.Printf("[SignalService] Connected to NATS at %s", s.config.NATSAddr)

	for _, tracker := range s.trackers {
		tracker := tracker
		for _, symbol := range []string{tracker.cfg.Symbol1, tracker.cfg.Symbol2} {
			subject := fmt.Sprintf("bars.%s.%s", tracker.cfg.Timeframe, symbol)
			sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
				s.onBar(tracker, msg.Data)
			})
			if err != nil {
				return fmt.Errorf("failed to subscribe %s: %w", subject, err)
			}
			s.subs = append(s.subs, sub)
			log.Printf("[SignalService] Subscribed to %s", subject)
		}
	}
	return nil
}

// Stop drains the subscriptions and closes the connection.
func (s *SignalService) Stop() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	if s.conn != nil {
		s.conn.Close()
	}
	log.Println("[SignalService] Stopped")
}

func (s *SignalService) onBar(tracker *pairTracker, data []byte) {
	var bar BarMessage
	if err := json.Unmarshal(data, &bar); err != nil {
		log.Printf("[SignalService] Dropping malformed bar message: %v", err)
		return
	}

	msg, err := s.applyBar(tracker, &bar)
	if err != nil {
		log.Printf("[SignalService] %s/%s: %v", tracker.cfg.Symbol1, tracker.cfg.Symbol2, err)
		return
	}
	if msg == nil {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[SignalService] Failed to encode signal: %v", err)
		return
	}
	subject := fmt.Sprintf("signals.%s.%s-%s", tracker.cfg.Timeframe, tracker.cfg.Symbol1, tracker.cfg.Symbol2)
	if err := s.conn.Publish(subject, payload); err != nil {
		log.Printf("[SignalService] Failed to publish %s: %v", subject, err)
	}
}

// applyBar appends a bar to the matching leg and, once both legs close the
// same timestamp, recomputes the snapshot. Returns nil when there is nothing
// to publish yet.
func (s *SignalService) applyBar(tracker *pairTracker, bar *BarMessage) (*SignalMessage, error) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	var leg *series.PriceSeries
	switch bar.Symbol {
	case tracker.cfg.Symbol1:
		leg = tracker.leg1
	case tracker.cfg.Symbol2:
		leg = tracker.leg2
	default:
		return nil, fmt.Errorf("bar for unexpected symbol %q", bar.Symbol)
	}

	// Out-of-order or duplicate bars are dropped; the resampler re-emits a
	// full bar on gap recovery.
	if n := leg.Len(); n > 0 && bar.Timestamp <= leg.Timestamps[n-1] {
		return nil, nil
	}
	leg.Append(bar.Timestamp, bar.Close, bar.Volume)
	leg.Trim(s.config.Signal.MaxHistory)

	minBars := s.config.Signal.Window
	if minBars < analytics.MinFitPoints {
		minBars = analytics.MinFitPoints
	}
	n1, n2 := tracker.leg1.Len(), tracker.leg2.Len()
	if n1 < minBars || n2 < minBars {
		return nil, nil
	}
	if tracker.leg1.Timestamps[n1-1] != tracker.leg2.Timestamps[n2-1] {
		// Wait for the other leg to close this bar.
		return nil, nil
	}

	pair, err := series.Align(tracker.leg1, tracker.leg2)
	if err != nil {
		return nil, err
	}

	cfg := analytics.SignalConfig{
		Method: analytics.Method(s.config.Signal.Method),
		Window: s.config.Signal.Window,
		Kalman: analytics.KalmanConfig{
			ProcessVar: s.config.Signal.ProcessVar,
			ObsVar:     s.config.Signal.ObsVar,
		},
		// The ADF test is too heavy to run on every bar; consumers request
		// it on demand through the snapshot API instead.
		RunStationarity: false,
	}

	snap, err := s.gen.Snapshot(pair, cfg)
	if err != nil {
		return nil, err
	}

	last := pair.Len() - 1
	msg := &SignalMessage{
		Symbol1:     tracker.cfg.Symbol1,
		Symbol2:     tracker.cfg.Symbol2,
		Timeframe:   tracker.cfg.Timeframe,
		Timestamp:   pair.Timestamps[last],
		HedgeRatio:  snap.Hedge.RatioAt(last),
		Spread:      snap.Spread[last],
		ZScore:      snap.ZScore.Values[last],
		ZScoreValid: snap.ZScore.Defined[last],
		Correlation: snap.Correlation.Values[last],
	}
	return msg, nil
}
