package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
	"github.com/anime-shed/image-quality-go/internal/logger"
)

// AnalysisEvent represents an analysis event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Source         string                 `json:"source,omitempty"`
	Index          int                    `json:"index"`
	Preset         string                 `json:"preset,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	Score          float64                `json:"score,omitempty"`
	Category       analyzer.Category      `json:"category,omitempty"`
	Feature        analyzer.Feature       `json:"feature,omitempty"`
	Value          float64                `json:"value,omitempty"`
	Penalty        float64                `json:"penalty,omitempty"`
	BatchSize      int                    `json:"batch_size,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisCompleted when one image was scored
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when one image produced an Error result
	AnalysisFailed EventType = "analysis_failed"
	// FeaturesExtracted carries the feature readings of one image
	FeaturesExtracted EventType = "features_extracted"
	// RuleMatched when a rule charged a penalty
	RuleMatched EventType = "rule_matched"
	// BatchCompleted when a batch summary was produced
	BatchCompleted EventType = "batch_completed"
	// ImageFetched when image is successfully fetched
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when image fetch fails
	ImageFetchFailed EventType = "image_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them. Per-image pipeline
// steps go to debug so batch runs stay quiet at info.
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"index":      event.Index,
	}
	if event.Source != "" {
		fields["source"] = event.Source
	}
	if event.Preset != "" {
		fields["preset"] = event.Preset
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisCompleted:
		entry.WithFields(logrus.Fields{
			"score":           event.Score,
			"category":        event.Category,
			"processing_time": event.ProcessingTime,
		}).Debug("Image analysis completed")
	case AnalysisFailed:
		entry.Warn("Image analysis failed")
	case FeaturesExtracted:
		entry.Debug("Features extracted")
	case RuleMatched:
		entry.WithFields(logrus.Fields{
			"feature": event.Feature,
			"value":   event.Value,
			"penalty": event.Penalty,
		}).Debug("Rule matched")
	case BatchCompleted:
		entry.WithField("batch_size", event.BatchSize).Info("Batch analysis completed")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface and analyzer.Tracer, so
// it can be attached to an engine directly.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	now       func() time.Time
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
		now:       time.Now,
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer in subscription
// order. A panicking observer is logged and skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	for _, observer := range observers {
		p.notify(ctx, observer, event)
	}
}

func (p *EventPublisher) notify(ctx context.Context, obs Observer, event AnalysisEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"observer":   obs.GetObserverName(),
				"event_type": event.EventType,
				"panic":      r,
			}).Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}

// Trace converts engine trace events into analysis events.
func (p *EventPublisher) Trace(ev analyzer.TraceEvent) {
	event := AnalysisEvent{Index: ev.Index, Preset: ev.Preset, ProcessingTime: ev.Duration}
	switch ev.Stage {
	case analyzer.StageResult:
		event.Score = ev.Score
		event.Category = ev.Category
		event.Success = ev.Err == nil
		event.EventType = AnalysisCompleted
		if ev.Err != nil {
			event.EventType = AnalysisFailed
			event.ErrorMessage = ev.Err.Error()
		}
	case analyzer.StageFeatures:
		event.EventType = FeaturesExtracted
		event.Success = true
		if ev.Features != nil {
			event.Metadata = featureFields(*ev.Features)
		}
	case analyzer.StageRule:
		if ev.Match == nil {
			return
		}
		event.EventType = RuleMatched
		event.Success = true
		event.Feature = ev.Match.Feature
		event.Value = ev.Match.Value
		event.Penalty = ev.Match.Penalty
	case analyzer.StageBatch:
		if ev.Summary == nil {
			return
		}
		event.EventType = BatchCompleted
		event.Success = ev.Summary.Failed == 0
		event.BatchSize = ev.Summary.Total
		event.Score = ev.Summary.AverageScore
		event.Metadata = map[string]interface{}{
			"successful": ev.Summary.Successful,
			"failed":     ev.Summary.Failed,
		}
	default:
		return
	}
	p.NotifyObservers(context.Background(), event)
}

func featureFields(fv analyzer.FeatureVector) map[string]interface{} {
	fields := make(map[string]interface{}, len(analyzer.Features))
	for _, f := range analyzer.Features {
		fields[string(f)] = fv.Value(f)
	}
	return fields
}

var _ analyzer.Tracer = (*EventPublisher)(nil)

var _ Subject = (*EventPublisher)(nil)
