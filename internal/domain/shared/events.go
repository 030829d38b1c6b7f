// Package shared contains common domain types, errors and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Learner events
	EventLearnerRegistered EventType = "learner.registered"

	// Progress events
	EventXPGained                EventType = "progress.xp_gained"
	EventLevelUp                 EventType = "progress.level_up"
	EventModuleCompleted         EventType = "progress.module_completed"
	EventQuizPassed              EventType = "progress.quiz_passed"
	EventSimulationUsed          EventType = "progress.simulation_used"
	EventDailyChallengeCompleted EventType = "progress.daily_challenge_completed"

	// Badge events
	EventBadgeAwarded EventType = "badge.awarded"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a single domain event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus routes domain events to subscribed handlers.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error

	// Close shuts the bus down, waiting for in-flight handlers.
	Close() error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Learner Events
// ═══════════════════════════════════════════════════════════════════════════

// LearnerRegisteredEvent is emitted when a new learner account is created.
type LearnerRegisteredEvent struct {
	BaseEvent
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Payload implements Event interface.
func (e LearnerRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email":        e.Email,
		"display_name": e.DisplayName,
	}
}

// NewLearnerRegisteredEvent creates a new LearnerRegisteredEvent.
func NewLearnerRegisteredEvent(learnerID, email, displayName string) LearnerRegisteredEvent {
	return LearnerRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventLearnerRegistered, learnerID),
		Email:       email,
		DisplayName: displayName,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted on every successful XP award.
type XPGainedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	Amount    int    `json:"amount"`
	NewTotal  int    `json:"new_total"`
	Source    string `json:"source"` // e.g., "module_completed", "quiz_passed"
	Reference string `json:"reference,omitempty"`
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"amount":     e.Amount,
		"new_total":  e.NewTotal,
		"source":     e.Source,
		"reference":  e.Reference,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(learnerID string, amount, newTotal int, source, reference string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, learnerID),
		LearnerID: learnerID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
		Reference: reference,
	}
}

// LevelUpEvent is emitted when an XP award crosses a level threshold.
type LevelUpEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	TotalXP   int    `json:"total_xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
		"total_xp":   e.TotalXP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(learnerID string, oldLevel, newLevel, totalXP int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, learnerID),
		LearnerID: learnerID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// ModuleCompletedEvent is emitted when a learner finishes a course module.
type ModuleCompletedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	ModuleID  string `json:"module_id"`
	XPEarned  int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e ModuleCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"module_id":  e.ModuleID,
		"xp_earned":  e.XPEarned,
	}
}

// NewModuleCompletedEvent creates a new ModuleCompletedEvent.
func NewModuleCompletedEvent(learnerID, moduleID string, xpEarned int) ModuleCompletedEvent {
	return ModuleCompletedEvent{
		BaseEvent: NewBaseEvent(EventModuleCompleted, learnerID),
		LearnerID: learnerID,
		ModuleID:  moduleID,
		XPEarned:  xpEarned,
	}
}

// QuizPassedEvent is emitted when a quiz attempt crosses the passing threshold.
type QuizPassedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	QuizID    string `json:"quiz_id"`
	Score     int    `json:"score"`
	Perfect   bool   `json:"perfect"`
	XPEarned  int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e QuizPassedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"quiz_id":    e.QuizID,
		"score":      e.Score,
		"perfect":    e.Perfect,
		"xp_earned":  e.XPEarned,
	}
}

// NewQuizPassedEvent creates a new QuizPassedEvent.
func NewQuizPassedEvent(learnerID, quizID string, score int, perfect bool, xpEarned int) QuizPassedEvent {
	return QuizPassedEvent{
		BaseEvent: NewBaseEvent(EventQuizPassed, learnerID),
		LearnerID: learnerID,
		QuizID:    quizID,
		Score:     score,
		Perfect:   perfect,
		XPEarned:  xpEarned,
	}
}

// DailyChallengeCompletedEvent is emitted when the daily challenge is claimed.
type DailyChallengeCompletedEvent struct {
	BaseEvent
	LearnerID string    `json:"learner_id"`
	Day       time.Time `json:"day"`
	XPEarned  int       `json:"xp_earned"`
}

// Payload implements Event interface.
func (e DailyChallengeCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"day":        e.Day.Format("2006-01-02"),
		"xp_earned":  e.XPEarned,
	}
}

// NewDailyChallengeCompletedEvent creates a new DailyChallengeCompletedEvent.
func NewDailyChallengeCompletedEvent(learnerID string, day time.Time, xpEarned int) DailyChallengeCompletedEvent {
	return DailyChallengeCompletedEvent{
		BaseEvent: NewBaseEvent(EventDailyChallengeCompleted, learnerID),
		LearnerID: learnerID,
		Day:       day,
		XPEarned:  xpEarned,
	}
}

// SimulationUsedEvent is emitted after a simulation workshop session.
type SimulationUsedEvent struct {
	BaseEvent
	LearnerID    string `json:"learner_id"`
	SimulationID string `json:"simulation_id"`
	XPEarned     int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e SimulationUsedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":    e.LearnerID,
		"simulation_id": e.SimulationID,
		"xp_earned":     e.XPEarned,
	}
}

// NewSimulationUsedEvent creates a new SimulationUsedEvent.
func NewSimulationUsedEvent(learnerID, simulationID string, xpEarned int) SimulationUsedEvent {
	return SimulationUsedEvent{
		BaseEvent:    NewBaseEvent(EventSimulationUsed, learnerID),
		LearnerID:    learnerID,
		SimulationID: simulationID,
		XPEarned:     xpEarned,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeAwardedEvent is emitted when a badge criterion is first satisfied.
type BadgeAwardedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	BadgeID   string `json:"badge_id"`
	BadgeName string `json:"badge_name"`
}

// Payload implements Event interface.
func (e BadgeAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"badge_id":   e.BadgeID,
		"badge_name": e.BadgeName,
	}
}

// NewBadgeAwardedEvent creates a new BadgeAwardedEvent.
func NewBadgeAwardedEvent(learnerID, badgeID, badgeName string) BadgeAwardedEvent {
	return BadgeAwardedEvent{
		BaseEvent: NewBaseEvent(EventBadgeAwarded, learnerID),
		LearnerID: learnerID,
		BadgeID:   badgeID,
		BadgeName: badgeName,
	}
}
