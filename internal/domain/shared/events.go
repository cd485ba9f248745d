// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the domain and drives side effects like leaderboard updates.
const (
	// User events
	EventUserRegistered EventType = "user.registered"
	EventUserLoggedIn   EventType = "user.logged_in"

	// Progression events
	EventXPGained            EventType = "progression.xp_gained"
	EventLevelUp             EventType = "progression.level_up"
	EventLessonCompleted     EventType = "progression.lesson_completed"
	EventStreakUpdated       EventType = "progression.streak_updated"
	EventStreakBroken        EventType = "progression.streak_broken"
	EventAchievementUnlocked EventType = "progression.achievement_unlocked"

	// Enrollment events
	EventEnrolled    EventType = "enrollment.enrolled"
	EventUnenrolled  EventType = "enrollment.unenrolled"
	EventReactivated EventType = "enrollment.reactivated"
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
	Payload() map[string]any
}

// EventHandler processes a published event.
type EventHandler interface {
	Handle(event Event) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(event Event) error

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(event Event) error {
	return f(event)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
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

// ═══════════════════════════════════════════════════════════════════════════
// User Events
// ═══════════════════════════════════════════════════════════════════════════

// UserEvent is emitted on registration and login.
type UserEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// NewUserEvent creates a UserEvent of the given type.
func NewUserEvent(eventType EventType, userID, username string) UserEvent {
	return UserEvent{
		BaseEvent: NewBaseEvent(eventType, userID),
		UserID:    userID,
		Username:  username,
	}
}

// Payload implements Event.
func (e UserEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":  e.UserID,
		"username": e.Username,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a user gains experience.
type XPGainedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`
	Gained   int    `json:"gained"`
	NewXP    int    `json:"new_xp"`
}

// NewXPGainedEvent creates an XPGainedEvent.
func NewXPGainedEvent(userID, lessonID string, gained, newXP int) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, userID),
		UserID:    userID,
		LessonID:  lessonID,
		Gained:    gained,
		NewXP:     newXP,
	}
}

// Payload implements Event.
func (e XPGainedEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":   e.UserID,
		"lesson_id": e.LessonID,
		"gained":    e.Gained,
		"new_xp":    e.NewXP,
	}
}

// LevelUpEvent is emitted when a user reaches a new level.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
}

// NewLevelUpEvent creates a LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// Payload implements Event.
func (e LevelUpEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// LessonCompletedEvent is emitted when a lesson completion is recorded.
type LessonCompletedEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	LessonID   string `json:"lesson_id"`
	FinalScore int    `json:"final_score"`
	Perfect    bool   `json:"perfect"`
}

// NewLessonCompletedEvent creates a LessonCompletedEvent.
func NewLessonCompletedEvent(userID, lessonID string, finalScore int, perfect bool) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:  NewBaseEvent(EventLessonCompleted, userID),
		UserID:     userID,
		LessonID:   lessonID,
		FinalScore: finalScore,
		Perfect:    perfect,
	}
}

// Payload implements Event.
func (e LessonCompletedEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":     e.UserID,
		"lesson_id":   e.LessonID,
		"final_score": e.FinalScore,
		"perfect":     e.Perfect,
	}
}

// StreakUpdatedEvent is emitted when a user's streak changes.
type StreakUpdatedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	OldStreak int    `json:"old_streak"`
	NewStreak int    `json:"new_streak"`
	Broken    bool   `json:"broken"`
}

// NewStreakUpdatedEvent creates a StreakUpdatedEvent. A broken streak is
// published under EventStreakBroken so handlers can subscribe separately.
func NewStreakUpdatedEvent(userID string, oldStreak, newStreak int, broken bool) StreakUpdatedEvent {
	eventType := EventStreakUpdated
	if broken {
		eventType = EventStreakBroken
	}
	return StreakUpdatedEvent{
		BaseEvent: NewBaseEvent(eventType, userID),
		UserID:    userID,
		OldStreak: oldStreak,
		NewStreak: newStreak,
		Broken:    broken,
	}
}

// Payload implements Event.
func (e StreakUpdatedEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":    e.UserID,
		"old_streak": e.OldStreak,
		"new_streak": e.NewStreak,
		"broken":     e.Broken,
	}
}

// AchievementUnlockedEvent is emitted when an achievement is created.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID          string `json:"user_id"`
	AchievementType string `json:"achievement_type"`
	Title           string `json:"title"`
}

// NewAchievementUnlockedEvent creates an AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementType, title string) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:       NewBaseEvent(EventAchievementUnlocked, userID),
		UserID:          userID,
		AchievementType: achievementType,
		Title:           title,
	}
}

// Payload implements Event.
func (e AchievementUnlockedEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":          e.UserID,
		"achievement_type": e.AchievementType,
		"title":            e.Title,
	}
}

// EnrollmentEvent is emitted on enroll, unenroll, and re-enroll.
type EnrollmentEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	LanguageCode string `json:"language_code"`
}

// NewEnrollmentEvent creates an EnrollmentEvent of the given type.
func NewEnrollmentEvent(eventType EventType, userID, languageCode string) EnrollmentEvent {
	return EnrollmentEvent{
		BaseEvent:    NewBaseEvent(eventType, userID),
		UserID:       userID,
		LanguageCode: languageCode,
	}
}

// Payload implements Event.
func (e EnrollmentEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":       e.UserID,
		"language_code": e.LanguageCode,
	}
}
