package observability

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/valter-silva-au/taskpulse/internal/storage"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// DefaultHistoryKey is the slot holding the analytics history.
const DefaultHistoryKey = "analytics-history"

// DefaultHistoryCapacity is the number of daily rollups kept.
const DefaultHistoryCapacity = 90

// HistoryRecorder keeps one AnalyticsSnapshot per calendar day, oldest
// first. Recording twice on the same day replaces that day's rollup.
type HistoryRecorder struct {
	mu       sync.Mutex
	store    storage.Store
	key      string
	capacity int
	logger   zerolog.Logger
}

// NewHistoryRecorder creates a HistoryRecorder. Empty key and non-positive
// capacity fall back to the defaults.
func NewHistoryRecorder(store storage.Store, key string, capacity int, logger zerolog.Logger) *HistoryRecorder {
	if key == "" {
		key = DefaultHistoryKey
	}
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryRecorder{store: store, key: key, capacity: capacity, logger: logger}
}

// Record summarizes snap as of now and stores it as today's rollup.
func (h *HistoryRecorder) Record(snap models.Snapshot, now time.Time) (models.AnalyticsSnapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rollup := Summarize(snap.ProjectTasks, snap.AdHocTasks, now)
	history := h.read()

	if n := len(history); n > 0 && sameDay(history[n-1].Date, rollup.Date) {
		history[n-1] = rollup
	} else {
		history = append(history, rollup)
	}
	if len(history) > h.capacity {
		history = history[len(history)-h.capacity:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return rollup, fmt.Errorf("encoding analytics history: %w", err)
	}
	if err := h.store.Set(h.key, data); err != nil {
		return rollup, fmt.Errorf("saving analytics history: %w", err)
	}
	return rollup, nil
}

// History returns the stored rollups, oldest first.
func (h *HistoryRecorder) History() []models.AnalyticsSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.read()
}

func (h *HistoryRecorder) read() []models.AnalyticsSnapshot {
	data, err := h.store.Get(h.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Error().Err(err).Str("key", h.key).Msg("reading analytics history")
		}
		return []models.AnalyticsSnapshot{}
	}
	var history []models.AnalyticsSnapshot
	if err := json.Unmarshal(data, &history); err != nil {
		h.logger.Warn().Err(err).Str("key", h.key).Msg("ignoring corrupt analytics history")
		return []models.AnalyticsSnapshot{}
	}
	if history == nil {
		history = []models.AnalyticsSnapshot{}
	}
	return history
}

// Summarize rolls the task collections up into counts for the day of now.
func Summarize(project []models.ProjectTask, adhoc []models.AdHocTask, now time.Time) models.AnalyticsSnapshot {
	today := startOfDay(now)
	s := models.AnalyticsSnapshot{Date: today}

	for _, t := range models.Flatten(project, adhoc) {
		b := t.Base()
		s.TotalTasks++
		switch b.Status {
		case models.StatusComplete:
			s.CompletedTasks++
		case models.StatusInProgress:
			s.InProgressTasks++
		case models.StatusBlocked:
			s.BlockedTasks++
		}
		if !b.IsComplete() && dueBefore(t.Due(), today) {
			s.OverdueTasks++
		}
	}
	if s.TotalTasks > 0 {
		s.CompletionRate = round1(float64(s.CompletedTasks) / float64(s.TotalTasks) * 100)
	}

	velocity := CalculateVelocity(project, adhoc, now)
	s.RiskScore = GeneratePredictiveInsights(project, adhoc, velocity, now).RiskScore
	return s
}
