package models

import (
	"sync"
	"time"
)

// NotificationHistoryEntry tracks when a pull request was last announced
type NotificationHistoryEntry struct {
	LastNotifiedAt    time.Time
	NotificationCount uint
}

// NotificationHistory is the in-memory notification state, keyed by pull request ID.
// It lives for the lifetime of the process.
type NotificationHistory struct {
	mu      sync.Mutex
	entries map[int]*NotificationHistoryEntry
}

// NewNotificationHistory creates an empty history
func NewNotificationHistory() *NotificationHistory {
	return &NotificationHistory{entries: make(map[int]*NotificationHistoryEntry)}
}

// ShouldNotify reports whether the pull request may be announced at now.
// It does not modify the history.
func (h *NotificationHistory) ShouldNotify(id int, now time.Time, throttle time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.allowed(id, now, throttle)
}

// RecordNotification marks the pull request as announced at now
func (h *NotificationHistory) RecordNotification(id int, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.record(id, now)
}

// TryNotify checks and records in one step. It returns false when the
// pull request was already announced within the throttle interval.
func (h *NotificationHistory) TryNotify(id int, now time.Time, throttle time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.allowed(id, now, throttle) {
		return false
	}
	h.record(id, now)
	return true
}

// Prune drops every entry whose ID is not in keep and returns how many were removed
func (h *NotificationHistory) Prune(keep map[int]struct{}) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id := range h.entries {
		if _, ok := keep[id]; !ok {
			delete(h.entries, id)
			removed++
		}
	}
	return removed
}

// Entry returns a copy of the entry for id
func (h *NotificationHistory) Entry(id int) (NotificationHistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.entries[id]
	if !ok {
		return NotificationHistoryEntry{}, false
	}
	return *entry, true
}

// Len returns the number of tracked pull requests
func (h *NotificationHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.entries)
}

func (h *NotificationHistory) allowed(id int, now time.Time, throttle time.Duration) bool {
	entry, ok := h.entries[id]
	if !ok || entry.NotificationCount == 0 {
		return true
	}
	return now.Sub(entry.LastNotifiedAt) >= throttle
}

func (h *NotificationHistory) record(id int, now time.Time) {
	entry, ok := h.entries[id]
	if !ok {
		entry = &NotificationHistoryEntry{LastNotifiedAt: now}
		h.entries[id] = entry
	}
	entry.NotificationCount++
	entry.LastNotifiedAt = now
}
