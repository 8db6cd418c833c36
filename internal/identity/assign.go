// Package identity gives every canonical event a stable identifier and a
// revision number that only moves when the event's content actually
// changed.
package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"eventcal/internal/model"
)

// Assigner hands out UIDs unique within the run and maintains per-UID
// sequence numbers in the persisted state.
type Assigner struct {
	state     *State
	namespace string

	taken map[string]bool // UIDs handed out this run
	held  map[string]bool // UIDs claimed by persisted key assignments
}

// NewAssigner wraps the loaded state. namespace becomes the domain part of
// every generated UID.
func NewAssigner(state *State, namespace string) *Assigner {
	held := make(map[string]bool, len(state.Keys))
	for _, uid := range state.Keys {
		held[uid] = true
	}
	return &Assigner{
		state:     state,
		namespace: namespace,
		taken:     make(map[string]bool),
		held:      held,
	}
}

// Sort orders events for assignment: locality-matching events first, ties
// broken by start instant, then summary for full determinism.
func Sort(events []*model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Local != events[j].Local {
			return events[i].Local
		}
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].Summary < events[j].Summary
	})
}

// Assign returns the event's UID and current sequence number, bumping the
// sequence exactly when a previously stored content hash differs from the
// current one. The dedup-key -> UID assignment is recorded in the state so
// a later run reuses it no matter how sources reorder.
func (a *Assigner) Assign(ev *model.Event) (string, int) {
	key := ev.Key()

	uid := a.state.Keys[key]
	if uid == "" || a.taken[uid] {
		uid = a.generate(ev)
	}
	a.taken[uid] = true
	a.state.Keys[key] = uid

	hash := ContentHash(ev)
	prev, known := a.state.UIDs[uid]
	seq := prev.Sequence
	if known && prev.Hash != "" && prev.Hash != hash {
		seq++
	}
	a.state.UIDs[uid] = Entry{Hash: hash, Sequence: seq}

	return uid, seq
}

// generate builds slug-year[-n]@namespace, suffixing until the candidate
// collides with nothing handed out this run nor held by a persisted
// assignment.
func (a *Assigner) generate(ev *model.Event) string {
	base := Slugify(ev.Summary) + "-" + ev.Start.UTC().Format("2006")

	candidate := base
	for i := 2; a.occupied(candidate); i++ {
		candidate = base + "-" + strconv.Itoa(i)
	}
	return candidate + "@" + a.namespace
}

func (a *Assigner) occupied(candidate string) bool {
	uid := candidate + "@" + a.namespace
	return a.taken[uid] || a.held[uid]
}

// ContentHash digests the fields whose change should be visible to
// calendar clients as a new revision.
func ContentHash(ev *model.Event) string {
	blob := strings.Join([]string{
		ev.Summary,
		ev.Start.UTC().Format(time.RFC3339),
		ev.End.UTC().Format(time.RFC3339),
		ev.Location,
		ev.Description,
		ev.URL,
	}, "|")
	sum := sha1.Sum([]byte(blob))
	return hex.EncodeToString(sum[:])
}
