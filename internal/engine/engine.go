// Package engine implements the notification aggregation and badge engine:
// the authoritative notification store, allowlist filtering, durable
// conversation persistence, and reactive snapshot publication.
package engine

import (
	"sync"

	"github.com/lumenlauncher/lumen/internal/logging"
	"github.com/lumenlauncher/lumen/internal/mediaquery"
	"github.com/lumenlauncher/lumen/internal/notification"
)

// BadgeSnapshot maps application IDs to their current badge summary.
type BadgeSnapshot = map[string]notification.BadgeSummary

// ConversationSnapshot maps application IDs to their conversation records,
// ordered newest first.
type ConversationSnapshot = map[string][]notification.ConversationRecord

// Prefs exposes the launcher preferences the engine reads. Implementations
// must return current values on every call; the engine never caches them.
type Prefs interface {
	BadgeAllowlist() map[string]struct{}
	ConversationAllowlist() map[string]struct{}
}

// Engine aggregates OS notification lifecycle events into two filtered,
// independently subscribable projections. Construct one instance per
// process and pass it to every consumer; New restores the persisted
// conversation feed before any event is processed.
type Engine struct {
	norm  *notification.Normalizer
	store *store
	prefs Prefs

	subsMu    sync.Mutex
	badgeSubs []*Subscription[BadgeSnapshot]
	convSubs  []*Subscription[ConversationSnapshot]
	closed    bool
}

// New creates the engine. persist seeds the conversation mapping and
// receives every subsequent conversation mutation; media resolves playback
// state for transport notifications; prefs supplies the two allowlists.
func New(persist ConversationStore, media mediaquery.Querier, prefs Prefs) *Engine {
	return &Engine{
		norm:  notification.NewNormalizer(media),
		store: newStore(persist, logging.Component("engine")),
		prefs: prefs,
	}
}

// HandlePosted processes a "posted" OS event for appID. payload is the
// posted notification; active is the full list of currently active
// notifications for appID as reported by the OS at call time.
//
// Events for one appID must be delivered in OS order from a single
// goroutine; two concurrent calls for the same appID may commit whichever
// active-list summary finishes last.
func (e *Engine) HandlePosted(appID string, payload notification.Payload, active []notification.Payload) {
	e.store.updateBadge(appID, e.norm.Summarize(active))
	e.store.updateConversation(appID, notification.Conversation(payload))
	e.publishBadges()
	e.publishConversations()
}

// HandleRemoved processes a "removed" OS event for appID. active is the
// remaining list of active notifications for appID. The single-goroutine
// ordering requirement of HandlePosted applies here as well.
func (e *Engine) HandleRemoved(appID string, active []notification.Payload) {
	e.store.updateBadge(appID, e.norm.Summarize(active))
	e.publishBadges()
}

// RemoveConversation deletes one conversation record, pruning the
// application's entry when it was the last one.
func (e *Engine) RemoveConversation(appID, conversationID string) {
	e.store.removeConversation(appID, conversationID)
	e.publishConversations()
}

// BadgeSnapshot returns the current badge projection, filtered by the
// badge allowlist.
func (e *Engine) BadgeSnapshot() BadgeSnapshot {
	return Filter(e.store.badgeSnapshot(), e.prefs.BadgeAllowlist())
}

// ConversationSnapshot returns the current conversation projection,
// filtered by the conversation allowlist and ordered newest first per
// application.
func (e *Engine) ConversationSnapshot() ConversationSnapshot {
	return Filter(e.store.conversationSnapshot(), e.prefs.ConversationAllowlist())
}

// SubscribeBadges registers a subscriber for the badge projection. The
// current snapshot is queued immediately.
func (e *Engine) SubscribeBadges() *Subscription[BadgeSnapshot] {
	sub := newSubscription(e.unsubscribeBadges)

	e.subsMu.Lock()
	if e.closed {
		e.subsMu.Unlock()
		sub.Close()
		return sub
	}
	e.badgeSubs = append(e.badgeSubs, sub)
	sub.send(e.BadgeSnapshot())
	e.subsMu.Unlock()
	return sub
}

// SubscribeConversations registers a subscriber for the conversation
// projection. The current snapshot is queued immediately.
func (e *Engine) SubscribeConversations() *Subscription[ConversationSnapshot] {
	sub := newSubscription(e.unsubscribeConversations)

	e.subsMu.Lock()
	if e.closed {
		e.subsMu.Unlock()
		sub.Close()
		return sub
	}
	e.convSubs = append(e.convSubs, sub)
	sub.send(e.ConversationSnapshot())
	e.subsMu.Unlock()
	return sub
}

// Close ends all subscriptions and closes the persistence store. The last
// save has already completed by the time Close runs since saves are
// synchronous with their mutation.
func (e *Engine) Close() error {
	e.subsMu.Lock()
	if e.closed {
		e.subsMu.Unlock()
		return nil
	}
	e.closed = true
	badgeSubs := e.badgeSubs
	convSubs := e.convSubs
	e.badgeSubs = nil
	e.convSubs = nil
	e.subsMu.Unlock()

	for _, sub := range badgeSubs {
		sub.Close()
	}
	for _, sub := range convSubs {
		sub.Close()
	}

	if e.store.persist != nil {
		return e.store.persist.Close()
	}
	return nil
}

func (e *Engine) publishBadges() {
	snapshot := e.BadgeSnapshot()

	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, sub := range e.badgeSubs {
		sub.send(snapshot)
	}
}

func (e *Engine) publishConversations() {
	snapshot := e.ConversationSnapshot()

	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, sub := range e.convSubs {
		sub.send(snapshot)
	}
}

func (e *Engine) unsubscribeBadges(sub *Subscription[BadgeSnapshot]) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for i, s := range e.badgeSubs {
		if s == sub {
			e.badgeSubs = append(e.badgeSubs[:i], e.badgeSubs[i+1:]...)
			return
		}
	}
}

func (e *Engine) unsubscribeConversations(sub *Subscription[ConversationSnapshot]) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for i, s := range e.convSubs {
		if s == sub {
			e.convSubs = append(e.convSubs[:i], e.convSubs[i+1:]...)
			return
		}
	}
}
