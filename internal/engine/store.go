package engine

import (
	"cmp"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lumenlauncher/lumen/internal/notification"
)

// ConversationStore is the durable backing for the conversation mapping.
// Load is called once at engine construction; Save after every conversation
// mutation. Implementations swallow their own read failures (an empty
// mapping is always a valid result).
type ConversationStore interface {
	Load() map[string][]notification.ConversationRecord
	Save(map[string][]notification.ConversationRecord) error
	Close() error
}

// store is the authoritative in-memory state. Its mutex also covers the
// write-through persistence call so snapshots reach storage in the same
// order mutations were applied to memory.
type store struct {
	mu            sync.RWMutex
	badges        map[string]notification.BadgeSummary
	conversations map[string]map[string]notification.ConversationRecord
	persist       ConversationStore
	log           zerolog.Logger
}

func newStore(persist ConversationStore, log zerolog.Logger) *store {
	s := &store{
		badges:        make(map[string]notification.BadgeSummary),
		conversations: make(map[string]map[string]notification.ConversationRecord),
		persist:       persist,
		log:           log,
	}
	if persist != nil {
		for appID, records := range persist.Load() {
			byID := make(map[string]notification.ConversationRecord, len(records))
			for _, rec := range records {
				byID[rec.ConversationID] = rec
			}
			if len(byID) > 0 {
				s.conversations[appID] = byID
			}
		}
	}
	return s
}

// updateBadge replaces the badge entry for appID, or removes it when
// summary is nil. Removing an absent entry is a no-op.
func (s *store) updateBadge(appID string, summary *notification.BadgeSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if summary == nil {
		delete(s.badges, appID)
		return
	}
	s.badges[appID] = *summary
}

// updateConversation upserts rec into the nested mapping; the latest record
// for a (appID, ConversationID) key wins.
func (s *store) updateConversation(appID string, rec notification.ConversationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.conversations[appID]
	if byID == nil {
		byID = make(map[string]notification.ConversationRecord)
		s.conversations[appID] = byID
	}
	byID[rec.ConversationID] = rec
	s.saveLocked()
}

// removeConversation deletes one record and prunes the outer entry when the
// application has no records left.
func (s *store) removeConversation(appID, conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.conversations[appID]
	if !ok {
		return
	}
	delete(byID, conversationID)
	if len(byID) == 0 {
		delete(s.conversations, appID)
	}
	s.saveLocked()
}

// badgeSnapshot returns an unfiltered copy of the badge mapping.
func (s *store) badgeSnapshot() map[string]notification.BadgeSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]notification.BadgeSummary, len(s.badges))
	for appID, summary := range s.badges {
		out[appID] = summary
	}
	return out
}

// conversationSnapshot returns an unfiltered copy of the conversation
// mapping with each application's records ordered newest first.
func (s *store) conversationSnapshot() map[string][]notification.ConversationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversationMappingLocked()
}

func (s *store) conversationMappingLocked() map[string][]notification.ConversationRecord {
	out := make(map[string][]notification.ConversationRecord, len(s.conversations))
	for appID, byID := range s.conversations {
		records := make([]notification.ConversationRecord, 0, len(byID))
		for _, rec := range byID {
			records = append(records, rec)
		}
		slices.SortFunc(records, func(a, b notification.ConversationRecord) int {
			if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
				return c
			}
			return cmp.Compare(a.ConversationID, b.ConversationID)
		})
		out[appID] = records
	}
	return out
}

// saveLocked writes the conversation snapshot through to durable storage.
// Write failures are logged and ignored; in-memory state stays the source
// of truth for the running process.
func (s *store) saveLocked() {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(s.conversationMappingLocked()); err != nil {
		s.log.Warn().Err(err).Msg("persisting conversations failed")
	}
}
