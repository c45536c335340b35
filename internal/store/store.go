package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/skilltrail/skilltrail/internal/model"
)

// XP awards. NodeCompletionXP is granted at most once per node across its
// entire lifecycle, including resets.
const (
	NodeCompletionXP = 100
	TaskBaseXP       = 50
	StreakBonusStep  = 5
	StreakBonusCap   = 25
)

// Store holds the canonical document and applies mutations atomically.
//
// Each mutation either fully applies or leaves the document untouched, is
// persisted to the local database, and bumps the change generation so the
// scheduler can observe it. A nil DB gives an ephemeral store (tests).
type Store struct {
	mu     sync.Mutex
	db     *DB
	logger *log.Logger
	now    func() time.Time

	doc        model.Document
	autoSync   bool
	syncStatus string
	lastSync   model.SyncMetadata

	gen   uint64
	dirty chan struct{}
}

// New creates a store backed by db, loading and migrating any persisted
// record. Pass nil db for an in-memory store. If logger is nil, a default
// logger writing to stderr is used.
func New(db *DB, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}

	s := &Store{
		db:         db,
		logger:     logger,
		now:        time.Now,
		doc:        model.NewDocument(),
		autoSync:   true,
		syncStatus: "idle",
		dirty:      make(chan struct{}, 1),
	}

	if db != nil {
		rec, err := db.LoadRecord()
		if err != nil {
			return nil, err
		}
		if rec != nil {
			s.doc, s.autoSync, s.lastSync = Migrate(rec)
			// Stale status from a previous run means nothing now.
			s.syncStatus = "idle"
			if rec.SchemaVersion != SchemaVersion {
				logger.Printf("Migrated store from schema %d to %d", rec.SchemaVersion, SchemaVersion)
			}
		}
	}

	return s, nil
}

// Close persists the current state and closes the backing database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.db != nil {
		s.saveLocked()
	}
	db := s.db
	s.db = nil
	s.mu.Unlock()

	if db != nil {
		return db.Close()
	}
	return nil
}

// saveLocked writes the full record. A failed save is logged, never fatal:
// the in-memory document stays authoritative and the next mutation retries.
func (s *Store) saveLocked() {
	if s.db == nil {
		return
	}
	docJSON, err := json.Marshal(s.doc)
	if err != nil {
		s.logger.Printf("WARNING: failed to encode document: %v", err)
		return
	}
	lastSyncJSON, err := json.Marshal(s.lastSync)
	if err != nil {
		s.logger.Printf("WARNING: failed to encode sync metadata: %v", err)
		lastSyncJSON = nil
	}
	rec := &Record{
		SchemaVersion: SchemaVersion,
		Doc:           docJSON,
		AutoSync:      s.autoSync,
		SyncStatus:    s.syncStatus,
		LastSync:      lastSyncJSON,
		SavedAt:       s.now().UTC(),
	}
	if err := s.db.SaveRecord(rec); err != nil {
		s.logger.Printf("WARNING: failed to persist store: %v", err)
	}
}

// commitLocked persists and, for document mutations, signals the scheduler.
// Sync bookkeeping (status, metadata) persists without signaling so a pull
// can never schedule the push that would re-pull it.
func (s *Store) commitLocked(docChanged bool) {
	s.saveLocked()
	if docChanged {
		s.gen++
		select {
		case s.dirty <- struct{}{}:
		default:
		}
	}
}

// Generation returns a counter that increases on every document mutation.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Dirty returns a channel that receives a signal after document mutations.
// The channel is buffered; rapid mutations coalesce into one pending signal.
func (s *Store) Dirty() <-chan struct{} {
	return s.dirty
}

// ExportState returns a deep-copy snapshot of the document.
func (s *Store) ExportState() model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// ImportState replaces the document with an untrusted decoded one, coercing
// every field. Returns false only when data is not a JSON object. Used for
// manual backup restore, so it counts as a local edit.
func (s *Store) ImportState(data []byte) bool {
	doc, ok := model.DocumentFromJSON(data)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.commitLocked(true)
	return true
}

// ApplyRemote overwrites the document with a pulled remote copy. No merge:
// last writer wins. Does not signal the scheduler, so a pull never queues
// the push that would immediately re-publish the same document.
func (s *Store) ApplyRemote(data []byte) bool {
	doc, ok := model.DocumentFromJSON(data)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.commitLocked(false)
	return true
}

// ResetLocal clears the document to defaults, preserving sync metadata so
// the next poll still knows the remote version.
func (s *Store) ResetLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = model.NewDocument()
	s.commitLocked(true)
}

// ---- roadmap ----

// SetRoadmap normalizes untrusted items and replaces the roadmap.
func (s *Store) SetRoadmap(items []model.RawRoadmapItem) []model.RoadmapNode {
	nodes := model.NormalizeRoadmap(items)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Roadmap = nodes
	s.commitLocked(true)
	return nodes
}

// EnsureNodeDetails lazily seeds default details for a node and returns a
// snapshot of them.
func (s *Store) EnsureNodeDetails(nodeID string) model.NodeDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	det := s.ensureDetailsLocked(nodeID)
	return *det
}

func (s *Store) ensureDetailsLocked(nodeID string) *model.NodeDetails {
	if det, ok := s.doc.NodeDetails[nodeID]; ok && det != nil {
		return det
	}
	title := nodeID
	if n := s.doc.Node(nodeID); n != nil {
		title = n.Title
	}
	det := model.DefaultDetailsFor(title)
	s.doc.NodeDetails[nodeID] = det
	s.commitLocked(true)
	return det
}

// completeNodeLocked runs the shared done-transition logic: set status and
// completedAt (first time only), and award node XP at most once ever.
func (s *Store) completeNodeLocked(n *model.RoadmapNode) {
	if n.Status == model.StatusDone {
		return
	}
	n.Status = model.StatusDone
	if n.CompletedAt == nil {
		t := s.now().UTC()
		n.CompletedAt = &t
	}
	if !n.XPAwarded {
		s.addXPLocked(NodeCompletionXP)
		s.doc.Unlock("first-node", "First Steps", "Completed your first roadmap node.", s.now().UTC())
		n.XPAwarded = true
	}
}

// ToggleNodeTask flips one checklist task. A first completed task moves a
// not-started node to in-progress; if the node becomes eligible it
// transitions to done and awards XP (once ever).
func (s *Store) ToggleNodeTask(nodeID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	det := s.ensureDetailsLocked(nodeID)
	found := false
	anyDone := false
	for i := range det.Tasks {
		if det.Tasks[i].ID == taskID {
			det.Tasks[i].Done = !det.Tasks[i].Done
			found = true
		}
		if det.Tasks[i].Done {
			anyDone = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %s/%s", ErrNoTask, nodeID, taskID)
	}

	if n := s.doc.Node(nodeID); n != nil {
		if anyDone && n.Status == model.StatusNotStarted {
			n.Status = model.StatusInProgress
		}
		if model.Eligible(det) {
			s.completeNodeLocked(n)
		}
	}

	s.commitLocked(true)
	return nil
}

// SetChallengePassed records a grading result. Passing while all tasks are
// done completes the node with the same award-once logic as ToggleNodeTask.
func (s *Store) SetChallengePassed(nodeID string, passed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	det := s.ensureDetailsLocked(nodeID)
	det.Challenge.Passed = passed

	if n := s.doc.Node(nodeID); n != nil && model.Eligible(det) {
		s.completeNodeLocked(n)
	}

	s.commitLocked(true)
}

// SetChallengeSpec fills AI-generated challenge requirements and rubric.
// A node that already has requirements keeps them.
func (s *Store) SetChallengeSpec(nodeID string, requirements []string, rubric *model.Rubric) {
	s.mu.Lock()
	defer s.mu.Unlock()

	det := s.ensureDetailsLocked(nodeID)
	if len(det.Challenge.Requirements) > 0 {
		return
	}
	det.Challenge.Requirements = append([]string(nil), requirements...)
	if rubric != nil {
		det.Challenge.Rubric = rubric
	}
	s.commitLocked(true)
}

// SetNodeStatus is the guarded manual status setter. Transitions away from
// done are rejected (reset is the only way out), and transitions to done
// require eligibility.
func (s *Store) SetNodeStatus(nodeID string, status model.NodeStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.doc.Node(nodeID)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNoNode, nodeID)
	}
	if n.Status == model.StatusDone && status != model.StatusDone {
		return ErrNodeDone
	}
	if status == model.StatusDone {
		if !model.Eligible(s.ensureDetailsLocked(nodeID)) {
			return ErrNotEligible
		}
		s.completeNodeLocked(n)
	} else {
		n.Status = status
	}

	s.commitLocked(true)
	return nil
}

// ResetNode force-downgrades a node to not-started and clears completedAt.
// XPAwarded survives the reset: re-completing a reset node never re-awards.
func (s *Store) ResetNode(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.doc.Node(nodeID)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNoNode, nodeID)
	}
	n.Status = model.StatusNotStarted
	n.CompletedAt = nil

	s.commitLocked(true)
	return nil
}

// ---- global tasks & streak ----

// AddTask prepends a task to the global daily list.
func (s *Store) AddTask(title, relatedNodeID string, dueAt *time.Time) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := model.Task{
		ID:            fmt.Sprintf("%d", s.now().UnixNano()),
		Title:         title,
		RelatedNodeID: relatedNodeID,
		Created:       s.now().UTC(),
		DueAt:         dueAt,
	}
	s.doc.Tasks = append([]model.Task{task}, s.doc.Tasks...)
	s.commitLocked(true)
	return task
}

// ToggleTask flips a task's done flag with no streak or XP effect.
func (s *Store) ToggleTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].ID == taskID {
			s.doc.Tasks[i].Done = !s.doc.Tasks[i].Done
			s.commitLocked(true)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoTask, taskID)
}

// ClearDone removes all finished tasks from the global list.
func (s *Store) ClearDone() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.doc.Tasks[:0]
	removed := 0
	for _, t := range s.doc.Tasks {
		if t.Done {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.doc.Tasks = kept
	if removed > 0 {
		s.commitLocked(true)
	}
	return removed
}

// CompleteTask marks a task done, advances the daily streak at most once
// per calendar day, awards task XP plus a capped streak bonus, and unlocks
// streak achievements (idempotent by id).
func (s *Store) CompleteTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].ID == taskID {
			s.doc.Tasks[i].Done = true
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNoTask, taskID)
	}

	today := model.DateKey(s.now())
	if s.doc.LastCompleted != today {
		s.doc.Streak++
		s.doc.LastCompleted = today
	}

	bonus := s.doc.Streak * StreakBonusStep
	if bonus > StreakBonusCap {
		bonus = StreakBonusCap
	}
	s.addXPLocked(TaskBaseXP + bonus)

	if s.doc.Streak >= 3 {
		s.doc.Unlock("streak-3", "On a Roll", "3-day completion streak.", s.now().UTC())
	}
	if s.doc.Streak >= 7 {
		s.doc.Unlock("streak-7", "Habit Formed", "7-day completion streak.", s.now().UTC())
	}

	s.commitLocked(true)
	return nil
}

// ---- XP ----

// AddXP grants XP and unlocks the level achievement when the total crosses
// into a new level.
//
// When a single grant crosses more than one threshold, only the final
// resulting level's achievement fires; intermediate levels pass silently.
// That matches the rest of the award model (one event per mutation) and is
// a deliberate choice, not an accident.
func (s *Store) AddXP(amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addXPLocked(amount)
	s.commitLocked(true)
}

func (s *Store) addXPLocked(amount int) {
	if amount <= 0 {
		return
	}
	prevLevel := model.LevelFromXP(s.doc.XP)
	s.doc.XP += amount
	newLevel := model.LevelFromXP(s.doc.XP)

	if newLevel > prevLevel {
		title := model.RankTitles[len(model.RankTitles)-1]
		if newLevel-1 < len(model.RankTitles) {
			title = model.RankTitles[newLevel-1]
		}
		s.doc.Unlock(
			fmt.Sprintf("level-%d", newLevel),
			fmt.Sprintf("Level Up: %d (%s)", newLevel, title),
			fmt.Sprintf("Reached level %d.", newLevel),
			s.now().UTC(),
		)
	}
}

// LevelInfo returns the derived level summary for the current XP.
func (s *Store) LevelInfo() model.LevelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.LevelInfoFor(s.doc.XP)
}

// ---- settings & theme ----

// SettingsPatch is a shallow settings merge; nil fields are left unchanged.
type SettingsPatch struct {
	AssistantModel *string
	Theme          *string
}

// UpdateSettings applies a shallow patch to the settings.
func (s *Store) UpdateSettings(patch SettingsPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.AssistantModel != nil && *patch.AssistantModel != "" {
		s.doc.Settings.AssistantModel = *patch.AssistantModel
	}
	if patch.Theme != nil {
		theme := *patch.Theme
		if theme != "light" {
			theme = "dark"
		}
		s.doc.Settings.Theme = theme
		s.doc.Theme = theme
	}
	s.commitLocked(true)
}

// ---- sync bookkeeping (persisted, but never signals the scheduler) ----

// AutoSync reports whether automatic sync is enabled.
func (s *Store) AutoSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoSync
}

// SetAutoSync toggles automatic sync.
func (s *Store) SetAutoSync(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoSync = v
	s.commitLocked(false)
}

// SyncStatus returns the current sync status string.
func (s *Store) SyncStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncStatus
}

// SetSyncStatus records a sync status transition.
func (s *Store) SetSyncStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncStatus == status {
		return
	}
	s.syncStatus = status
	s.commitLocked(false)
}

// LastSync returns the last known sync metadata.
func (s *Store) LastSync() model.SyncMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// SetLastSync records sync metadata after a successful push or pull.
func (s *Store) SetLastSync(meta model.SyncMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = meta
	s.commitLocked(false)
}
