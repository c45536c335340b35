package store

import (
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/skilltrail/skilltrail/internal/model"
)

// openTestDB creates a store database in a temp directory.
func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db, path
}

func TestLoadRecordEmptyDatabase(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	rec, err := db.LoadRecord()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec != nil {
		t.Error("empty database should load a nil record")
	}
}

func TestSaveRecordUpserts(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	first := &Record{SchemaVersion: SchemaVersion, Doc: []byte(`{"xp":1}`), AutoSync: true, SyncStatus: "idle"}
	if err := db.SaveRecord(first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := &Record{SchemaVersion: SchemaVersion, Doc: []byte(`{"xp":2}`), AutoSync: false, SyncStatus: "synced"}
	if err := db.SaveRecord(second); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec, err := db.LoadRecord()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec == nil {
		t.Fatal("record should exist")
	}
	if string(rec.Doc) != `{"xp":2}` {
		t.Errorf("doc = %s, want second write", rec.Doc)
	}
	if rec.AutoSync {
		t.Error("autoSync should reflect second write")
	}
	if rec.SyncStatus != "synced" {
		t.Errorf("syncStatus = %q, want synced", rec.SyncStatus)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	db, path := openTestDB(t)

	s, err := New(db, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	s.SetRoadmap([]model.RawRoadmapItem{{ID: "a", Title: "A", EstHours: 4}})
	s.AddXP(250)
	s.SetAutoSync(false)
	s.SetLastSync(model.SyncMetadata{Version: 7})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2, err := OpenDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s2, err := New(db2, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer s2.Close()

	doc := s2.ExportState()
	if len(doc.Roadmap) != 1 || doc.Roadmap[0].ID != "a" {
		t.Errorf("roadmap did not survive reload: %+v", doc.Roadmap)
	}
	if doc.XP != 250 {
		t.Errorf("XP = %d, want 250", doc.XP)
	}
	if !doc.HasAchievement("level-2") {
		t.Error("achievements should survive reload")
	}
	if s2.AutoSync() {
		t.Error("autoSync should survive reload")
	}
	if s2.LastSync().Version != 7 {
		t.Errorf("sync metadata should survive reload, got version %d", s2.LastSync().Version)
	}
	// Stale status is discarded on load.
	if s2.SyncStatus() != "idle" {
		t.Errorf("reloaded status should reset to idle, got %q", s2.SyncStatus())
	}
}
