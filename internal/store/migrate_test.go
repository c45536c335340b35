package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/skilltrail/skilltrail/internal/model"
)

func TestMigrateUnreadableDocYieldsFreshDefaults(t *testing.T) {
	metaJSON, _ := json.Marshal(model.SyncMetadata{Version: 3})

	// A persisted auto_sync=false must not survive a corrupt payload: the
	// whole row is untrustworthy, so migration starts over.
	rec := &Record{SchemaVersion: 6, Doc: []byte("corrupted"), AutoSync: false, LastSync: metaJSON}
	doc, autoSync, meta := Migrate(rec)

	if len(doc.Roadmap) != 0 || doc.XP != 0 {
		t.Error("unreadable doc should migrate to a fresh document")
	}
	if !autoSync {
		t.Error("fresh migration should default autoSync on")
	}
	if meta.Version != 0 {
		t.Errorf("fresh migration should drop sync metadata, got version %d", meta.Version)
	}
}

func TestMigratePreSyncSchemaForcesAutoSyncOn(t *testing.T) {
	docJSON, _ := json.Marshal(model.NewDocument())

	// Records written before the sync fields existed carry a meaningless
	// auto_sync column; it must not be trusted.
	old := &Record{SchemaVersion: 4, Doc: docJSON, AutoSync: false}
	if _, autoSync, _ := Migrate(old); !autoSync {
		t.Error("pre-sync schema should force autoSync on")
	}

	current := &Record{SchemaVersion: 6, Doc: docJSON, AutoSync: false}
	if _, autoSync, _ := Migrate(current); autoSync {
		t.Error("current schema should respect a disabled autoSync")
	}
}

func TestMigrateDecodesSyncMetadata(t *testing.T) {
	docJSON, _ := json.Marshal(model.NewDocument())
	pushed := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	metaJSON, _ := json.Marshal(model.SyncMetadata{Version: 12, LastPushAt: &pushed})

	rec := &Record{SchemaVersion: 6, Doc: docJSON, AutoSync: true, LastSync: metaJSON}
	_, _, meta := Migrate(rec)

	if meta.Version != 12 {
		t.Errorf("version = %d, want 12", meta.Version)
	}
	if meta.LastPushAt == nil || !meta.LastPushAt.Equal(pushed) {
		t.Error("lastPushAt should survive migration")
	}

	// Corrupt metadata degrades to zero values, never an error.
	rec.LastSync = []byte("{bad")
	if _, _, meta := Migrate(rec); meta.Version != 0 {
		t.Error("corrupt metadata should migrate to zero value")
	}
}

func TestMigrateSanitizesDocument(t *testing.T) {
	rec := &Record{
		SchemaVersion: 5,
		Doc:           []byte(`{"xp": -40, "theme": "purple", "streak": 2}`),
		AutoSync:      true,
	}
	doc, _, _ := Migrate(rec)

	if doc.XP != 0 {
		t.Errorf("negative XP should clamp, got %d", doc.XP)
	}
	if doc.Theme != "dark" {
		t.Errorf("unknown theme should coerce, got %q", doc.Theme)
	}
	if doc.Streak != 2 {
		t.Errorf("valid streak should survive, got %d", doc.Streak)
	}
}
