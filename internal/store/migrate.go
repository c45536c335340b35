package store

import (
	"encoding/json"

	"github.com/skilltrail/skilltrail/internal/model"
)

// Migrate upgrades a persisted record of any older schema version to the
// current document shape.
//
// Migration is total: a well-formed older document never fails and never
// loses data. Fields introduced since the record was written get defaults
// (autoSync true, per-node completedAt/xpAwarded zero values), and the
// document passes through the same coercion as an import. A record whose
// payload is unreadable yields a fresh default document rather than an
// error; local-first startup must not be blocked by a corrupt row.
func Migrate(rec *Record) (doc model.Document, autoSync bool, lastSync model.SyncMetadata) {
	doc, ok := model.DocumentFromJSON(rec.Doc)
	if !ok {
		// An undecodable payload makes the whole row untrustworthy. Fresh
		// defaults with autoSync on let the next pull restore cloud state.
		return model.NewDocument(), true, model.SyncMetadata{}
	}

	// Records older than schema 5 predate the autoSync knob; default on.
	if rec.SchemaVersion >= 5 {
		autoSync = rec.AutoSync
	} else {
		autoSync = true
	}

	if len(rec.LastSync) > 0 {
		_ = json.Unmarshal(rec.LastSync, &lastSync)
	}

	return doc, autoSync, lastSync
}
