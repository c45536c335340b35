package model

import (
	"encoding/json"
	"strconv"
)

// Sanitize coerces every field of the document to a safe value in place.
// Missing or malformed fields become defaults; nothing is rejected. This is
// the shape validation behind import and migration, so it must be total.
func (d *Document) Sanitize() {
	if d.Theme != "light" {
		d.Theme = "dark"
	}

	if d.Roadmap == nil {
		d.Roadmap = []RoadmapNode{}
	}
	seen := make(map[string]bool, len(d.Roadmap))
	for i := range d.Roadmap {
		n := &d.Roadmap[i]
		if n.ID == "" {
			n.ID = Slugify(n.Title)
		}
		base := n.ID
		for k := 1; seen[n.ID]; k++ {
			n.ID = base + "-" + strconv.Itoa(k)
		}
		seen[n.ID] = true
		if !n.Status.IsValid() {
			n.Status = StatusNotStarted
		}
		if !(n.EstHours > 0) {
			n.EstHours = DefaultEstHours
		}
	}

	if d.NodeDetails == nil {
		d.NodeDetails = map[string]*NodeDetails{}
	}
	for id, det := range d.NodeDetails {
		if det == nil {
			delete(d.NodeDetails, id)
			continue
		}
		if det.Resources == nil {
			det.Resources = []Resource{}
		}
		if det.Tasks == nil {
			det.Tasks = []NodeTask{}
		}
	}

	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	if d.Streak < 0 {
		d.Streak = 0
	}
	if d.XP < 0 {
		d.XP = 0
	}

	// Achievement ids are unique by invariant; drop duplicates, first wins.
	if d.Achievements == nil {
		d.Achievements = []Achievement{}
	}
	unique := d.Achievements[:0]
	ids := make(map[string]bool, len(d.Achievements))
	for _, a := range d.Achievements {
		if a.ID == "" || ids[a.ID] {
			continue
		}
		ids[a.ID] = true
		unique = append(unique, a)
	}
	d.Achievements = unique

	if d.Settings.AssistantModel == "" {
		d.Settings.AssistantModel = DefaultAssistantModel
	}
	if d.Settings.Theme != "light" && d.Settings.Theme != "dark" {
		d.Settings.Theme = d.Theme
	}
}

// DocumentFromJSON decodes an untrusted document, coercing every field to a
// safe default. The bool is false only when the payload is not a JSON object
// at all; any object, however malformed, yields a valid document.
func DocumentFromJSON(data []byte) (Document, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil || probe == nil {
		// JSON null decodes into a nil map without error; treat it like
		// any other non-object.
		return NewDocument(), false
	}

	doc := NewDocument()
	// Decode field by field so one malformed field cannot poison the rest.
	decode := func(key string, dst any) {
		raw, ok := probe[key]
		if !ok {
			return
		}
		_ = json.Unmarshal(raw, dst)
	}
	decode("theme", &doc.Theme)
	decode("roadmap", &doc.Roadmap)
	decode("nodeDetails", &doc.NodeDetails)
	decode("tasks", &doc.Tasks)
	decode("streak", &doc.Streak)
	decode("lastCompleted", &doc.LastCompleted)
	decode("xp", &doc.XP)
	decode("achievements", &doc.Achievements)
	decode("settings", &doc.Settings)

	doc.Sanitize()
	return doc, true
}
