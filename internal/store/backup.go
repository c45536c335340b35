package store

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ExportJSON returns the full document as pretty-printed JSON, the manual
// backup format. ImportState accepts the same payload.
func (s *Store) ExportJSON() ([]byte, error) {
	doc := s.ExportState()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// ExportYAML returns the document as YAML for human-readable backups.
// Keys match the JSON names so the two formats stay interchangeable.
func (s *Store) ExportYAML() ([]byte, error) {
	jsonData, err := s.ExportJSON()
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(jsonData, &generic); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	data, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document as YAML: %w", err)
	}
	return data, nil
}

// ImportYAML restores the document from a YAML backup. Same coercion rules
// as ImportState: any mapping yields a valid document.
func (s *Store) ImportYAML(data []byte) bool {
	var generic map[string]any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return false
	}
	jsonData, err := json.Marshal(generic)
	if err != nil {
		return false
	}
	return s.ImportState(jsonData)
}
