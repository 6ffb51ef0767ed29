// Package fingerprint computes the deterministic hash over a correction
// lineage. Two runs over identical input text with an identical catalogue
// version produce an identical hash; the hash is a pure function of the
// ordered correction list and catalogue version, never of wall-clock time,
// request id, or environment.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Record is one lineage entry in canonical form. Fields are declared in
// alphabetical order of their JSON names so encoding/json emits a
// canonical, sorted-key serialization.
type Record struct {
	After     string `json:"after"`
	Before    string `json:"before"`
	End       int    `json:"end"`
	PatternID string `json:"pattern_id"`
	Start     int    `json:"start"`
	Tier      int    `json:"tier"`
}

// envelope wraps the lineage with the catalogue version; fields again in
// alphabetical JSON-name order.
type envelope struct {
	CatalogueVersion string   `json:"catalogue_version"`
	Corrections      []Record `json:"corrections"`
}

// Compute serializes the ordered correction lineage plus the catalogue
// version and returns the SHA-256 hex digest. The record order is the
// application order and is part of the hash; callers must pass the lineage
// as applied, ascending by original-text offset.
func Compute(records []Record, catalogueVersion string) (string, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(envelope{
		CatalogueVersion: catalogueVersion,
		Corrections:      records,
	})
	if err != nil {
		return "", fmt.Errorf("failed to serialize lineage: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
