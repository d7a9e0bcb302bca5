// Package models contains data structures for Guardian security findings
// and the account-scoped records that surround them.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Finding kinds.
const (
	KindVulnerability = "vulnerability"
	KindBug           = "bug"
	KindCodeSmell     = "code_smell"
	KindPerformance   = "performance"
)

// Finding origins identify which detector produced a finding.
const (
	OriginStatic = "static"
	OriginAI     = "ai"
)

// Confidence tiers derived from cross-detector agreement.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// SecretContext carries the secret classifier's verdict for a
// hardcoded-secret finding. It is only populated on findings produced
// by the hardcoded-secret rule.
type SecretContext struct {
	RiskLevel       string   `json:"risk_level"`
	KeyType         string   `json:"key_type"`
	RotationSteps   []string `json:"rotation_steps"`
	IsTestKey       bool     `json:"is_test_key"`
	IsLiveKey       bool     `json:"is_live_key"`
	IsHighPrivilege bool     `json:"is_high_privilege"`
}

// Finding represents a single reported issue from either detector.
type Finding struct {
	SecretContext    *SecretContext `json:"secret_context,omitempty"`
	Kind             string         `json:"type"`
	Severity         string         `json:"severity"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Remediation      string         `json:"fix"`
	CategoryID       string         `json:"owasp_id"`
	CategoryName     string         `json:"owasp_category"`
	WeaknessID       string         `json:"cwe_id,omitempty"`
	Origin           string         `json:"source"`
	Confidence       string         `json:"confidence,omitempty"`
	ConfidenceReason string         `json:"confidence_reason,omitempty"`
	Fingerprint      string         `json:"vulnerability_hash,omitempty"`
	DetectionMethods []string       `json:"detection_methods,omitempty"`
	Line             int            `json:"line,omitempty"`
}

// IsValid checks if a finding has all required fields.
func (f *Finding) IsValid() error {
	if f.Kind == "" {
		return fmt.Errorf("finding missing required field: type")
	}
	if f.Severity == "" {
		return fmt.Errorf("finding missing required field: severity")
	}
	if f.Title == "" {
		return fmt.Errorf("finding missing required field: title")
	}
	if f.Origin == "" {
		return fmt.Errorf("finding missing required field: source")
	}
	return nil
}

// SeverityCounts tallies active findings per severity tier.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// CountBySeverity tallies findings into per-tier counts.
func CountBySeverity(findings []Finding) SeverityCounts {
	var counts SeverityCounts
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			counts.Critical++
		case SeverityHigh:
			counts.High++
		case SeverityMedium:
			counts.Medium++
		case SeverityLow:
			counts.Low++
		}
	}
	return counts
}

// ConfidenceCounts tallies active findings per confidence tier.
type ConfidenceCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// CountByConfidence tallies findings into per-confidence counts.
func CountByConfidence(findings []Finding) ConfidenceCounts {
	var counts ConfidenceCounts
	for _, f := range findings {
		switch f.Confidence {
		case ConfidenceHigh:
			counts.High++
		case ConfidenceMedium:
			counts.Medium++
		case ConfidenceLow:
			counts.Low++
		}
	}
	return counts
}

// CodeHash returns the content hash identifying the scanned source
// text. This is distinct from finding fingerprints: it identifies the
// code, not an issue in it.
func CodeHash(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
