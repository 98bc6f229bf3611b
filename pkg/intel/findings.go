package intel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/finding"
	"github.com/sablecore/huntbay/ent/schema"
	"github.com/sablecore/huntbay/pkg/ai"
)

// severityRank orders Finding.severity for the "keep the more severe of
// old/new on re-sighting" rule (spec §4.6).
var severityRank = map[string]int{
	"info":     0,
	"low":      1,
	"medium":   2,
	"high":     3,
	"critical": 4,
}

// FindingStore persists Findings deduplicated by (asset_id, fingerprint),
// satisfying ai.FindingStore.
type FindingStore struct {
	client *ent.Client
}

// NewFindingStore constructs a FindingStore over client.
func NewFindingStore(client *ent.Client) *FindingStore {
	return &FindingStore{client: client}
}

// UpsertFinding implements ai.FindingStore (spec §4.6): compute the
// fingerprint, and either bump an existing Finding's sighting_count/
// last_seen/tags/severity, or insert a new row. The whole check-then-write
// runs in one transaction so two concurrent hunts surfacing the same
// Finding don't race into duplicate rows.
func (s *FindingStore) UpsertFinding(ctx context.Context, assetID, sessionID, huntID string, f ai.ExtractedFinding) (findingID, fingerprint string, newSighting bool, err error) {
	fingerprint = computeFingerprint(string(finding.KindAiReport), f.Title, f.Tags)

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return "", "", false, fmt.Errorf("intel: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existing, qErr := tx.Finding.Query().
		Where(finding.AssetIDEQ(assetID), finding.FingerprintEQ(fingerprint)).
		Only(ctx)
	if qErr != nil && !ent.IsNotFound(qErr) {
		err = fmt.Errorf("intel: querying existing finding: %w", qErr)
		return "", "", false, err
	}

	if existing == nil {
		var remediation *schema.Remediation
		if f.Remediation != nil {
			remediation = &schema.Remediation{
				Immediate: f.Remediation.Immediate,
				ShortTerm: f.Remediation.ShortTerm,
				LongTerm:  f.Remediation.LongTerm,
			}
		}

		id := uuid.NewString()
		create := tx.Finding.Create().
			SetID(id).
			SetAssetID(assetID).
			SetSessionID(sessionID).
			SetKind(finding.KindAiReport).
			SetTitle(f.Title).
			SetSeverity(finding.Severity(f.Severity)).
			SetConfidence(f.Confidence).
			SetFingerprint(fingerprint).
			SetSightingCount(1).
			SetTags(f.Tags)
		if huntID != "" {
			create = create.SetHuntID(huntID)
		}
		if f.STIXBundle != nil {
			create = create.SetStixBundle(f.STIXBundle)
		}
		if remediation != nil {
			create = create.SetRemediation(remediation)
		}

		if _, cErr := create.Save(ctx); cErr != nil {
			err = fmt.Errorf("intel: creating finding: %w", cErr)
			return "", "", false, err
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("intel: commit create finding: %w", err)
			return "", "", false, err
		}
		return id, fingerprint, true, nil
	}

	update := tx.Finding.UpdateOneID(existing.ID).
		AddSightingCount(1).
		SetLastSeen(time.Now()).
		SetTags(unionTags(existing.Tags, f.Tags))

	if severityRank[f.Severity] > severityRank[string(existing.Severity)] {
		update = update.SetSeverity(finding.Severity(f.Severity))
	}
	if f.Confidence > existing.Confidence {
		update = update.SetConfidence(f.Confidence)
	}

	// Remediation is always overwritten with the latest sighting's advice,
	// not accumulated like severity/confidence/tags (spec §4.6).
	if f.Remediation != nil {
		update = update.SetRemediation(&schema.Remediation{
			Immediate: f.Remediation.Immediate,
			ShortTerm: f.Remediation.ShortTerm,
			LongTerm:  f.Remediation.LongTerm,
		})
	} else {
		update = update.ClearRemediation()
	}

	if _, uErr := update.Save(ctx); uErr != nil {
		err = fmt.Errorf("intel: updating finding %s: %w", existing.ID, uErr)
		return "", "", false, err
	}
	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("intel: commit update finding: %w", err)
		return "", "", false, err
	}
	return existing.ID, fingerprint, false, nil
}

// ListFindings returns assetID's Findings newest-first (spec §6's
// list_findings(?asset_id,?session_id)), optionally narrowed to a single
// origin session.
func (s *FindingStore) ListFindings(ctx context.Context, assetID, sessionID string) ([]*ent.Finding, error) {
	q := s.client.Finding.Query().
		Where(finding.AssetIDEQ(assetID)).
		Order(ent.Desc(finding.FieldLastSeen))
	if sessionID != "" {
		q = q.Where(finding.SessionIDEQ(sessionID))
	}
	findings, err := q.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("intel: listing findings for asset %s: %w", assetID, err)
	}
	return findings, nil
}

// GetFinding returns a single Finding by id (spec §6's get_finding).
func (s *FindingStore) GetFinding(ctx context.Context, id string) (*ent.Finding, error) {
	f, err := s.client.Finding.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("intel: getting finding %s: %w", id, err)
	}
	return f, nil
}

// DeleteFinding removes a Finding by id (spec §6's delete_finding).
func (s *FindingStore) DeleteFinding(ctx context.Context, id string) error {
	if err := s.client.Finding.DeleteOneID(id).Exec(ctx); err != nil {
		return fmt.Errorf("intel: deleting finding %s: %w", id, err)
	}
	return nil
}

// UpdateStatus transitions a Finding's triage status (spec §6's
// update_status: open/acknowledged/resolved).
func (s *FindingStore) UpdateStatus(ctx context.Context, id, status string) error {
	if err := s.client.Finding.UpdateOneID(id).
		SetStatus(finding.Status(status)).
		Exec(ctx); err != nil {
		return fmt.Errorf("intel: updating finding %s status: %w", id, err)
	}
	return nil
}

func unionTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, t := range append(append([]string{}, a...), b...) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
