package intel

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/aireport"
)

// ReportStore persists AIReport rows, satisfying ai.ReportRecorder.
type ReportStore struct {
	client *ent.Client
}

// NewReportStore constructs a ReportStore over client.
func NewReportStore(client *ent.Client) *ReportStore {
	return &ReportStore{client: client}
}

// SaveAIReport implements ai.ReportRecorder. It also denormalizes
// reportText onto the owning Hunt row's ai_report_text column (spec §3's
// Hunt.ai_report_text: "concatenation of ai.reasoning_chunk payloads; may
// be partial on error") so a Hunt can be read without a join.
func (s *ReportStore) SaveAIReport(ctx context.Context, huntID, sessionID, assetID, provider, modelName, reportText, summary string, inputTokens, outputTokens, durationMs *int, errMsg string) error {
	create := s.client.AIReport.Create().
		SetID(uuid.NewString()).
		SetHuntID(huntID).
		SetSessionID(sessionID).
		SetAssetID(assetID).
		SetProvider(provider).
		SetModelName(modelName).
		SetReportText(reportText)

	if summary != "" {
		create = create.SetSummary(summary)
	}
	if inputTokens != nil {
		create = create.SetInputTokens(*inputTokens)
	}
	if outputTokens != nil {
		create = create.SetOutputTokens(*outputTokens)
	}
	if durationMs != nil {
		create = create.SetDurationMs(*durationMs)
	}
	if errMsg != "" {
		create = create.SetErrorMessage(errMsg)
	}

	if err := create.Exec(ctx); err != nil {
		return fmt.Errorf("intel: saving ai report for hunt %s: %w", huntID, err)
	}

	if reportText != "" {
		if err := s.client.Hunt.UpdateOneID(huntID).SetAiReportText(reportText).Exec(ctx); err != nil {
			return fmt.Errorf("intel: denormalizing ai report text onto hunt %s: %w", huntID, err)
		}
	}

	return nil
}

// ListBySession returns every AIReport produced within sessionID, newest
// first (spec §6's hunts session_reports).
func (s *ReportStore) ListBySession(ctx context.Context, sessionID string) ([]*ent.AIReport, error) {
	reports, err := s.client.AIReport.Query().
		Where(aireport.SessionIDEQ(sessionID)).
		Order(ent.Desc(aireport.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("intel: listing ai reports for session %s: %w", sessionID, err)
	}
	return reports, nil
}

// ListByAsset returns every AIReport ever produced against assetID, across
// every session and hunt, newest first (spec §6's hunts asset_reports).
func (s *ReportStore) ListByAsset(ctx context.Context, assetID string) ([]*ent.AIReport, error) {
	reports, err := s.client.AIReport.Query().
		Where(aireport.AssetIDEQ(assetID)).
		Order(ent.Desc(aireport.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("intel: listing ai reports for asset %s: %w", assetID, err)
	}
	return reports, nil
}

// Delete removes a single AIReport by id (spec §6's hunts delete_report).
func (s *ReportStore) Delete(ctx context.Context, id string) error {
	if err := s.client.AIReport.DeleteOneID(id).Exec(ctx); err != nil {
		return fmt.Errorf("intel: deleting ai report %s: %w", id, err)
	}
	return nil
}
