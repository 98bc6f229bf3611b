package api

import "time"

// AssetResponse is returned for asset reads.
type AssetResponse struct {
	ID          string `json:"id"`
	Hostname    string `json:"hostname"`
	IPAddress   string `json:"ip_address"`
	OSType      string `json:"os_type"`
	SSHPort     int    `json:"ssh_port"`
	SSHUsername string `json:"ssh_username"`
	SudoPolicy  string `json:"sudo_policy,omitempty"`
}

// SessionResponse is returned for session reads.
type SessionResponse struct {
	SessionID    string    `json:"session_id"`
	AssetID      string    `json:"asset_id"`
	AnalystID    string    `json:"analyst_id"`
	Mode         string    `json:"mode"`
	State        string    `json:"state"`
	LockedBy     string    `json:"locked_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	TerminatedAt time.Time `json:"terminated_at,omitempty"`
}

// HuntResponse is returned for hunt run reads.
type HuntResponse struct {
	HuntID string `json:"hunt_id"`
	Status string `json:"status"`
}

// HuntDetailResponse is returned for GET /api/v1/hunts/:hunt_id.
type HuntDetailResponse struct {
	HuntID        string     `json:"hunt_id"`
	SessionID     string     `json:"session_id"`
	ModuleID      string     `json:"module_id"`
	RunAI         bool       `json:"run_ai"`
	Status        string     `json:"status"`
	FindingsCount int        `json:"findings_count"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	AIReportText  string     `json:"ai_report_text,omitempty"`
}

// AIReportResponse is returned for hunts session_reports/asset_reports.
type AIReportResponse struct {
	ReportID     string    `json:"report_id"`
	HuntID       string    `json:"hunt_id"`
	SessionID    string    `json:"session_id"`
	AssetID      string    `json:"asset_id"`
	Provider     string    `json:"provider"`
	ModelName    string    `json:"model_name"`
	ReportText   string    `json:"report_text"`
	Summary      string    `json:"summary,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HuntModuleResponse is returned for hunt module reads.
type HuntModuleResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	OSTypes      []string `json:"os_types"`
	Tags         []string `json:"tags"`
	SeverityHint string   `json:"severity_hint"`
	Source       string   `json:"source"`
}

// FindingResponse is returned for finding reads.
type FindingResponse struct {
	ID            string    `json:"id"`
	AssetID       string    `json:"asset_id"`
	Title         string    `json:"title"`
	Severity      string    `json:"severity"`
	Confidence    float64   `json:"confidence"`
	Status        string    `json:"status"`
	SightingCount int       `json:"sighting_count"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
}

// TokenResponse is returned by login/refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// errorResponse is the JSON shape every error returns.
type errorResponse struct {
	Error string `json:"error"`
}
