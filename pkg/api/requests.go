package api

// CreateAssetRequest is the body for POST /api/v1/assets. The secret itself
// is never sent here: secret_ref points at a value already provisioned in
// the external secrets store (spec §1 Non-goals — secret material never
// lives in the application database, and the Gateway is not the place
// that provisions it either).
type CreateAssetRequest struct {
	Hostname       string `json:"hostname" binding:"required"`
	IPAddress      string `json:"ip_address" binding:"required"`
	OSType         string `json:"os_type"`
	SSHPort        int    `json:"ssh_port"`
	SSHUsername    string `json:"ssh_username" binding:"required"`
	AuthType       string `json:"auth_type" binding:"required"` // "password" | "private_key"
	SecretRef      string `json:"secret_ref" binding:"required"`
	PassphraseRef  string `json:"passphrase_ref,omitempty"`
	SudoPolicy     string `json:"sudo_policy,omitempty"` // "nopasswd" | "reuse_ssh_password" | "custom_password"
}

// PatchAssetRequest is the body for PATCH /api/v1/assets/:id. Every field is
// optional; only non-empty/non-nil fields are applied, so a caller can
// update just the sudo policy without resending hostname/ip/etc.
type PatchAssetRequest struct {
	Hostname    string `json:"hostname,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	OSType      string `json:"os_type,omitempty"`
	SSHPort     int    `json:"ssh_port,omitempty"`
	SSHUsername string `json:"ssh_username,omitempty"`
	SudoPolicy  string `json:"sudo_policy,omitempty"`
}

// UpdateHuntModuleRequest is the body for PUT /api/v1/hunt-modules/:id.
type UpdateHuntModuleRequest struct {
	Source string `json:"source" binding:"required"` // raw markdown
}

// UpdateFindingStatusRequest is the body for PATCH /api/v1/findings/:id/status.
type UpdateFindingStatusRequest struct {
	Status string `json:"status" binding:"required"` // "open" | "acknowledged" | "resolved"
}

// CreateSessionRequest is the body for POST /api/v1/sessions.
type CreateSessionRequest struct {
	AssetID string `json:"asset_id" binding:"required"`
	Mode    string `json:"mode" binding:"required"` // "ai" | "interactive"
}

// EnterModeRequest is the body for POST /api/v1/sessions/:id/mode.
type EnterModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// RunHuntRequest is the body for POST /api/v1/sessions/:id/hunts.
type RunHuntRequest struct {
	ModuleID string `json:"module_id" binding:"required"`
	RunAI    bool   `json:"run_ai"`
}

// CreateHuntModuleRequest is the body for POST /api/v1/hunt-modules.
type CreateHuntModuleRequest struct {
	ID     string `json:"id" binding:"required"`
	Source string `json:"source" binding:"required"` // raw markdown
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body for POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest is the body for POST /api/auth/change-password.
type ChangePasswordRequest struct {
	Username    string `json:"username" binding:"required"`
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}
