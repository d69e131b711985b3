package entity

// ScanDirection selects which side of a turn is scanned by the guard
type ScanDirection string

const (
	ScanDirectionInput  ScanDirection = "INPUT"
	ScanDirectionOutput ScanDirection = "OUTPUT"
)

type ScanMetadata struct {
	AIModel string `json:"ai_model,omitempty"`
	AppName string `json:"app_name,omitempty"`
	AppUser string `json:"app_user,omitempty"`
}

type ScanProfile struct {
	ProfileName string `json:"profile_name"`
}

type ScanContent struct {
	Prompt   string `json:"prompt,omitempty"`
	Response string `json:"response,omitempty"`
}

type ScanRequest struct {
	TrID      string        `json:"tr_id,omitempty"`
	Metadata  ScanMetadata  `json:"metadata"`
	AIProfile ScanProfile   `json:"ai_profile"`
	Contents  []ScanContent `json:"contents"`
}

type ScanResponse struct {
	ReportID string `json:"report_id,omitempty"`
	ScanID   string `json:"scan_id,omitempty"`
	Category string `json:"category,omitempty"`
	Action   string `json:"action"`
}

const ScanActionAllow = "allow"

// Verdict is the guard decision for one scan
type Verdict struct {
	Allowed bool
	Action  string
	ScanID  string
}
