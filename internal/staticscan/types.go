package staticscan

// Scan service request/response structures
type scanRequest struct {
	ProjectKey string `json:"project_key"`
	Path       string `json:"path"`
	Revision   string `json:"revision"`
}

type scanResponse struct {
	ID      string      `json:"id"`
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Issues  []scanIssue `json:"issues,omitempty"`
}

type scanIssue struct {
	Component string `json:"component"`
	Rule      string `json:"rule"`
	CWE       string `json:"cwe,omitempty"`
	Message   string `json:"message"`
	Line      int    `json:"line,omitempty"`
}

const (
	scanStatusPending   = "pending"
	scanStatusRunning   = "running"
	scanStatusCompleted = "completed"
	scanStatusFailed    = "failed"
)
