package domain

// Stages of a scan, in execution order.
const (
	StageIdle            = "idle"
	StageStarted         = "started"
	StageManifestParsing = "manifest_parsing"
	StageGitScanning     = "git_scanning"
	StageDiffAnalysis    = "diff_analysis"
	StageCompleted       = "completed"
	StageError           = "error"
)

// Progress is one progress snapshot emitted by a long-running operation.
type Progress struct {
	Stage       string `json:"stage"`
	CurrentStep int    `json:"currentStep"`
	TotalSteps  int    `json:"totalSteps"`
	CurrentItem string `json:"currentItem,omitempty"`
	Message     string `json:"message,omitempty"`
	Percentage  int    `json:"percentage"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
}
