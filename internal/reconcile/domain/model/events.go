package model

// RunStartedEvent is published once the credential has been validated
type RunStartedEvent struct {
	RunID      string `json:"runId"`
	ProjectID  string `json:"projectId"`
	DatabaseID string `json:"databaseId"`
}

// FavoriteEvent is the payload of the per-orphan events of a run
type FavoriteEvent struct {
	RunID     string           `json:"runId"`
	ProjectID string           `json:"projectId"`
	Orphan    OrphanedFavorite `json:"orphan"`
	Error     string           `json:"error,omitempty"`
}

// UserScanFailedEvent is published when a user's favorites could not be listed
type UserScanFailedEvent struct {
	RunID     string `json:"runId"`
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	Error     string `json:"error"`
}

// RunCompletedEvent is published once a run reaches Done
type RunCompletedEvent struct {
	ProjectID string     `json:"projectId"`
	Result    *RunResult `json:"result"`
}
