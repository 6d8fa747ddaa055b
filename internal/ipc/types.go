package ipc

// StatusRequest asks for a daemon status snapshot.
type StatusRequest struct{}

// StatusResponse describes the running daemon.
type StatusResponse struct {
	Running       bool     `json:"running"`
	PID           int      `json:"pid"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	SignalDir     string   `json:"signal_dir"`
	CacheDir      string   `json:"cache_dir"`
	HistoryPath   string   `json:"history_path,omitempty"`
	Pending       []string `json:"pending,omitempty"`
	Version       string   `json:"version,omitempty"`
}

// StopRequest asks the daemon to shut down gracefully.
type StopRequest struct{}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// TestAnnounceRequest plays a test announcement through the full pipeline.
type TestAnnounceRequest struct {
	// Text overrides the default notification message when set.
	Text string `json:"text,omitempty"`
}

// TestAnnounceResponse reports what the test announcement did.
type TestAnnounceResponse struct {
	Played   bool   `json:"played"`
	Message  string `json:"message"`
	Backend  string `json:"backend,omitempty"`
	CacheHit bool   `json:"cache_hit"`
	Error    string `json:"error,omitempty"`
}

// HistoryListRequest asks for recent announcement records.
type HistoryListRequest struct {
	Limit int `json:"limit,omitempty"`
}

// HistoryRecord is one announcement outcome, newest first.
type HistoryRecord struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Message      string `json:"message"`
	Backend      string `json:"backend,omitempty"`
	Voice        string `json:"voice,omitempty"`
	CacheHit     bool   `json:"cache_hit"`
	Fallback     bool   `json:"fallback"`
	LLMGenerated bool   `json:"llm_generated"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// HistoryListResponse carries the requested records.
type HistoryListResponse struct {
	Records []HistoryRecord `json:"records"`
}
