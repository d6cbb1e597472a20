package api

// ExecutionData is what the sandbox reported about the submission.
type ExecutionData struct {
	Backend      string   `json:"backend"`
	Compiled     bool     `json:"compiled"`
	CompileError *string  `json:"compile_error"`
	Logs         []string `json:"logs"`
	RuntimeError *string  `json:"runtime_error"`
	WallMillis   int64    `json:"wall_ms"`
}

// Truncated returns a copy whose logs fit MaxRuntimeDataHeight lines of
// MaxRuntimeDataWidth runes, for streaming.
func (e ExecutionData) Truncated() ExecutionData {
	logs := e.Logs
	if len(logs) > MaxRuntimeDataHeight {
		logs = logs[:MaxRuntimeDataHeight]
	}
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = truncateWidth(l)
	}
	e.Logs = out
	if e.RuntimeError != nil {
		s := truncateWidth(*e.RuntimeError)
		e.RuntimeError = &s
	}
	if e.CompileError != nil {
		s := truncateWidth(*e.CompileError)
		e.CompileError = &s
	}
	return e
}

func truncateWidth(s string) string {
	r := []rune(s)
	if len(r) <= MaxRuntimeDataWidth {
		return s
	}
	return string(r[:MaxRuntimeDataWidth-3]) + "..."
}
