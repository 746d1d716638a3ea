package console

import (
	"encoding/json"
	"log/slog"
	"os"
)

const maxRecords = 10

// CycleRecord captures what happened in a single watch cycle.
type CycleRecord struct {
	Tick        uint64 `json:"tick"`
	Action      string `json:"action"`
	CrisisLevel string `json:"crisis_level"`
	Bankrupt    int    `json:"bankrupt"`
	Shortages   int    `json:"shortages"`
	Rationale   string `json:"rationale,omitempty"`
}

// CycleMemory keeps the most recent cycle records. Path may be empty for
// a memory that is never written to disk.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`
	path    string
}

// LoadMemory reads the memory file. A missing or corrupt file yields an
// empty memory.
func LoadMemory(path string) *CycleMemory {
	mem := &CycleMemory{path: path}
	if path == "" {
		return mem
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mem
	}
	if err := json.Unmarshal(data, mem); err != nil {
		slog.Warn("console memory corrupted, starting fresh", "error", err)
		return &CycleMemory{path: path}
	}
	return mem
}

// Save writes the memory to its file.
func (m *CycleMemory) Save() {
	if m.path == "" {
		return
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal console memory", "error", err)
		return
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		slog.Error("failed to write console memory", "error", err)
	}
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// PausedAt reports whether the newest pause in memory was taken at level
// and nothing has since cleared it back to a calmer level.
func (m *CycleMemory) PausedAt(level string) bool {
	for i := len(m.Records) - 1; i >= 0; i-- {
		r := m.Records[i]
		if r.CrisisLevel != level {
			return false
		}
		if r.Action == ActionPause {
			return true
		}
	}
	return false
}
