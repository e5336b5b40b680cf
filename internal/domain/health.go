package domain

import "strings"

// HealthStatus mirrors the cluster's traffic-light health.
type HealthStatus int

const (
	HealthUnknown HealthStatus = iota
	HealthRed
	HealthYellow
	HealthGreen
)

// ParseHealthStatus maps "green", "yellow" and "red"; anything else is unknown.
func ParseHealthStatus(s string) HealthStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "green":
		return HealthGreen
	case "yellow":
		return HealthYellow
	case "red":
		return HealthRed
	default:
		return HealthUnknown
	}
}

func (h HealthStatus) String() string {
	switch h {
	case HealthGreen:
		return "green"
	case HealthYellow:
		return "yellow"
	case HealthRed:
		return "red"
	default:
		return "unknown"
	}
}

// Acceptable is true for yellow and green.
func (h HealthStatus) Acceptable() bool {
	return h == HealthYellow || h == HealthGreen
}

// MarshalText renders the status by name.
func (h HealthStatus) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText parses the status by name.
func (h *HealthStatus) UnmarshalText(b []byte) error {
	*h = ParseHealthStatus(string(b))
	return nil
}

// ClusterHealth is the cluster-level health summary.
type ClusterHealth struct {
	ClusterName         string       `json:"cluster_name"`
	Status              HealthStatus `json:"status"`
	NumberOfNodes       int          `json:"number_of_nodes"`
	NumberOfDataNodes   int          `json:"number_of_data_nodes"`
	ActiveShards        int          `json:"active_shards"`
	RelocatingShards    int          `json:"relocating_shards"`
	InitializingShards  int          `json:"initializing_shards"`
	UnassignedShards    int          `json:"unassigned_shards"`
	ActiveShardsPercent float64      `json:"active_shards_percent"`
}

// Node is one cluster member.
type Node struct {
	Name        string `json:"name"`
	IP          string `json:"ip"`
	Roles       string `json:"roles"`
	Master      bool   `json:"master"`
	HeapPercent string `json:"heap_percent"`
	RAMPercent  string `json:"ram_percent"`
	CPU         string `json:"cpu"`
	Load1m      string `json:"load_1m"`
	Version     string `json:"version"`
}

// Overview is what operators see after every admin action.
type Overview struct {
	Cluster ClusterHealth   `json:"cluster"`
	Nodes   []Node          `json:"nodes"`
	Indices []PhysicalIndex `json:"indices"`
	// Errors lists sections that could not be fetched.
	Errors []string `json:"errors,omitempty"`
}
