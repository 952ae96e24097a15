// AngelaMos | 2026
// dto.go

package admin

// SystemStats backs the admin "System" tab next to the sales dashboard.
type SystemStats struct {
	Database Backend `json:"database"`
	Redis    Backend `json:"redis"`
	Process  Process `json:"process"`
}

type Backend struct {
	Reachable bool  `json:"reachable"`
	Pool      *Pool `json:"pool,omitempty"`
}

// Pool flattens database/sql and go-redis pool counters into one shape.
// Waits is the blocked-acquire count for Postgres and the pool timeout
// count for Redis.
type Pool struct {
	Open     int    `json:"open"`
	Idle     int    `json:"idle"`
	InUse    int    `json:"in_use"`
	Limit    int    `json:"limit,omitempty"`
	Waits    int64  `json:"waits"`
	WaitTime string `json:"wait_time,omitempty"`
	Hits     uint32 `json:"hits,omitempty"`
	Misses   uint32 `json:"misses,omitempty"`
}

type Process struct {
	GoVersion  string `json:"go_version"`
	Uptime     string `json:"uptime"`
	Goroutines int    `json:"goroutines"`
	CPUs       int    `json:"cpus"`
	HeapBytes  uint64 `json:"heap_bytes"`
	GCCycles   uint32 `json:"gc_cycles"`
}
