// Package entity defines data structures used by the web layer of the portal.
package entity

// Msg represents a standard API response message with success status, message
// text, and optional data object.
type Msg struct {
	Success bool   `json:"success"` // Indicates if the operation was successful
	Msg     string `json:"msg"`     // Response message text
	Obj     any    `json:"obj"`     // Optional data object
}

// SystemStatus is the admin status endpoint payload.
type SystemStatus struct {
	CpuPercent float64 `json:"cpuPercent"`
	MemTotal   uint64  `json:"memTotal"`
	MemUsed    uint64  `json:"memUsed"`
	Uptime     uint64  `json:"uptime"`
	Goroutines int     `json:"goroutines"`
	Version    string  `json:"version"`
	ReadOnly   bool    `json:"readOnly"`
}

// ExpiryAlert describes one approaching contract, domain or SSL deadline.
type ExpiryAlert struct {
	SiteId   int    `json:"siteId"`
	SiteName string `json:"siteName"`
	Kind     string `json:"kind"`  // domain | ssl | renewal
	Date     string `json:"date"`  // YYYY-MM-DD
	Level    string `json:"level"` // warning | danger
	DaysLeft int    `json:"daysLeft"`
}

// MonthlyReport aggregates one client's month for the report page.
type MonthlyReport struct {
	Month          string         `json:"month"` // YYYY-MM
	PrevMonth      string         `json:"prevMonth"`
	NextMonth      string         `json:"nextMonth"`
	Logs           any            `json:"logs"`
	ImportantLogs  any            `json:"importantLogs"`
	CategoryCounts map[string]int `json:"categoryCounts"`
	Notices        any            `json:"notices"`
	Sites          any            `json:"sites"`
	Alerts         []ExpiryAlert  `json:"alerts"`
}
