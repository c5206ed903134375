package fleet

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Status is the connectivity state the Fleet API reports for an agent.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// AgentSnapshot is one agent as reported by the Fleet API at fetch time.
// Snapshots are immutable once decoded.
type AgentSnapshot struct {
	AgentID  string    `json:"agent_id"`
	Hostname string    `json:"hostname"`
	IP       string    `json:"ip"`
	Status   Status    `json:"status"`
	LastSeen time.Time `json:"last_seen"`

	// StatusData is non-nil exactly when Status is online.
	StatusData *StatusData `json:"status_data,omitempty"`
}

// Online reports whether the agent is connected.
func (a AgentSnapshot) Online() bool {
	return a.Status == StatusOnline
}

// Stale reports whether last_seen is older than threshold at now.
// It never changes Status; callers only use it for display.
func (a AgentSnapshot) Stale(now time.Time, threshold time.Duration) bool {
	if a.LastSeen.IsZero() || threshold <= 0 {
		return false
	}
	return now.Sub(a.LastSeen) > threshold
}

// Metrics returns the status bundle, or an empty one. Never nil.
func (a AgentSnapshot) Metrics() *StatusData {
	if a.StatusData == nil {
		return &StatusData{}
	}
	return a.StatusData
}

// DisplayName is the hostname, falling back to the agent ID.
func (a AgentSnapshot) DisplayName() string {
	if a.Hostname != "" {
		return a.Hostname
	}
	return a.AgentID
}

// UnmarshalJSON decodes an agent and normalizes it: unknown statuses become
// offline, offline agents lose their status data, and online agents without
// status data get an empty bundle. Timestamps without a zone are UTC; an
// unparseable last_seen decodes as the zero time rather than failing the
// whole fleet.
func (a *AgentSnapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		AgentID    string      `json:"agent_id"`
		Hostname   string      `json:"hostname"`
		IP         string      `json:"ip"`
		Status     string      `json:"status"`
		LastSeen   string      `json:"last_seen"`
		StatusData *StatusData `json:"status_data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	lastSeen, _ := ParseTimestamp(raw.LastSeen)

	*a = AgentSnapshot{
		AgentID:  raw.AgentID,
		Hostname: raw.Hostname,
		IP:       raw.IP,
		Status:   normalizeStatus(raw.Status),
		LastSeen: lastSeen,
	}
	if a.Status == StatusOnline {
		a.StatusData = raw.StatusData
		if a.StatusData == nil {
			a.StatusData = &StatusData{}
		}
	}
	return nil
}

func normalizeStatus(s string) Status {
	if strings.EqualFold(strings.TrimSpace(s), string(StatusOnline)) {
		return StatusOnline
	}
	return StatusOffline
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp accepts ISO-8601 with or without a zone. Zoneless values are UTC.
// An empty string yields the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// StatusData is the metric bundle of an online agent. Every field is optional;
// the accessor methods return zero when a field is absent.
type StatusData struct {
	CPUPercent    *float64                      `json:"cpu_percent,omitempty"`
	MemoryPercent *float64                      `json:"memory_percent,omitempty"`
	MemoryUsedMB  *float64                      `json:"memory_used_mb,omitempty"`
	MemoryTotalMB *float64                      `json:"memory_total_mb,omitempty"`
	DiskPercent   *float64                      `json:"disk_percent,omitempty"`
	DiskUsedGB    *float64                      `json:"disk_used_gb,omitempty"`
	DiskTotalGB   *float64                      `json:"disk_total_gb,omitempty"`
	UptimeSeconds *float64                      `json:"uptime_seconds,omitempty"`
	Drives        []Drive                       `json:"drives,omitempty"`
	Temperatures  map[string]TemperatureReading `json:"temperatures,omitempty"`
}

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// CPU returns CPU usage in percent, or 0 when not reported.
func (s *StatusData) CPU() float64 {
	if s == nil {
		return 0
	}
	return val(s.CPUPercent)
}

// Memory returns memory usage in percent.
func (s *StatusData) Memory() float64 {
	if s == nil {
		return 0
	}
	return val(s.MemoryPercent)
}

// MemoryUsed returns used memory in MB.
func (s *StatusData) MemoryUsed() float64 {
	if s == nil {
		return 0
	}
	return val(s.MemoryUsedMB)
}

// MemoryTotal returns total memory in MB.
func (s *StatusData) MemoryTotal() float64 {
	if s == nil {
		return 0
	}
	return val(s.MemoryTotalMB)
}

// Disk returns disk usage in percent.
func (s *StatusData) Disk() float64 {
	if s == nil {
		return 0
	}
	return val(s.DiskPercent)
}

// DiskUsed returns used disk space in GB.
func (s *StatusData) DiskUsed() float64 {
	if s == nil {
		return 0
	}
	return val(s.DiskUsedGB)
}

// DiskTotal returns total disk space in GB.
func (s *StatusData) DiskTotal() float64 {
	if s == nil {
		return 0
	}
	return val(s.DiskTotalGB)
}

// Uptime returns the agent uptime.
func (s *StatusData) Uptime() time.Duration {
	if s == nil {
		return 0
	}
	return time.Duration(val(s.UptimeSeconds) * float64(time.Second))
}

// FormatUptime renders d as "Xd Yh Zm".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	hours := (secs % 86400) / 3600
	minutes := (secs % 3600) / 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

// Drive is one mounted volume on an agent.
type Drive struct {
	Device         string  `json:"device"`
	Mountpoint     string  `json:"mountpoint"`
	FSType         string  `json:"fstype"`
	TotalGB        float64 `json:"total_gb"`
	UsedGB         float64 `json:"used_gb"`
	FreeGB         float64 `json:"free_gb"`
	PercentUsed    float64 `json:"percent_used"`
	HealthStatus   string  `json:"health_status"`
	SMARTAvailable bool    `json:"smart_available"`
}

// Health buckets a free-form health string.
type Health string

const (
	HealthOK       Health = "ok"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
	HealthUnknown  Health = "unknown"
)

// HealthClass classifies HealthStatus case-insensitively.
func (d Drive) HealthClass() Health {
	switch strings.ToLower(strings.TrimSpace(d.HealthStatus)) {
	case "ok", "good", "healthy", "passed":
		return HealthOK
	case "warning":
		return HealthWarning
	case "error", "critical", "failed":
		return HealthCritical
	default:
		return HealthUnknown
	}
}

// TemperatureReading is one sensor value in °C with optional thresholds.
type TemperatureReading struct {
	Current  float64  `json:"current"`
	High     *float64 `json:"high,omitempty"`
	Critical *float64 `json:"critical,omitempty"`
}

// TempClass is the severity of a temperature reading.
type TempClass string

const (
	TempNormal   TempClass = "normal"
	TempWarm     TempClass = "warm"
	TempHot      TempClass = "hot"
	TempWarning  TempClass = "warning"
	TempCritical TempClass = "critical"
)

// threshold treats a missing, zero, or negative threshold as absent.
func threshold(p *float64) (float64, bool) {
	if p == nil || *p <= 0 {
		return 0, false
	}
	return *p, true
}

// Classify returns the first matching class: critical threshold reached,
// high threshold reached, >=80 hot, >=60 warm, otherwise normal.
func (t TemperatureReading) Classify() TempClass {
	if c, ok := threshold(t.Critical); ok && t.Current >= c {
		return TempCritical
	}
	if h, ok := threshold(t.High); ok && t.Current >= h {
		return TempWarning
	}
	switch {
	case t.Current >= 80:
		return TempHot
	case t.Current >= 60:
		return TempWarm
	default:
		return TempNormal
	}
}

// Scale is the gauge maximum: critical, else high, else 100.
func (t TemperatureReading) Scale() float64 {
	if c, ok := threshold(t.Critical); ok {
		return c
	}
	if h, ok := threshold(t.High); ok {
		return h
	}
	return 100
}

// Percent is Current as a share of Scale, clamped to 0-100.
func (t TemperatureReading) Percent() float64 {
	p := t.Current / t.Scale() * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// SensorLabel turns a sensor key like "cpu_thermal" or "coreTemp" into
// "Cpu Thermal" or "Core Temp".
func SensorLabel(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
