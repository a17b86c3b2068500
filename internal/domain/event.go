package domain

import "time"

// Event is the shippable projection of a decoded Record.
type Event struct {
	ID          string            `json:"event_id"`
	Num         uint64            `json:"num"`
	Source      string            `json:"source,omitempty"`
	Line        int               `json:"line"`
	ConvertedAt time.Time         `json:"converted_at"`
	EventTime   *time.Time        `json:"event_time,omitempty"`
	Hostname    string            `json:"hostname,omitempty"`
	Facility    string            `json:"facility,omitempty"`
	Priority    string            `json:"priority,omitempty"`
	Tag         string            `json:"tag,omitempty"`
	Message     string            `json:"message,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"` // every visible field, rendered
	Redacted    bool              `json:"redacted,omitempty"`
}
