package model

import "time"

type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	OccurredAt time.Time      `json:"occurred_at"`
	Actor      string         `json:"actor"`
	IP         string         `json:"ip,omitempty"`
	Status     string         `json:"status"`
	Resource   string         `json:"resource,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
}

type AuditQuery struct {
	Actor  string
	Action string
	Page   int
	Limit  int
}

type AuditListData struct {
	Items []AuditEntry `json:"items"`
}
