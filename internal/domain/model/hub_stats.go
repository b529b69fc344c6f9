package model

import "time"

// HubStats is a point-in-time view of the event broadcaster.
type HubStats struct {
	ActiveSubscribers int           `json:"active_subscribers"`
	Published         uint64        `json:"published"`
	Dropped           uint64        `json:"dropped_subscribers"`
	Uptime            time.Duration `json:"uptime"`
}
