package domain

import "time"

// Health statuses reported by the dashboard.
const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

// GroupCount is one row of a GROUP BY count. Value is empty for NULL.
type GroupCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// EntityTotals counts the totems attached to one region, institution or category.
type EntityTotals struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Total  int64  `json:"total_totems"`
	Active int64  `json:"active_totems"`
}

// DashboardStats is the overview shown on the admin dashboard.
type DashboardStats struct {
	TotalTotems         int64        `json:"total_totems"`
	ActiveTotems        int64        `json:"active_totems"`
	InactiveTotems      int64        `json:"inactive_totems"`
	TotalNotifications  int64        `json:"total_notifications"`
	ActiveNotifications int64        `json:"active_notifications"`
	ActiveUsers         int64        `json:"active_users"`
	PendingChats        int64        `json:"pending_chats"`
	ActiveMultimedia    int64        `json:"active_multimedia"`
	ActiveInstitutions  int64        `json:"active_institutions"`
	ActiveCategories    int64        `json:"active_categories"`
	ActiveRegions       int64        `json:"active_regions"`
	ChatsByStatus       []GroupCount `json:"chats_by_status"`
	MultimediaByType    []GroupCount `json:"multimedia_by_type"`
	NotificationsByType []GroupCount `json:"notifications_by_type"`
}

// ActivityStats counts the rows created since a point in time.
type ActivityStats struct {
	Days                 int       `json:"days"`
	Since                time.Time `json:"since"`
	ChatsCreated         int64     `json:"chats_created"`
	NotificationsCreated int64     `json:"notifications_created"`
	MultimediaCreated    int64     `json:"multimedia_created"`
	TotemsCreated        int64     `json:"totems_created"`
	UsersCreated         int64     `json:"users_created"`
}

// PoolStats is a snapshot of the database connection pool.
type PoolStats struct {
	OpenConnections int `json:"open_connections"`
	InUse           int `json:"in_use"`
	Idle            int `json:"idle"`
}

// SystemHealth reports the state of the database and the running process.
type SystemHealth struct {
	Status         string    `json:"status"`
	Database       string    `json:"database"`
	Pool           PoolStats `json:"pool"`
	UptimeSeconds  float64   `json:"uptime_seconds"`
	HeapAllocBytes uint64    `json:"heap_alloc_bytes"`
	Goroutines     int       `json:"goroutines"`
	Timestamp      time.Time `json:"timestamp"`
}
