package analytics

import "time"

const (
	// EventName 通知状态分析事件的topic
	EventName = "user-activity-analytics"
)

// StatusEvent 通知状态分析事件，每次投递出结论时发布一条
type StatusEvent struct {
	EventID string `json:"eventId"`
	UserID  string `json:"userId"`
	Channel string `json:"type"`
	// SENT、FAILED、RATE_LIMITED
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
	SentAt time.Time `json:"sentAt"`
}
