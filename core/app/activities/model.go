package activities

import "time"

// Actions recorded for admin writes
const (
	ActionCreate      = "create"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionPublish     = "publish"
	ActionUploadImage = "upload_image"
	ActionRemoveImage = "remove_image"
)

// Activity is one entry of the admin action history
type Activity struct {
	Id        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Admin who performed the action
	UserId    uint   `json:"user_id" gorm:"index"`
	UserEmail string `json:"user_email" gorm:"size:255"`

	// Entity being acted upon (e.g. "post")
	EntityType string `json:"entity_type" gorm:"size:64;index:idx_activity_entity"`
	EntityId   uint   `json:"entity_id" gorm:"index:idx_activity_entity"`
	// EntityName is the display name at the time of the action, kept
	// after the entity is deleted
	EntityName string `json:"entity_name" gorm:"size:255"`

	Action      string `json:"action" gorm:"size:32;index"`
	Description string `json:"description"`
	Metadata    string `json:"metadata,omitempty" gorm:"type:text"`

	IpAddress string `json:"ip_address" gorm:"size:64"`
	UserAgent string `json:"user_agent"`
}

// TableName returns the table name for the Activity model
func (m *Activity) TableName() string {
	return "activities"
}

// ListQuery filters the activity history
type ListQuery struct {
	EntityType string
	EntityId   uint
	UserId     uint
	Action     string
	Page       int
	Limit      int
}
