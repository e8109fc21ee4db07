package journal

import "time"

// DeliveryRecord is one notification attempt.
type DeliveryRecord struct {
	ID uint `gorm:"primaryKey"`

	Text      string    `gorm:"type:text;not null"`
	Delivered bool      `gorm:"not null;index:idx_delivery_delivered_sent_at"`
	SentAt    time.Time `gorm:"not null;index:idx_delivery_delivered_sent_at"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (DeliveryRecord) TableName() string {
	return "delivery_record"
}
