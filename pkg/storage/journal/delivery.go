package journal

import (
	"context"
	"time"
)

func (c *Client) InsertDelivery(ctx context.Context, record *DeliveryRecord) error {
	return c.DB.WithContext(ctx).Create(record).Error
}

// RecentDeliveries returns up to limit records, newest first.
func (c *Client) RecentDeliveries(ctx context.Context, limit int) ([]DeliveryRecord, error) {
	var records []DeliveryRecord
	err := c.DB.WithContext(ctx).
		Order("sent_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// CountFailed counts undelivered notifications sent at or after since.
func (c *Client) CountFailed(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := c.DB.WithContext(ctx).
		Model(&DeliveryRecord{}).
		Where("delivered = ? AND sent_at >= ?", false, since).
		Count(&n).Error
	return n, err
}

// DeleteOldDeliveries removes records sent before the cutoff and reports how many went.
func (c *Client) DeleteOldDeliveries(ctx context.Context, before time.Time) (int64, error) {
	result := c.DB.WithContext(ctx).
		Where("sent_at < ?", before).
		Delete(&DeliveryRecord{})
	return result.RowsAffected, result.Error
}
