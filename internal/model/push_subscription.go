package model

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription holds the browser push subscription for a collector's
// device. A collector may have several devices registered.
type PushSubscription struct {
	Endpoint    string    `gorm:"primaryKey"`
	CollectorID uuid.UUID `gorm:"type:uuid;index;not null"`
	P256DH      string    `gorm:"column:p256dh;not null"`
	Auth        string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}
