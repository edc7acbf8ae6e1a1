package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"waste-transport-backend/internal/model"
)

// Assignment is a single notification job: a bin was put on a collector's
// worklist.
type Assignment struct {
	BinID       uuid.UUID
	CollectorID uuid.UUID
}

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending assignment notifications.
type WorkerPool struct {
	size    int
	jobs    chan Assignment
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Assignment, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.notifyAssignment(ctx, job)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a job for the worker pool. A full queue drops the job:
// a missed push never holds up or fails the assignment itself.
func (wp *WorkerPool) Dispatch(job Assignment) {
	select {
	case wp.jobs <- job:
	default:
		log.Printf("Notification queue full, dropping job for bin %s", job.BinID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Assignment {
	return wp.jobs
}

// notifyAssignment fetches the collector's subscriptions and pushes the
// assignment to each registered device.
func (wp *WorkerPool) notifyAssignment(ctx context.Context, job Assignment) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("collector_id = ?", job.CollectorID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for collector %s: %v", job.CollectorID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	binLabel := job.BinID.String()
	var bin model.Bin
	if err := wp.db.WithContext(ctx).
		Select("location", "city").
		First(&bin, "id = ?", job.BinID).Error; err != nil {
		log.Printf("Error fetching bin %s: %v", job.BinID, err)
	} else if bin.Location != "" {
		binLabel = fmt.Sprintf("%s, %s", bin.Location, bin.City)
	}

	log.Printf("Sending %d notifications for bin %s", len(subscriptions), job.BinID)
	message := fmt.Sprintf("New pickup assigned: %s", binLabel)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
