package utils

import (
	"errors"
	"testing"
	"time"
)

func TestMetricsRecordPurchase(t *testing.T) {
	m := GetMetrics()
	m.ResetMetrics()

	m.RecordPurchase(100, nil)
	m.RecordPurchase(50, nil)
	m.RecordPurchase(0, errors.New("недостаточно средств на счете"))

	if m.TotalPurchases != 2 {
		t.Errorf("TotalPurchases = %d, want 2", m.TotalPurchases)
	}
	if m.FailedPurchases != 1 {
		t.Errorf("FailedPurchases = %d, want 1", m.FailedPurchases)
	}
	if m.TokensSpent != 150 {
		t.Errorf("TokensSpent = %f, want 150", m.TokensSpent)
	}
}

func TestMetricsRecordNotification(t *testing.T) {
	m := GetMetrics()
	m.ResetMetrics()

	m.RecordNotification(25)
	m.RecordNotification(3)

	if m.NotificationsSent != 2 {
		t.Errorf("NotificationsSent = %d, want 2", m.NotificationsSent)
	}
	if m.NotificationsDelivered != 28 {
		t.Errorf("NotificationsDelivered = %d, want 28", m.NotificationsDelivered)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := GetMetrics()
	m.ResetMetrics()

	m.RecordRequest(10*time.Millisecond, nil)
	m.RecordRequest(20*time.Millisecond, errors.New("internal error"))

	snapshot := m.GetMetricsSnapshot()
	if snapshot["total_requests"].(int64) != 2 {
		t.Errorf("total_requests = %v, want 2", snapshot["total_requests"])
	}
	if snapshot["failed_requests"].(int64) != 1 {
		t.Errorf("failed_requests = %v, want 1", snapshot["failed_requests"])
	}
	if snapshot["error_count"].(int64) != 1 {
		t.Errorf("error_count = %v, want 1", snapshot["error_count"])
	}
}
