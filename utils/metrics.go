package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики приложения
type Metrics struct {
	mu sync.RWMutex

	// Метрики запросов
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// Метрики магазина
	TotalPurchases   int64
	FailedPurchases  int64
	TokensSpent      float64
	LastPurchaseTime time.Time

	// Метрики уведомлений
	NotificationsSent      int64
	NotificationsDelivered int64

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ErrorTypes: make(map[string]int64),
		}
	})
	return metrics
}

// RecordRequest записывает метрики запроса
func (m *Metrics) RecordRequest(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if err != nil {
		m.FailedRequests++
		m.recordError(err)
	}
}

// RecordPurchase записывает метрики покупки
func (m *Metrics) RecordPurchase(totalAmount float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastPurchaseTime = time.Now()

	if err != nil {
		m.FailedPurchases++
		m.recordError(err)
		return
	}

	m.TotalPurchases++
	m.TokensSpent += totalAmount
}

// RecordNotification записывает метрики рассылки уведомления
func (m *Metrics) RecordNotification(recipients int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.NotificationsSent++
	m.NotificationsDelivered += int64(recipients)
}

// recordError записывает метрики ошибки; вызывающий держит мьютекс
func (m *Metrics) recordError(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}

	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"total_requests":          m.TotalRequests,
		"failed_requests":         m.FailedRequests,
		"average_latency":         m.AverageLatency.String(),
		"total_purchases":         m.TotalPurchases,
		"failed_purchases":        m.FailedPurchases,
		"tokens_spent":            m.TokensSpent,
		"notifications_sent":      m.NotificationsSent,
		"notifications_delivered": m.NotificationsDelivered,
		"error_count":             m.ErrorCount,
		"last_error_time":         m.LastErrorTime,
		"error_types":             m.ErrorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.TotalPurchases = 0
	m.FailedPurchases = 0
	m.TokensSpent = 0
	m.NotificationsSent = 0
	m.NotificationsDelivered = 0
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
}
