package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"lyceumBank/database"
	"lyceumBank/services"
	"lyceumBank/utils"

	"github.com/gorilla/mux"
)

// NotificationController обрабатывает запросы, связанные с уведомлениями
type NotificationController struct {
	notificationService *services.NotificationService
}

// NewNotificationController создает новый экземпляр NotificationController
func NewNotificationController(db *database.Database) *NotificationController {
	return &NotificationController{
		notificationService: services.NewNotificationService(db.DB),
	}
}

// CreateNotification обрабатывает запрос на создание уведомления
func (c *NotificationController) CreateNotification(w http.ResponseWriter, r *http.Request) {
	// Получаем ID пользователя из контекста (установлен middleware)
	createdBy, ok := r.Context().Value("user_id").(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Создаем DTO для запроса
	var dto services.CreateNotificationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Создаем уведомление и рассылаем получателям
	notification, err := c.notificationService.Create(dto, createdBy)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	utils.GetMetrics().RecordNotification(notification.Recipients)

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(notification)
}

// GetMyNotifications обрабатывает запрос на получение ленты уведомлений
func (c *NotificationController) GetMyNotifications(w http.ResponseWriter, r *http.Request) {
	// Получаем ID пользователя из контекста (установлен middleware)
	userID, ok := r.Context().Value("user_id").(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Получаем ленту уведомлений
	notifications, err := c.notificationService.GetByUserID(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(notifications)
}

// MarkAsRead обрабатывает запрос на отметку уведомления прочитанным
func (c *NotificationController) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	// Получаем ID пользователя из контекста (установлен middleware)
	userID, ok := r.Context().Value("user_id").(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Получаем ID уведомления из URL
	vars := mux.Vars(r)
	notificationID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	// Отмечаем уведомление прочитанным
	notification, err := c.notificationService.MarkAsRead(uint(notificationID), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(notification)
}

// GetNotificationStats обрабатывает запрос на получение статистики прочтения
func (c *NotificationController) GetNotificationStats(w http.ResponseWriter, r *http.Request) {
	// Получаем ID уведомления из URL
	vars := mux.Vars(r)
	notificationID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	// Получаем статистику
	stats, err := c.notificationService.GetStats(uint(notificationID))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}
