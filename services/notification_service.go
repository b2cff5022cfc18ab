package services

import (
	"errors"
	"math"
	"strings"
	"time"

	"lyceumBank/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ErrNotificationNotFound возвращается, когда пользователь не является
// получателем уведомления
var ErrNotificationNotFound = errors.New("уведомление не найдено")

// CreateNotificationDTO представляет данные для создания уведомления
type CreateNotificationDTO struct {
	Title    string `json:"title" validate:"required,min=2,max=100"`
	Content  string `json:"content" validate:"required,max=1000"`
	Type     string `json:"type" validate:"omitempty,oneof=INFO REWARD WARNING"`
	IsGlobal bool   `json:"isGlobal"`
	UserIDs  []uint `json:"userIds" validate:"omitempty,dive,required"`
}

// NotificationDTO представляет уведомление для ответа
type NotificationDTO struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Type       string `json:"type"`
	IsGlobal   bool   `json:"isGlobal"`
	Recipients int    `json:"recipients"`
	CreatedAt  string `json:"createdAt"`
}

// UserNotificationDTO представляет уведомление в ленте пользователя
type UserNotificationDTO struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	IsRead    bool   `json:"isRead"`
	ReadAt    string `json:"readAt,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// NotificationStatsDTO представляет статистику прочтения уведомления
type NotificationStatsDTO struct {
	NotificationID  uint `json:"notificationId"`
	TotalRecipients int  `json:"totalRecipients"`
	ReadCount       int  `json:"readCount"`
	ReadPercent     int  `json:"readPercent"`
}

// NotificationService создает уведомления и рассылает их получателям
type NotificationService struct {
	db        *gorm.DB
	validator *validator.Validate
	users     *UserService
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		db:        db,
		validator: validator.New(),
		users:     NewUserService(db),
	}
}

// Create создает уведомление и раздает его получателям: глобальное — всем
// активным на момент создания пользователям, адресное — перечисленным.
// Пользователи, созданные позже, глобальное уведомление не получают
func (s *NotificationService) Create(dto CreateNotificationDTO, createdBy uint) (*NotificationDTO, error) {
	// Валидируем DTO
	if err := s.validator.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
			case "min":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать минимум "+e.Param()+" символов")
			case "max":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать максимум "+e.Param()+" символов")
			case "oneof":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть одним из: "+e.Param())
			}
		}
		return nil, errors.New(strings.Join(errorMessages, "; "))
	}

	if !dto.IsGlobal && len(dto.UserIDs) == 0 {
		return nil, errors.New("необходимо указать получателей или сделать уведомление глобальным")
	}

	notificationType := models.NotificationType(dto.Type)
	if notificationType == "" {
		notificationType = models.NotificationTypeInfo
	}

	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	// Создаем уведомление
	notification := &models.Notification{
		Title:     dto.Title,
		Content:   dto.Content,
		Type:      notificationType,
		IsGlobal:  dto.IsGlobal,
		CreatedBy: createdBy,
	}
	if err := tx.Create(notification).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при создании уведомления")
	}

	// Определяем получателей
	recipientIDs := dto.UserIDs
	if dto.IsGlobal {
		ids, err := s.users.GetActiveUserIDs(tx)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		recipientIDs = ids
	}

	// Создаем запись доставки для каждого получателя
	userNotifications := make([]models.UserNotification, len(recipientIDs))
	for i, userID := range recipientIDs {
		userNotifications[i] = models.UserNotification{
			UserID:         userID,
			NotificationID: notification.ID,
			IsRead:         false,
		}
	}
	if len(userNotifications) > 0 {
		if err := tx.Create(&userNotifications).Error; err != nil {
			tx.Rollback()
			return nil, errors.New("ошибка при рассылке уведомления")
		}
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	return &NotificationDTO{
		ID:         notification.ID,
		Title:      notification.Title,
		Content:    notification.Content,
		Type:       string(notification.Type),
		IsGlobal:   notification.IsGlobal,
		Recipients: len(recipientIDs),
		CreatedAt:  notification.CreatedAt.Format(time.RFC3339),
	}, nil
}

// MarkAsRead помечает уведомление прочитанным. Операция идемпотентна:
// повторный вызов возвращает успех и не меняет состояние
func (s *NotificationService) MarkAsRead(notificationID, userID uint) (*UserNotificationDTO, error) {
	var userNotification models.UserNotification
	if err := s.db.Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Preload("Notification").
		First(&userNotification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, errors.New("ошибка при поиске уведомления")
	}

	if !userNotification.IsRead {
		now := time.Now()
		if err := s.db.Model(&userNotification).
			Updates(map[string]interface{}{
				"is_read": true,
				"read_at": now,
			}).Error; err != nil {
			return nil, errors.New("ошибка при обновлении уведомления")
		}
		userNotification.IsRead = true
		userNotification.ReadAt = &now
	}

	dto := toUserNotificationDTO(&userNotification)
	return &dto, nil
}

// GetByUserID возвращает ленту уведомлений пользователя
func (s *NotificationService) GetByUserID(userID uint) ([]UserNotificationDTO, error) {
	var userNotifications []models.UserNotification
	if err := s.db.Where("user_id = ?", userID).
		Preload("Notification").
		Order("created_at DESC").
		Find(&userNotifications).Error; err != nil {
		return nil, errors.New("ошибка при получении списка уведомлений")
	}

	dtos := make([]UserNotificationDTO, len(userNotifications))
	for i := range userNotifications {
		dtos[i] = toUserNotificationDTO(&userNotifications[i])
	}
	return dtos, nil
}

// GetStats возвращает статистику прочтения уведомления
func (s *NotificationService) GetStats(notificationID uint) (*NotificationStatsDTO, error) {
	var notification models.Notification
	if err := s.db.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, errors.New("ошибка при поиске уведомления")
	}

	var total, read int64
	if err := s.db.Model(&models.UserNotification{}).
		Where("notification_id = ?", notificationID).
		Count(&total).Error; err != nil {
		return nil, errors.New("ошибка при подсчете получателей")
	}
	if err := s.db.Model(&models.UserNotification{}).
		Where("notification_id = ? AND is_read = ?", notificationID, true).
		Count(&read).Error; err != nil {
		return nil, errors.New("ошибка при подсчете прочитавших")
	}

	// Процент прочитавших округляется до целого
	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(read) / float64(total) * 100))
	}

	return &NotificationStatsDTO{
		NotificationID:  notificationID,
		TotalRecipients: int(total),
		ReadCount:       int(read),
		ReadPercent:     percent,
	}, nil
}

// toUserNotificationDTO конвертирует модель UserNotification в DTO
func toUserNotificationDTO(un *models.UserNotification) UserNotificationDTO {
	dto := UserNotificationDTO{
		ID:        un.NotificationID,
		Title:     un.Notification.Title,
		Content:   un.Notification.Content,
		Type:      string(un.Notification.Type),
		IsRead:    un.IsRead,
		CreatedAt: un.CreatedAt.Format(time.RFC3339),
	}
	if un.ReadAt != nil {
		dto.ReadAt = un.ReadAt.Format(time.RFC3339)
	}
	return dto
}
