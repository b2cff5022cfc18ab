package services

import (
	"errors"

	"lyceumBank/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrUserNotFound возвращается, когда пользователь отсутствует или деактивирован
var ErrUserNotFound = errors.New("пользователь не найден")

type UserService struct {
	db             *gorm.DB
	accountService *AccountService
}

type UserDTO struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"omitempty,oneof=STUDENT TEACHER ADMIN"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:             db,
		accountService: NewAccountService(db),
	}
}

// CreateUserInternal создает нового пользователя вместе с его основным счетом
func (h *UserService) CreateUserInternal(req CreateUserRequest) (*models.User, error) {
	// Проверяем, существует ли пользователь с таким email
	var existingUser models.User
	if err := h.db.Where("LOWER(email) = LOWER(?)", req.Email).First(&existingUser).Error; err == nil {
		return nil, errors.New("пользователь с таким email уже существует")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Хешируем пароль
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := models.UserRole(req.Role)
	if role == "" {
		role = models.UserRoleStudent
	}

	// Создаем нового пользователя
	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  string(hashedPassword),
		Role:      role,
		IsActive:  true,
	}

	// Пользователь и его счет создаются в одной транзакции
	tx := h.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	if err := tx.Create(user).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Открываем основной счет
	if _, err := h.accountService.CreateAccount(tx, user.ID, models.AccountTypeChecking); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	return user, nil
}

// FindByID ищет активного пользователя по ID
func (h *UserService) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := h.db.Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail ищет пользователя по email (игнорируя регистр и пробелы)
func (h *UserService) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := h.db.Where("LOWER(TRIM(email)) = LOWER(TRIM(?))", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Deactivate помечает пользователя неактивным. Запись и счет не удаляются
func (h *UserService) Deactivate(id uint) error {
	result := h.db.Model(&models.User{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetActiveUserIDs возвращает идентификаторы всех активных пользователей
func (h *UserService) GetActiveUserIDs(tx *gorm.DB) ([]uint, error) {
	var ids []uint
	if err := tx.Model(&models.User{}).Where("is_active = ?", true).Pluck("id", &ids).Error; err != nil {
		return nil, errors.New("ошибка при получении списка пользователей")
	}
	return ids, nil
}
