package services

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"lyceumBank/models"

	"gorm.io/gorm"
)

// Ошибки леджера
var (
	ErrAccountNotFound   = errors.New("счет не найден")
	ErrInsufficientFunds = errors.New("недостаточно средств на счете")
)

// AccountDTO представляет данные счета для ответа
type AccountDTO struct {
	ID        uint    `json:"id"`
	Owner     UserDTO `json:"owner"`
	Balance   float64 `json:"balance"`
	Number    string  `json:"number"`
	Type      string  `json:"type"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// AccountService предоставляет операции леджера: все изменения балансов
// проходят только через Credit и Debit
type AccountService struct {
	db *gorm.DB
}

// NewAccountService создает новый экземпляр AccountService
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// GetDB возвращает экземпляр базы данных
func (s *AccountService) GetDB() *gorm.DB {
	return s.db
}

// GetCheckingAccount возвращает основной (CHECKING) счет пользователя
func (s *AccountService) GetCheckingAccount(tx *gorm.DB, userID uint) (*models.Account, error) {
	var account models.Account

	// Ищем счет в базе данных
	if err := tx.Where("owner_id = ? AND account_type = ?", userID, models.AccountTypeChecking).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.New("ошибка при поиске счета")
	}

	return &account, nil
}

// Credit зачисляет средства на счет. Баланс обновляется относительным
// выражением balance + ?, а не чтением и записью абсолютного значения
func (s *AccountService) Credit(tx *gorm.DB, accountID uint, amount float64) error {
	if amount <= 0 {
		return errors.New("сумма должна быть больше 0")
	}

	// Обновляем баланс
	result := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return errors.New("ошибка при обновлении баланса")
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// Debit списывает средства со счета. Проверка достаточности средств и само
// списание выполняются одним условным UPDATE: два конкурентных списания
// не могут одновременно пройти проверку и увести баланс в минус
func (s *AccountService) Debit(tx *gorm.DB, accountID uint, amount float64) error {
	if amount <= 0 {
		return errors.New("сумма должна быть больше 0")
	}

	// Списываем средства с проверкой достаточности в одном запросе
	result := tx.Model(&models.Account{}).
		Where("id = ? AND balance >= ?", accountID, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return errors.New("ошибка при обновлении баланса")
	}

	// Ни одна строка не обновлена: счета нет либо не хватает средств
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
			return errors.New("ошибка при поиске счета")
		}
		if count == 0 {
			return ErrAccountNotFound
		}
		return ErrInsufficientFunds
	}

	return nil
}

// CreateAccount создает счет для пользователя
func (s *AccountService) CreateAccount(tx *gorm.DB, userID uint, accountType models.AccountType) (*models.Account, error) {
	// Генерируем номер счета
	accountNumber := s.generateAccountNumber()

	// Создаем счет
	account := &models.Account{
		Number:      accountNumber,
		AccountType: accountType,
		Balance:     0,
		OwnerID:     userID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	// Сохраняем счет
	if err := tx.Create(account).Error; err != nil {
		return nil, errors.New("не удалось создать счет")
	}

	return account, nil
}

// generateAccountNumber генерирует номер счета
func (s *AccountService) generateAccountNumber() string {
	// Инициализируем генератор случайных чисел
	rand.Seed(time.Now().UnixNano())

	// Генерируем 20 случайных цифр
	var number strings.Builder
	for i := 0; i < 20; i++ {
		number.WriteString(strconv.Itoa(rand.Intn(10)))
	}

	return number.String()
}

// toAccountDTO конвертирует модель Account в DTO
func toAccountDTO(account *models.Account, owner *models.User) AccountDTO {
	dto := AccountDTO{
		ID:        account.ID,
		Balance:   account.Balance,
		Number:    account.Number,
		Type:      string(account.AccountType),
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
		UpdatedAt: account.UpdatedAt.Format(time.RFC3339),
	}
	if owner != nil {
		dto.Owner = UserDTO{
			ID:        owner.ID,
			FirstName: owner.FirstName,
			LastName:  owner.LastName,
			Email:     owner.Email,
			Role:      string(owner.Role),
		}
	}
	return dto
}
