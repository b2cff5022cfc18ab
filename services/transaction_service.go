package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lyceumBank/models"

	"github.com/beevik/etree"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Ошибки операций с транзакциями
var (
	ErrTransactionNotFound = errors.New("транзакция не найдена")
	ErrTransactionReversed = errors.New("транзакция уже сторнирована")
)

// CreateTransactionDTO представляет данные для создания транзакции
type CreateTransactionDTO struct {
	UserID        uint    `json:"userId" validate:"required"`
	Type          string  `json:"type" validate:"required,oneof=CREDIT DEBIT REWARD"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Description   string  `json:"description" validate:"required,max=255"`
	Category      string  `json:"category" validate:"omitempty,max=50"`
	ReferenceID   *uint   `json:"referenceId"`
	ReferenceType string  `json:"referenceType" validate:"omitempty,max=30"`
}

// TransactionDTO представляет транзакцию для ответа
type TransactionDTO struct {
	ID            uint    `json:"id"`
	FromAccountID *uint   `json:"fromAccountId,omitempty"`
	ToAccountID   *uint   `json:"toAccountId,omitempty"`
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
	Status        string  `json:"status"`
	Description   string  `json:"description"`
	Category      string  `json:"category,omitempty"`
	ReferenceID   *uint   `json:"referenceId,omitempty"`
	ReferenceType string  `json:"referenceType,omitempty"`
	ProcessedAt   string  `json:"processedAt"`
}

// TransactionStatsDTO представляет сводную статистику по банку лицея
type TransactionStatsDTO struct {
	TotalTokens       float64 `json:"totalTokens"`
	TotalUsers        int64   `json:"totalUsers"`
	TodayTransactions int64   `json:"todayTransactions"`
	WeeklyIncome      float64 `json:"weeklyIncome"`
	WeeklyExpense     float64 `json:"weeklyExpense"`
}

// recordParams описывает одну запись в журнале транзакций
type recordParams struct {
	Type          models.TransactionType
	Amount        float64
	FromAccountID *uint
	ToAccountID   *uint
	Description   string
	Category      string
	ReferenceID   *uint
	ReferenceType string
	CreatedBy     uint
}

// TransactionService ведет журнал транзакций: каждая запись неизменяема,
// сторнирование создает компенсирующую запись вместо удаления
type TransactionService struct {
	db        *gorm.DB
	validator *validator.Validate
	accounts  *AccountService
	email     *EmailService
}

// NewTransactionService создает новый экземпляр TransactionService
func NewTransactionService(db *gorm.DB, email *EmailService) *TransactionService {
	return &TransactionService{
		db:        db,
		validator: validator.New(),
		accounts:  NewAccountService(db),
		email:     email,
	}
}

// record вставляет одну запись журнала внутри транзакции вызывающего.
// Запись создается сразу со статусом COMPLETED: состояний pending/failed нет,
// атомарность обеспечивает объемлющая транзакция базы
func (s *TransactionService) record(tx *gorm.DB, params recordParams) (*models.Transaction, error) {
	if params.Amount <= 0 {
		return nil, errors.New("сумма транзакции должна быть больше 0")
	}
	if params.FromAccountID == nil && params.ToAccountID == nil {
		return nil, errors.New("должен быть указан хотя бы один счет")
	}

	transaction := &models.Transaction{
		FromAccountID: params.FromAccountID,
		ToAccountID:   params.ToAccountID,
		Amount:        params.Amount,
		Type:          params.Type,
		Status:        models.TransactionStatusCompleted,
		Description:   params.Description,
		Category:      params.Category,
		ReferenceID:   params.ReferenceID,
		ReferenceType: params.ReferenceType,
		CreatedBy:     params.CreatedBy,
		ProcessedAt:   time.Now(),
	}

	if err := tx.Create(transaction).Error; err != nil {
		return nil, errors.New("ошибка при сохранении транзакции")
	}

	return transaction, nil
}

// Create создает транзакцию по запросу администратора и применяет ее
// к основному счету пользователя
func (s *TransactionService) Create(dto CreateTransactionDTO, createdBy uint) (*TransactionDTO, error) {
	// Валидируем DTO
	if err := s.validator.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
			case "gt":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть больше 0")
			case "oneof":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть одним из: "+e.Param())
			case "max":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать максимум "+e.Param()+" символов")
			}
		}
		return nil, errors.New(strings.Join(errorMessages, "; "))
	}

	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	// Получаем основной счет пользователя
	account, err := s.accounts.GetCheckingAccount(tx, dto.UserID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Применяем операцию к балансу
	params := recordParams{
		Type:          models.TransactionType(dto.Type),
		Amount:        dto.Amount,
		Description:   dto.Description,
		Category:      dto.Category,
		ReferenceID:   dto.ReferenceID,
		ReferenceType: dto.ReferenceType,
		CreatedBy:     createdBy,
	}

	switch models.TransactionType(dto.Type) {
	case models.TransactionTypeCredit, models.TransactionTypeReward:
		if err := s.accounts.Credit(tx, account.ID, dto.Amount); err != nil {
			tx.Rollback()
			return nil, err
		}
		params.ToAccountID = &account.ID
	case models.TransactionTypeDebit:
		if err := s.accounts.Debit(tx, account.ID, dto.Amount); err != nil {
			tx.Rollback()
			return nil, err
		}
		params.FromAccountID = &account.ID
	}

	// Записываем транзакцию в журнал
	transaction, err := s.record(tx, params)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Получаем email получателя для уведомления о зачислении
	var recipient models.User
	notifyCredit := s.email != nil && params.ToAccountID != nil
	if notifyCredit {
		if err := tx.First(&recipient, dto.UserID).Error; err != nil {
			tx.Rollback()
			return nil, errors.New("ошибка при получении данных пользователя")
		}
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	// Отправляем уведомление о зачислении
	if notifyCredit {
		if err := s.email.SendCreditNotification(recipient.Email, dto.Amount, dto.Description); err != nil {
			log.Printf("Ошибка отправки уведомления о зачислении: %v", err)
		}
	}

	dtoOut := toTransactionDTO(transaction)
	return &dtoOut, nil
}

// Reverse сторнирует транзакцию: балансовый эффект отменяется компенсирующей
// записью, исходная запись получает статус REVERSED. Жесткого удаления
// завершенных финансовых транзакций не существует
func (s *TransactionService) Reverse(transactionID uint, createdBy uint) (*TransactionDTO, error) {
	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	// Получаем исходную транзакцию
	var original models.Transaction
	if err := tx.First(&original, transactionID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, errors.New("ошибка при поиске транзакции")
	}

	// Повторное сторнирование запрещено
	if original.Status == models.TransactionStatusReversed {
		tx.Rollback()
		return nil, ErrTransactionReversed
	}

	// Отменяем балансовый эффект: зачисления списываем обратно,
	// списания возвращаем
	if original.ToAccountID != nil {
		if err := s.accounts.Debit(tx, *original.ToAccountID, original.Amount); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if original.FromAccountID != nil {
		if err := s.accounts.Credit(tx, *original.FromAccountID, original.Amount); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// Создаем компенсирующую запись со ссылкой на исходную
	reversal, err := s.record(tx, recordParams{
		Type:          original.Type,
		Amount:        original.Amount,
		FromAccountID: original.ToAccountID,
		ToAccountID:   original.FromAccountID,
		Description:   fmt.Sprintf("Сторнирование транзакции #%d", original.ID),
		ReferenceID:   &original.ID,
		ReferenceType: "REVERSAL",
		CreatedBy:     createdBy,
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Помечаем исходную транзакцию сторнированной
	if err := tx.Model(&original).Update("status", models.TransactionStatusReversed).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при обновлении статуса транзакции")
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	dtoOut := toTransactionDTO(reversal)
	return &dtoOut, nil
}

// UpdateDescription обновляет описание транзакции. Описание — единственное
// изменяемое поле записи журнала
func (s *TransactionService) UpdateDescription(transactionID uint, description string) (*TransactionDTO, error) {
	if len(description) > 255 {
		return nil, errors.New("описание должно содержать максимум 255 символов")
	}

	var transaction models.Transaction
	if err := s.db.First(&transaction, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, errors.New("ошибка при поиске транзакции")
	}

	if err := s.db.Model(&transaction).Update("description", description).Error; err != nil {
		return nil, errors.New("ошибка при обновлении описания")
	}

	transaction.Description = description
	dtoOut := toTransactionDTO(&transaction)
	return &dtoOut, nil
}

// GetByUserID возвращает историю транзакций по основному счету пользователя
func (s *TransactionService) GetByUserID(userID uint) ([]TransactionDTO, error) {
	account, err := s.accounts.GetCheckingAccount(s.db, userID)
	if err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	if err := s.db.Where("from_account_id = ? OR to_account_id = ?", account.ID, account.ID).
		Order("processed_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, errors.New("ошибка при получении списка транзакций")
	}

	dtos := make([]TransactionDTO, len(transactions))
	for i := range transactions {
		dtos[i] = toTransactionDTO(&transactions[i])
	}
	return dtos, nil
}

// GetStats возвращает сводную статистику. Доходом считаются зачисления
// на счета за последние 7 дней, расходом — списания; переводы попадают
// в обе суммы
func (s *TransactionService) GetStats() (*TransactionStatsDTO, error) {
	stats := &TransactionStatsDTO{}

	// Суммарное количество токенов на всех счетах
	if err := s.db.Model(&models.Account{}).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&stats.TotalTokens).Error; err != nil {
		return nil, errors.New("ошибка при подсчете суммы балансов")
	}

	// Количество активных пользователей
	if err := s.db.Model(&models.User{}).
		Where("is_active = ?", true).
		Count(&stats.TotalUsers).Error; err != nil {
		return nil, errors.New("ошибка при подсчете пользователей")
	}

	// Транзакции за сегодня
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := s.db.Model(&models.Transaction{}).
		Where("processed_at >= ?", todayStart).
		Count(&stats.TodayTransactions).Error; err != nil {
		return nil, errors.New("ошибка при подсчете транзакций за сегодня")
	}

	// Зачисления и списания за последние 7 дней
	weekStart := now.AddDate(0, 0, -7)
	if err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("to_account_id IS NOT NULL AND processed_at >= ? AND status = ?",
			weekStart, models.TransactionStatusCompleted).
		Scan(&stats.WeeklyIncome).Error; err != nil {
		return nil, errors.New("ошибка при подсчете доходов")
	}
	if err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("from_account_id IS NOT NULL AND processed_at >= ? AND status = ?",
			weekStart, models.TransactionStatusCompleted).
		Scan(&stats.WeeklyExpense).Error; err != nil {
		return nil, errors.New("ошибка при подсчете расходов")
	}

	return stats, nil
}

// ExportStatement формирует XML-выписку по журналу транзакций за период
func (s *TransactionService) ExportStatement(from, to time.Time) ([]byte, error) {
	var transactions []models.Transaction
	if err := s.db.Where("processed_at >= ? AND processed_at < ?", from, to).
		Order("processed_at ASC").
		Find(&transactions).Error; err != nil {
		return nil, errors.New("ошибка при получении списка транзакций")
	}

	// Формируем XML документ
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	statement := doc.CreateElement("statement")
	statement.CreateAttr("from", from.Format(time.RFC3339))
	statement.CreateAttr("to", to.Format(time.RFC3339))
	statement.CreateAttr("count", fmt.Sprintf("%d", len(transactions)))

	for _, t := range transactions {
		el := statement.CreateElement("transaction")
		el.CreateAttr("id", fmt.Sprintf("%d", t.ID))
		el.CreateAttr("type", string(t.Type))
		el.CreateAttr("status", string(t.Status))
		el.CreateElement("amount").SetText(fmt.Sprintf("%.2f", t.Amount))
		el.CreateElement("processedAt").SetText(t.ProcessedAt.Format(time.RFC3339))
		if t.FromAccountID != nil {
			el.CreateElement("fromAccount").SetText(fmt.Sprintf("%d", *t.FromAccountID))
		}
		if t.ToAccountID != nil {
			el.CreateElement("toAccount").SetText(fmt.Sprintf("%d", *t.ToAccountID))
		}
		if t.Description != "" {
			el.CreateElement("description").SetText(t.Description)
		}
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

// toTransactionDTO конвертирует модель Transaction в DTO
func toTransactionDTO(t *models.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:            t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount,
		Type:          string(t.Type),
		Status:        string(t.Status),
		Description:   t.Description,
		Category:      t.Category,
		ReferenceID:   t.ReferenceID,
		ReferenceType: t.ReferenceType,
		ProcessedAt:   t.ProcessedAt.Format(time.RFC3339),
	}
}
