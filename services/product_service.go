package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lyceumBank/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Ошибки магазина
var (
	ErrProductNotFound   = errors.New("товар не найден")
	ErrProductInactive   = errors.New("товар недоступен для покупки")
	ErrInsufficientStock = errors.New("недостаточно товара на складе")
)

// CreateProductDTO представляет данные для создания товара
type CreateProductDTO struct {
	Title         string  `json:"title" validate:"required,min=2,max=100"`
	Description   string  `json:"description" validate:"omitempty,max=500"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	StockQuantity *int    `json:"stockQuantity" validate:"omitempty,gte=-1"`
}

// UpdateProductDTO представляет данные для изменения товара
type UpdateProductDTO struct {
	Title         *string  `json:"title" validate:"omitempty,min=2,max=100"`
	Description   *string  `json:"description" validate:"omitempty,max=500"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0"`
	StockQuantity *int     `json:"stockQuantity" validate:"omitempty,gte=-1"`
	IsActive      *bool    `json:"isActive"`
}

// PurchaseRequest представляет запрос на покупку товара
type PurchaseRequest struct {
	ProductID uint   `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,gt=0"`
	Comment   string `json:"comment" validate:"omitempty,max=255"`
}

// ProductDTO представляет товар для ответа
type ProductDTO struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
	IsActive      bool    `json:"isActive"`
}

// PurchaseDTO представляет покупку для ответа
type PurchaseDTO struct {
	ID          uint       `json:"id"`
	User        UserDTO    `json:"user"`
	Product     ProductDTO `json:"product"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unitPrice"`
	TotalAmount float64    `json:"totalAmount"`
	Status      string     `json:"status"`
	CreatedAt   string     `json:"createdAt"`
}

// PurchaseResultDTO представляет результат покупки
type PurchaseResultDTO struct {
	Purchase      PurchaseDTO `json:"purchase"`
	NewBalance    float64     `json:"newBalance"`
	TransactionID uint        `json:"transactionId"`
}

// ProductService предоставляет методы для работы с товарами и покупками
type ProductService struct {
	db           *gorm.DB
	validator    *validator.Validate
	accounts     *AccountService
	transactions *TransactionService
	email        *EmailService
}

// NewProductService создает новый экземпляр ProductService
func NewProductService(db *gorm.DB, email *EmailService) *ProductService {
	return &ProductService{
		db:           db,
		validator:    validator.New(),
		accounts:     NewAccountService(db),
		transactions: NewTransactionService(db, email),
		email:        email,
	}
}

// validateStruct валидирует DTO и возвращает ошибки валидации
func (s *ProductService) validateStruct(dto interface{}) error {
	if err := s.validator.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
			case "gt":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть больше 0")
			case "gte":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть больше или равно "+e.Param())
			case "min":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать минимум "+e.Param()+" символов")
			case "max":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать максимум "+e.Param()+" символов")
			}
		}
		return errors.New(strings.Join(errorMessages, "; "))
	}
	return nil
}

// Purchase выполняет покупку товара. Все шаги — проверка товара, списание
// со склада, списание со счета, записи Transaction и Purchase — выполняются
// в одной транзакции базы: частичная покупка не наблюдаема
func (s *ProductService) Purchase(userID uint, request PurchaseRequest) (*PurchaseResultDTO, error) {
	// Валидируем запрос
	if err := s.validateStruct(request); err != nil {
		return nil, err
	}

	// Количество по умолчанию — одна единица
	quantity := request.Quantity
	if quantity == 0 {
		quantity = 1
	}

	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	// Получаем товар
	var product models.Product
	if err := tx.First(&product, request.ProductID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errors.New("ошибка при поиске товара")
	}

	// Проверяем доступность товара
	if !product.IsActive {
		tx.Rollback()
		return nil, ErrProductInactive
	}

	// Списываем остаток, если он отслеживается. Проверка и списание —
	// один условный UPDATE, конкурентные покупки не уведут остаток в минус
	if product.StockQuantity != models.UnlimitedStock {
		result := tx.Model(&models.Product{}).
			Where("id = ? AND stock_quantity >= ?", product.ID, quantity).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
		if result.Error != nil {
			tx.Rollback()
			return nil, errors.New("ошибка при обновлении остатка")
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			return nil, ErrInsufficientStock
		}
		product.StockQuantity -= quantity
	}

	// Получаем основной счет покупателя
	account, err := s.accounts.GetCheckingAccount(tx, userID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Списываем стоимость покупки
	totalCost := product.Price * float64(quantity)
	if err := s.accounts.Debit(tx, account.ID, totalCost); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Перечитываем баланс после списания
	if err := tx.First(account, account.ID).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при поиске счета")
	}

	// Формируем описание
	description := fmt.Sprintf("Покупка: %s x%d", product.Title, quantity)
	if request.Comment != "" {
		description = description + " (" + request.Comment + ")"
	}

	// Записываем транзакцию в журнал
	transaction, err := s.transactions.record(tx, recordParams{
		Type:          models.TransactionTypePurchase,
		Amount:        totalCost,
		FromAccountID: &account.ID,
		Description:   description,
		ReferenceID:   &product.ID,
		ReferenceType: models.ReferenceTypePurchase,
		CreatedBy:     userID,
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Создаем запись о покупке с ценой на момент покупки
	purchase := &models.Purchase{
		UserID:        userID,
		ProductID:     product.ID,
		TransactionID: transaction.ID,
		Quantity:      quantity,
		UnitPrice:     product.Price,
		TotalAmount:   totalCost,
		Status:        models.PurchaseStatusCompleted,
	}
	if err := tx.Create(purchase).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при сохранении покупки")
	}

	// Получаем данные покупателя для ответа
	var buyer models.User
	if err := tx.First(&buyer, userID).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при получении данных пользователя")
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	// Отправляем чек на почту
	if s.email != nil {
		if err := s.email.SendPurchaseReceipt(buyer.Email, product.Title, quantity, totalCost, account.Balance); err != nil {
			log.Printf("Ошибка отправки чека: %v", err)
		}
	}

	return &PurchaseResultDTO{
		Purchase: PurchaseDTO{
			ID: purchase.ID,
			User: UserDTO{
				ID:        buyer.ID,
				FirstName: buyer.FirstName,
				LastName:  buyer.LastName,
				Email:     buyer.Email,
				Role:      string(buyer.Role),
			},
			Product:     toProductDTO(&product),
			Quantity:    quantity,
			UnitPrice:   purchase.UnitPrice,
			TotalAmount: purchase.TotalAmount,
			Status:      string(purchase.Status),
			CreatedAt:   purchase.CreatedAt.Format(time.RFC3339),
		},
		NewBalance:    account.Balance,
		TransactionID: transaction.ID,
	}, nil
}

// GetPurchasesByUserID возвращает покупки пользователя
func (s *ProductService) GetPurchasesByUserID(userID uint) ([]PurchaseDTO, error) {
	var purchases []models.Purchase
	if err := s.db.Where("user_id = ?", userID).
		Preload("Product").
		Preload("User").
		Order("created_at DESC").
		Find(&purchases).Error; err != nil {
		return nil, errors.New("ошибка при получении списка покупок")
	}

	dtos := make([]PurchaseDTO, len(purchases))
	for i, p := range purchases {
		dtos[i] = PurchaseDTO{
			ID: p.ID,
			User: UserDTO{
				ID:        p.User.ID,
				FirstName: p.User.FirstName,
				LastName:  p.User.LastName,
				Email:     p.User.Email,
				Role:      string(p.User.Role),
			},
			Product:     toProductDTO(&p.Product),
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
			TotalAmount: p.TotalAmount,
			Status:      string(p.Status),
			CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos, nil
}

// CreateProduct создает новый товар
func (s *ProductService) CreateProduct(dto CreateProductDTO) (*ProductDTO, error) {
	// Валидируем DTO
	if err := s.validateStruct(dto); err != nil {
		return nil, err
	}

	// По умолчанию остаток не отслеживается
	stock := models.UnlimitedStock
	if dto.StockQuantity != nil {
		stock = *dto.StockQuantity
	}

	product := &models.Product{
		Title:         dto.Title,
		Description:   dto.Description,
		Price:         dto.Price,
		StockQuantity: stock,
		IsActive:      true,
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, errors.New("не удалось создать товар")
	}

	result := toProductDTO(product)
	return &result, nil
}

// UpdateProduct изменяет товар
func (s *ProductService) UpdateProduct(id uint, dto UpdateProductDTO) (*ProductDTO, error) {
	// Валидируем DTO
	if err := s.validateStruct(dto); err != nil {
		return nil, err
	}

	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errors.New("ошибка при поиске товара")
	}

	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
	}
	if dto.Price != nil {
		updates["price"] = *dto.Price
	}
	if dto.StockQuantity != nil {
		updates["stock_quantity"] = *dto.StockQuantity
	}
	if dto.IsActive != nil {
		updates["is_active"] = *dto.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&product).Updates(updates).Error; err != nil {
			return nil, errors.New("ошибка при обновлении товара")
		}
	}

	result := toProductDTO(&product)
	return &result, nil
}

// DeactivateProduct убирает товар с витрины. Запись не удаляется:
// на нее ссылаются покупки
func (s *ProductService) DeactivateProduct(id uint) error {
	result := s.db.Model(&models.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return errors.New("ошибка при обновлении товара")
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// GetActiveProducts возвращает товары, доступные для покупки
func (s *ProductService) GetActiveProducts() ([]ProductDTO, error) {
	var products []models.Product
	if err := s.db.Where("is_active = ?", true).
		Order("title ASC").
		Find(&products).Error; err != nil {
		return nil, errors.New("ошибка при получении списка товаров")
	}

	dtos := make([]ProductDTO, len(products))
	for i := range products {
		dtos[i] = toProductDTO(&products[i])
	}
	return dtos, nil
}

// toProductDTO конвертирует модель Product в DTO
func toProductDTO(product *models.Product) ProductDTO {
	return ProductDTO{
		ID:            product.ID,
		Title:         product.Title,
		Description:   product.Description,
		Price:         product.Price,
		StockQuantity: product.StockQuantity,
		IsActive:      product.IsActive,
	}
}
