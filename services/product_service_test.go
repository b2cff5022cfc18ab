package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// productRows возвращает набор колонок таблицы products для sqlmock
func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "created_at", "updated_at", "deleted_at", "title", "description", "price", "stock_quantity", "is_active"})
}

// accountRows возвращает набор колонок таблицы accounts для sqlmock
func accountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "number", "account_type", "balance", "owner_id", "created_at", "updated_at"})
}

func TestProductService_Purchase(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewProductService(db, nil)

	now := time.Now()

	// Товар по 50 токенов, 100 штук на складе; у покупателя 1000 токенов
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"."id" = (.+)`).
		WillReturnRows(productRows().AddRow(3, now, now, nil, "Блокнот", "Блокнот лицея", 50.0, 100, true))
	mock.ExpectExec(`UPDATE "products" SET (.+) WHERE id = (.+) AND stock_quantity >= (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE owner_id = (.+) AND account_type = (.+)`).
		WillReturnRows(accountRows().AddRow(5, "12345678901234567890", "CHECKING", 1000.0, 1, now, now))
	mock.ExpectExec(`UPDATE "accounts" SET (.+) WHERE id = (.+) AND balance >= (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Перечитываем баланс после списания
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE "accounts"."id" = (.+)`).
		WillReturnRows(accountRows().AddRow(5, "12345678901234567890", "CHECKING", 900.0, 1, now, now))
	mock.ExpectQuery(`INSERT INTO "transactions" (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(`INSERT INTO "purchases" (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "password", "role", "is_active", "created_at", "updated_at"}).
			AddRow(1, "Иван", "Петров", "ivan@lyceum.ru", "hash", "STUDENT", true, now, now))
	mock.ExpectCommit()

	result, err := service.Purchase(1, PurchaseRequest{ProductID: 3, Quantity: 2})

	assert.NoError(err)
	assert.Equal(900.0, result.NewBalance)
	assert.Equal(uint(11), result.TransactionID)
	assert.Equal(2, result.Purchase.Quantity)
	assert.Equal(50.0, result.Purchase.UnitPrice)
	assert.Equal(100.0, result.Purchase.TotalAmount)
	assert.Equal("COMPLETED", result.Purchase.Status)
	assert.Equal(98, result.Purchase.Product.StockQuantity)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestProductService_Purchase_UnlimitedStock(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewProductService(db, nil)

	now := time.Now()

	// Остаток -1 не отслеживается: UPDATE по складу не выполняется
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"."id" = (.+)`).
		WillReturnRows(productRows().AddRow(3, now, now, nil, "Обед", "", 30.0, -1, true))
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE owner_id = (.+) AND account_type = (.+)`).
		WillReturnRows(accountRows().AddRow(5, "12345678901234567890", "CHECKING", 100.0, 1, now, now))
	mock.ExpectExec(`UPDATE "accounts" SET (.+) WHERE id = (.+) AND balance >= (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE "accounts"."id" = (.+)`).
		WillReturnRows(accountRows().AddRow(5, "12345678901234567890", "CHECKING", 70.0, 1, now, now))
	mock.ExpectQuery(`INSERT INTO "transactions" (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectQuery(`INSERT INTO "purchases" (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(22))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "password", "role", "is_active", "created_at", "updated_at"}).
			AddRow(1, "Иван", "Петров", "ivan@lyceum.ru", "hash", "STUDENT", true, now, now))
	mock.ExpectCommit()

	// Количество по умолчанию — одна единица
	result, err := service.Purchase(1, PurchaseRequest{ProductID: 3})

	assert.NoError(err)
	assert.Equal(1, result.Purchase.Quantity)
	assert.Equal(70.0, result.NewBalance)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestProductService_Purchase_InsufficientStock(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewProductService(db, nil)

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"."id" = (.+)`).
		WillReturnRows(productRows().AddRow(3, now, now, nil, "Блокнот", "", 50.0, 1, true))
	mock.ExpectExec(`UPDATE "products" SET (.+) WHERE id = (.+) AND stock_quantity >= (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := service.Purchase(1, PurchaseRequest{ProductID: 3, Quantity: 2})
	assert.ErrorIs(err, ErrInsufficientStock)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestProductService_Purchase_InsufficientFunds(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewProductService(db, nil)

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"."id" = (.+)`).
		WillReturnRows(productRows().AddRow(3, now, now, nil, "Толстовка", "", 1500.0, 10, true))
	mock.ExpectExec(`UPDATE "products" SET (.+) WHERE id = (.+) AND stock_quantity >= (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE owner_id = (.+) AND account_type = (.+)`).
		WillReturnRows(accountRows().AddRow(5, "12345678901234567890", "CHECKING", 1000.0, 1, now, now))
	mock.ExpectExec(`UPDATE "accounts" SET (.+) WHERE id = (.+) AND balance >= (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts" WHERE id = (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := service.Purchase(1, PurchaseRequest{ProductID: 3})
	assert.ErrorIs(err, ErrInsufficientFunds)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestProductService_Purchase_InactiveProduct(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewProductService(db, nil)

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"."id" = (.+)`).
		WillReturnRows(productRows().AddRow(3, now, now, nil, "Блокнот", "", 50.0, 100, false))
	mock.ExpectRollback()

	_, err := service.Purchase(1, PurchaseRequest{ProductID: 3})
	assert.ErrorIs(err, ErrProductInactive)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestProductService_Purchase_ProductNotFound(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewProductService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"."id" = (.+)`).
		WillReturnRows(productRows())
	mock.ExpectRollback()

	_, err := service.Purchase(1, PurchaseRequest{ProductID: 404})
	assert.ErrorIs(err, ErrProductNotFound)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestProductService_DeactivateProduct(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewProductService(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET (.+) WHERE id = (.+) AND is_active = (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := service.DeactivateProduct(3)
	assert.NoError(err)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestProductService_DeactivateProduct_NotFound(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewProductService(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET (.+) WHERE id = (.+) AND is_active = (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := service.DeactivateProduct(404)
	assert.ErrorIs(err, ErrProductNotFound)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestProductService_CreateProduct_Validation(t *testing.T) {
	assert := assert.New(t)
	db, _ := setupMockDB(t)
	service := NewProductService(db, nil)

	// Цена обязательна и должна быть больше 0
	_, err := service.CreateProduct(CreateProductDTO{Title: "Блокнот"})
	assert.Error(err)

	// Остаток меньше -1 недопустим
	stock := -5
	_, err = service.CreateProduct(CreateProductDTO{Title: "Блокнот", Price: 50, StockQuantity: &stock})
	assert.Error(err)
}
