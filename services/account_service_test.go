package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB создает gorm.DB поверх sqlmock для тестов сервисов
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	return db, mock
}

func TestAccountService_Debit(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewAccountService(db)

	mock.ExpectBegin()
	tx := db.Begin()

	// Списание проходит одним условным UPDATE
	mock.ExpectExec(`UPDATE "accounts" SET (.+) WHERE id = (.+) AND balance >= (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := service.Debit(tx, 5, 100)
	assert.NoError(err)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestAccountService_Debit_InsufficientFunds(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewAccountService(db)

	mock.ExpectBegin()
	tx := db.Begin()

	// UPDATE не задел ни одной строки: счет существует, средств не хватает
	mock.ExpectExec(`UPDATE "accounts" SET (.+) WHERE id = (.+) AND balance >= (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts" WHERE id = (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := service.Debit(tx, 5, 100500)
	assert.ErrorIs(err, ErrInsufficientFunds)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestAccountService_Debit_AccountNotFound(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewAccountService(db)

	mock.ExpectBegin()
	tx := db.Begin()

	mock.ExpectExec(`UPDATE "accounts" SET (.+) WHERE id = (.+) AND balance >= (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts" WHERE id = (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := service.Debit(tx, 999, 100)
	assert.ErrorIs(err, ErrAccountNotFound)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestAccountService_Debit_InvalidAmount(t *testing.T) {
	assert := assert.New(t)
	db, _ := setupMockDB(t)
	service := NewAccountService(db)

	// Нулевые и отрицательные суммы отклоняются без обращения к базе
	err := service.Debit(db, 5, 0)
	assert.Error(err)

	err = service.Debit(db, 5, -10)
	assert.Error(err)
}

func TestAccountService_Credit(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewAccountService(db)

	mock.ExpectBegin()
	tx := db.Begin()

	mock.ExpectExec(`UPDATE "accounts" SET (.+) WHERE id = (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := service.Credit(tx, 5, 250)
	assert.NoError(err)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestAccountService_Credit_AccountNotFound(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewAccountService(db)

	mock.ExpectBegin()
	tx := db.Begin()

	mock.ExpectExec(`UPDATE "accounts" SET (.+) WHERE id = (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := service.Credit(tx, 999, 250)
	assert.ErrorIs(err, ErrAccountNotFound)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestAccountService_GetCheckingAccount(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewAccountService(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "number", "account_type", "balance", "owner_id", "created_at", "updated_at"}).
		AddRow(5, "12345678901234567890", "CHECKING", 1000.0, 1, now, now)
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE owner_id = (.+) AND account_type = (.+)`).
		WillReturnRows(rows)

	account, err := service.GetCheckingAccount(db, 1)
	assert.NoError(err)
	assert.Equal(uint(5), account.ID)
	assert.Equal(1000.0, account.Balance)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestAccountService_GetCheckingAccount_NotFound(t *testing.T) {
	assert := assert.New(t)
	db, mock := setupMockDB(t)
	service := NewAccountService(db)

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE owner_id = (.+) AND account_type = (.+)`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := service.GetCheckingAccount(db, 999)
	assert.ErrorIs(err, ErrAccountNotFound)
	assert.NoError(mock.ExpectationsWereMet())
}
