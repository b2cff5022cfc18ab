package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"lyceumBank/database"
	"lyceumBank/services"

	"github.com/gorilla/mux"
)

// TransactionController обрабатывает запросы, связанные с транзакциями
type TransactionController struct {
	transactionService *services.TransactionService
}

// NewTransactionController создает новый экземпляр TransactionController
func NewTransactionController(db *database.Database, email *services.EmailService) *TransactionController {
	return &TransactionController{
		transactionService: services.NewTransactionService(db.DB, email),
	}
}

// CreateTransaction обрабатывает запрос на создание транзакции
func (c *TransactionController) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	// Получаем ID пользователя из контекста (установлен middleware)
	createdBy, ok := r.Context().Value("user_id").(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Создаем DTO для запроса
	var dto services.CreateTransactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Создаем транзакцию
	transaction, err := c.transactionService.Create(dto, createdBy)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(transaction)
}

// GetMyTransactions обрабатывает запрос на получение истории транзакций
func (c *TransactionController) GetMyTransactions(w http.ResponseWriter, r *http.Request) {
	// Получаем ID пользователя из контекста (установлен middleware)
	userID, ok := r.Context().Value("user_id").(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Получаем историю транзакций
	transactions, err := c.transactionService.GetByUserID(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transactions)
}

// GetStats обрабатывает запрос на получение статистики
func (c *TransactionController) GetStats(w http.ResponseWriter, r *http.Request) {
	// Получаем статистику
	stats, err := c.transactionService.GetStats()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}

// UpdateDescription обрабатывает запрос на изменение описания транзакции
func (c *TransactionController) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	// Получаем ID транзакции из URL
	vars := mux.Vars(r)
	transactionID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	// Создаем DTO для запроса
	var body struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Обновляем описание
	transaction, err := c.transactionService.UpdateDescription(uint(transactionID), body.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transaction)
}

// ReverseTransaction обрабатывает запрос на сторнирование транзакции
func (c *TransactionController) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	// Получаем ID пользователя из контекста (установлен middleware)
	createdBy, ok := r.Context().Value("user_id").(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Получаем ID транзакции из URL
	vars := mux.Vars(r)
	transactionID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	// Сторнируем транзакцию
	reversal, err := c.transactionService.Reverse(uint(transactionID), createdBy)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(reversal)
}

// ExportStatement обрабатывает запрос на выгрузку XML-выписки
func (c *TransactionController) ExportStatement(w http.ResponseWriter, r *http.Request) {
	// Период выгрузки: по умолчанию последние 30 дней
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "Invalid from date", http.StatusBadRequest)
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "Invalid to date", http.StatusBadRequest)
			return
		}
		to = parsed
	}

	// Формируем выписку
	statement, err := c.transactionService.ExportStatement(from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(statement)
}
