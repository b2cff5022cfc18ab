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

// ProductController обрабатывает запросы школьного магазина
type ProductController struct {
	productService *services.ProductService
}

// NewProductController создает новый экземпляр ProductController
func NewProductController(db *database.Database, email *services.EmailService) *ProductController {
	return &ProductController{
		productService: services.NewProductService(db.DB, email),
	}
}

// Purchase обрабатывает запрос на покупку товара
func (c *ProductController) Purchase(w http.ResponseWriter, r *http.Request) {
	// Получаем ID пользователя из контекста (установлен middleware)
	userID, ok := r.Context().Value("user_id").(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Создаем DTO для запроса
	var request services.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Выполняем покупку
	result, err := c.productService.Purchase(userID, request)
	if err != nil {
		utils.GetMetrics().RecordPurchase(0, err)
		writeServiceError(w, err)
		return
	}
	utils.GetMetrics().RecordPurchase(result.Purchase.TotalAmount, nil)

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":       "Покупка успешно выполнена",
		"purchase":      result.Purchase,
		"newBalance":    result.NewBalance,
		"transactionId": result.TransactionID,
	})
}

// GetMyPurchases обрабатывает запрос на получение покупок пользователя
func (c *ProductController) GetMyPurchases(w http.ResponseWriter, r *http.Request) {
	// Получаем ID пользователя из контекста (установлен middleware)
	userID, ok := r.Context().Value("user_id").(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Получаем список покупок
	purchases, err := c.productService.GetPurchasesByUserID(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(purchases)
}

// GetProducts обрабатывает запрос на получение витрины магазина
func (c *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	// Получаем список доступных товаров
	products, err := c.productService.GetActiveProducts()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(products)
}

// CreateProduct обрабатывает запрос на создание товара
func (c *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	// Создаем DTO для запроса
	var dto services.CreateProductDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Создаем товар
	product, err := c.productService.CreateProduct(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(product)
}

// UpdateProduct обрабатывает запрос на изменение товара
func (c *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	// Получаем ID товара из URL
	vars := mux.Vars(r)
	productID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	// Создаем DTO для запроса
	var dto services.UpdateProductDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Изменяем товар
	product, err := c.productService.UpdateProduct(uint(productID), dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(product)
}

// DeleteProduct обрабатывает запрос на снятие товара с витрины
func (c *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	// Получаем ID товара из URL
	vars := mux.Vars(r)
	productID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	// Деактивируем товар
	if err := c.productService.DeactivateProduct(uint(productID)); err != nil {
		writeServiceError(w, err)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Товар снят с витрины",
	})
}
