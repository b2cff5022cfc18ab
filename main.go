package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"lyceumBank/config"
	"lyceumBank/controllers"
	"lyceumBank/database"
	"lyceumBank/middleware"
	"lyceumBank/services"
	"lyceumBank/utils"

	"github.com/gorilla/mux"
)

// healthHandler отвечает на проверку готовности сервера
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// metricsHandler отдает снимок метрик приложения
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(utils.GetMetrics().GetMetricsSnapshot())
}

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем подключение к базе данных
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}

	// Инициализируем сервис email
	emailService := services.NewEmailService(cfg)

	// Создаем роутер
	router := mux.NewRouter()

	// Инициализируем контроллеры
	authController := controllers.NewAuthController(db)
	productController := controllers.NewProductController(db, emailService)
	transactionController := controllers.NewTransactionController(db, emailService)
	notificationController := controllers.NewNotificationController(db)

	// Проверка готовности
	router.HandleFunc("/health", healthHandler).Methods("GET")

	// Публичные маршруты для аутентификации
	router.HandleFunc("/api/auth/signUp", authController.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/signIn", authController.SignIn).Methods("POST")

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(authController.GetJWTKey())))
	protected.Use(middleware.LoggingMiddleware)
	protected.Use(middleware.RateLimit)
	protected.Use(middleware.Recovery)

	// Маршруты магазина
	protected.HandleFunc("/products", productController.GetProducts).Methods("GET")
	protected.HandleFunc("/products", middleware.RequireAdmin(productController.CreateProduct)).Methods("POST")
	protected.HandleFunc("/products/purchase", productController.Purchase).Methods("POST")
	protected.HandleFunc("/products/purchases/my", productController.GetMyPurchases).Methods("GET")
	protected.HandleFunc("/products/{id}", middleware.RequireAdmin(productController.UpdateProduct)).Methods("PUT")
	protected.HandleFunc("/products/{id}", middleware.RequireAdmin(productController.DeleteProduct)).Methods("DELETE")

	// Маршруты транзакций
	protected.HandleFunc("/transactions", middleware.RequireAdmin(transactionController.CreateTransaction)).Methods("POST")
	protected.HandleFunc("/transactions/my", transactionController.GetMyTransactions).Methods("GET")
	protected.HandleFunc("/transactions/stats", transactionController.GetStats).Methods("GET")
	protected.HandleFunc("/transactions/export", middleware.RequireAdmin(transactionController.ExportStatement)).Methods("GET")
	protected.HandleFunc("/transactions/{id}/description", transactionController.UpdateDescription).Methods("PUT")
	protected.HandleFunc("/transactions/{id}/reverse", middleware.RequireAdmin(transactionController.ReverseTransaction)).Methods("POST")

	// Маршруты уведомлений
	protected.HandleFunc("/notifications", middleware.RequireAdmin(notificationController.CreateNotification)).Methods("POST")
	protected.HandleFunc("/notifications/my", notificationController.GetMyNotifications).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", notificationController.MarkAsRead).Methods("POST")
	protected.HandleFunc("/notifications/{id}/stats", middleware.RequireAdmin(notificationController.GetNotificationStats)).Methods("GET")

	// Маршруты администрирования
	protected.HandleFunc("/users/{id}", middleware.RequireAdmin(authController.DeactivateUser)).Methods("DELETE")
	protected.HandleFunc("/metrics", middleware.RequireAdmin(metricsHandler)).Methods("GET")

	// Запускаем сервер
	port := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на порту %s", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
