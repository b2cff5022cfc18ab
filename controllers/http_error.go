package controllers

import (
	"errors"
	"net/http"

	"lyceumBank/services"
)

// writeServiceError отображает ошибку сервиса на HTTP статус. Текст ошибки
// уходит клиенту как есть
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrProductInactive),
		errors.Is(err, services.ErrTransactionReversed):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
