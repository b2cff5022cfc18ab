package services

import (
	"fmt"
	"time"

	"lyceumBank/config"

	"gopkg.in/gomail.v2"
)

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	config *config.Config
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
		config: cfg,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %v", err)
	}

	return nil
}

// SendPurchaseReceipt отправляет чек о покупке в школьном магазине
func (s *EmailService) SendPurchaseReceipt(to, productTitle string, quantity int, totalAmount, newBalance float64) error {
	subject := "Чек о покупке в магазине лицея"
	body := fmt.Sprintf(`
		<h2>Покупка совершена</h2>
		<p>Товар: %s</p>
		<p>Количество: %d</p>
		<p>Сумма: %.2f токенов</p>
		<p>Остаток на счете: %.2f токенов</p>
		<p>Дата: %s</p>
	`, productTitle, quantity, totalAmount, newBalance, time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}

// SendCreditNotification отправляет уведомление о зачислении токенов
func (s *EmailService) SendCreditNotification(to string, amount float64, description string) error {
	subject := "Зачисление токенов"
	body := fmt.Sprintf(`
		<h2>Вам начислены токены</h2>
		<p>Сумма: %.2f</p>
		<p>Основание: %s</p>
		<p>Дата: %s</p>
	`, amount, description, time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}
