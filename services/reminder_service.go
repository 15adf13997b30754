// services/reminder_service.go
package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	"boutiquepro-backend/models"
	"boutiquepro-backend/utils"

	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReminderService nudges customers about overdue installments. A daily cron
// sweep finds unpaid installments past their due date and sends one message
// per installment via Twilio, preferring WhatsApp for E.164 numbers. Walk-in
// sales carry no customer and are skipped.
type ReminderService struct {
	db     *gorm.DB
	client *twilio.RestClient
	log    *zap.Logger
}

func NewReminderService(db *gorm.DB, log *zap.Logger) *ReminderService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &ReminderService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		log: log,
	}
}

func (s *ReminderService) StartScheduler() {
	c := cron.New()

	// Run every day at 9 AM
	c.AddFunc("0 9 * * *", s.SendOverdueReminders)

	c.Start()
	s.log.Info("Overdue-payment reminder scheduler started")
}

func (s *ReminderService) SendOverdueReminders() {
	s.log.Info("Starting overdue reminder processing...")

	var owners []models.User
	if err := s.db.Find(&owners, "is_active = ?", true).Error; err != nil {
		s.log.Error("Failed to fetch store owners", zap.Error(err))
		return
	}

	for _, owner := range owners {
		s.ProcessStoreReminders(owner)
	}

	s.log.Info("Overdue reminder processing completed")
}

func (s *ReminderService) ProcessStoreReminders(owner models.User) {
	var sales []models.Sale
	err := s.db.Preload("Installments").
		Where("user_id = ? AND customer_id IS NOT NULL AND status <> ?", owner.ID, models.StatusPaid).
		Find(&sales).Error
	if err != nil {
		s.log.Error("Failed to fetch open sales",
			zap.String("userId", owner.ID.String()), zap.Error(err))
		return
	}

	now := utils.BeginningOfDay(time.Now())
	for _, sale := range sales {
		var customer models.Customer
		if err := s.db.First(&customer, "id = ?", sale.CustomerID).Error; err != nil {
			// Customer was deleted; nothing to notify.
			continue
		}

		for _, inst := range sale.Installments {
			if inst.Status == models.StatusPaid || !inst.DueDate.Before(now) {
				continue
			}
			// One reminder per installment, ever.
			var sent int64
			s.db.Model(&models.ReminderLog{}).
				Where("installment_id = ? AND status = ?", inst.ID, "sent").
				Count(&sent)
			if sent > 0 {
				continue
			}
			s.sendReminder(owner, customer, sale, inst)
		}
	}
}

func (s *ReminderService) sendReminder(owner models.User, customer models.Customer, sale models.Sale, inst models.Installment) {
	message := fmt.Sprintf(
		"Hi %s, a friendly reminder from %s: your installment of %s for \"%s\" was due on %s. Please get in touch to settle it.",
		customer.Name, owner.StoreName, inst.Amount.StringFixed(2), sale.Description,
		inst.DueDate.Format("02/01/2006"),
	)

	// WhatsApp for E.164 numbers, SMS otherwise
	channel := "sms"
	to := customer.Phone
	if strings.HasPrefix(customer.Phone, "+") {
		to = "whatsapp:" + customer.Phone
		channel = "whatsapp"
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetBody(message)
	if channel == "whatsapp" {
		params.SetFrom("whatsapp:" + os.Getenv("TWILIO_WHATSAPP_NUMBER"))
	} else {
		params.SetFrom(os.Getenv("TWILIO_PHONE_NUMBER"))
	}

	resp, err := s.client.Api.CreateMessage(params)
	status := "sent"
	errorMsg := ""

	if err != nil {
		s.log.Warn("Failed to send reminder", zap.String("to", customer.Phone), zap.Error(err))
		status = "failed"
		errorMsg = err.Error()
	} else if resp.Sid != nil {
		s.log.Info("Reminder sent", zap.String("to", customer.Phone), zap.String("sid", *resp.Sid))
	} else {
		s.log.Info("Reminder sent, no SID returned", zap.String("to", customer.Phone))
	}

	reminderLog := models.ReminderLog{
		UserID:        owner.ID,
		CustomerID:    customer.ID,
		InstallmentID: inst.ID,
		Message:       message,
		Status:        status,
		ErrorMessage:  errorMsg,
		Channel:       channel,
		SentAt:        time.Now(),
	}
	if err := s.db.Create(&reminderLog).Error; err != nil {
		s.log.Error("Failed to log reminder", zap.String("customerId", customer.ID.String()), zap.Error(err))
	}
}
