package services

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"marketplace-service/internal/models"

	"gorm.io/gorm"
)

type TransactionArchiveService struct {
	DB   *gorm.DB
	cron *cron.Cron
}

func NewTransactionArchiveService(db *gorm.DB) *TransactionArchiveService {
	return &TransactionArchiveService{DB: db}
}

// ArchiveTransactions moves settled transactions older than 4 months to the
// archive table.
func (s *TransactionArchiveService) ArchiveTransactions() {
	log.Println("Starting transaction archive process...")

	cutoff := time.Now().AddDate(0, -4, 0)

	var oldTransactions []models.Transaction
	if err := s.DB.Where("created_at < ?", cutoff).Find(&oldTransactions).Error; err != nil {
		log.Printf("Error finding old transactions: %v", err)
		return
	}

	if len(oldTransactions) == 0 {
		log.Println("No transactions to archive")
		return
	}

	log.Printf("Found %d transactions to archive", len(oldTransactions))

	var archivedData []models.ArchivedTransaction
	for _, tx := range oldTransactions {
		archived := models.ArchivedTransaction{
			UserId:          tx.UserId,
			TxnRefNo:        tx.TxnRefNo,
			Amount:          tx.Amount,
			Currency:        tx.Currency,
			TxnDateTime:     tx.TxnDateTime,
			BillReference:   tx.BillReference,
			Description:     tx.Description,
			ResponseCode:    tx.ResponseCode,
			ResponseMessage: tx.ResponseMessage,
			Status:          tx.Status,
			Raw:             tx.Raw,
			CreatedAt:       tx.CreatedAt,
			UpdatedAt:       tx.UpdatedAt,
		}
		archivedData = append(archivedData, archived)
	}

	// Transaction for atomic move
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&archivedData).Error; err != nil {
			return err
		}

		ids := make([]int, len(oldTransactions))
		for i, t := range oldTransactions {
			ids[i] = t.ID
		}

		return tx.Delete(&models.Transaction{}, ids).Error
	})

	if err != nil {
		log.Printf("Error during transaction archiving: %v", err)
	} else {
		log.Printf("Archived and removed %d transactions.", len(oldTransactions))
	}
}

// StartScheduler runs the archive sweep on the first of every month.
func (s *TransactionArchiveService) StartScheduler() {
	c := cron.New()
	_, err := c.AddFunc("0 0 1 * *", func() {
		log.Println("Running scheduled transaction archive task...")
		s.ArchiveTransactions()
	})
	if err != nil {
		log.Printf("Error scheduling archive task: %v", err)
		return
	}
	c.Start()
	s.cron = c
	log.Println("Transaction Archive Scheduler started (Monthly on day 1 at 00:00)")
}

func (s *TransactionArchiveService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
