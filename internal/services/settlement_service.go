package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"marketplace-service/internal/models"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Task Types (copied from worker/tasks.go to avoid cycle)
const (
	TypeSettlementCheck = "settlement-check"
)

// Reconciler timing defaults, overridable by env.
const (
	DefaultInitialPollDelay = 10 * time.Minute
	DefaultRetryDelay       = 5 * time.Minute
	DefaultPendingMaxAge    = 72 * time.Hour
)

// SettlementService reconciles in-flight payments against the gateway. A
// payment enters as a PendingTransaction; inquiry callbacks and the polling
// sweep both funnel through the same promotion path, so a reference settles
// exactly once no matter how many signals arrive.
type SettlementService struct {
	DB           *gorm.DB
	Gateway      GatewayClient
	JazzCash     *JazzCashService
	Subscription *SubscriptionService
	Commission   *CommissionService
	Helper       *HelperService
	Client       *asynq.Client

	InitialPollDelay time.Duration
	RetryDelay       time.Duration
	PendingMaxAge    time.Duration // 0 disables abandonment

	cron *cron.Cron
}

func NewSettlementService(db *gorm.DB, gateway GatewayClient, jazzcash *JazzCashService,
	subscription *SubscriptionService, commission *CommissionService, helper *HelperService,
	client *asynq.Client) *SettlementService {
	return &SettlementService{
		DB:               db,
		Gateway:          gateway,
		JazzCash:         jazzcash,
		Subscription:     subscription,
		Commission:       commission,
		Helper:           helper,
		Client:           client,
		InitialPollDelay: durationFromEnv("INITIAL_POLL_DELAY", DefaultInitialPollDelay),
		RetryDelay:       durationFromEnv("STATUS_RETRY_DELAY", DefaultRetryDelay),
		PendingMaxAge:    durationFromEnv("PENDING_MAX_AGE", DefaultPendingMaxAge),
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid %s %q, using %v", key, v, fallback)
		return fallback
	}
	return d
}

// InitiatePayment builds a signed checkout payload and records the attempt as
// pending. The first status inquiry is scheduled after the initial poll delay
// so the reconciler does not race the customer through the hosted page.
func (s *SettlementService) InitiatePayment(userId int, amount float64, description string) (map[string]string, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive")
	}

	payload, err := s.JazzCash.BuildPaymentPayload(userId, amount, description)
	if err != nil {
		return nil, err
	}

	rawReq, _ := json.Marshal(payload)
	pending := models.PendingTransaction{
		UserId:                    userId,
		TxnRefNo:                  payload["pp_TxnRefNo"],
		Amount:                    payload["pp_Amount"],
		Currency:                  payload["pp_TxnCurrency"],
		TxnDateTime:               payload["pp_TxnDateTime"],
		RawRequest:                string(rawReq),
		Status:                    models.PendingStatusPending,
		StatusInquiryScheduledFor: time.Now().Add(s.InitialPollDelay),
	}
	if err := s.DB.Create(&pending).Error; err != nil {
		return nil, err
	}

	if s.Client != nil {
		// Prompt first check when due; the cron sweep remains the catch-all.
		data, _ := json.Marshal(map[string]string{"txn_ref_no": pending.TxnRefNo})
		task := asynq.NewTask(TypeSettlementCheck, data)
		_, err := s.Client.Enqueue(task,
			asynq.TaskID(fmt.Sprintf("settlement-check:%s", pending.TxnRefNo)),
			asynq.ProcessIn(s.InitialPollDelay))
		if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			log.Printf("Failed to enqueue settlement check for %s: %v", pending.TxnRefNo, err)
		}
	}
	return payload, nil
}

// CheckStatusResult is the answer to a client-side "did my payment go
// through" query.
type CheckStatusResult struct {
	Status          string              `json:"status"` // success | failed | pending | waiting | unknown
	TxnRefNo        string              `json:"txn_ref_no"`
	RemainingTimeMs int64               `json:"remaining_time_ms,omitempty"`
	Transaction     *models.Transaction `json:"transaction,omitempty"` // set on terminal statuses
}

// CheckStatus reports the settlement state of one reference. A settled
// reference answers from the transactions table. A pending reference whose
// inquiry time has not arrived answers "waiting" with the remaining delay and
// makes no outbound call; once the time has passed, the check reconciles
// inline so the caller sees the freshest state available.
func (s *SettlementService) CheckStatus(txnRefNo string) (*CheckStatusResult, error) {
	var trx models.Transaction
	err := s.DB.Where("txn_ref_no = ?", txnRefNo).First(&trx).Error
	if err == nil {
		return &CheckStatusResult{Status: trx.Status, TxnRefNo: txnRefNo, Transaction: &trx}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var pending models.PendingTransaction
	err = s.DB.Where("txn_ref_no = ? AND status = ?", txnRefNo, models.PendingStatusPending).First(&pending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &CheckStatusResult{Status: "unknown", TxnRefNo: txnRefNo}, nil
	}
	if err != nil {
		return nil, err
	}

	if remaining := time.Until(pending.StatusInquiryScheduledFor); remaining > 0 {
		return &CheckStatusResult{
			Status:          "waiting",
			TxnRefNo:        txnRefNo,
			RemainingTimeMs: remaining.Milliseconds(),
		}, nil
	}

	status := s.reconcile(&pending)
	result := &CheckStatusResult{Status: status, TxnRefNo: txnRefNo}
	if status == models.TrxStatusSuccess || status == models.TrxStatusFailed {
		var settled models.Transaction
		if err := s.DB.Where("txn_ref_no = ?", txnRefNo).First(&settled).Error; err == nil {
			result.Transaction = &settled
		}
	}
	return result, nil
}

// reconcile asks the gateway for the current state of one pending record and
// acts on the answer. Inquiry failures leave the record untouched for the
// next sweep. Returns the status the caller should report.
func (s *SettlementService) reconcile(pending *models.PendingTransaction) string {
	result, err := s.Gateway.InquireStatus(pending.TxnRefNo)
	if err != nil {
		log.Printf("Status inquiry failed for %s: %v", pending.TxnRefNo, err)
		return models.TrxStatusPending
	}

	now := time.Now()
	s.DB.Model(pending).Update("last_checked", now)

	if result.Status == models.TrxStatusPending {
		s.reschedule(pending, now)
		return models.TrxStatusPending
	}

	created, err := s.promote(pending.TxnRefNo, result)
	if err != nil {
		log.Printf("Promotion failed for %s: %v", pending.TxnRefNo, err)
		return models.TrxStatusPending
	}
	if created && result.Status == models.TrxStatusSuccess {
		s.onSettled(pending)
	}
	return result.Status
}

// promote moves a reference from pending to settled exactly once. The check
// and the create run in one database transaction; the unique index on
// txn_ref_no backstops any race the check misses. Returns whether this call
// created the settled record.
func (s *SettlementService) promote(txnRefNo string, result *StatusInquiryResult) (bool, error) {
	created := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Transaction
		err := tx.Where("txn_ref_no = ?", txnRefNo).First(&existing).Error
		if err == nil {
			// Already settled by another signal; just clear the pending row.
			return tx.Where("txn_ref_no = ?", txnRefNo).Delete(&models.PendingTransaction{}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var pending models.PendingTransaction
		if err := tx.Where("txn_ref_no = ?", txnRefNo).First(&pending).Error; err != nil {
			return err
		}

		raw, _ := json.Marshal(result.Raw)
		trx := models.Transaction{
			UserId:          pending.UserId,
			TxnRefNo:        pending.TxnRefNo,
			Amount:          pending.Amount,
			Currency:        pending.Currency,
			TxnDateTime:     pending.TxnDateTime,
			ResponseCode:    result.ResponseCode,
			ResponseMessage: result.ResponseMsg,
			Status:          result.Status,
			Raw:             string(raw),
		}
		if err := tx.Create(&trx).Error; err != nil {
			return err
		}
		if err := tx.Where("txn_ref_no = ?", txnRefNo).Delete(&models.PendingTransaction{}).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// onSettled fires the business side effects of a successful settlement:
// subscription activation keyed on the transaction reference, then commission
// distribution up the referral chain. Runs only on the call that created the
// settled record, never on replays.
func (s *SettlementService) onSettled(pending *models.PendingTransaction) {
	paisa, err := strconv.ParseFloat(pending.Amount, 64)
	if err != nil {
		log.Printf("Unparseable amount %q for %s", pending.Amount, pending.TxnRefNo)
		return
	}
	amount := paisa / 100

	if err := s.Subscription.Activate(pending.UserId, amount, pending.TxnRefNo); err != nil {
		log.Printf("Subscription activation failed for user %d (%s): %v",
			pending.UserId, pending.TxnRefNo, err)
	}
	if err := s.Commission.Distribute(pending.UserId, amount); err != nil {
		log.Printf("Commission distribution failed for user %d (%s): %v",
			pending.UserId, pending.TxnRefNo, err)
	}
}

// reschedule pushes the next inquiry out by the retry delay, or marks the
// record abandoned once it has aged past the pending ceiling. Abandoned
// records are kept for audit and excluded from the sweep.
func (s *SettlementService) reschedule(pending *models.PendingTransaction, now time.Time) {
	if s.PendingMaxAge > 0 && now.Sub(pending.CreatedAt) > s.PendingMaxAge {
		s.DB.Model(pending).Updates(map[string]interface{}{
			"status":       models.PendingStatusAbandoned,
			"last_checked": now,
		})
		log.Printf("Abandoned pending transaction %s after %v", pending.TxnRefNo, now.Sub(pending.CreatedAt))
		return
	}
	s.DB.Model(pending).Updates(map[string]interface{}{
		"status_inquiry_scheduled_for": now.Add(s.RetryDelay),
		"retry_count":                  gorm.Expr("retry_count + 1"),
		"last_checked":                 now,
	})
}

// HandleCallback processes a gateway server-to-server notification. The
// payload must carry a valid integrity hash; verified callbacks funnel
// through the same promotion path as the polling sweep.
func (s *SettlementService) HandleCallback(fields map[string]string) (string, error) {
	txnRefNo := fields["pp_TxnRefNo"]
	if txnRefNo == "" {
		return "", fmt.Errorf("callback missing pp_TxnRefNo")
	}

	settings, err := s.JazzCash.jazzcashSettings()
	if err != nil {
		return "", fmt.Errorf("jazzcash has not been configured: %w", err)
	}
	if !VerifySecureHash(fields, settings.IntegritySalt) {
		s.Helper.LogCallback(txnRefNo, "callback", "jazzcash", fields, "invalid secure hash", 0)
		return "", fmt.Errorf("callback hash verification failed for %s", txnRefNo)
	}
	s.Helper.LogCallback(txnRefNo, "callback", "jazzcash", fields, "verified", 1)

	raw := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		raw[k] = v
	}
	result := interpretInquiry(raw)
	if result.Status == models.TrxStatusPending {
		return models.TrxStatusPending, nil
	}

	created, err := s.promote(txnRefNo, result)
	if err != nil {
		return "", err
	}
	if created && result.Status == models.TrxStatusSuccess {
		// The pending row is gone; the settled record carries what onSettled needs.
		var trx models.Transaction
		if err := s.DB.Where("txn_ref_no = ?", txnRefNo).First(&trx).Error; err != nil {
			return "", err
		}
		s.onSettled(&models.PendingTransaction{
			UserId:   trx.UserId,
			TxnRefNo: trx.TxnRefNo,
			Amount:   trx.Amount,
		})
	}
	return result.Status, nil
}

// ProcessDue sweeps every pending record whose inquiry time has arrived.
func (s *SettlementService) ProcessDue() {
	var due []models.PendingTransaction
	err := s.DB.Where("status = ? AND status_inquiry_scheduled_for <= ?",
		models.PendingStatusPending, time.Now()).Find(&due).Error
	if err != nil {
		log.Printf("Error loading due pending transactions: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	log.Printf("Reconciling %d due pending transactions", len(due))
	for i := range due {
		s.reconcile(&due[i])
	}
}

// StartScheduler runs the reconciliation sweep every minute.
func (s *SettlementService) StartScheduler() {
	c := cron.New()
	_, err := c.AddFunc("*/1 * * * *", func() {
		s.ProcessDue()
	})
	if err != nil {
		log.Printf("Error scheduling settlement sweep: %v", err)
		return
	}
	c.Start()
	s.cron = c
	log.Println("Settlement Scheduler started (every minute)")
}

func (s *SettlementService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
