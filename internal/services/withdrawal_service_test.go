package services

import (
	"testing"
	"time"

	"marketplace-service/internal/models"
)

// newTestWithdrawalService pins the service clock to a fixed day so the
// Sunday gate can be exercised either way.
func newTestWithdrawalService(day time.Time) *WithdrawalService {
	svc := NewWithdrawalService(testDB)
	svc.now = func() time.Time { return day }
	return svc
}

var (
	aSunday = time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)
	aMonday = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
)

func TestPayoutAmount(t *testing.T) {
	cases := []struct {
		requested float64
		want      float64
	}{
		{1000, 900},
		{100, 90},
		{55, 49}, // 49.5 floors to 49
		{1, 0},
	}
	for _, tc := range cases {
		if got := PayoutAmount(tc.requested); got != tc.want {
			t.Errorf("PayoutAmount(%v) = %v, want %v", tc.requested, got, tc.want)
		}
	}
}

func seedPendingWithdrawal(t *testing.T, userId int, requested float64) *models.Withdrawal {
	t.Helper()
	w := models.Withdrawal{
		UserId:          userId,
		Username:        "w",
		AmountRequested: requested,
		AmountPaid:      PayoutAmount(requested),
		Status:          models.WithdrawalStatusPending,
	}
	if err := testDB.Create(&w).Error; err != nil {
		t.Fatalf("seed withdrawal: %v", err)
	}
	testDB.Model(&models.User{}).Where("id = ?", userId).Update("pending_withdrawal", true)
	return &w
}

func seedWithdrawalAccount(t *testing.T, userId int) {
	t.Helper()
	account := models.WithdrawalAccount{
		UserId:        userId,
		AccountNumber: "111222",
		AccountHolder: "Holder",
		BankName:      "Test Bank",
		Status:        1,
	}
	if err := testDB.Create(&account).Error; err != nil {
		t.Fatalf("seed withdrawal account: %v", err)
	}
}

func TestRequestWithdrawal_SundaysOnly(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	user := seedUser(t, "weekday", nil)
	testDB.Model(&models.User{}).Where("id = ?", user.ID).Update("total_earnings", 500)
	seedWithdrawalAccount(t, user.ID)

	svc := newTestWithdrawalService(aMonday)
	if _, err := svc.RequestWithdrawal(user.ID, 200); err == nil {
		t.Error("Expected a weekday request to be refused")
	}

	var re models.User
	testDB.First(&re, user.ID)
	if re.PendingWithdrawal {
		t.Error("Refused request must not set the pending flag")
	}

	svc = newTestWithdrawalService(aSunday)
	w, err := svc.RequestWithdrawal(user.ID, 200)
	if err != nil {
		t.Fatalf("Sunday request failed: %v", err)
	}
	if w.AmountRequested != 200.0 {
		t.Errorf("AmountRequested = %v, want 200", w.AmountRequested)
	}
	if w.AmountPaid != 180.0 {
		t.Errorf("AmountPaid = %v, want 180 after fee", w.AmountPaid)
	}
	if w.Status != models.WithdrawalStatusPending {
		t.Errorf("Status = %d, want pending", w.Status)
	}

	testDB.First(&re, user.ID)
	if !re.PendingWithdrawal {
		t.Error("Pending flag not set by an accepted request")
	}
	// Opening the request must not touch the ledger; approval does that.
	if re.TotalEarnings != 500.0 {
		t.Errorf("TotalEarnings = %v, want untouched 500", re.TotalEarnings)
	}
}

func TestRequestWithdrawal_RefusesSecondOpenRequest(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	user := seedUser(t, "eager", nil)
	testDB.Model(&models.User{}).Where("id = ?", user.ID).Update("total_earnings", 500)
	seedWithdrawalAccount(t, user.ID)

	svc := newTestWithdrawalService(aSunday)
	if _, err := svc.RequestWithdrawal(user.ID, 100); err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	if _, err := svc.RequestWithdrawal(user.ID, 100); err == nil {
		t.Error("Expected a second request to be refused while one is pending")
	}

	var count int64
	testDB.Model(&models.Withdrawal{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 withdrawal row, got %d", count)
	}
}

func TestRequestWithdrawal_RequiresEarningsAndAccount(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := newTestWithdrawalService(aSunday)

	broke := seedUser(t, "broke", nil)
	testDB.Model(&models.User{}).Where("id = ?", broke.ID).Update("total_earnings", 50)
	seedWithdrawalAccount(t, broke.ID)
	if _, err := svc.RequestWithdrawal(broke.ID, 200); err == nil {
		t.Error("Expected a request above earnings to be refused")
	}

	unbanked := seedUser(t, "unbanked", nil)
	testDB.Model(&models.User{}).Where("id = ?", unbanked.ID).Update("total_earnings", 500)
	if _, err := svc.RequestWithdrawal(unbanked.ID, 200); err == nil {
		t.Error("Expected a request without a registered account to be refused")
	}

	if _, err := svc.RequestWithdrawal(broke.ID, 0); err == nil {
		t.Error("Expected a non-positive amount to be refused")
	}
}

func TestUpdateWithdrawalStatus_ApproveDebitsLedgerOnce(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := NewWithdrawalService(testDB)
	user := seedUser(t, "earner", nil)
	testDB.Model(&models.User{}).Where("id = ?", user.ID).Update("total_earnings", 500)
	w := seedPendingWithdrawal(t, user.ID, 200)

	if err := svc.UpdateWithdrawalStatus(w.ID, models.WithdrawalStatusApproved, "ok", "admin"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	var re models.User
	testDB.First(&re, user.ID)
	if re.TotalEarnings != 300.0 {
		t.Errorf("TotalEarnings = %v, want 300", re.TotalEarnings)
	}
	if re.TotalWithdrawn != 180.0 {
		t.Errorf("TotalWithdrawn = %v, want 180 (fee retained)", re.TotalWithdrawn)
	}
	if re.PendingWithdrawal {
		t.Error("Pending flag not released after approval")
	}
	if re.LastWithdrawalDate == nil {
		t.Error("LastWithdrawalDate not stamped")
	}

	// A replayed approval must not debit again.
	if err := svc.UpdateWithdrawalStatus(w.ID, models.WithdrawalStatusApproved, "ok", "admin"); err != nil {
		t.Fatalf("Replay approve errored: %v", err)
	}
	testDB.First(&re, user.ID)
	if re.TotalEarnings != 300.0 {
		t.Errorf("Replay debited again: %v", re.TotalEarnings)
	}
}

func TestUpdateWithdrawalStatus_ApproveFailsBeyondBalance(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := NewWithdrawalService(testDB)
	user := seedUser(t, "thin", nil)
	testDB.Model(&models.User{}).Where("id = ?", user.ID).Update("total_earnings", 100)
	w := seedPendingWithdrawal(t, user.ID, 200)

	if err := svc.UpdateWithdrawalStatus(w.ID, models.WithdrawalStatusApproved, "", "admin"); err == nil {
		t.Error("Expected approval to fail when earnings are below the requested amount")
	}

	// The transaction must have rolled everything back.
	var re models.User
	testDB.First(&re, user.ID)
	if re.TotalEarnings != 100.0 {
		t.Errorf("TotalEarnings = %v, want untouched 100", re.TotalEarnings)
	}
	var reW models.Withdrawal
	testDB.First(&reW, w.ID)
	if reW.Status != models.WithdrawalStatusPending {
		t.Errorf("Withdrawal status = %d, want still pending", reW.Status)
	}
}

func TestUpdateWithdrawalStatus_RejectReleasesFlagWithoutDebit(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := NewWithdrawalService(testDB)
	user := seedUser(t, "denied", nil)
	testDB.Model(&models.User{}).Where("id = ?", user.ID).Update("total_earnings", 500)
	w := seedPendingWithdrawal(t, user.ID, 200)

	if err := svc.UpdateWithdrawalStatus(w.ID, models.WithdrawalStatusRejected, "nope", "admin"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	var re models.User
	testDB.First(&re, user.ID)
	if re.TotalEarnings != 500.0 {
		t.Errorf("Rejection debited the ledger: %v", re.TotalEarnings)
	}
	if re.PendingWithdrawal {
		t.Error("Pending flag not released after rejection")
	}

	var reW models.Withdrawal
	testDB.First(&reW, w.ID)
	if reW.Status != models.WithdrawalStatusRejected {
		t.Errorf("Withdrawal status = %d, want rejected", reW.Status)
	}
}

func TestSaveWithdrawalAccount_Upserts(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := NewWithdrawalService(testDB)
	user := seedUser(t, "banked", nil)

	first, err := svc.SaveWithdrawalAccount(user.ID, "111222", "Holder One", "First Bank")
	if err != nil {
		t.Fatalf("SaveWithdrawalAccount failed: %v", err)
	}

	second, err := svc.SaveWithdrawalAccount(user.ID, "333444", "Holder One", "Second Bank")
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if second.ID != first.ID {
		t.Error("Replacement created a second account row")
	}
	if second.AccountNumber != "333444" {
		t.Errorf("AccountNumber = %s, want 333444", second.AccountNumber)
	}

	var count int64
	testDB.Model(&models.WithdrawalAccount{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 account row, got %d", count)
	}
}
