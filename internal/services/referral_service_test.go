package services

import (
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"marketplace-service/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NOTE: These tests require a running MySQL instance.
// Set DATABASE_URL to run them; they skip otherwise.

var testDB *gorm.DB

func setup() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Println("Skipping DB tests: DATABASE_URL not set")
		return
	}

	var err error
	testDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		return
	}

	testDB.AutoMigrate(
		&models.User{},
		&models.ReferralLink{},
		&models.PendingTransaction{},
		&models.Transaction{},
		&models.Order{},
		&models.OrderItem{},
		&models.Withdrawal{},
		&models.WithdrawalAccount{},
		&models.PaymentMethod{},
		&models.CallbackLog{},
	)
}

func cleanup() {
	if testDB != nil {
		testDB.Exec("DELETE FROM referral_links")
		testDB.Exec("DELETE FROM pending_transactions")
		testDB.Exec("DELETE FROM transactions")
		testDB.Exec("DELETE FROM order_items")
		testDB.Exec("DELETE FROM orders")
		testDB.Exec("DELETE FROM withdrawals")
		testDB.Exec("DELETE FROM withdrawal_accounts")
		testDB.Exec("DELETE FROM callback_logs")
		testDB.Exec("DELETE FROM payment_methods")
		testDB.Exec("DELETE FROM users")
	}
}

// seedUser creates a user with an active subscription and a referral code.
func seedUser(t *testing.T, name string, referrerId *int) *models.User {
	t.Helper()
	code := "PMTEST" + name
	expiry := time.Now().AddDate(0, 0, 30)
	user := models.User{
		Name:          name,
		Username:      "user_" + name,
		Email:         name + "@example.test",
		PasswordHash:  "x",
		ReferralCode:  &code,
		ReferrerId:    referrerId,
		SubIsActive:   true,
		SubExpiryDate: &expiry,
	}
	if err := testDB.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return &user
}

func TestLinkNewAccount_SelfReferralIsNoOp(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := NewReferralService(testDB)
	u := seedUser(t, "selfref", nil)

	linked, err := svc.LinkNewAccount(u.ID, *u.ReferralCode)
	if err != nil {
		t.Fatalf("LinkNewAccount failed: %v", err)
	}
	if linked {
		t.Error("Expected self-referral to be a no-op")
	}

	var reloaded models.User
	testDB.First(&reloaded, u.ID)
	if reloaded.ReferrerId != nil {
		t.Error("Self-referral must not set a referrer")
	}

	var count int64
	testDB.Model(&models.ReferralLink{}).Where("descendant_id = ?", u.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected no referral links, got %d", count)
	}
}

func TestLinkNewAccount_UnknownCodeIsNoOp(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := NewReferralService(testDB)
	u := seedUser(t, "nocode", nil)

	linked, err := svc.LinkNewAccount(u.ID, "PMNOSUCH")
	if err != nil {
		t.Fatalf("LinkNewAccount failed: %v", err)
	}
	if linked {
		t.Error("Unknown code must not link")
	}
}

func TestLinkNewAccount_InactiveReferrerIsNoOp(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := NewReferralService(testDB)
	referrer := seedUser(t, "lapsed", nil)
	testDB.Model(&models.User{}).Where("id = ?", referrer.ID).Update("sub_is_active", false)
	newcomer := seedUser(t, "joiner", nil)

	linked, err := svc.LinkNewAccount(newcomer.ID, *referrer.ReferralCode)
	if err != nil {
		t.Fatalf("LinkNewAccount failed: %v", err)
	}
	if linked {
		t.Error("A lapsed referrer's code must not link new accounts")
	}
}

func TestLinkNewAccount_Idempotent(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := NewReferralService(testDB)
	referrer := seedUser(t, "refA", nil)
	other := seedUser(t, "refB", nil)
	newcomer := seedUser(t, "kid", nil)

	linked, err := svc.LinkNewAccount(newcomer.ID, *referrer.ReferralCode)
	if err != nil || !linked {
		t.Fatalf("First link failed: linked=%v err=%v", linked, err)
	}

	// Retry with a different code must not rewire the chain.
	linked, err = svc.LinkNewAccount(newcomer.ID, *other.ReferralCode)
	if err != nil {
		t.Fatalf("Second link errored: %v", err)
	}
	if linked {
		t.Error("An already-linked account must not be relinked")
	}

	var reloaded models.User
	testDB.First(&reloaded, newcomer.ID)
	if reloaded.ReferrerId == nil || *reloaded.ReferrerId != referrer.ID {
		t.Error("Referrer pointer was overwritten by a retry")
	}

	var count int64
	testDB.Model(&models.ReferralLink{}).Where("descendant_id = ?", newcomer.ID).Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly 1 link row, got %d", count)
	}
}

func TestCollectAncestors_CapsAtTenLevels(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := NewReferralService(testDB)

	// Chain of 15 accounts, each referred by the previous one.
	var prev *models.User
	users := make([]*models.User, 0, 15)
	for i := 0; i < 15; i++ {
		var refId *int
		if prev != nil {
			refId = &prev.ID
		}
		u := seedUser(t, fmt.Sprintf("chain%02d", i), refId)
		users = append(users, u)
		prev = u
	}

	newest := users[len(users)-1]
	ancestors, err := svc.CollectAncestors(newest.ID)
	if err != nil {
		t.Fatalf("CollectAncestors failed: %v", err)
	}
	if len(ancestors) != MaxReferralDepth {
		t.Fatalf("Expected %d ancestors, got %d", MaxReferralDepth, len(ancestors))
	}
	for i, a := range ancestors {
		if a.Level != i+1 {
			t.Errorf("Ancestor %d has level %d, want %d", i, a.Level, i+1)
		}
		want := users[len(users)-2-i].ID
		if a.UserId != want {
			t.Errorf("Ancestor at level %d is user %d, want %d", a.Level, a.UserId, want)
		}
	}
}

func TestEnsureReferralCode_FirstCodeIsPermanent(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := NewReferralService(testDB)
	user := models.User{
		Name: "fresh", Username: "user_fresh", Email: "fresh@example.test",
		PasswordHash: "x",
	}
	if err := testDB.Create(&user).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	first, err := svc.EnsureReferralCode(user.ID)
	if err != nil {
		t.Fatalf("EnsureReferralCode failed: %v", err)
	}
	if first == "" {
		t.Fatal("Expected a generated code")
	}

	second, err := svc.EnsureReferralCode(user.ID)
	if err != nil {
		t.Fatalf("EnsureReferralCode retry failed: %v", err)
	}
	if second != first {
		t.Errorf("Code changed across calls: %s then %s", first, second)
	}
}

func TestMain(m *testing.M) {
	setup()
	code := m.Run()
	cleanup()
	os.Exit(code)
}
