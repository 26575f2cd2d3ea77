package services

import (
	"fmt"
	"math"
	"testing"

	"marketplace-service/internal/models"
)

func TestPercentageTable(t *testing.T) {
	sum := 0.0
	for i := 1; i <= MaxReferralDepth; i++ {
		p := PercentageForLevel(i)
		if p <= 0 {
			t.Errorf("Level %d has non-positive percentage %v", i, p)
		}
		sum += p
	}
	if math.Abs(sum-0.63) > 1e-9 {
		t.Errorf("Percentage table sums to %v, want 0.63", sum)
	}
	if PercentageForLevel(0) != 0 || PercentageForLevel(11) != 0 {
		t.Error("Out-of-range levels must pay nothing")
	}
	if PercentageForLevel(1) != 0.20 {
		t.Errorf("Level 1 pays %v, want 0.20", PercentageForLevel(1))
	}
}

func TestDistribute_TwoLevelChain(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral := NewReferralService(testDB)
	helper := NewHelperService(testDB)
	svc := NewCommissionService(testDB, helper, referral)

	// Z refers A, A refers B. B's payment pays A at level 1 and Z at level 2.
	z := seedUser(t, "Z", nil)
	a := seedUser(t, "A", &z.ID)
	b := seedUser(t, "B", &a.ID)

	if err := svc.Distribute(b.ID, 1000); err != nil {
		t.Fatalf("Distribute failed: %v", err)
	}

	var reA, reZ, reB models.User
	testDB.First(&reA, a.ID)
	testDB.First(&reZ, z.ID)
	testDB.First(&reB, b.ID)

	if reA.EarningsLevel1 != 200.0 {
		t.Errorf("A level1 earnings = %v, want 200", reA.EarningsLevel1)
	}
	if reA.TotalEarnings != 200.0 {
		t.Errorf("A total earnings = %v, want 200", reA.TotalEarnings)
	}
	if reZ.EarningsLevel2 != 120.0 {
		t.Errorf("Z level2 earnings = %v, want 120", reZ.EarningsLevel2)
	}
	if reB.TotalEarnings != 0.0 {
		t.Errorf("Buyer must earn nothing from own payment, got %v", reB.TotalEarnings)
	}
}

func TestDistribute_FullChainPaysSixtyThreePercent(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral := NewReferralService(testDB)
	helper := NewHelperService(testDB)
	svc := NewCommissionService(testDB, helper, referral)

	// Eleven accounts: ten ancestors plus the buyer at the bottom.
	var prev *models.User
	var users []*models.User
	for i := 0; i < 11; i++ {
		var refId *int
		if prev != nil {
			refId = &prev.ID
		}
		u := seedUser(t, string(rune('a'+i)), refId)
		users = append(users, u)
		prev = u
	}
	buyer := users[len(users)-1]

	if err := svc.Distribute(buyer.ID, 1000); err != nil {
		t.Fatalf("Distribute failed: %v", err)
	}

	var paid float64
	for _, u := range users[:10] {
		var re models.User
		testDB.First(&re, u.ID)
		paid += re.TotalEarnings
	}
	if math.Abs(paid-630.0) > 0.01 {
		t.Errorf("Chain received %v in total, want 630", paid)
	}
}

func TestDistribute_ChainOfFifteenPaysTenAtMost(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral := NewReferralService(testDB)
	helper := NewHelperService(testDB)
	svc := NewCommissionService(testDB, helper, referral)

	var prev *models.User
	var users []*models.User
	for i := 0; i < 15; i++ {
		var refId *int
		if prev != nil {
			refId = &prev.ID
		}
		u := seedUser(t, fmt.Sprintf("deep%02d", i), refId)
		users = append(users, u)
		prev = u
	}
	buyer := users[len(users)-1]

	if err := svc.Distribute(buyer.ID, 1000); err != nil {
		t.Fatalf("Distribute failed: %v", err)
	}

	// The ten nearest ancestors get paid; everyone above level 10 gets nothing.
	for i, u := range users[:14] {
		var re models.User
		testDB.First(&re, u.ID)
		level := len(users) - 1 - i
		if level <= MaxReferralDepth {
			if re.TotalEarnings <= 0 {
				t.Errorf("Ancestor at level %d received nothing", level)
			}
		} else {
			if re.TotalEarnings != 0 {
				t.Errorf("Ancestor at level %d received %v, want 0", level, re.TotalEarnings)
			}
		}
	}
}

func TestDistribute_NoReferrerIsNoOp(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral := NewReferralService(testDB)
	helper := NewHelperService(testDB)
	svc := NewCommissionService(testDB, helper, referral)

	solo := seedUser(t, "solo", nil)
	if err := svc.Distribute(solo.ID, 500); err != nil {
		t.Fatalf("Distribute failed: %v", err)
	}

	var re models.User
	testDB.First(&re, solo.ID)
	if re.TotalEarnings != 0 {
		t.Errorf("Unreferred buyer produced earnings: %v", re.TotalEarnings)
	}
}

func TestDistribute_RejectsNonPositiveAmount(t *testing.T) {
	referral := NewReferralService(testDB)
	helper := NewHelperService(testDB)
	svc := NewCommissionService(testDB, helper, referral)

	if err := svc.Distribute(1, 0); err == nil {
		t.Error("Expected error for zero amount")
	}
	if err := svc.Distribute(1, -10); err == nil {
		t.Error("Expected error for negative amount")
	}
}
