package common

import (
	"strings"
	"testing"
)

func TestGenerateTrxNo(t *testing.T) {
	trx := GenerateTrxNo()
	if len(trx) != 7 {
		t.Errorf("Expected length 7, got %d", len(trx))
	}

	for _, char := range trx {
		if !strings.ContainsRune(trxCharacters, char) {
			t.Errorf("Invalid character found: %c", char)
		}
	}
}

func TestGenerateReferralCode(t *testing.T) {
	code := GenerateReferralCode()
	if len(code) != 8 {
		t.Errorf("Expected length 8, got %d", len(code))
	}
	if !strings.HasPrefix(code, "PM") {
		t.Errorf("Expected PM prefix, got %s", code)
	}
	for _, char := range code[2:] {
		if !strings.ContainsRune(trxCharacters, char) {
			t.Errorf("Invalid character found: %c", char)
		}
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		199.999:  200.00,
		0.005:    0.01,
		120.0:    120.00,
		0.001:    0.00,
		63.0001:  63.00,
		70.00499: 70.00,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Errorf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	n := GenerateOrderNumber()
	if !strings.HasPrefix(n, "ORD-") {
		t.Errorf("Expected ORD- prefix, got %s", n)
	}
}

func TestPaginateResponse(t *testing.T) {
	total := int64(100)
	page := 1
	limit := 10
	data := []string{"item1", "item2"}

	res := PaginateResponse(data, total, page, limit, "")

	if res.CurrentPage != 1 {
		t.Errorf("Expected CurrentPage 1, got %d", res.CurrentPage)
	}
	if res.LastPage != 10 {
		t.Errorf("Expected LastPage 10, got %d", res.LastPage)
	}
	if res.NextPage != 2 {
		t.Errorf("Expected NextPage 2, got %d", res.NextPage)
	}
	if res.PrevPage != 0 {
		t.Errorf("Expected PrevPage 0, got %d", res.PrevPage)
	}
	if res.Count != 100 {
		t.Errorf("Expected Count 100, got %d", res.Count)
	}

	// Last page
	page = 10
	res = PaginateResponse(data, total, page, limit, "")
	if res.NextPage != 0 {
		t.Errorf("Expected NextPage 0 for last page, got %d", res.NextPage)
	}
}
