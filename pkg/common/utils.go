package common

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

const trxCharacters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func GenerateTrxNo() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	result := make([]byte, 7)
	for i := range result {
		result[i] = trxCharacters[r.Intn(len(trxCharacters))]
	}
	return string(result)
}

// GenerateReferralCode returns a code of the form PM followed by six
// uppercase alphanumerics. Uniqueness is enforced at the store layer.
func GenerateReferralCode() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	result := make([]byte, 6)
	for i := range result {
		result[i] = trxCharacters[r.Intn(len(trxCharacters))]
	}
	return "PM" + string(result)
}

// GenerateOrderNumber returns an order number unique per millisecond-plus-nonce.
func GenerateOrderNumber() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return fmt.Sprintf("ORD-%d-%04d", time.Now().UnixMilli(), r.Intn(10000))
}

// Round2 rounds to two decimal places. Every commission is rounded
// independently before it is credited.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
