package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/pkg/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GatewayClient is the outbound surface the settlement reconciler talks to.
// JazzCashService is the production implementation; tests substitute stubs.
type GatewayClient interface {
	InquireStatus(txnRefNo string) (*StatusInquiryResult, error)
}

// StatusInquiryResult is the interpreted outcome of one status inquiry.
type StatusInquiryResult struct {
	Status       string                 // models.TrxStatusSuccess / Failed / Pending
	ResponseCode string                 // gateway pp_ResponseCode
	ResponseMsg  string                 // gateway pp_ResponseMessage
	Raw          map[string]interface{} // full decoded response body
}

type JazzCashService struct {
	DB     *gorm.DB
	Helper *HelperService
}

func NewJazzCashService(db *gorm.DB, helper *HelperService) *JazzCashService {
	return &JazzCashService{DB: db, Helper: helper}
}

func (s *JazzCashService) jazzcashSettings() (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	err := s.DB.Where("provider = ?", "jazzcash").First(&pm).Error
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

// SecureHash computes the integrity hash over a gateway payload. Fields with
// the pp_ or ppmpf_ prefix participate except pp_SecureHash itself; empty
// values are dropped. Keys are sorted, the VALUES joined with "&", and the
// salt prepended with another "&". HMAC-SHA256 keyed by the same salt,
// rendered as uppercase hex.
func SecureHash(fields map[string]string, salt string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if k == "pp_SecureHash" {
			continue
		}
		if !strings.HasPrefix(k, "pp_") && !strings.HasPrefix(k, "ppmpf_") {
			continue
		}
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, fields[k])
	}
	message := salt + "&" + strings.Join(values, "&")

	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(message))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// VerifySecureHash recomputes the hash over a received payload and compares
// it against the pp_SecureHash field in constant time.
func VerifySecureHash(fields map[string]string, salt string) bool {
	received := fields["pp_SecureHash"]
	if received == "" {
		return false
	}
	expected := SecureHash(fields, salt)
	return hmac.Equal([]byte(strings.ToUpper(received)), []byte(expected))
}

// NewTxnRefNo returns a gateway transaction reference: "T" plus the current
// timestamp to the second. References must be unique per transaction; the
// second granularity is acceptable for the checkout rate involved.
func NewTxnRefNo(now time.Time) string {
	return "T" + now.Format("20060102150405")
}

// BuildPaymentPayload assembles the signed form a client posts to the
// gateway's hosted checkout. Amount is in rupees and carried in paisa.
func (s *JazzCashService) BuildPaymentPayload(userId int, amount float64, description string) (map[string]string, error) {
	settings, err := s.jazzcashSettings()
	if err != nil {
		return nil, fmt.Errorf("jazzcash has not been configured: %w", err)
	}

	now := time.Now()
	fields := map[string]string{
		"pp_Version":           "1.1",
		"pp_TxnType":           "MWALLET",
		"pp_Language":          "EN",
		"pp_MerchantID":        settings.MerchantId,
		"pp_Password":          settings.Password,
		"pp_BankID":            "TBANK",
		"pp_ProductID":         "RETL",
		"pp_TxnRefNo":          NewTxnRefNo(now),
		"pp_Amount":            fmt.Sprintf("%d", int64(amount*100)),
		"pp_TxnCurrency":       "PKR",
		"pp_TxnDateTime":       now.Format("20060102150405"),
		"pp_BillReference":     uuid.NewString(),
		"pp_Description":       description,
		"pp_TxnExpiryDateTime": now.Add(1 * time.Hour).Format("20060102150405"),
		"pp_ReturnURL":         settings.ReturnUrl,
		"ppmpf_1":              fmt.Sprintf("%d", userId),
	}
	fields["pp_SecureHash"] = SecureHash(fields, settings.IntegritySalt)
	return fields, nil
}

// InquireStatus asks the gateway for the current state of a transaction and
// maps the response codes onto the internal status vocabulary. Transport and
// decoding failures return an error with no result, leaving the caller's
// record untouched.
func (s *JazzCashService) InquireStatus(txnRefNo string) (*StatusInquiryResult, error) {
	settings, err := s.jazzcashSettings()
	if err != nil {
		return nil, fmt.Errorf("jazzcash has not been configured: %w", err)
	}

	request := map[string]string{
		"pp_TxnRefNo":   txnRefNo,
		"pp_MerchantID": settings.MerchantId,
		"pp_Password":   settings.Password,
	}
	request["pp_SecureHash"] = SecureHash(request, settings.IntegritySalt)

	body := map[string]interface{}{}
	for k, v := range request {
		body[k] = v
	}

	res, err := common.Post(settings.BaseUrl+"/PaymentInquiry/Inquire", body, map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		s.Helper.LogCallback(txnRefNo, "status-inquiry", "jazzcash", request, err.Error(), 0)
		return nil, fmt.Errorf("jazzcash status inquiry failed: %w", err)
	}

	resMap, ok := res.(map[string]interface{})
	if !ok {
		s.Helper.LogCallback(txnRefNo, "status-inquiry", "jazzcash", request, res, 0)
		return nil, fmt.Errorf("jazzcash status inquiry: unexpected response shape")
	}

	s.Helper.LogCallback(txnRefNo, "status-inquiry", "jazzcash", request, resMap, 1)

	result := interpretInquiry(resMap)
	return result, nil
}

// interpretInquiry maps a decoded inquiry body to a settlement status.
// 000 with a paid payment status is success; 124, 125 or an explicitly
// pending payment status stays pending; everything else is a failure.
func interpretInquiry(resMap map[string]interface{}) *StatusInquiryResult {
	code, _ := resMap["pp_ResponseCode"].(string)
	msg, _ := resMap["pp_ResponseMessage"].(string)
	payStatus, _ := resMap["pp_PaymentResponseCode"].(string)

	result := &StatusInquiryResult{
		ResponseCode: code,
		ResponseMsg:  msg,
		Raw:          resMap,
	}

	switch {
	case code == "000" && (payStatus == "" || payStatus == "121" || strings.EqualFold(payStatus, "paid")):
		result.Status = models.TrxStatusSuccess
	case code == "124" || code == "125" || strings.EqualFold(payStatus, "pending"):
		result.Status = models.TrxStatusPending
	default:
		result.Status = models.TrxStatusFailed
	}
	return result
}
