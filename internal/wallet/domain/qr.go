package domain

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
)

const (
	qrScheme = "ecowallet"
	qrAction = "pay"
)

// QRPayment is a decoded merchant QR code.
type QRPayment struct {
	MerchantID   string `json:"merchant_id"`
	MerchantName string `json:"merchant_name"`
	Amount       int64  `json:"amount"`
}

// ParseQRPayload decodes ecowallet://pay?merchant=<id>&amount=<yen>&name=<text>.
func ParseQRPayload(raw string) result.Result[QRPayment] {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return invalidQR("payload is not a URI")
	}
	if u.Scheme != qrScheme || u.Host != qrAction {
		return invalidQR("unsupported scheme " + u.Scheme + "://" + u.Host)
	}
	q := u.Query()
	merchant := strings.TrimSpace(q.Get("merchant"))
	if merchant == "" {
		return invalidQR("missing merchant")
	}
	amount, err := strconv.ParseInt(q.Get("amount"), 10, 64)
	if err != nil || amount <= 0 {
		return invalidQR("amount must be a positive integer")
	}
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		name = merchant
	}
	return result.Ok(QRPayment{MerchantID: merchant, MerchantName: name, Amount: amount})
}

// Encode renders p back into its QR payload.
func (p QRPayment) Encode() string {
	q := url.Values{}
	q.Set("merchant", p.MerchantID)
	q.Set("amount", strconv.FormatInt(p.Amount, 10))
	q.Set("name", p.MerchantName)
	u := url.URL{Scheme: qrScheme, Host: qrAction, RawQuery: q.Encode()}
	return u.String()
}

// AmountDecimal returns the amount for the transfer validators.
func (p QRPayment) AmountDecimal() decimal.Decimal {
	return decimal.NewFromInt(p.Amount)
}

func invalidQR(reason string) result.Result[QRPayment] {
	return result.Err[QRPayment](failure.InvalidQRCode{Reason: reason})
}
