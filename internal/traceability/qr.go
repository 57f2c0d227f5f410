package traceability

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/farmwatch/farmwatch/internal/errors"
)

const qrImageSize = 290

// GenerateProductID returns prefix + YYYYMMDD + six uppercase hex characters.
func GenerateProductID(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return prefix + now.Format("20060102") + suffix
}

// QRPayload is the JSON content encoded in a product QR code.
type QRPayload struct {
	ProductID string    `json:"product_id"`
	TraceURL  string    `json:"trace_url"`
	Timestamp time.Time `json:"timestamp"`
}

// QRPayload returns the QR code content for a product.
func (m *Manager) QRPayload(productID string) QRPayload {
	return QRPayload{
		ProductID: productID,
		TraceURL:  m.traceURL + productID,
		Timestamp: m.now(),
	}
}

// QRCode returns a base64 encoded PNG QR code for a product.
func (m *Manager) QRCode(productID string) (string, error) {
	content, err := json.Marshal(m.QRPayload(productID))
	if err != nil {
		return "", errors.New(err).
			Component("traceability").
			Category(errors.CategoryTraceability).
			Context("operation", "encode_qr_payload").
			Build()
	}
	png, err := qrcode.Encode(string(content), qrcode.Low, qrImageSize)
	if err != nil {
		return "", errors.New(err).
			Component("traceability").
			Category(errors.CategoryTraceability).
			Context("operation", "render_qr_code").
			Context("product_id", productID).
			Build()
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
