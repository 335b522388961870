package interfaces

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type PixChargeRequest struct {
	ExternalReference string
	Description       string
	Amount            decimal.Decimal
	PayerDocument     string
	PayerEmail        string
	PayerName         string
	ExpiresAt         time.Time
}

type PixCharge struct {
	ProviderIdentifier string
	ProviderStatus     string
	PixCode            string
	QRCodeBase64       string
	ProviderResponse   json.RawMessage
}

// IPixGateway abstracts the external PIX provider (e.g. Mercado Pago).
//
// Implementations must honour ctx cancellation; the caller always sets a deadline.
type IPixGateway interface {
	CreatePixCharge(ctx context.Context, req PixChargeRequest) (PixCharge, error)
}
