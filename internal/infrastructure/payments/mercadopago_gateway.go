package payments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"associacao_pagamentos/internal/usecase/interfaces"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrMercadoPagoGatewayNotConfigured = errors.New("mercado pago gateway not configured")

const pixPaymentMethodID = "pix"

// mercadoPagoDateLayout is the date_of_expiration format the provider accepts.
const mercadoPagoDateLayout = "2006-01-02T15:04:05.000Z07:00"

type paymentCreator interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
}

type MercadoPagoGateway struct {
	tokens          *TokenCache
	notificationURL string
	mockMode        bool
	newClient       func(accessToken string) (paymentCreator, error)

	mu          sync.Mutex
	client      paymentCreator
	clientToken string
}

var _ interfaces.IPixGateway = (*MercadoPagoGateway)(nil)

// NewMercadoPagoGateway issues PIX charges through the Mercado Pago SDK. In
// mock mode no provider call is made and a fake copy-paste code is returned.
func NewMercadoPagoGateway(tokens *TokenCache, notificationURL string, mock bool) (*MercadoPagoGateway, error) {
	if mock || isPaymentGatewayMockEnabled() {
		log.Printf("[payment][gateway] mock mode enabled")
		return &MercadoPagoGateway{mockMode: true}, nil
	}

	if tokens == nil {
		log.Printf("[payment][gateway] missing provider credentials")
		return nil, ErrMissingMercadoPagoAccessToken
	}
	log.Printf("[payment][gateway] Mercado Pago gateway initialized")

	return &MercadoPagoGateway{
		tokens:          tokens,
		notificationURL: notificationURL,
		newClient:       newSDKClient,
	}, nil
}

func newSDKClient(accessToken string) (paymentCreator, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, err
	}
	return payment.NewClient(cfg), nil
}

type pixPayerRequest struct {
	Email          string                 `json:"email,omitempty"`
	FirstName      string                 `json:"first_name,omitempty"`
	LastName       string                 `json:"last_name,omitempty"`
	Identification *pixIdentificationData `json:"identification,omitempty"`
}

type pixIdentificationData struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type pixPaymentRequest struct {
	TransactionAmount float64         `json:"transaction_amount"`
	Description       string          `json:"description,omitempty"`
	PaymentMethodID   string          `json:"payment_method_id"`
	ExternalReference string          `json:"external_reference,omitempty"`
	NotificationURL   string          `json:"notification_url,omitempty"`
	DateOfExpiration  string          `json:"date_of_expiration,omitempty"`
	Payer             pixPayerRequest `json:"payer"`
}

type pixPaymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

func (g *MercadoPagoGateway) CreatePixCharge(ctx context.Context, in interfaces.PixChargeRequest) (interfaces.PixCharge, error) {
	if g != nil && g.mockMode {
		return mockPixCharge(in)
	}
	if g == nil || g.tokens == nil || g.newClient == nil {
		log.Printf("[payment][gateway] gateway not configured")
		return interfaces.PixCharge{}, ErrMercadoPagoGatewayNotConfigured
	}
	log.Printf("[payment][gateway] create start external_reference=%s", in.ExternalReference)

	payload, err := json.Marshal(buildPixPaymentRequest(in, g.notificationURL))
	if err != nil {
		return interfaces.PixCharge{}, err
	}
	var req payment.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("[payment][gateway] payload unmarshal failed err=%v", err)
		return interfaces.PixCharge{}, err
	}

	client, err := g.sdkClient(ctx)
	if err != nil {
		return interfaces.PixCharge{}, err
	}

	resp, err := client.Create(ctx, req)
	if err != nil {
		if isProviderUnauthorized(err) {
			g.tokens.Invalidate()
		}
		log.Printf("[payment][gateway] sdk create failed external_reference=%s err=%v", in.ExternalReference, err)
		return interfaces.PixCharge{}, err
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[payment][gateway] response marshal failed err=%v", err)
		return interfaces.PixCharge{}, err
	}
	var out pixPaymentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Printf("[payment][gateway] response decode failed err=%v", err)
		return interfaces.PixCharge{}, err
	}
	log.Printf("[payment][gateway] create success provider_payment_id=%s provider_status=%s", out.ID, out.Status)

	return interfaces.PixCharge{
		ProviderIdentifier: out.ID.String(),
		ProviderStatus:     out.Status,
		PixCode:            out.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64:       out.PointOfInteraction.TransactionData.QRCodeBase64,
		ProviderResponse:   raw,
	}, nil
}

// sdkClient reuses the SDK client until the cached token changes.
func (g *MercadoPagoGateway) sdkClient(ctx context.Context) (paymentCreator, error) {
	token, err := g.tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("provider token: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil && g.clientToken == token {
		return g.client, nil
	}
	client, err := g.newClient(token)
	if err != nil {
		log.Printf("[payment][gateway] failed creating sdk config err=%v", err)
		return nil, err
	}
	g.client = client
	g.clientToken = token
	return client, nil
}

func buildPixPaymentRequest(in interfaces.PixChargeRequest, notificationURL string) pixPaymentRequest {
	first, last := splitName(in.PayerName)
	req := pixPaymentRequest{
		TransactionAmount: in.Amount.Round(2).InexactFloat64(),
		Description:       in.Description,
		PaymentMethodID:   pixPaymentMethodID,
		ExternalReference: in.ExternalReference,
		NotificationURL:   notificationURL,
		Payer: pixPayerRequest{
			Email:     in.PayerEmail,
			FirstName: first,
			LastName:  last,
		},
	}
	if !in.ExpiresAt.IsZero() {
		req.DateOfExpiration = in.ExpiresAt.Format(mercadoPagoDateLayout)
	}
	if in.PayerDocument != "" {
		req.Payer.Identification = &pixIdentificationData{Type: "CPF", Number: in.PayerDocument}
	}
	return req
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func mockPixCharge(in interfaces.PixChargeRequest) (interfaces.PixCharge, error) {
	id := strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
	code := "00020126580014br.gov.bcb.pix0136mock-" + id + "5204000053039865406" + in.Amount.StringFixed(2) + "6304MOCK"

	resp := map[string]any{
		"id":                 id,
		"status":             "pending",
		"payment_method_id":  pixPaymentMethodID,
		"external_reference": in.ExternalReference,
		"date_created":       time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[payment][gateway] mock response marshal failed err=%v", err)
		return interfaces.PixCharge{}, err
	}

	log.Printf("[payment][gateway] mock create success provider_payment_id=%s provider_status=pending", id)
	return interfaces.PixCharge{
		ProviderIdentifier: id,
		ProviderStatus:     "pending",
		PixCode:            code,
		QRCodeBase64:       base64.StdEncoding.EncodeToString([]byte(code)),
		ProviderResponse:   b,
	}, nil
}

func isProviderUnauthorized(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"status\":401") || strings.Contains(msg, "unauthorized")
}

func isPaymentGatewayMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}
