package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const (
	defaultPaymentsTableName   = "payments"
	paymentsStatusExpiresIndex = "status-expires_at-index"
	providerGuardPrefix        = "provider#"
)

type paymentItem struct {
	ID                 string `dynamodbav:"id"`
	ProviderIdentifier string `dynamodbav:"provider_identifier"`
	Type               string `dynamodbav:"type"`
	Amount             string `dynamodbav:"amount"`
	Description        string `dynamodbav:"description,omitempty"`
	Status             string `dynamodbav:"status"`
	PixCode            string `dynamodbav:"pix_code"`
	PixQRCodeBase64    string `dynamodbav:"pix_qr_code_base64,omitempty"`
	PayerDocument      string `dynamodbav:"payer_document"`
	PlanID             string `dynamodbav:"plan_id,omitempty"`
	SubscriptionID     string `dynamodbav:"subscription_id,omitempty"`
	AppointmentID      string `dynamodbav:"appointment_id,omitempty"`
	ExpiresAt          string `dynamodbav:"expires_at"`
	PaidAt             string `dynamodbav:"paid_at,omitempty"`
	WebhookReceived    bool   `dynamodbav:"webhook_received"`
	LastWebhookPayload string `dynamodbav:"last_webhook_payload,omitempty"`
	CreatedAt          string `dynamodbav:"created_at"`
	UpdatedAt          string `dynamodbav:"updated_at"`
}

// providerGuardItem reserves a provider identifier. It lives in the payments
// table under id "provider#<provider id>" and points back to the payment.
type providerGuardItem struct {
	ID        string `dynamodbav:"id"`
	PaymentID string `dynamodbav:"payment_id"`
}

// PaymentDynamoRepository persists Payment entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: status-expires_at-index (PK: status, SK: expires_at)
//
// Lookups by provider identifier go through the guard item with a consistent
// read, so a webhook that races the checkout response still finds its payment.

type PaymentDynamoRepository struct {
	ddb                DynamoDBAPI
	tableName          string
	appointmentsTable  string
	subscriptionsTable string
}

var _ interfaces.IPaymentRepository = (*PaymentDynamoRepository)(nil)

func NewPaymentDynamoRepository(ddb DynamoDBAPI) *PaymentDynamoRepository {
	return &PaymentDynamoRepository{
		ddb:                ddb,
		tableName:          getenvDefault("PAYMENTS_TABLE", defaultPaymentsTableName),
		appointmentsTable:  getenvDefault("APPOINTMENTS_TABLE", defaultAppointmentsTableName),
		subscriptionsTable: getenvDefault("SUBSCRIPTIONS_TABLE", defaultSubscriptionsTableName),
	}
}

func (r *PaymentDynamoRepository) Create(ctx context.Context, p entities.Payment, sub *entities.Subscription) (entities.Payment, error) {
	av, err := attributevalue.MarshalMap(toPaymentItem(p))
	if err != nil {
		return entities.Payment{}, err
	}
	guard, err := attributevalue.MarshalMap(providerGuardItem{ID: providerGuardPrefix + p.ProviderIdentifier, PaymentID: p.ID})
	if err != nil {
		return entities.Payment{}, err
	}

	notExists := aws.String("attribute_not_exists(#id)")
	idName := map[string]string{"#id": "id"}

	items := []types.TransactWriteItem{
		{Put: &types.Put{TableName: aws.String(r.tableName), Item: av, ConditionExpression: notExists, ExpressionAttributeNames: idName}},
		{Put: &types.Put{TableName: aws.String(r.tableName), Item: guard, ConditionExpression: notExists, ExpressionAttributeNames: idName}},
	}
	if sub != nil {
		subAV, err := attributevalue.MarshalMap(toSubscriptionItem(*sub))
		if err != nil {
			return entities.Payment{}, err
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{TableName: aws.String(r.subscriptionsTable), Item: subAV, ConditionExpression: notExists, ExpressionAttributeNames: idName},
		})
	}

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if failed, ok := cancellationFailures(err); ok {
			for _, i := range failed {
				if i == 1 {
					return entities.Payment{}, interfaces.ErrDuplicateProviderIdentifier
				}
			}
		}
		return entities.Payment{}, fmt.Errorf("create payment %s: %w", p.ID, err)
	}
	return p, nil
}

func (r *PaymentDynamoRepository) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Item) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Payment{}, err
	}
	if it.Status == "" {
		// guard items share the table
		return entities.Payment{}, nil
	}
	return fromPaymentItem(it), nil
}

func (r *PaymentDynamoRepository) GetByProviderIdentifier(ctx context.Context, providerIdentifier string) (entities.Payment, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(providerGuardPrefix + providerIdentifier),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Item) == 0 {
		return entities.Payment{}, nil
	}

	var guard providerGuardItem
	if err := attributevalue.UnmarshalMap(out.Item, &guard); err != nil {
		return entities.Payment{}, err
	}
	if guard.PaymentID == "" {
		return entities.Payment{}, nil
	}
	return r.GetByID(ctx, guard.PaymentID)
}

// CommitConfirmation writes the payment, appointment and subscription
// transitions in one transaction. Each item is conditioned on the status it
// was staged from.
func (r *PaymentDynamoRepository) CommitConfirmation(ctx context.Context, c interfaces.PaymentConfirmation) error {
	p := c.Payment
	items := []types.TransactWriteItem{{
		Update: &types.Update{
			TableName:           aws.String(r.tableName),
			Key:                 idKey(p.ID),
			ConditionExpression: aws.String("#status = :pending"),
			UpdateExpression: aws.String("SET #status = :paid, #paid_at = :paid_at, #webhook_received = :true, " +
				"#last_webhook_payload = :payload, #updated_at = :updated_at"),
			ExpressionAttributeNames: map[string]string{
				"#status":               "status",
				"#paid_at":              "paid_at",
				"#webhook_received":     "webhook_received",
				"#last_webhook_payload": "last_webhook_payload",
				"#updated_at":           "updated_at",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pending":    stringAttr(string(entities.PaymentStatusPending)),
				":paid":       stringAttr(string(entities.PaymentStatusPaid)),
				":paid_at":    stringAttr(formatTimePtr(p.PaidAt)),
				":true":       &types.AttributeValueMemberBOOL{Value: true},
				":payload":    stringAttr(payloadString(p.LastWebhookPayload)),
				":updated_at": stringAttr(formatTime(p.UpdatedAt)),
			},
		},
	}}

	if a := c.Appointment; a != nil {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:           aws.String(r.appointmentsTable),
				Key:                 idKey(a.ID),
				ConditionExpression: aws.String("#status = :pending_payment"),
				UpdateExpression:    aws.String("SET #status = :confirmed, #confirmed_at = :confirmed_at, #updated_at = :updated_at"),
				ExpressionAttributeNames: map[string]string{
					"#status":       "status",
					"#confirmed_at": "confirmed_at",
					"#updated_at":   "updated_at",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":pending_payment": stringAttr(string(entities.AppointmentStatusPendingPayment)),
					":confirmed":       stringAttr(string(a.Status)),
					":confirmed_at":    stringAttr(formatTimePtr(a.ConfirmedAt)),
					":updated_at":      stringAttr(formatTime(a.UpdatedAt)),
				},
			},
		})
	}

	if s := c.Subscription; s != nil {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:           aws.String(r.subscriptionsTable),
				Key:                 idKey(s.ID),
				ConditionExpression: aws.String("#status = :pending"),
				UpdateExpression: aws.String("SET #status = :active, #start_date = :start_date, #end_date = :end_date, " +
					"#next_billing_date = :next_billing_date, #updated_at = :updated_at"),
				ExpressionAttributeNames: map[string]string{
					"#status":            "status",
					"#start_date":        "start_date",
					"#end_date":          "end_date",
					"#next_billing_date": "next_billing_date",
					"#updated_at":        "updated_at",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":pending":           stringAttr(string(entities.SubscriptionStatusPending)),
					":active":            stringAttr(string(s.Status)),
					":start_date":        stringAttr(formatTimePtr(s.StartDate)),
					":end_date":          stringAttr(formatTimePtr(s.EndDate)),
					":next_billing_date": stringAttr(formatTimePtr(s.NextBillingDate)),
					":updated_at":        stringAttr(formatTime(s.UpdatedAt)),
				},
			},
		})
	}

	_, err := r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err == nil {
		return nil
	}
	if failed, ok := cancellationFailures(err); ok && len(failed) > 0 {
		if failed[0] == 0 {
			return interfaces.ErrConditionalCheckFailed
		}
		return fmt.Errorf("confirm payment %s: %w", p.ID, interfaces.ErrConcurrentUpdate)
	}
	if hasCancellationCode(err, "TransactionConflict") {
		// a concurrent delivery may have just settled the payment
		current, gerr := r.GetByID(ctx, p.ID)
		if gerr == nil && current.Status == entities.PaymentStatusPaid {
			return interfaces.ErrConditionalCheckFailed
		}
	}
	return fmt.Errorf("confirm payment %s: %w", p.ID, err)
}

func (r *PaymentDynamoRepository) MarkFailed(ctx context.Context, id string, payload json.RawMessage, now time.Time) error {
	return r.updatePending(ctx, id, func() (string, map[string]types.AttributeValue, map[string]string) {
		expr := "SET #status = :failed, #webhook_received = :true, #last_webhook_payload = :payload, #updated_at = :updated_at"
		vals := map[string]types.AttributeValue{
			":failed":     stringAttr(string(entities.PaymentStatusFailed)),
			":true":       &types.AttributeValueMemberBOOL{Value: true},
			":payload":    stringAttr(payloadString(payload)),
			":updated_at": stringAttr(formatTime(now)),
		}
		names := map[string]string{
			"#webhook_received":     "webhook_received",
			"#last_webhook_payload": "last_webhook_payload",
			"#updated_at":           "updated_at",
		}
		return expr, vals, names
	})
}

func (r *PaymentDynamoRepository) MarkExpired(ctx context.Context, id string, now time.Time) error {
	return r.updatePending(ctx, id, func() (string, map[string]types.AttributeValue, map[string]string) {
		expr := "SET #status = :expired, #updated_at = :updated_at"
		vals := map[string]types.AttributeValue{
			":expired":    stringAttr(string(entities.PaymentStatusExpired)),
			":updated_at": stringAttr(formatTime(now)),
		}
		return expr, vals, map[string]string{"#updated_at": "updated_at"}
	})
}

// RecordWebhook stores the delivery for audit without touching status.
func (r *PaymentDynamoRepository) RecordWebhook(ctx context.Context, id string, payload json.RawMessage, now time.Time) error {
	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 idKey(id),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		UpdateExpression:    aws.String("SET #webhook_received = :true, #last_webhook_payload = :payload, #updated_at = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#id":                   "id",
			"#webhook_received":     "webhook_received",
			"#last_webhook_payload": "last_webhook_payload",
			"#updated_at":           "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":       &types.AttributeValueMemberBOOL{Value: true},
			":payload":    stringAttr(payloadString(payload)),
			":updated_at": stringAttr(formatTime(now)),
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("record webhook for %s: payment not found", id)
		}
		return err
	}
	return nil
}

func (r *PaymentDynamoRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int32) ([]entities.Payment, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(paymentsStatusExpiresIndex),
		KeyConditionExpression: aws.String("#status = :pending AND #expires_at < :now"),
		ExpressionAttributeNames: map[string]string{
			"#status":     "status",
			"#expires_at": "expires_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": stringAttr(string(entities.PaymentStatusPending)),
			":now":     stringAttr(formatTime(now)),
		},
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	out, err := r.ddb.Query(ctx, input)
	if err != nil {
		return nil, err
	}

	items := make([]entities.Payment, 0, len(out.Items))
	for _, raw := range out.Items {
		var it paymentItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromPaymentItem(it))
	}
	return items, nil
}

func (r *PaymentDynamoRepository) updatePending(
	ctx context.Context,
	id string,
	build func() (updateExpr string, values map[string]types.AttributeValue, names map[string]string),
) error {
	updateExpr, values, names := build()
	values[":pending"] = stringAttr(string(entities.PaymentStatusPending))

	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       idKey(id),
		ConditionExpression:       aws.String("#status = :pending"),
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  mergeNames(names, map[string]string{"#status": "status"}),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return interfaces.ErrConditionalCheckFailed
		}
		return err
	}
	return nil
}

func payloadString(payload json.RawMessage) string {
	if len(payload) == 0 {
		return "{}"
	}
	return string(payload)
}

func toPaymentItem(p entities.Payment) paymentItem {
	return paymentItem{
		ID:                 p.ID,
		ProviderIdentifier: p.ProviderIdentifier,
		Type:               string(p.Type),
		Amount:             p.Amount.StringFixed(2),
		Description:        p.Description,
		Status:             string(p.Status),
		PixCode:            p.PixCode,
		PixQRCodeBase64:    p.PixQRCodeBase64,
		PayerDocument:      p.PayerDocument,
		PlanID:             p.PlanID,
		SubscriptionID:     p.SubscriptionID,
		AppointmentID:      p.AppointmentID,
		ExpiresAt:          formatTime(p.ExpiresAt),
		PaidAt:             formatTimePtr(p.PaidAt),
		WebhookReceived:    p.WebhookReceived,
		LastWebhookPayload: string(p.LastWebhookPayload),
		CreatedAt:          formatTime(p.CreatedAt),
		UpdatedAt:          formatTime(p.UpdatedAt),
	}
}

func fromPaymentItem(it paymentItem) entities.Payment {
	amount, _ := decimal.NewFromString(it.Amount)
	var payload json.RawMessage
	if it.LastWebhookPayload != "" {
		payload = json.RawMessage(it.LastWebhookPayload)
	}
	return entities.Payment{
		ID:                 it.ID,
		ProviderIdentifier: it.ProviderIdentifier,
		Type:               entities.PaymentType(it.Type),
		Amount:             amount,
		Description:        it.Description,
		Status:             entities.PaymentStatus(it.Status),
		PixCode:            it.PixCode,
		PixQRCodeBase64:    it.PixQRCodeBase64,
		PayerDocument:      it.PayerDocument,
		PlanID:             it.PlanID,
		SubscriptionID:     it.SubscriptionID,
		AppointmentID:      it.AppointmentID,
		ExpiresAt:          parseTime(it.ExpiresAt),
		PaidAt:             parseTimePtr(it.PaidAt),
		WebhookReceived:    it.WebhookReceived,
		LastWebhookPayload: payload,
		CreatedAt:          parseTime(it.CreatedAt),
		UpdatedAt:          parseTime(it.UpdatedAt),
	}
}
