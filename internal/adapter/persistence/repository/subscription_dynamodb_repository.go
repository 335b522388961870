package repository

import (
	"context"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const defaultSubscriptionsTableName = "subscriptions"

type subscriptionItem struct {
	ID              string `dynamodbav:"id"`
	PlanID          string `dynamodbav:"plan_id"`
	PayerDocument   string `dynamodbav:"payer_document"`
	Status          string `dynamodbav:"status"`
	StartDate       string `dynamodbav:"start_date,omitempty"`
	EndDate         string `dynamodbav:"end_date,omitempty"`
	NextBillingDate string `dynamodbav:"next_billing_date,omitempty"`
	CreatedAt       string `dynamodbav:"created_at"`
	UpdatedAt       string `dynamodbav:"updated_at"`
}

// SubscriptionDynamoRepository reads subscriptions. Items are written by
// PaymentDynamoRepository, together with the payment that pays for them.
//
// Table requirements:
//   - PK: id (string)

type SubscriptionDynamoRepository struct {
	ddb       DynamoDBAPI
	tableName string
}

var _ interfaces.ISubscriptionRepository = (*SubscriptionDynamoRepository)(nil)

func NewSubscriptionDynamoRepository(ddb DynamoDBAPI) *SubscriptionDynamoRepository {
	return &SubscriptionDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("SUBSCRIPTIONS_TABLE", defaultSubscriptionsTableName),
	}
}

func (r *SubscriptionDynamoRepository) GetByID(ctx context.Context, id string) (entities.Subscription, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Subscription{}, err
	}
	if len(out.Item) == 0 {
		return entities.Subscription{}, nil
	}

	var it subscriptionItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Subscription{}, err
	}
	return fromSubscriptionItem(it), nil
}

func toSubscriptionItem(s entities.Subscription) subscriptionItem {
	return subscriptionItem{
		ID:              s.ID,
		PlanID:          s.PlanID,
		PayerDocument:   s.PayerDocument,
		Status:          string(s.Status),
		StartDate:       formatTimePtr(s.StartDate),
		EndDate:         formatTimePtr(s.EndDate),
		NextBillingDate: formatTimePtr(s.NextBillingDate),
		CreatedAt:       formatTime(s.CreatedAt),
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
}

func fromSubscriptionItem(it subscriptionItem) entities.Subscription {
	return entities.Subscription{
		ID:              it.ID,
		PlanID:          it.PlanID,
		PayerDocument:   it.PayerDocument,
		Status:          entities.SubscriptionStatus(it.Status),
		StartDate:       parseTimePtr(it.StartDate),
		EndDate:         parseTimePtr(it.EndDate),
		NextBillingDate: parseTimePtr(it.NextBillingDate),
		CreatedAt:       parseTime(it.CreatedAt),
		UpdatedAt:       parseTime(it.UpdatedAt),
	}
}
