package repository

import (
	"context"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const defaultPlansTableName = "plans"

type planItem struct {
	ID       string `dynamodbav:"id"`
	Name     string `dynamodbav:"name"`
	Duration string `dynamodbav:"duration"`
	Price    string `dynamodbav:"price"`
	Active   bool   `dynamodbav:"active"`
}

// PlanDynamoRepository reads the plan catalog kept by the back-office.
//
// Table requirements:
//   - PK: id (string)
//
// The catalog is a handful of rows, so listing is a filtered scan.

type PlanDynamoRepository struct {
	ddb       DynamoDBAPI
	tableName string
}

var _ interfaces.IPlanRepository = (*PlanDynamoRepository)(nil)

func NewPlanDynamoRepository(ddb DynamoDBAPI) *PlanDynamoRepository {
	return &PlanDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("PLANS_TABLE", defaultPlansTableName),
	}
}

func (r *PlanDynamoRepository) GetByID(ctx context.Context, id string) (entities.Plan, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       idKey(id),
	})
	if err != nil {
		return entities.Plan{}, err
	}
	if len(out.Item) == 0 {
		return entities.Plan{}, nil
	}

	var it planItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Plan{}, err
	}
	return fromPlanItem(it), nil
}

func (r *PlanDynamoRepository) ListActive(ctx context.Context) ([]entities.Plan, error) {
	var (
		plans []entities.Plan
		start map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			FilterExpression:          aws.String("#active = :true"),
			ExpressionAttributeNames:  map[string]string{"#active": "active"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":true": &types.AttributeValueMemberBOOL{Value: true}},
			ExclusiveStartKey:         start,
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			var it planItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			plans = append(plans, fromPlanItem(it))
		}
		if len(out.LastEvaluatedKey) == 0 {
			return plans, nil
		}
		start = out.LastEvaluatedKey
	}
}

func fromPlanItem(it planItem) entities.Plan {
	price, _ := decimal.NewFromString(it.Price)
	return entities.Plan{
		ID:       it.ID,
		Name:     it.Name,
		Duration: entities.PlanDuration(it.Duration),
		Price:    price,
		Active:   it.Active,
	}
}
