package repository

import (
	"context"
	"fmt"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultAppointmentsTableName = "appointments"

type appointmentItem struct {
	ID               string `dynamodbav:"id"`
	PatientID        string `dynamodbav:"patient_id"`
	Status           string `dynamodbav:"status"`
	ScheduledAt      string `dynamodbav:"scheduled_at"`
	ConfirmedAt      string `dynamodbav:"confirmed_at,omitempty"`
	NotificationSent bool   `dynamodbav:"notification_sent"`
	CreatedAt        string `dynamodbav:"created_at"`
	UpdatedAt        string `dynamodbav:"updated_at"`
}

// AppointmentDynamoRepository reads appointments written by the scheduling flow.
//
// Table requirements:
//   - PK: id (string)

type AppointmentDynamoRepository struct {
	ddb       DynamoDBAPI
	tableName string
}

var _ interfaces.IAppointmentRepository = (*AppointmentDynamoRepository)(nil)

func NewAppointmentDynamoRepository(ddb DynamoDBAPI) *AppointmentDynamoRepository {
	return &AppointmentDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("APPOINTMENTS_TABLE", defaultAppointmentsTableName),
	}
}

func (r *AppointmentDynamoRepository) GetByID(ctx context.Context, id string) (entities.Appointment, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Appointment{}, err
	}
	if len(out.Item) == 0 {
		return entities.Appointment{}, nil
	}

	var it appointmentItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Appointment{}, err
	}
	return fromAppointmentItem(it), nil
}

func (r *AppointmentDynamoRepository) MarkNotificationSent(ctx context.Context, id string) error {
	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 idKey(id),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		UpdateExpression:    aws.String("SET #notification_sent = :true"),
		ExpressionAttributeNames: map[string]string{
			"#id":                "id",
			"#notification_sent": "notification_sent",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("mark notification sent: appointment %s not found", id)
		}
		return err
	}
	return nil
}

func fromAppointmentItem(it appointmentItem) entities.Appointment {
	return entities.Appointment{
		ID:               it.ID,
		PatientID:        it.PatientID,
		Status:           entities.AppointmentStatus(it.Status),
		ScheduledAt:      parseTime(it.ScheduledAt),
		ConfirmedAt:      parseTimePtr(it.ConfirmedAt),
		NotificationSent: it.NotificationSent,
		CreatedAt:        parseTime(it.CreatedAt),
		UpdatedAt:        parseTime(it.UpdatedAt),
	}
}
