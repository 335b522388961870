package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ConnectDynamoDB creates a DynamoDB client using environment variables.
//
// Supported env vars (local-friendly):
//   - AWS_REGION (default: us-east-1)
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY (static credentials when both are set)
//   - DYNAMODB_ENDPOINT (optional; e.g. http://dynamodb:8000)
func ConnectDynamoDB(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := NewAWSConfigFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamodb config: %w", err)
	}

	endpoint := os.Getenv("DYNAMODB_ENDPOINT")
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	log.Printf("[payment][database] dynamodb client ready region=%s endpoint=%s", cfg.Region, endpoint)
	return client, nil
}

func NewAWSConfigFromEnv(ctx context.Context) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(getenvDefault("AWS_REGION", "us-east-1")),
	}

	key, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	switch {
	case key != "" && secret != "":
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, os.Getenv("AWS_SESSION_TOKEN")),
		))
	case os.Getenv("DYNAMODB_ENDPOINT") != "":
		// DynamoDB Local does not validate credentials, but the SDK requires them.
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// TableAPI is what EnsureTables needs from the client.
type TableAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ TableAPI = (*dynamodb.Client)(nil)

// TableNames are the tables the service reads and writes.
type TableNames struct {
	Payments      string
	Subscriptions string
	Appointments  string
	Plans         string
}

func TableNamesFromEnv() TableNames {
	return TableNames{
		Payments:      getenvDefault("PAYMENTS_TABLE", "payments"),
		Subscriptions: getenvDefault("SUBSCRIPTIONS_TABLE", "subscriptions"),
		Appointments:  getenvDefault("APPOINTMENTS_TABLE", "appointments"),
		Plans:         getenvDefault("PLANS_TABLE", "plans"),
	}
}

// EnsureTables creates missing tables with on-demand billing. Meant for
// DynamoDB Local; production tables are provisioned outside the service.
func EnsureTables(ctx context.Context, api TableAPI, names TableNames) error {
	inputs := []*dynamodb.CreateTableInput{
		paymentsTable(names.Payments),
		idOnlyTable(names.Subscriptions),
		idOnlyTable(names.Appointments),
		idOnlyTable(names.Plans),
	}
	for _, in := range inputs {
		_, err := api.CreateTable(ctx, in)
		if err != nil {
			var inUse *types.ResourceInUseException
			if errors.As(err, &inUse) {
				continue
			}
			return fmt.Errorf("create table %s: %w", aws.ToString(in.TableName), err)
		}
		log.Printf("[payment][database] table created name=%s", aws.ToString(in.TableName))
	}
	return nil
}

func idOnlyTable(name string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:            aws.String(name),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS}},
		KeySchema:            []types.KeySchemaElement{{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash}},
	}
}

func paymentsTable(name string) *dynamodb.CreateTableInput {
	in := idOnlyTable(name)
	in.AttributeDefinitions = append(in.AttributeDefinitions,
		types.AttributeDefinition{AttributeName: aws.String("status"), AttributeType: types.ScalarAttributeTypeS},
		types.AttributeDefinition{AttributeName: aws.String("expires_at"), AttributeType: types.ScalarAttributeTypeS},
	)
	in.GlobalSecondaryIndexes = []types.GlobalSecondaryIndex{{
		IndexName: aws.String("status-expires_at-index"),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("status"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("expires_at"), KeyType: types.KeyTypeRange},
		},
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}}
	return in
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
