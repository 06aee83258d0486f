package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/otp-auth-api/internal/domain"
)

// OTPRepo manages one-time codes. PK: phone_number — the table holds at
// most one row per phone, so Replace doubles as "invalidate prior codes".
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

// Replace writes the phone's code row, overwriting any previous one.
// A single PutItem, so no two codes for one phone are ever simultaneously
// active no matter how issuance calls interleave.
func (r *OTPRepo) Replace(ctx context.Context, rec *domain.OTPCode) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OTPRepo) Get(ctx context.Context, phone string) (*domain.OTPCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("phone_number", phone),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp code not found: %w", domain.ErrNotFound)
	}
	var rec domain.OTPCode
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Consume flips used=false→true for the phone's row, conditional on the
// stored code still matching and being unused. The condition makes the
// check-and-set atomic: the first verifier wins and every concurrent
// attempt observes domain.ErrAlreadyUsed.
func (r *OTPRepo) Consume(ctx context.Context, phone, code string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("phone_number", phone),
		UpdateExpression:    aws.String("SET #u = :t"),
		ConditionExpression: aws.String("#c = :code AND #u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#u": "used",
			"#c": "code",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":    &types.AttributeValueMemberBOOL{Value: true},
			":f":    &types.AttributeValueMemberBOOL{Value: false},
			":code": &types.AttributeValueMemberS{Value: code},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("otp code already consumed: %w", domain.ErrAlreadyUsed)
	}
	return err
}

func (r *OTPRepo) Delete(ctx context.Context, phone string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("phone_number", phone),
	})
	return err
}

// ScanOlderThan returns code rows created before the cutoff. Used by the
// cleanup job, never by the request path — expiry there is evaluated lazily.
func (r *OTPRepo) ScanOlderThan(ctx context.Context, cutoff time.Time) ([]domain.OTPCode, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("created_at < :cutoff"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cutoff": &types.AttributeValueMemberS{Value: cutoff.UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return nil, err
	}
	var recs []domain.OTPCode
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// CountActive returns how many unused, unexpired codes remain.
func (r *OTPRepo) CountActive(ctx context.Context, now time.Time) (int, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("#u = :f AND expires_at > :now"),
		ExpressionAttributeNames: map[string]string{
			"#u": "used",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":now": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Unix())},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, err
	}
	return int(out.Count), nil
}
