package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/dynamodb/token"
	"philcali.me/pubsubhubbub/internal/exceptions"
)

// Attempts at create-then-read before giving up when a record keeps
// disappearing between the failed conditional put and the read.
const CREATE_ATTEMPTS = 3

type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type SubscriptionDynamoDBService struct {
	DynamoDB       DynamoDBAPI
	TableName      string
	TokenMarshaler token.TokenMarshaler
}

func NewSubscriptionService(tableName string, client DynamoDBAPI, marshaler token.TokenMarshaler) data.SubscriptionStore {
	return &SubscriptionDynamoDBService{
		DynamoDB:       client,
		TableName:      tableName,
		TokenMarshaler: marshaler,
	}
}

func _getKey(subscriptionId string) (map[string]types.AttributeValue, error) {
	pk, err := attributevalue.Marshal(data.SUBSCRIPTION_PARTITION)
	if err != nil {
		return nil, err
	}
	sk, err := attributevalue.Marshal(subscriptionId)
	if err != nil {
		return nil, err
	}
	return map[string]types.AttributeValue{"PK": pk, "SK": sk}, nil
}

func _isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func (ss *SubscriptionDynamoDBService) _put(ctx context.Context, item data.SubscriptionDTO, condition expression.ConditionBuilder) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return err
	}
	_, err = ss.DynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		Item:                      av,
		TableName:                 aws.String(ss.TableName),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return err
}

func (ss *SubscriptionDynamoDBService) CreateIfAbsent(ctx context.Context, input data.SubscriptionInputDTO) (data.SubscriptionDTO, bool, error) {
	now := time.Now()
	shim := data.SubscriptionDTO{
		PK:           data.SUBSCRIPTION_PARTITION,
		SK:           input.Id(),
		Hub:          input.Hub,
		Topic:        input.Topic,
		Callback:     input.Callback,
		LeaseExpires: now,
		CreateTime:   now,
		UpdateTime:   now,
	}
	condition := expression.Name("PK").AttributeNotExists().And(expression.Name("SK").AttributeNotExists())
	for attempt := 0; attempt < CREATE_ATTEMPTS; attempt++ {
		err := ss._put(ctx, shim, condition)
		if err == nil {
			return shim, true, nil
		}
		if !_isConditionFailure(err) {
			return shim, false, err
		}
		existing, err := ss.Get(ctx, shim.SK)
		if err == nil {
			return existing, false, nil
		}
		var nfe *exceptions.NotFoundError
		if !errors.As(err, &nfe) {
			return shim, false, err
		}
	}
	return shim, false, exceptions.Conflict("subscription", shim.SK)
}

func (ss *SubscriptionDynamoDBService) Get(ctx context.Context, subscriptionId string) (data.SubscriptionDTO, error) {
	shim := data.SubscriptionDTO{PK: data.SUBSCRIPTION_PARTITION, SK: subscriptionId}
	key, err := _getKey(subscriptionId)
	if err != nil {
		return shim, err
	}
	response, err := ss.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(ss.TableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return shim, err
	}
	if response.Item == nil {
		return shim, exceptions.NotFound("subscription", subscriptionId)
	}
	err = attributevalue.UnmarshalMap(response.Item, &shim)
	return shim, err
}

func (ss *SubscriptionDynamoDBService) Save(ctx context.Context, subscription data.SubscriptionDTO) (data.SubscriptionDTO, error) {
	subscription.PK = data.SUBSCRIPTION_PARTITION
	subscription.UpdateTime = time.Now()
	condition := expression.Name("PK").AttributeExists().And(expression.Name("SK").AttributeExists())
	if err := ss._put(ctx, subscription, condition); err != nil {
		if _isConditionFailure(err) {
			return subscription, exceptions.NotFound("subscription", subscription.SK)
		}
		return subscription, err
	}
	return subscription, nil
}

func (ss *SubscriptionDynamoDBService) Delete(ctx context.Context, subscriptionId string) error {
	key, err := _getKey(subscriptionId)
	if err != nil {
		return err
	}
	_, err = ss.DynamoDB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		Key:       key,
		TableName: aws.String(ss.TableName),
	})
	return err
}

func (ss *SubscriptionDynamoDBService) List(ctx context.Context, params data.QueryParams) (data.QueryResults[data.SubscriptionDTO], error) {
	keyEx := expression.Key("PK").Equal(expression.Value(data.SUBSCRIPTION_PARTITION))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return data.QueryResults[data.SubscriptionDTO]{}, err
	}
	startKey, err := ss.TokenMarshaler.Unmarshal(data.SUBSCRIPTION_PARTITION, params.NextToken)
	if err != nil {
		return data.QueryResults[data.SubscriptionDTO]{}, exceptions.InvalidInput("invalid nextToken")
	}
	output, err := ss.DynamoDB.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(ss.TableName),
		Limit:                     params.GetLimit(),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         startKey,
	})
	if err != nil {
		return data.QueryResults[data.SubscriptionDTO]{}, err
	}
	items := make([]data.SubscriptionDTO, 0, len(output.Items))
	if err := attributevalue.UnmarshalListOfMaps(output.Items, &items); err != nil {
		return data.QueryResults[data.SubscriptionDTO]{}, err
	}
	nextToken, err := ss.TokenMarshaler.Marshal(data.SUBSCRIPTION_PARTITION, output.LastEvaluatedKey)
	if err != nil {
		return data.QueryResults[data.SubscriptionDTO]{}, err
	}
	return data.QueryResults[data.SubscriptionDTO]{
		Items:     items,
		NextToken: nextToken,
	}, nil
}
