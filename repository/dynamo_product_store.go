package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pos-service/models"
)

// UserIndexName is the GSI on (user_id, created_on) used to list a user's products.
const UserIndexName = "user_id-index"

// DynamoAPI is the part of the DynamoDB client the product store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoProductStore stores products in a table keyed by `product_id` (string).
type DynamoProductStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoProductStore(client DynamoAPI, table string) *DynamoProductStore {
	return &DynamoProductStore{client: client, table: table}
}

type ddbProduct struct {
	ProductID      string  `dynamodbav:"product_id"`
	UserID         string  `dynamodbav:"user_id"`
	Name           string  `dynamodbav:"name"`
	Quantity       int     `dynamodbav:"quantity"`
	Price          float64 `dynamodbav:"price"`
	Weight         float64 `dynamodbav:"weight"`
	WeightUnit     string  `dynamodbav:"weight_unit"`
	CreatedOn      int64   `dynamodbav:"created_on"`
	IsDeleted      bool    `dynamodbav:"is_deleted"`
	LastUpdated    int64   `dynamodbav:"last_updated"`
	ThresholdValue float64 `dynamodbav:"threshold_value"`
}

func toDDB(p *models.Product) ddbProduct {
	return ddbProduct{
		ProductID:      p.ID,
		UserID:         p.UserID,
		Name:           p.Name,
		Quantity:       p.Quantity,
		Price:          p.Price,
		Weight:         p.Weight,
		WeightUnit:     string(p.WeightUnit),
		CreatedOn:      p.CreatedOn,
		IsDeleted:      p.IsDeleted,
		LastUpdated:    p.LastUpdated,
		ThresholdValue: p.ThresholdValue,
	}
}

func (dp ddbProduct) toModel() models.Product {
	unit, _ := models.ParseWeightUnit(dp.WeightUnit)
	return models.Product{
		ID:             dp.ProductID,
		UserID:         dp.UserID,
		Name:           dp.Name,
		Quantity:       dp.Quantity,
		Price:          dp.Price,
		Weight:         dp.Weight,
		WeightUnit:     unit,
		CreatedOn:      dp.CreatedOn,
		IsDeleted:      dp.IsDeleted,
		LastUpdated:    dp.LastUpdated,
		ThresholdValue: dp.ThresholdValue,
	}
}

// ListByUser returns every product of the user, soft-deleted ones included,
// in creation order.
func (d *DynamoProductStore) ListByUser(ctx context.Context, userID string) ([]models.Product, error) {
	input := &dynamodb.QueryInput{
		TableName:              &d.table,
		IndexName:              aws.String(UserIndexName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(true),
	}

	products := []models.Product{}
	paginator := dynamodb.NewQueryPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query page failed: %w", err)
		}
		for _, it := range page.Items {
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			products = append(products, dp.toModel())
		}
	}
	return products, nil
}

func (d *DynamoProductStore) FindByID(ctx context.Context, id string) (*models.Product, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"product_id": id})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: key})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	p := dp.toModel()
	return &p, nil
}

// Put creates or fully replaces a product.
func (d *DynamoProductStore) Put(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(toDDB(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &d.table, Item: item})
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

// UpdateQuantity sets the quantity of an existing product. It does not compare
// against the previous value.
func (d *DynamoProductStore) UpdateQuantity(ctx context.Context, id string, quantity int, updatedAt int64) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &d.table,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET quantity = :q, last_updated = :u"),
		ConditionExpression: aws.String("attribute_exists(product_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q": &types.AttributeValueMemberN{Value: strconv.Itoa(quantity)},
			":u": &types.AttributeValueMemberN{Value: strconv.FormatInt(updatedAt, 10)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("dynamodb UpdateItem failed: %w", err)
	}
	return nil
}
