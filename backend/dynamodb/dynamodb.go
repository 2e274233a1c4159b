package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	awsdynamodb "github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/riverford/durable-ref/backend"
)

// maxSwapAttempts bounds AtomicSwap's internal retry loop, mirroring the
// redis backend. It is unrelated to the core's CAS back-off hook, which
// only governs the generic loop for backends without native support.
const maxSwapAttempts = 64

const (
	attrKey     = "key"
	attrData    = "data"
	attrVersion = "version"
)

// Backend implements backend.Reader, backend.Writer, backend.Deleter, and
// backend.AtomicSwapper over a single DynamoDB table.
type Backend struct {
	svc   *awsdynamodb.DynamoDB
	table string
}

// New wraps an existing DynamoDB client, storing every item in table.
func New(svc *awsdynamodb.DynamoDB, table string) *Backend {
	return &Backend{svc: svc, table: table}
}

// Register builds a Backend from the ambient AWS session (shared config
// and credential chain, matching the convention the rest of this module's
// AWS-backed code follows) and registers it under scheme "dynamodb" in
// backend.Default.
func Register(table string) (*Backend, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb: creating session: %w", err)
	}
	b := New(awsdynamodb.New(sess), table)
	backend.Register("dynamodb", b)
	return b, nil
}

func (b *Backend) getItem(ctx context.Context, inner string, consistent bool) ([]byte, uint64, bool, error) {
	out, err := b.svc.GetItemWithContext(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(b.table),
		Key: map[string]*awsdynamodb.AttributeValue{
			attrKey: {S: aws.String(inner)},
		},
		ConsistentRead: aws.Bool(consistent),
	})
	if err != nil {
		return nil, 0, false, fmt.Errorf("dynamodb: get %q: %w", inner, err)
	}
	if len(out.Item) == 0 {
		return nil, 0, false, nil
	}
	data := out.Item[attrData].B
	version, err := attrToVersion(out.Item[attrVersion])
	if err != nil {
		return nil, 0, false, fmt.Errorf("dynamodb: get %q: %w", inner, err)
	}
	return data, version, true, nil
}

func (b *Backend) Read(ctx context.Context, inner string, opts backend.Opts) ([]byte, bool, error) {
	data, _, ok, err := b.getItem(ctx, inner, opts.Consistent)
	return data, ok, err
}

func (b *Backend) Write(ctx context.Context, inner string, data []byte, _ backend.Opts) error {
	_, version, ok, err := b.getItem(ctx, inner, true)
	if err != nil {
		return err
	}
	next := uint64(1)
	if ok {
		next = version + 1
	}
	_, err = b.svc.PutItemWithContext(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(b.table),
		Item: map[string]*awsdynamodb.AttributeValue{
			attrKey:     {S: aws.String(inner)},
			attrData:    {B: data},
			attrVersion: {N: aws.String(fmt.Sprintf("%d", next))},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb: put %q: %w", inner, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, inner string, _ backend.Opts) error {
	_, err := b.svc.DeleteItemWithContext(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(b.table),
		Key: map[string]*awsdynamodb.AttributeValue{
			attrKey: {S: aws.String(inner)},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb: delete %q: %w", inner, err)
	}
	return nil
}

func (b *Backend) AtomicSwap(ctx context.Context, inner string, fn backend.SwapFunc, _ backend.Opts) ([]byte, error) {
	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		old, version, ok, err := b.getItem(ctx, inner, true)
		if err != nil {
			return nil, err
		}

		next, err := fn(old, ok)
		if err != nil {
			return nil, err
		}

		// Attribute names go through placeholders because "key" is a
		// DynamoDB reserved word.
		var condition string
		var values map[string]*awsdynamodb.AttributeValue
		names := map[string]*string{}
		if ok {
			condition = "#v = :current"
			names["#v"] = aws.String(attrVersion)
			values = map[string]*awsdynamodb.AttributeValue{
				":current": {N: aws.String(fmt.Sprintf("%d", version))},
			}
		} else {
			condition = "attribute_not_exists(#k)"
			names["#k"] = aws.String(attrKey)
		}

		_, err = b.svc.PutItemWithContext(ctx, &awsdynamodb.PutItemInput{
			TableName: aws.String(b.table),
			Item: map[string]*awsdynamodb.AttributeValue{
				attrKey:     {S: aws.String(inner)},
				attrData:    {B: next},
				attrVersion: {N: aws.String(fmt.Sprintf("%d", version+1))},
			},
			ConditionExpression:       aws.String(condition),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		})
		if isConditionalCheckFailed(err) {
			continue // lost the race to a concurrent writer; retry
		}
		if err != nil {
			return nil, fmt.Errorf("dynamodb: atomic_swap %q: %w", inner, err)
		}
		return next, nil
	}
	return nil, fmt.Errorf("dynamodb: atomic_swap %q: exceeded %d attempts under contention", inner, maxSwapAttempts)
}

func isConditionalCheckFailed(err error) bool {
	aerr, ok := err.(awserr.Error)
	return ok && aerr.Code() == awsdynamodb.ErrCodeConditionalCheckFailedException
}

func attrToVersion(av *awsdynamodb.AttributeValue) (uint64, error) {
	if av == nil || av.N == nil {
		return 0, nil
	}
	var v uint64
	_, err := fmt.Sscanf(*av.N, "%d", &v)
	return v, err
}

var (
	_ backend.Reader        = (*Backend)(nil)
	_ backend.Writer        = (*Backend)(nil)
	_ backend.Deleter       = (*Backend)(nil)
	_ backend.AtomicSwapper = (*Backend)(nil)
)
