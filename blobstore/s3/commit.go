package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/spango/blobstore"
)

// CurrentName is the logical blob holding the name of the latest committed
// snapshot.
const CurrentName = "CURRENT"

// ErrConcurrentModification is returned when another writer committed a new
// snapshot version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of the DynamoDB client used by the commit store.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// CommitStore wraps a Store and routes the CURRENT pointer through DynamoDB
// conditional writes, so concurrent writers cannot silently overwrite each
// other's commits. All other blobs pass through to the inner store, since
// snapshot blobs are immutable and content-addressed by name.
//
// Table schema: partition key base_uri (S), sort key version (N).
type CommitStore struct {
	inner     blobstore.Store
	ddb       DDBClient
	tableName string
	baseURI   string
}

var _ blobstore.Store = (*CommitStore)(nil)

// NewCommitStore creates a commit store over the given inner store.
// baseURI identifies this index in the commit table, e.g. "s3://bucket/prefix".
func NewCommitStore(inner blobstore.Store, ddb DDBClient, tableName, baseURI string) *CommitStore {
	return &CommitStore{
		inner:     inner,
		ddb:       ddb,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Put writes a blob. Writing CURRENT commits a new version atomically.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name == CurrentName {
		return s.commit(ctx, string(data))
	}
	return s.inner.Put(ctx, name, data)
}

// Get reads a blob. Reading CURRENT resolves the latest committed version.
func (s *CommitStore) Get(ctx context.Context, name string) ([]byte, error) {
	if name == CurrentName {
		version, snapshot, err := s.latest(ctx)
		if err != nil {
			return nil, err
		}
		if version == 0 {
			return nil, blobstore.ErrNotFound
		}
		return []byte(snapshot), nil
	}
	return s.inner.Get(ctx, name)
}

// List lists blobs in the inner store.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Delete removes a blob from the inner store.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// latest queries DynamoDB for the highest committed version.
func (s *CommitStore) latest(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query commit table: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in commit table")
	}
	snapshotAttr, ok := item["snapshot"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid snapshot attribute in commit table")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}
	return version, snapshotAttr.Value, nil
}

// commit writes version current+1 with a conditional put. A concurrent writer
// that raced us to the same version causes ErrConcurrentModification.
func (s *CommitStore) commit(ctx context.Context, snapshot string) error {
	current, _, err := s.latest(ctx)
	if err != nil {
		return err
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(current+1, 10)},
			"snapshot": &types.AttributeValueMemberS{Value: snapshot},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit snapshot version: %w", err)
	}
	return nil
}
