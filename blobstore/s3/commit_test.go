package s3

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spango/blobstore"
)

// fakeDDB is an in-memory DynamoDB fake honoring the conditional put used by
// the commit store.
type fakeDDB struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	baseURI := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	key := baseURI + ":" + version

	if params.ConditionExpression != nil {
		if _, exists := f.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	f.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	baseURI := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range f.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == baseURI {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		vi := items[i]["version"].(*types.AttributeValueMemberN).Value
		vj := items[j]["version"].(*types.AttributeValueMemberN).Value
		if len(vi) != len(vj) {
			return len(vi) > len(vj)
		}
		return vi > vj
	})
	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func TestCommitStore_CurrentPointer(t *testing.T) {
	ctx := context.Background()
	store := NewCommitStore(blobstore.NewMemoryStore(), newFakeDDB(), "commits", "s3://bucket/prefix")

	// No commits yet.
	_, err := store.Get(ctx, CurrentName)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, CurrentName, []byte("snapshots/v1.bin")))

	current, err := store.Get(ctx, CurrentName)
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshots/v1.bin"), current)

	// A second commit supersedes the first.
	require.NoError(t, store.Put(ctx, CurrentName, []byte("snapshots/v2.bin")))

	current, err = store.Get(ctx, CurrentName)
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshots/v2.bin"), current)
}

func TestCommitStore_ConcurrentModification(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDB()
	writer := NewCommitStore(blobstore.NewMemoryStore(), ddb, "commits", "s3://bucket/prefix")

	require.NoError(t, writer.Put(ctx, CurrentName, []byte("snapshots/v1.bin")))
	require.NoError(t, writer.Put(ctx, CurrentName, []byte("snapshots/v2.bin")))

	// A writer with a stale read sees v1 as latest and tries to claim the
	// already taken version 2 slot.
	stale := NewCommitStore(blobstore.NewMemoryStore(), &staleDDB{inner: ddb}, "commits", "s3://bucket/prefix")

	err := stale.Put(ctx, CurrentName, []byte("snapshots/late.bin"))
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

// staleDDB reports one version behind on reads, so the next conditional put
// targets an already claimed version.
type staleDDB struct {
	inner *fakeDDB
}

func (s *staleDDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return s.inner.PutItem(ctx, params, optFns...)
}

func (s *staleDDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	out, err := s.inner.Query(ctx, params, optFns...)
	if err != nil || len(out.Items) < 2 {
		return out, err
	}
	// Drop the newest item to simulate a reader racing a writer.
	return &dynamodb.QueryOutput{Items: out.Items[1:]}, nil
}

func TestCommitStore_PassThrough(t *testing.T) {
	ctx := context.Background()
	inner := blobstore.NewMemoryStore()
	store := NewCommitStore(inner, newFakeDDB(), "commits", "s3://bucket/prefix")

	require.NoError(t, store.Put(ctx, "snapshots/v1.bin", []byte("data")))

	data, err := store.Get(ctx, "snapshots/v1.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	names, err := store.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/v1.bin"}, names)

	require.NoError(t, store.Delete(ctx, "snapshots/v1.bin"))
	_, err = inner.Get(ctx, "snapshots/v1.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
