package s3

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/advgo/artifact"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue // archiveID:seq -> item
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	archiveID := params.Item["archive_id"].(*types.AttributeValueMemberS).Value
	seq := params.Item["seq"].(*types.AttributeValueMemberN).Value
	key := archiveID + ":" + seq

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(seq)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	archiveID := params.ExpressionAttributeValues[":id"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["archive_id"].(*types.AttributeValueMemberS).Value == archiveID {
			items = append(items, item)
		}
	}

	// Sort numerically descending by seq.
	sort.Slice(items, func(i, j int) bool {
		si, _ := strconv.ParseUint(items[i]["seq"].(*types.AttributeValueMemberN).Value, 10, 64)
		sj, _ := strconv.ParseUint(items[j]["seq"].(*types.AttributeValueMemberN).Value, 10, 64)
		return si > sj
	})

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: items}, nil
}

func TestLedger_Append(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMockDDBClient(), "advgo-runs", "experiments")

	first := uuid.New()

	seq, err := ledger.Append(ctx, first, artifact.SnapshotName(first))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	second := uuid.New()

	seq, err = ledger.Append(ctx, second, artifact.SnapshotName(second))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
}

func TestLedger_Latest(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMockDDBClient(), "advgo-runs", "experiments")

	_, err := ledger.Latest(ctx)
	require.ErrorIs(t, err, artifact.ErrNotFound)

	first := uuid.New()
	second := uuid.New()

	_, err = ledger.Append(ctx, first, artifact.SnapshotName(first))
	require.NoError(t, err)
	_, err = ledger.Append(ctx, second, artifact.SnapshotName(second))
	require.NoError(t, err)

	latest, err := ledger.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), latest.Seq)
	assert.Equal(t, second, latest.RunID)
	assert.Equal(t, artifact.SnapshotName(second), latest.Snapshot)
	assert.False(t, latest.CommittedAt.IsZero())
}

func TestLedger_History(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMockDDBClient(), "advgo-runs", "experiments")

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()

		_, err := ledger.Append(ctx, ids[i], artifact.SnapshotName(ids[i]))
		require.NoError(t, err)
	}

	entries, err := ledger.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, ids[2], entries[0].RunID)
	assert.Equal(t, ids[1], entries[1].RunID)
	assert.Equal(t, ids[0], entries[2].RunID)

	limited, err := ledger.History(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLedger_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	ledger := NewLedger(ddb, "advgo-runs", "experiments")

	_, err := ledger.Append(ctx, uuid.New(), "runs/seed.snap")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := ledger.Append(ctx, uuid.New(), "runs/contender.snap")

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConcurrentCommit):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()
	assert.Greater(t, successes, 0, "at least one writer should win")
	t.Logf("successes: %d, conflicts: %d", successes, conflicts)
}

func TestLedger_IsolatedArchives(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()

	imagenet := NewLedger(ddb, "advgo-runs", "imagenet")
	tabular := NewLedger(ddb, "advgo-runs", "tabular")

	imagenetRun := uuid.New()
	tabularRun := uuid.New()

	_, err := imagenet.Append(ctx, imagenetRun, artifact.SnapshotName(imagenetRun))
	require.NoError(t, err)
	_, err = tabular.Append(ctx, tabularRun, artifact.SnapshotName(tabularRun))
	require.NoError(t, err)

	latest, err := imagenet.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, imagenetRun, latest.RunID)

	latest, err = tabular.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, tabularRun, latest.RunID)
}
