package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/hupe1980/advgo/artifact"
)

// DDBClient is the subset of the DynamoDB API the ledger uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentCommit is returned when another writer committed the same
// ledger sequence number first. Callers retry Append.
var ErrConcurrentCommit = errors.New("concurrent ledger commit detected")

// Ledger tracks committed runs in DynamoDB. S3 has no atomic
// compare-and-swap, so concurrent experiment runners serialize their
// "latest run" updates through the ledger's conditional writes.
//
// Table schema:
//   - Partition key: archive_id (string) - logical archive name
//   - Sort key: seq (number) - monotonically increasing commit sequence
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name advgo-runs \
//	  --attribute-definitions \
//	      AttributeName=archive_id,AttributeType=S \
//	      AttributeName=seq,AttributeType=N \
//	  --key-schema \
//	      AttributeName=archive_id,KeyType=HASH \
//	      AttributeName=seq,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type Ledger struct {
	client    DDBClient
	tableName string
	archiveID string
}

// NewLedger creates a run ledger for one logical archive.
func NewLedger(client DDBClient, tableName, archiveID string) *Ledger {
	return &Ledger{
		client:    client,
		tableName: tableName,
		archiveID: archiveID,
	}
}

// Entry is one committed run.
type Entry struct {
	// Seq is the commit sequence number, starting at 1.
	Seq uint64

	// RunID identifies the committed run.
	RunID uuid.UUID

	// Snapshot is the object name the run's snapshot was stored under.
	Snapshot string

	// CommittedAt is the commit wall-clock time (UTC).
	CommittedAt time.Time
}

// Append commits a run as the newest ledger entry and returns its sequence
// number. Returns ErrConcurrentCommit when another writer claimed the
// sequence number first.
func (l *Ledger) Append(ctx context.Context, runID uuid.UUID, snapshot string) (uint64, error) {
	latest, err := l.query(ctx, 1)
	if err != nil {
		return 0, err
	}

	seq := uint64(1)
	if len(latest) > 0 {
		seq = latest[0].Seq + 1
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item: map[string]types.AttributeValue{
			"archive_id":   &types.AttributeValueMemberS{Value: l.archiveID},
			"seq":          &types.AttributeValueMemberN{Value: strconv.FormatUint(seq, 10)},
			"run_id":       &types.AttributeValueMemberS{Value: runID.String()},
			"snapshot":     &types.AttributeValueMemberS{Value: snapshot},
			"committed_at": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		// Fail if another writer claimed this sequence number.
		ConditionExpression: aws.String("attribute_not_exists(seq)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentCommit
		}
		return 0, fmt.Errorf("commit run to DynamoDB: %w", err)
	}

	return seq, nil
}

// Latest returns the most recently committed run.
// Returns artifact.ErrNotFound when the ledger is empty.
func (l *Ledger) Latest(ctx context.Context) (*Entry, error) {
	entries, err := l.query(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, artifact.ErrNotFound
	}

	return &entries[0], nil
}

// History returns up to limit entries, newest first. A non-positive limit
// returns all entries.
func (l *Ledger) History(ctx context.Context, limit int32) ([]Entry, error) {
	return l.query(ctx, limit)
}

func (l *Ledger) query(ctx context.Context, limit int32) ([]Entry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(l.tableName),
		KeyConditionExpression: aws.String("archive_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: l.archiveID},
		},
		ScanIndexForward: aws.Bool(false), // newest first
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	resp, err := l.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query run ledger: %w", err)
	}

	entries := make([]Entry, 0, len(resp.Items))

	for _, item := range resp.Items {
		e, err := decodeEntry(item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func decodeEntry(item map[string]types.AttributeValue) (Entry, error) {
	var e Entry

	seqAttr, ok := item["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return Entry{}, errors.New("run ledger entry has no seq attribute")
	}

	seq, err := strconv.ParseUint(seqAttr.Value, 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parse ledger seq: %w", err)
	}
	e.Seq = seq

	idAttr, ok := item["run_id"].(*types.AttributeValueMemberS)
	if !ok {
		return Entry{}, errors.New("run ledger entry has no run_id attribute")
	}

	id, err := uuid.Parse(idAttr.Value)
	if err != nil {
		return Entry{}, fmt.Errorf("parse ledger run_id: %w", err)
	}
	e.RunID = id

	if snapAttr, ok := item["snapshot"].(*types.AttributeValueMemberS); ok {
		e.Snapshot = snapAttr.Value
	}

	if tsAttr, ok := item["committed_at"].(*types.AttributeValueMemberS); ok {
		if ts, err := time.Parse(time.RFC3339Nano, tsAttr.Value); err == nil {
			e.CommittedAt = ts
		}
	}

	return e, nil
}
