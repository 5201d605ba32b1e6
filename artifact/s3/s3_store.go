package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/advgo/artifact"
)

// Store implements artifact.Store for Amazon S3.
type Store struct {
	client    Client
	bucket    string
	prefix    string
	uploadCfg UploadConfig
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix namespaces all keys under a root prefix (e.g. "advgo/").
// Use it when the bucket is shared with other data.
//
// Default: "" (no prefix)
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClient overrides the S3 client. When set, New skips loading the
// default AWS config.
func WithClient(client Client) Option {
	return func(s *Store) {
		s.client = client
	}
}

// WithUploadConfig tunes upload behavior.
//
// Default: DefaultUploadConfig()
func WithUploadConfig(cfg UploadConfig) Option {
	return func(s *Store) {
		s.uploadCfg = cfg
	}
}

// New creates an S3 store using the default AWS config chain (environment,
// shared config files, instance metadata).
func New(ctx context.Context, bucket string, optFns ...Option) (*Store, error) {
	s := &Store{
		bucket:    bucket,
		uploadCfg: DefaultUploadConfig(),
	}

	for _, fn := range optFns {
		fn(s)
	}

	if s.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		s.client = s3.NewFromConfig(cfg)
	}

	return s, nil
}

// NewStore creates an S3 store from an existing client.
func NewStore(client Client, bucket string, optFns ...Option) *Store {
	s := &Store{
		client:    client,
		bucket:    bucket,
		uploadCfg: DefaultUploadConfig(),
	}

	for _, fn := range optFns {
		fn(s)
	}

	return s
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}

	return strings.TrimSuffix(s.prefix, "/") + "/" + name
}

// Open opens an object for reading. The object's size is resolved with a
// HeadObject call; reads are served as ranged GETs.
func (s *Store) Open(ctx context.Context, name string) (artifact.Blob, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, artifact.ErrNotFound
		}
		return nil, fmt.Errorf("head s3 object %q: %w", key, err)
	}

	return &s3Blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// Create creates an object for streaming writes. Data is piped through the
// SDK's concurrent multipart uploader; the object becomes visible once the
// blob is closed and the upload completes.
func (s *Store) Create(ctx context.Context, name string) (artifact.WritableBlob, error) {
	pr, pw := io.Pipe()

	blob := &s3WritableBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   pr,
	}
	if s.uploadCfg.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	uploader := newUploader(s.client, s.uploadCfg)

	go func() {
		_, err := uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

// Put writes an object in one shot, with CRC32C validation when enabled.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if s.uploadCfg.EnableChecksum {
		return putWithChecksum(ctx, s.client, s.bucket, s.key(name), data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	})

	return err
}

// Delete removes an object. S3 treats deleting a missing key as success.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})

	return err
}

// List returns all object names with the given prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	strip := s.key("")

	var names []string

	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3 objects: %w", err)
		}

		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), strip)
			if strings.HasPrefix(name, prefix) {
				names = append(names, name)
			}
		}
	}

	sort.Strings(names)

	return names, nil
}

type s3Blob struct {
	client Client
	bucket string
	key    string
	size   int64
}

func (b *s3Blob) rangeGet(ctx context.Context, off, end int64) (*s3.GetObjectOutput, error) {
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, artifact.ErrNotFound
		}
		return nil, fmt.Errorf("get s3 object %q: %w", b.key, err)
	}

	return resp, nil
}

func (b *s3Blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	resp, err := b.rangeGet(ctx, off, end)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.ReadFull(resp.Body, p[:end-off+1])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil {
		return n, err
	}

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (b *s3Blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off >= b.size || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	end := off + length - 1
	if end >= b.size {
		end = b.size - 1
	}

	resp, err := b.rangeGet(ctx, off, end)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func (b *s3Blob) Size() int64 {
	return b.size
}

func (b *s3Blob) Close() error {
	return nil
}

type s3WritableBlob struct {
	pw     *io.PipeWriter
	done   chan error
	closed atomic.Bool
}

func (w *s3WritableBlob) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, errors.New("blob already closed")
	}

	return w.pw.Write(p)
}

// Sync is a no-op; S3 uploads are durable once Close completes.
func (w *s3WritableBlob) Sync() error {
	return nil
}

// Close finishes the pipe and waits for the upload to complete.
func (w *s3WritableBlob) Close() error {
	if w.closed.Swap(true) {
		return nil
	}

	if err := w.pw.Close(); err != nil {
		return err
	}

	return <-w.done
}
