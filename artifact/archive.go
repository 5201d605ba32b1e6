package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/advgo/codec"
	"github.com/hupe1980/advgo/resource"
)

const (
	runPrefix  = "runs/"
	snapSuffix = ".snap"
)

// ErrNilSnapshot is returned when saving a nil or report-less snapshot.
var ErrNilSnapshot = errors.New("artifact: snapshot must carry a report")

// Archive persists run snapshots in a Store. Saved objects are
// self-describing: loading reads the codec and compression from the
// snapshot header, never from the Archive's own configuration.
type Archive struct {
	store       Store
	codec       codec.Codec
	compression Compression
	rc          *resource.Controller
}

// Option configures an Archive.
type Option func(*Archive)

// WithCodec sets the codec used for newly saved snapshots. Loading always
// selects the codec recorded in the snapshot header.
//
// Default: codec.Default
func WithCodec(c codec.Codec) Option {
	return func(a *Archive) {
		a.codec = c
	}
}

// WithCompression sets the compression applied to newly saved snapshots.
//
// Default: CompressionZstd
func WithCompression(c Compression) Option {
	return func(a *Archive) {
		a.compression = c
	}
}

// WithResourceController subjects saves and loads to the controller's IO
// rate limit and snapshot buffers to its memory budget.
//
// Default: nil (unlimited)
func WithResourceController(rc *resource.Controller) Option {
	return func(a *Archive) {
		a.rc = rc
	}
}

// NewArchive creates an archive on top of the given store.
func NewArchive(store Store, optFns ...Option) *Archive {
	a := &Archive{
		store:       store,
		codec:       codec.Default,
		compression: CompressionZstd,
	}

	for _, fn := range optFns {
		fn(a)
	}

	return a
}

// SnapshotName returns the object name a run is stored under.
func SnapshotName(runID uuid.UUID) string {
	return runPrefix + runID.String() + snapSuffix
}

// Save persists the snapshot and returns the object name it was stored
// under.
func (a *Archive) Save(ctx context.Context, snap *Snapshot) (string, error) {
	if snap == nil || snap.Report == nil {
		return "", ErrNilSnapshot
	}

	payload, err := a.codec.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	stored, storedSize, err := compressPayload(payload, a.compression)
	if err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}

	hdr, err := encodeSnapHeader(snapHeader{
		compression:      a.compression,
		codecName:        a.codec.Name(),
		uncompressedSize: int64(len(payload)),
		storedSize:       storedSize,
	})
	if err != nil {
		return "", err
	}

	name := SnapshotName(snap.Report.RunID)

	w, err := a.store.Create(ctx, name)
	if err != nil {
		return "", err
	}

	out := io.Writer(w)
	if a.rc != nil {
		out = resource.NewRateLimitedWriter(ctx, w, a.rc)
	}

	if _, err := out.Write(hdr); err != nil {
		a.abort(ctx, w, name)
		return "", fmt.Errorf("write snapshot header: %w", err)
	}
	if _, err := out.Write(stored); err != nil {
		a.abort(ctx, w, name)
		return "", fmt.Errorf("write snapshot payload: %w", err)
	}
	if err := w.Sync(); err != nil {
		a.abort(ctx, w, name)
		return "", err
	}

	return name, w.Close()
}

// abort closes a failed write and removes whatever the backend may have
// published for it.
func (a *Archive) abort(ctx context.Context, w WritableBlob, name string) {
	_ = w.Close()
	_ = a.store.Delete(ctx, name)
}

// Load reads one snapshot by object name.
func (a *Archive) Load(ctx context.Context, name string) (*Snapshot, error) {
	blob, err := a.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	// Gate the raw buffer against the memory budget so parallel loads
	// stay within bounds.
	if a.rc != nil {
		size := blob.Size()
		if err := a.rc.AcquireMemory(ctx, size); err != nil {
			return nil, err
		}
		defer a.rc.ReleaseMemory(size)
	}

	raw, err := a.readAll(ctx, blob)
	if err != nil {
		return nil, err
	}

	hdr, payload, err := decodeSnapHeader(raw)
	if err != nil {
		return nil, err
	}

	c, ok := codec.ByName(hdr.codecName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrCorruptSnapshot, hdr.codecName)
	}

	data := payload
	if hdr.storedSize != 0 {
		if data, err = decompressPayload(payload, hdr.compression, hdr.uncompressedSize); err != nil {
			return nil, err
		}
	}

	var snap Snapshot
	if err := c.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return &snap, nil
}

// readAll pulls the whole blob, zero-copy when the store hands out mapped
// memory and no IO limit applies.
func (a *Archive) readAll(ctx context.Context, blob Blob) ([]byte, error) {
	if m, ok := blob.(Mappable); ok && a.rc == nil {
		return m.Bytes()
	}

	r, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	in := io.Reader(r)
	if a.rc != nil {
		in = resource.NewRateLimitedReader(ctx, r, a.rc)
	}

	return io.ReadAll(in)
}

// LoadRun reads the snapshot of one run.
func (a *Archive) LoadRun(ctx context.Context, runID uuid.UUID) (*Snapshot, error) {
	return a.Load(ctx, SnapshotName(runID))
}

// Runs lists the IDs of all archived runs. Objects under the run prefix
// that do not parse as run snapshots are skipped.
func (a *Archive) Runs(ctx context.Context) ([]uuid.UUID, error) {
	names, err := a.store.List(ctx, runPrefix)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(names))

	for _, name := range names {
		if !strings.HasSuffix(name, snapSuffix) {
			continue
		}

		id, err := uuid.Parse(strings.TrimSuffix(path.Base(name), snapSuffix))
		if err != nil {
			continue
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// Delete removes a run's snapshot.
func (a *Archive) Delete(ctx context.Context, runID uuid.UUID) error {
	return a.store.Delete(ctx, SnapshotName(runID))
}

// LoadAll loads every archived run, fetching snapshots in parallel.
func (a *Archive) LoadAll(ctx context.Context) ([]*Snapshot, error) {
	ids, err := a.Runs(ctx)
	if err != nil {
		return nil, err
	}

	snaps := make([]*Snapshot, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)

	for i, id := range ids {
		g.Go(func() error {
			snap, err := a.LoadRun(gctx, id)
			if err != nil {
				return fmt.Errorf("load run %s: %w", id, err)
			}

			snaps[i] = snap
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return snaps, nil
}
