package clustervec

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/clustervec/blobstore"
	"github.com/hupe1980/clustervec/cluster"
	"github.com/hupe1980/clustervec/codec"
	"github.com/hupe1980/clustervec/metric"
)

// Compression selects the compression applied to snapshot payloads.
type Compression uint8

const (
	// CompressionNone writes the payload uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 compresses the payload with LZ4 (fast, modest ratio).
	CompressionLZ4 Compression = 1
	// CompressionZSTD compresses the payload with Zstandard (slower, better ratio).
	CompressionZSTD Compression = 2
)

// Snapshot container layout:
//
//	magic "CVEC" | version (1 byte) | compression (1 byte) |
//	codec name length (1 byte) | codec name |
//	payload length (8 bytes, big endian) | payload
//
// The payload is the codec-encoded snapshotPayload, compressed per the
// compression byte. Snapshots are self-describing: the header records the
// codec and compression they were written with, so readers need no
// out-of-band configuration beyond a custom similarity function.
var snapshotMagic = [4]byte{'C', 'V', 'E', 'C'}

const snapshotVersion = 1

type snapshotPayload[T any] struct {
	MetricKind         string           `json:"metric_kind"`
	ClusterThreshold   float32          `json:"cluster_threshold"`
	DynamicClustering  bool             `json:"dynamic_clustering"`
	RecalculateCenters bool             `json:"recalculate_centers"`
	MaxClusters        int              `json:"max_clusters"`
	State              cluster.State[T] `json:"state"`
}

// SaveToWriter writes a snapshot of the store to w using the configured
// codec and compression.
func (cv *ClusterVec[T]) SaveToWriter(ctx context.Context, w io.Writer) error {
	cv.mu.RLock()
	cfg := cv.mgr.Config()
	payload := snapshotPayload[T]{
		MetricKind:         cfg.Similarity.Kind.String(),
		ClusterThreshold:   cfg.ClusterThreshold,
		DynamicClustering:  cfg.DynamicClustering,
		RecalculateCenters: cfg.RecalculateCenters,
		MaxClusters:        cfg.MaxClusters,
		State:              cv.mgr.State(),
	}
	cv.mu.RUnlock()

	data, err := cv.codec.Marshal(payload)
	if err != nil {
		return fmt.Errorf("clustervec: encode snapshot: %w", err)
	}

	data, err = compress(data, cv.compression)
	if err != nil {
		return fmt.Errorf("clustervec: compress snapshot: %w", err)
	}

	name := cv.codec.Name()
	if len(name) > 255 {
		return fmt.Errorf("clustervec: codec name too long: %q", name)
	}

	var header bytes.Buffer
	header.Write(snapshotMagic[:])
	header.WriteByte(snapshotVersion)
	header.WriteByte(byte(cv.compression))
	header.WriteByte(byte(len(name)))
	header.WriteString(name)

	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint64(len(data))); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	return nil
}

// SaveToFile writes a snapshot to the given path. The file is written to a
// temp file first and renamed into place, so a crash mid-write never leaves
// a truncated snapshot behind.
func (cv *ClusterVec[T]) SaveToFile(ctx context.Context, path string) error {
	err := cv.saveToFile(ctx, path)
	cv.logger.LogSnapshot(ctx, path, err)
	return err
}

func (cv *ClusterVec[T]) saveToFile(ctx context.Context, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cvec-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := cv.SaveToWriter(ctx, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// SaveToBlob writes a snapshot to a blob store under the given name.
func (cv *ClusterVec[T]) SaveToBlob(ctx context.Context, store blobstore.BlobStore, name string) error {
	var buf bytes.Buffer
	err := cv.SaveToWriter(ctx, &buf)
	if err == nil {
		err = store.Put(ctx, name, buf.Bytes())
	}
	cv.logger.LogSnapshot(ctx, name, err)
	return err
}

// NewFromReader restores a store from a snapshot.
//
// The snapshot records its codec and compression, so neither needs to be
// configured to read it. Policy options (threshold, dynamic clustering,
// center recalculation, cluster cap) are restored from the snapshot unless
// overridden by options. A snapshot of a store with a custom similarity
// function records the metric family only; the function itself must be
// re-supplied via WithSimilarity.
func NewFromReader[T any](r io.Reader, optFns ...Option) (*ClusterVec[T], error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("clustervec: read snapshot header: %w", err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("clustervec: bad snapshot magic %q", magic[:])
	}

	var meta [3]byte
	if _, err := io.ReadFull(r, meta[:]); err != nil {
		return nil, fmt.Errorf("clustervec: read snapshot header: %w", err)
	}
	if meta[0] != snapshotVersion {
		return nil, fmt.Errorf("clustervec: unsupported snapshot version %d", meta[0])
	}
	compression := Compression(meta[1])

	codecName := make([]byte, meta[2])
	if _, err := io.ReadFull(r, codecName); err != nil {
		return nil, fmt.Errorf("clustervec: read snapshot header: %w", err)
	}
	c, ok := codec.ByName(string(codecName))
	if !ok {
		return nil, fmt.Errorf("clustervec: unknown snapshot codec %q", codecName)
	}

	var payloadLen uint64
	if err := binary.Read(r, binary.BigEndian, &payloadLen); err != nil {
		return nil, fmt.Errorf("clustervec: read snapshot header: %w", err)
	}

	data := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("clustervec: read snapshot payload: %w", err)
	}

	data, err := decompress(data, compression)
	if err != nil {
		return nil, fmt.Errorf("clustervec: decompress snapshot: %w", err)
	}

	var payload snapshotPayload[T]
	if err := c.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("clustervec: decode snapshot: %w", err)
	}

	o := applyOptions(optFns)

	cfg := cluster.Config{
		ClusterThreshold:   payload.ClusterThreshold,
		DynamicClustering:  payload.DynamicClustering,
		RecalculateCenters: payload.RecalculateCenters,
		MaxClusters:        payload.MaxClusters,
	}

	if o.similaritySet {
		cfg.Similarity = o.clusterConfig.Similarity
	} else {
		kind, ok := metric.KindByName(payload.MetricKind)
		if !ok {
			return nil, fmt.Errorf("clustervec: unknown metric kind %q in snapshot", payload.MetricKind)
		}
		switch kind {
		case metric.KindCosine:
			cfg.Similarity = metric.Cosine()
		case metric.KindEuclidean:
			cfg.Similarity = metric.Euclidean()
		default:
			return nil, fmt.Errorf("clustervec: snapshot uses a custom similarity function, re-supply it via WithSimilarity")
		}
	}

	mgr, err := cluster.FromState[T](cfg, payload.State)
	if err != nil {
		return nil, err
	}

	return &ClusterVec[T]{
		mgr:         mgr,
		codec:       o.codec,
		compression: o.compression,
		metrics:     o.metricsCollector,
		logger:      o.logger,
	}, nil
}

// NewFromFile restores a store from a snapshot file.
func NewFromFile[T any](path string, optFns ...Option) (*ClusterVec[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewFromReader[T](f, optFns...)
}

// NewFromBlob restores a store from a snapshot in a blob store.
func NewFromBlob[T any](ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*ClusterVec[T], error) {
	r, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return NewFromReader[T](r, optFns...)
}

func compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZSTD:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		out := enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression %d", c)
	}
}

func decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	case CompressionZSTD:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("unknown compression %d", c)
	}
}
