package clustervec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/clustervec/cluster"
	"github.com/hupe1980/clustervec/metric"
)

var (
	// ErrNotFound is returned when an entry does not exist.
	ErrNotFound = errors.New("not found")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidVector indicates a vector that cannot be stored, such as an
// empty vector or one containing NaN or infinite elements.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidVector struct {
	Reason string
	cause  error
}

func (e *ErrInvalidVector) Error() string {
	return fmt.Sprintf("invalid vector: %s", e.Reason)
}

func (e *ErrInvalidVector) Unwrap() error { return e.cause }

// ErrMaxClustersExceeded indicates that an operation would grow the cluster
// set beyond the configured cap.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrMaxClustersExceeded struct {
	Max   int
	cause error
}

func (e *ErrMaxClustersExceeded) Error() string {
	return fmt.Sprintf("max clusters exceeded: %d", e.Max)
}

func (e *ErrMaxClustersExceeded) Unwrap() error { return e.cause }

// ErrClusterNotFound indicates an operation on a cluster ID that does not
// exist.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrClusterNotFound struct {
	ID    uint64
	cause error
}

func (e *ErrClusterNotFound) Error() string {
	return fmt.Sprintf("cluster not found: %d", e.ID)
}

func (e *ErrClusterNotFound) Unwrap() error { return e.cause }

// ErrInsufficientMembers indicates a split of a cluster with fewer than two
// members.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInsufficientMembers struct {
	ID      uint64
	Members int
	cause   error
}

func (e *ErrInsufficientMembers) Error() string {
	return fmt.Sprintf("cluster %d has %d members, need at least 2 to split", e.ID, e.Members)
}

func (e *ErrInsufficientMembers) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *metric.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var iv *cluster.ErrInvalidVector
	if errors.As(err, &iv) {
		return &ErrInvalidVector{Reason: iv.Reason, cause: err}
	}
	var mce *cluster.ErrMaxClustersExceeded
	if errors.As(err, &mce) {
		return &ErrMaxClustersExceeded{Max: mce.Max, cause: err}
	}
	var ic *cluster.ErrInvalidCluster
	if errors.As(err, &ic) {
		return &ErrClusterNotFound{ID: ic.ID, cause: err}
	}
	var im *cluster.ErrInsufficientMembers
	if errors.As(err, &im) {
		return &ErrInsufficientMembers{ID: im.ID, Members: im.Members, cause: err}
	}

	return err
}
