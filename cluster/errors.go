package cluster

import "fmt"

// ErrInvalidVector indicates a vector that is empty or contains non-finite
// elements.
type ErrInvalidVector struct {
	Reason string
}

// Error returns the error message for an invalid vector.
func (e *ErrInvalidVector) Error() string {
	return fmt.Sprintf("invalid vector: %s", e.Reason)
}

// ErrMaxClustersExceeded indicates that creating another cluster would exceed
// the configured cap.
type ErrMaxClustersExceeded struct {
	Max int
}

// Error returns the error message for the exceeded cluster cap.
func (e *ErrMaxClustersExceeded) Error() string {
	return fmt.Sprintf("max clusters exceeded: %d", e.Max)
}

// ErrInvalidCluster indicates an unknown cluster ID.
type ErrInvalidCluster struct {
	ID uint64
}

// Error returns the error message for an unknown cluster.
func (e *ErrInvalidCluster) Error() string {
	return fmt.Sprintf("invalid cluster: %d", e.ID)
}

// ErrInsufficientMembers indicates a split request on a cluster with fewer
// than two members.
type ErrInsufficientMembers struct {
	ID      uint64
	Members int
}

// Error returns the error message for a split on a too-small cluster.
func (e *ErrInsufficientMembers) Error() string {
	return fmt.Sprintf("cluster %d has insufficient members for split: %d", e.ID, e.Members)
}
