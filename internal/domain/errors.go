package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedClusterVersion matches UnsupportedClusterVersionError via errors.Is.
var ErrUnsupportedClusterVersion = errors.New("unsupported cluster version")

// ErrIndexNotFound matches NotFoundError via errors.Is.
var ErrIndexNotFound = errors.New("index not found")

// UnsupportedClusterVersionError aborts provisioning before any mutation.
type UnsupportedClusterVersionError struct {
	Version  string
	MinMajor int
}

func (e *UnsupportedClusterVersionError) Error() string {
	return fmt.Sprintf("cluster version %s is not supported, major version %d or later is required", e.Version, e.MinMajor)
}

func (e *UnsupportedClusterVersionError) Is(target error) bool {
	return target == ErrUnsupportedClusterVersion
}

// TypeLoadError means a declared mapping type is not registered.
type TypeLoadError struct {
	TypeName string
}

func (e *TypeLoadError) Error() string {
	return fmt.Sprintf("mapping type %q is not registered", e.TypeName)
}

// HealthTimeoutError carries the last status seen before the wait gave up.
type HealthTimeoutError struct {
	Index      string
	LastStatus HealthStatus
	Timeout    time.Duration
}

func (e *HealthTimeoutError) Error() string {
	target := e.Index
	if target == "" {
		target = "cluster"
	}
	return fmt.Sprintf("%s did not reach yellow within %s, last status %s", target, e.Timeout, e.LastStatus)
}

// IndexLeftClosedError means a close/open cycle broke off and the index may
// still be closed. It needs manual recovery.
type IndexLeftClosedError struct {
	Index string
	Step  string
	Err   error
}

func (e *IndexLeftClosedError) Error() string {
	return fmt.Sprintf("index %s may be left closed after failed %s: %v", e.Index, e.Step, e.Err)
}

func (e *IndexLeftClosedError) Unwrap() error {
	return e.Err
}

// ClusterError is a failed cluster request.
type ClusterError struct {
	Op         string
	Index      string
	StatusCode int
	Type       string
	Reason     string
	Err        error
}

func (e *ClusterError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Index, e.Err)
	case e.Type != "":
		return fmt.Sprintf("%s %s: [%d] %s: %s", e.Op, e.Index, e.StatusCode, e.Type, e.Reason)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Op, e.Index, e.StatusCode)
	}
}

func (e *ClusterError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when an index does not exist.
type NotFoundError struct {
	Index string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("index %s not found", e.Index)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrIndexNotFound
}
