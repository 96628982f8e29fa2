package auth

import (
	"fmt"
	"time"
)

// APIKey represents an API key in the system.
type APIKey struct {
	Key       string
	RoleName  string
	CreatedAt time.Time
	ExpiresAt *time.Time
	IsActive  bool
}

// Role represents a role in the system.
type Role struct {
	RoleName    string
	Description string
}

// Permission lists the operations a role may perform.
type Permission struct {
	ID       int
	RoleName string
	CanParse bool
	CanRun   bool
	CanGrade bool
}

// Allows reports whether the permission grants operation.
func (p Permission) Allows(operation Operation) (bool, error) {
	switch operation {
	case OperationParse:
		return p.CanParse, nil
	case OperationRun:
		return p.CanRun, nil
	case OperationGrade:
		return p.CanGrade, nil
	default:
		return false, fmt.Errorf("unknown operation: %s", operation)
	}
}

// Operation represents a learner-facing operation.
type Operation string

const (
	// OperationParse covers parsing queries and browsing lessons.
	OperationParse Operation = "parse"
	// OperationRun covers executing queries and previewing the sandbox schema.
	OperationRun Operation = "run"
	// OperationGrade covers grading queries against a lesson.
	OperationGrade Operation = "grade"
)
