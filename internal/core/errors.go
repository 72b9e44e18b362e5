package core

import (
	"errors"
	"fmt"

	"github.com/baxromumarov/policy-summarizer/internal/observability"
)

type Stage string

const (
	StageLocate    Stage = "locate"
	StageFetch     Stage = "fetch"
	StageNormalize Stage = "normalize"
	StageSizeCheck Stage = "size_check"
	StageSummarize Stage = "summarize"
)

var ErrEmptyInput = errors.New("url is required")

type PolicyNotFoundError struct {
	Site string
}

func (e *PolicyNotFoundError) Error() string {
	return fmt.Sprintf("no privacy policy found for %s", e.Site)
}

func (e *PolicyNotFoundError) ErrorKind() string { return observability.ErrorNotFound }

type DocumentTooLargeError struct {
	Words int
	Limit int
}

func (e *DocumentTooLargeError) Error() string {
	return fmt.Sprintf("privacy policy is too long to summarize: %d words exceeds the %d word limit", e.Words, e.Limit)
}

func (e *DocumentTooLargeError) ErrorKind() string { return observability.ErrorTooLarge }

// TimeoutError marks a stage that ran out of time.
type TimeoutError struct {
	Stage Stage
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Stage, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) ErrorKind() string { return observability.ErrorTimeout }

// StageError records which pipeline stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func wrapStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	if observability.IsTimeout(err) {
		return &TimeoutError{Stage: stage, Err: err}
	}
	return &StageError{Stage: stage, Err: err}
}
