package ingest

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ingestion pipeline. Handlers map these to
// stable client-facing error codes; the full chain stays in server logs.
var (
	ErrNoFile              = errors.New("no file uploaded")
	ErrUnsupportedFileType = errors.New("only CSV and TXT files are allowed")
	ErrSourceRead          = errors.New("source read failed")
	ErrMalformedRow        = errors.New("malformed row")
	ErrPersistence         = errors.New("persistence failed")
)

// Stage names the pipeline step an error came from.
type Stage string

const (
	StageReceive   Stage = "receive"
	StageParse     Stage = "parse"
	StageAggregate Stage = "aggregate"
	StagePersist   Stage = "persist"
)

// StageError wraps a pipeline failure with the stage it occurred in.
// Any stage failure aborts the remaining stages; nothing is retried.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
