// Package store persists link snapshots and property records.
package store

import (
	"context"
	"errors"

	"github.com/law-makers/immocrawl/pkg/models"
)

// RecordSink receives extracted records. Implementations are driven by a
// single writer and need not be safe for concurrent use.
type RecordSink interface {
	Write(ctx context.Context, rec models.PropertyRecord) error
	Close() error
}

// MultiSink fans every record out to several sinks
type MultiSink []RecordSink

// Write stops at the first failing sink
func (m MultiSink) Write(ctx context.Context, rec models.PropertyRecord) error {
	for _, s := range m {
		if err := s.Write(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
