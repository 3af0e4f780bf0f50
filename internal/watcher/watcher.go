// Package watcher polls Canonical Funnel sources and announces new groups.
package watcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical-funnel/funnel-go/pkg/logging"
)

// Service coordinates one watch pass across multiple sources.
type Service struct {
	processor *SourceProcessor
	log       Logger
}

// NewService wires a watcher around a source processor.
func NewService(processor *SourceProcessor, log Logger) *Service {
	if log == nil {
		log = logging.Nop{}
	}
	return &Service{processor: processor, log: log}
}

// Run executes a watch pass for all targets. Failures of one source do not stop the others.
func (s *Service) Run(ctx context.Context, targets []Target) error {
	if s == nil || s.processor == nil {
		return fmt.Errorf("watcher service is not initialized")
	}
	if len(targets) == 0 {
		return fmt.Errorf("no sources configured for watching")
	}

	errs := s.runAll(ctx, targets)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runAll(ctx context.Context, targets []Target) []error {
	errs := make([]error, 0, len(targets))

	for _, target := range targets {
		if ctx.Err() != nil {
			return errs
		}

		announced, err := s.processor.Process(ctx, target)
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("source watch failed", "source_error", map[string]any{
				"source_id": target.Source.ID,
				"announced": announced,
				"error":     err.Error(),
			})
			continue
		}

		s.log.InfoObj("source watch completed", "source_result", map[string]any{
			"source_id":        target.Source.ID,
			"groups_announced": announced,
		})
	}

	return errs
}
