// Package store defines the external collaborator contracts for scenario
// content and transcript persistence, plus the save orchestration shared by
// the voice and chat paths.
package store

import (
	"context"
	"fmt"
	"time"
)

// Scenario is the persona configuration bundle behind one training dialogue.
// It is read-only input, fetched once per request.
type Scenario struct {
	ID           string
	Name         string
	SystemPrompt string
	Voice        string
}

// Scenarios looks up scenario content by id.
type Scenarios interface {
	Scenario(ctx context.Context, id string) (*Scenario, error)
}

// Progress identifies an existing progress record.
type Progress struct {
	ID string
}

// Archive persists transcript history and per-user progress records.
//
// AppendHistory always creates a new record; history is never updated or
// deleted. FindProgress returns the first match for (user, scenario), or nil
// when none exists; at most one record per pair is assumed, not enforced.
// CompleteProgress patches only transcript, status and completion time.
type Archive interface {
	AppendHistory(ctx context.Context, userID, scenarioID, markdown string) error
	FindProgress(ctx context.Context, userID, scenarioID string) (*Progress, error)
	CompleteProgress(ctx context.Context, progressID, markdown string, completedAt time.Time) error
}

// SaveTranscript appends an immutable history record and then marks the
// user's progress record DONE when one exists. A missing progress record is
// not an error: the core never creates one, so history is recorded and the
// progress update is silently skipped.
func SaveTranscript(ctx context.Context, a Archive, userID, scenarioID, markdown string, now time.Time) error {
	if err := a.AppendHistory(ctx, userID, scenarioID, markdown); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	progress, err := a.FindProgress(ctx, userID, scenarioID)
	if err != nil {
		return fmt.Errorf("find progress: %w", err)
	}
	if progress == nil {
		return nil
	}

	if err := a.CompleteProgress(ctx, progress.ID, markdown, now); err != nil {
		return fmt.Errorf("complete progress: %w", err)
	}
	return nil
}
