package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"case-server/internal/domain"
	"case-server/internal/repository"
)

// RecordOutcome distinguishes a fresh completion from a repeat submission.
type RecordOutcome int

const (
	// OutcomeCreated means the completion was stored for the first time.
	OutcomeCreated RecordOutcome = iota
	// OutcomeAlreadyRecorded means the triple was already present; repeats
	// are not an error.
	OutcomeAlreadyRecorded
)

// ProgressService coordinates level completion tracking.
type ProgressService interface {
	Record(ctx context.Context, userID int64, scenarioID, levelID string) (RecordOutcome, error)
	List(ctx context.Context, userID int64) ([]domain.Progress, error)
}

type progressService struct {
	progress repository.ProgressRepository
}

func NewProgressService(progress repository.ProgressRepository) ProgressService {
	return &progressService{progress: progress}
}

func (s *progressService) Record(ctx context.Context, userID int64, scenarioID, levelID string) (RecordOutcome, error) {
	scenarioID = strings.TrimSpace(scenarioID)
	levelID = strings.TrimSpace(levelID)
	if scenarioID == "" || levelID == "" {
		return 0, fmt.Errorf("%w: scenario_id and level_id are required", ErrInvalidInput)
	}

	exists, err := s.progress.Exists(ctx, userID, scenarioID, levelID)
	if err != nil {
		return 0, err
	}
	if exists {
		return OutcomeAlreadyRecorded, nil
	}

	record := &domain.Progress{
		UserID:     userID,
		ScenarioID: scenarioID,
		LevelID:    levelID,
	}
	if _, err := s.progress.Create(ctx, record); err != nil {
		// loser of a concurrent identical submission; same outcome as the
		// pre-check catching it
		if errors.Is(err, repository.ErrDuplicate) {
			return OutcomeAlreadyRecorded, nil
		}
		return 0, err
	}

	return OutcomeCreated, nil
}

func (s *progressService) List(ctx context.Context, userID int64) ([]domain.Progress, error) {
	return s.progress.ListByUser(ctx, userID)
}
