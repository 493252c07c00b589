package service

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deppfellow/microchip-api/internal/errs"
	"github.com/deppfellow/microchip-api/internal/lib/job"
	"github.com/deppfellow/microchip-api/internal/model"
	"github.com/deppfellow/microchip-api/internal/repository"
	"github.com/deppfellow/microchip-api/internal/server"
)

// DefaultMinVoltage is the threshold used when a count request omits it.
const DefaultMinVoltage = 5.0

// Operation names reported to the change notifier.
const (
	OperationCreate           = "create"
	OperationImport           = "import"
	OperationReplaceFrameType = "replace_frame_type"
	OperationDelete           = "delete"
)

// ChangeNotifier is told about every mutation that reached storage.
type ChangeNotifier interface {
	NotifyCollectionChanged(ctx context.Context, p job.CollectionChangedPayload) error
}

// sortComparators holds the accepted sortBy values, already lower-cased.
var sortComparators = map[string]func(a, b model.Microchip) int{
	"id": func(a, b model.Microchip) int {
		return cmp.Compare(a.ID, b.ID)
	},
	"frametype": func(a, b model.Microchip) int {
		return strings.Compare(a.FrameType, b.FrameType)
	},
	"name": func(a, b model.Microchip) int {
		return strings.Compare(a.Name, b.Name)
	},
	"price": func(a, b model.Microchip) int {
		return cmp.Compare(a.Price, b.Price)
	},
}

// MicrochipService implements the microchip operations. It never keeps
// the collection between calls: every method loads it from the repository.
type MicrochipService struct {
	server   *server.Server
	repo     repository.MicrochipRepository
	notifier ChangeNotifier
}

// NewMicrochipService wires the service. notifier may be nil.
func NewMicrochipService(s *server.Server, repo repository.MicrochipRepository, notifier ChangeNotifier) *MicrochipService {
	return &MicrochipService{
		server:   s,
		repo:     repo,
		notifier: notifier,
	}
}

// ReplaceFrameTypeResult is the outcome of ReplaceFrameType. Both slices
// reflect the collection after the replacement.
type ReplaceFrameTypeResult struct {
	Replaced   []model.Microchip
	Collection []model.Microchip
}

// Body returns the records a caller asked to see.
func (r ReplaceFrameTypeResult) Body(printOnlyReplaced bool) []model.Microchip {
	if printOnlyReplaced {
		return r.Replaced
	}
	return r.Collection
}

// GetByID returns the first record with the given id.
func (s *MicrochipService) GetByID(ctx context.Context, id int64) (model.Microchip, error) {
	chips, err := s.repo.Load(ctx)
	if err != nil {
		return model.Microchip{}, err
	}

	index := findByID(chips, id)
	if index < 0 {
		return model.Microchip{}, errs.NewMicrochipNotFoundError(id)
	}
	return chips[index], nil
}

// GetAll returns the collection sorted ascending by sortBy (id, frametype,
// name or price, case-insensitive). Any other value, including an empty
// one, is rejected.
func (s *MicrochipService) GetAll(ctx context.Context, sortBy string) ([]model.Microchip, error) {
	compare, ok := sortComparators[strings.ToLower(sortBy)]
	if !ok {
		return nil, errs.NewInvalidParameterError("sortBy", sortBy)
	}

	chips, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(chips, compare)
	return chips, nil
}

// CountByMinVoltage counts records whose voltage is at least minVoltage.
func (s *MicrochipService) CountByMinVoltage(ctx context.Context, minVoltage float64) (int64, error) {
	chips, err := s.repo.Load(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, chip := range chips {
		if chip.Voltage >= minVoltage {
			count++
		}
	}
	return count, nil
}

// Create appends chips to the collection as given: ids are not checked
// for uniqueness. It returns the whole stored collection.
func (s *MicrochipService) Create(ctx context.Context, chips []model.Microchip) ([]model.Microchip, error) {
	return s.appendAll(ctx, OperationCreate, chips)
}

// Import is Create for records coming from the command line.
func (s *MicrochipService) Import(ctx context.Context, chips []model.Microchip) ([]model.Microchip, error) {
	return s.appendAll(ctx, OperationImport, chips)
}

func (s *MicrochipService) appendAll(ctx context.Context, operation string, chips []model.Microchip) ([]model.Microchip, error) {
	var stored []model.Microchip
	err := s.repo.Update(ctx, func(current []model.Microchip) ([]model.Microchip, error) {
		stored = append(current, chips...)
		return stored, nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info().
		Str("operation", operation).
		Int("added", len(chips)).
		Int("collection_size", len(stored)).
		Msg("microchips added")

	s.notify(ctx, operation, model.IDs(chips), len(stored))
	return stored, nil
}

// ReplaceFrameType sets newFrameType on every record whose frame type is
// exactly formerFrameType and stores the collection. When nothing matches
// the collection is left untouched and Replaced is empty.
//
// printOnlyReplaced only selects what is logged: the replaced records or
// the full collection.
func (s *MicrochipService) ReplaceFrameType(ctx context.Context, formerFrameType, newFrameType string, printOnlyReplaced bool) (ReplaceFrameTypeResult, error) {
	var result ReplaceFrameTypeResult
	err := s.repo.Update(ctx, func(current []model.Microchip) ([]model.Microchip, error) {
		replaced := []model.Microchip{}
		for i := range current {
			if current[i].FrameType == formerFrameType {
				current[i].FrameType = newFrameType
				replaced = append(replaced, current[i])
			}
		}

		result = ReplaceFrameTypeResult{Replaced: replaced, Collection: current}
		if len(replaced) == 0 {
			return nil, repository.ErrNoChange
		}
		return current, nil
	})
	if err != nil {
		return ReplaceFrameTypeResult{}, err
	}

	if len(result.Replaced) == 0 {
		return result, nil
	}

	logger := s.log(ctx)
	if printOnlyReplaced {
		logger.Info().
			Str("former_frame_type", formerFrameType).
			Str("new_frame_type", newFrameType).
			Strs("microchips", describe(result.Replaced)).
			Msg("list of replaced microchips")
	} else {
		logger.Info().
			Str("former_frame_type", formerFrameType).
			Str("new_frame_type", newFrameType).
			Strs("microchips", describe(result.Collection)).
			Msg("list of all microchips")
	}

	s.notify(ctx, OperationReplaceFrameType, model.IDs(result.Replaced), len(result.Collection))
	return result, nil
}

// Delete removes the first record with the given id.
func (s *MicrochipService) Delete(ctx context.Context, id int64) error {
	var size int
	err := s.repo.Update(ctx, func(current []model.Microchip) ([]model.Microchip, error) {
		index := findByID(current, id)
		if index < 0 {
			return nil, errs.NewMicrochipNotFoundError(id)
		}

		remaining := slices.Delete(current, index, index+1)
		size = len(remaining)
		return remaining, nil
	})
	if err != nil {
		return err
	}

	s.log(ctx).Info().
		Int64("id", id).
		Int("collection_size", size).
		Msg("microchip deleted")

	s.notify(ctx, OperationDelete, []int64{id}, size)
	return nil
}

// Ping reports whether the storage behind the service is reachable.
func (s *MicrochipService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// notify never fails the operation: the change is already stored.
func (s *MicrochipService) notify(ctx context.Context, operation string, ids []int64, size int) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.NotifyCollectionChanged(ctx, job.CollectionChangedPayload{
		Operation:   operation,
		AffectedIDs: ids,
		Size:        size,
		ChangedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.log(ctx).Warn().
			Err(err).
			Str("operation", operation).
			Msg("failed to enqueue collection change")
	}
}

// log prefers the request-scoped logger carried by ctx.
func (s *MicrochipService) log(ctx context.Context) *zerolog.Logger {
	if logger := zerolog.Ctx(ctx); logger.GetLevel() != zerolog.Disabled {
		return logger
	}
	return s.server.Logger
}

func findByID(chips []model.Microchip, id int64) int {
	return slices.IndexFunc(chips, func(chip model.Microchip) bool {
		return chip.ID == id
	})
}

func describe(chips []model.Microchip) []string {
	lines := make([]string, 0, len(chips))
	for _, chip := range chips {
		lines = append(lines, chip.String())
	}
	return lines
}
