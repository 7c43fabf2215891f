package taskops

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
	"github.com/planday/planday/internal/domain/model/task"
)

// CreatePatternInput describes a new recurring pattern.
type CreatePatternInput struct {
	UserID      model.UserID
	Title       string
	Description string
	CategoryID  model.CategoryID
	Letter      model.PriorityLetter
	Number      int
	Rule        pattern.Rule
}

// CreatePattern validates, normalizes and persists a new pattern.
func (s *Service) CreatePattern(ctx context.Context, in CreatePatternInput) (*pattern.RecurringPattern, error) {
	title := norm.NFC.String(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	number := in.Number
	if number == 0 {
		number = 1
	}
	prio, err := model.NewPriority(in.Letter, number)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	id := model.PatternID("PAT-" + ulid.MustNew(ulid.Timestamp(now), s.Rand).String())
	p, err := pattern.NewRecurringPattern(id, in.UserID, title, prio, in.Rule)
	if err != nil {
		return nil, err
	}
	p.Description = norm.NFC.String(in.Description)
	p.CategoryID = in.CategoryID
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.Patterns.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create pattern failed: %w", err)
	}
	if s.Store != nil {
		s.Store.UpsertPattern(p)
	}
	return p, nil
}

// UpdatePatternInput carries partial pattern edits; nil fields stay
// untouched. Regenerate additionally drops pending instances after From
// and rewinds generation so the edited rule repopulates those days.
type UpdatePatternInput struct {
	UserID      model.UserID
	PatternID   model.PatternID
	Title       *string
	Description *string
	Rule        *pattern.Rule
	Active      *bool
	Regenerate  bool
	// From bounds the regeneration; instances on or before it survive.
	From model.CalendarDate
}

// UpdatePattern applies the edits and persists the result.
func (s *Service) UpdatePattern(ctx context.Context, in UpdatePatternInput) (*pattern.RecurringPattern, error) {
	p, err := s.Patterns.FindByID(ctx, in.PatternID, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := norm.NFC.String(*in.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		p.Title = title
	}
	if in.Description != nil {
		p.Description = norm.NFC.String(*in.Description)
	}
	if in.Rule != nil {
		if err := in.Rule.Validate(); err != nil {
			return nil, fmt.Errorf("recurrence rule: %w", err)
		}
		p.Rule = *in.Rule
	}
	if in.Active != nil {
		p.Active = *in.Active
	}

	if in.Regenerate {
		if err := s.regenerate(ctx, p, in.UserID, in.From); err != nil {
			return nil, err
		}
	}

	p.UpdatedAt = s.Now()
	if err := s.Patterns.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update pattern failed: %w", err)
	}
	if s.Store != nil {
		s.Store.UpsertPattern(p)
	}
	return p, nil
}

// regenerate removes pending instances after the cutoff and rewinds the
// generation mark and exceptions so the edited rule owns those days again.
// Completed and in-progress instances stay as a record of work done.
func (s *Service) regenerate(ctx context.Context, p *pattern.RecurringPattern, userID model.UserID, from model.CalendarDate) error {
	if from.IsZero() {
		from = model.DateOf(s.Now())
	}

	instances, err := s.Tasks.FindInstancesByPattern(ctx, p.ID, userID)
	if err != nil {
		return err
	}
	for _, inst := range instances {
		if !inst.InstanceDate.After(from) || inst.Status != model.StatusPending || inst.IsDeleted() {
			continue
		}
		if err := s.Tasks.HardDelete(ctx, inst.ID, userID); err != nil {
			return fmt.Errorf("drop instance %s failed: %w", inst.ID, err)
		}
		if s.Store != nil {
			s.Store.RemoveTask(inst.ID)
		}
	}

	var kept []model.CalendarDate
	for _, d := range p.Exceptions.Dates() {
		if !d.After(from) {
			kept = append(kept, d)
		}
	}
	p.Exceptions = pattern.NewDateSet(kept...)
	if p.GeneratedUntil.After(from) {
		p.GeneratedUntil = from
	}
	return nil
}

// DeletePattern removes a pattern. With cascade its instances are
// soft-deleted; without it they are orphaned into plain tasks and keep
// their days.
func (s *Service) DeletePattern(ctx context.Context, userID model.UserID, id model.PatternID, cascade bool) error {
	instances, err := s.Tasks.FindInstancesByPattern(ctx, id, userID)
	if err != nil {
		return err
	}
	for _, inst := range instances {
		if cascade {
			if err := s.cascadeInstance(ctx, inst, userID); err != nil {
				return err
			}
			continue
		}
		if err := s.orphanInstance(ctx, inst); err != nil {
			return err
		}
	}

	if err := s.Patterns.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete pattern failed: %w", err)
	}
	if s.Store != nil {
		s.Store.RemovePattern(id)
	}
	return nil
}

func (s *Service) cascadeInstance(ctx context.Context, inst *task.Task, userID model.UserID) error {
	if inst.IsDeleted() {
		return nil
	}
	if err := s.Tasks.SoftDelete(ctx, inst.ID, userID); err != nil {
		return fmt.Errorf("cascade instance %s failed: %w", inst.ID, err)
	}
	if s.Store != nil {
		gone := inst.Clone()
		gone.SoftDelete(s.Now())
		s.Store.UpsertTask(gone)
	}
	return nil
}

func (s *Service) orphanInstance(ctx context.Context, inst *task.Task) error {
	inst.RecurringPatternID = ""
	inst.InstanceDate = model.CalendarDate{}
	inst.UpdatedAt = s.Now()
	if err := s.Tasks.Update(ctx, inst); err != nil {
		return fmt.Errorf("orphan instance %s failed: %w", inst.ID, err)
	}
	if s.Store != nil {
		s.Store.UpsertTask(inst)
	}
	return nil
}
