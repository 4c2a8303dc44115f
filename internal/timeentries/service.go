package timeentries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/clients"
	"github.com/workdeck/backend/internal/models"
)

// Authorizer answers membership and role questions. Implemented by
// authz.Resolver.
type Authorizer interface {
	AssertMember(ctx context.Context, userID, companyID uuid.UUID, isPlatformAdmin bool) error
	IsOwnerOrAdmin(ctx context.Context, userID, companyID uuid.UUID, isPlatformAdmin bool) (bool, error)
	IsMember(ctx context.Context, userID, companyID uuid.UUID) (bool, error)
}

// RateSource evaluates client rate rules. Implemented by clients.RateResolver.
type RateSource interface {
	ResolveOvertimeAndRate(ctx context.Context, clientID uuid.UUID, date time.Time, startTime, endTime *string, manualOvertime *bool) (clients.Resolution, error)
}

// Notifier pushes realtime events about entry activity. Implementations must
// not block; delivery is best effort.
type Notifier interface {
	NotifyCompanyAdmins(companyID, actorID uuid.UUID, event string, data any)
	NotifyUser(userID uuid.UUID, event string, data any)
}

// Store is the persistence surface the service needs. Implemented by
// Repository; tests substitute a stub.
type Store interface {
	Insert(ctx context.Context, e *models.TimeEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TimeEntry, error)
	Update(ctx context.Context, e *models.TimeEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter) ([]models.TimeEntry, int, error)
	ActiveCompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	AllCompanyIDs(ctx context.Context) ([]uuid.UUID, error)
	Summary(ctx context.Context, companyID, userID uuid.UUID, start, end time.Time) (*Summary, error)
	ProjectInCompany(ctx context.Context, projectID, companyID uuid.UUID) (bool, error)
	ClientInCompany(ctx context.Context, clientID, companyID uuid.UUID) (bool, error)
	CategoryInCompany(ctx context.Context, categoryID, companyID uuid.UUID) (bool, error)
}

// CreateInput carries a new entry. UserID targets another member; leaving it
// nil logs time for the caller.
type CreateInput struct {
	CompanyID      uuid.UUID
	UserID         *uuid.UUID
	ProjectID      *uuid.UUID
	ClientID       *uuid.UUID
	CategoryID     *uuid.UUID
	Date           time.Time
	Hours          float64
	StartTime      *string
	EndTime        *string
	Title          string
	Description    *string
	ManualOvertime *bool
}

// UpdateInput patches an entry. Nil fields stay unchanged.
type UpdateInput struct {
	ProjectID      *uuid.UUID
	ClientID       *uuid.UUID
	CategoryID     *uuid.UUID
	Date           *time.Time
	Hours          *float64
	StartTime      *string
	EndTime        *string
	Title          *string
	Description    *string
	ManualOvertime *bool
}

// Service implements time entry business rules: delegation, billing
// resolution, and edit rights.
type Service struct {
	store    Store
	authz    Authorizer
	rates    RateSource
	notifier Notifier
}

// NewService creates a time entries service.
func NewService(store Store, authz Authorizer, rates RateSource, notifier Notifier) *Service {
	return &Service{store: store, authz: authz, rates: rates, notifier: notifier}
}

// Create logs a new entry. Logging for someone else needs Owner/Admin rights
// and an active target membership; the actor is recorded as logged_by.
// Overtime and rate are frozen at write time from the client's rate rules.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, isPlatformAdmin bool, in CreateInput) (*models.TimeEntry, error) {
	target := actorID
	var loggedBy *uuid.UUID
	if in.UserID != nil && *in.UserID != actorID {
		target = *in.UserID
		ok, err := s.authz.IsOwnerOrAdmin(ctx, actorID, in.CompanyID, isPlatformAdmin)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Forbidden("only company owners or admins can log time for other members")
		}
		isMember, err := s.authz.IsMember(ctx, target, in.CompanyID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, apperr.BadRequest("target user is not an active member of this company")
		}
		loggedBy = &actorID
	} else {
		if err := s.authz.AssertMember(ctx, actorID, in.CompanyID, isPlatformAdmin); err != nil {
			return nil, err
		}
	}

	if err := s.checkReferences(ctx, in.CompanyID, in.ProjectID, in.ClientID, in.CategoryID); err != nil {
		return nil, err
	}

	res, err := s.resolveBilling(ctx, in.ClientID, in.Date, in.StartTime, in.EndTime, in.ManualOvertime)
	if err != nil {
		return nil, err
	}

	e := &models.TimeEntry{
		CompanyID:          in.CompanyID,
		UserID:             target,
		LoggedByUserID:     loggedBy,
		ProjectID:          in.ProjectID,
		ClientID:           in.ClientID,
		CategoryID:         in.CategoryID,
		Date:               in.Date,
		Hours:              in.Hours,
		StartTime:          in.StartTime,
		EndTime:            in.EndTime,
		Title:              in.Title,
		Description:        in.Description,
		IsOvertime:         res.IsOvertime,
		AppliedRatePerHour: res.AppliedRatePerHour,
	}
	if err := s.store.Insert(ctx, e); err != nil {
		return nil, err
	}

	full, err := s.store.GetByID(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyCompanyAdmins(full.CompanyID, actorID, "time_entry:created", full)
	if loggedBy != nil {
		s.notifier.NotifyUser(target, "time_entry:assigned", full)
	}
	return full, nil
}

// Get loads one entry. The owner always may; others need an active membership
// in the entry's company.
func (s *Service) Get(ctx context.Context, actorID uuid.UUID, isPlatformAdmin bool, id uuid.UUID) (*models.TimeEntry, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != actorID {
		if err := s.authz.AssertMember(ctx, actorID, e.CompanyID, isPlatformAdmin); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// List returns a filtered page. Non-admin callers only see companies they are
// an active member of; asking for another company is Forbidden.
func (s *Service) List(ctx context.Context, actorID uuid.UUID, isPlatformAdmin bool, companyID *uuid.UUID, f ListFilter) ([]models.TimeEntry, int, error) {
	if isPlatformAdmin {
		if companyID != nil {
			f.CompanyIDs = []uuid.UUID{*companyID}
		} else {
			ids, err := s.store.AllCompanyIDs(ctx)
			if err != nil {
				return nil, 0, err
			}
			f.CompanyIDs = ids
		}
	} else {
		ids, err := s.store.ActiveCompanyIDs(ctx, actorID)
		if err != nil {
			return nil, 0, err
		}
		if companyID != nil {
			member := false
			for _, id := range ids {
				if id == *companyID {
					member = true
					break
				}
			}
			if !member {
				return nil, 0, apperr.Forbidden("you do not have access to this company")
			}
			f.CompanyIDs = []uuid.UUID{*companyID}
		} else {
			f.CompanyIDs = ids
		}
	}
	if len(f.CompanyIDs) == 0 {
		return []models.TimeEntry{}, 0, nil
	}
	return s.store.List(ctx, f)
}

// Update patches an entry and recomputes overtime and rate when any billing
// input changed. Allowed for the entry's owner, the company's owners and
// admins, and platform admins.
func (s *Service) Update(ctx context.Context, actorID uuid.UUID, isPlatformAdmin bool, id uuid.UUID, in UpdateInput) (*models.TimeEntry, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.assertCanEdit(ctx, actorID, isPlatformAdmin, e); err != nil {
		return nil, err
	}

	billingChanged := in.ClientID != nil || in.Date != nil ||
		in.StartTime != nil || in.EndTime != nil || in.ManualOvertime != nil

	if in.ProjectID != nil {
		e.ProjectID = in.ProjectID
	}
	if in.ClientID != nil {
		e.ClientID = in.ClientID
	}
	if in.CategoryID != nil {
		e.CategoryID = in.CategoryID
	}
	if err := s.checkReferences(ctx, e.CompanyID, in.ProjectID, in.ClientID, in.CategoryID); err != nil {
		return nil, err
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	if in.Hours != nil {
		e.Hours = *in.Hours
	}
	if in.StartTime != nil {
		e.StartTime = in.StartTime
	}
	if in.EndTime != nil {
		e.EndTime = in.EndTime
	}
	if in.Title != nil {
		e.Title = *in.Title
	}
	if in.Description != nil {
		e.Description = in.Description
	}

	if billingChanged {
		res, err := s.resolveBilling(ctx, e.ClientID, e.Date, e.StartTime, e.EndTime, in.ManualOvertime)
		if err != nil {
			return nil, err
		}
		e.IsOvertime = res.IsOvertime
		e.AppliedRatePerHour = res.AppliedRatePerHour
	}

	if err := s.store.Update(ctx, e); err != nil {
		return nil, err
	}
	full, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyCompanyAdmins(full.CompanyID, actorID, "time_entry:updated", full)
	if full.UserID != actorID {
		s.notifier.NotifyUser(full.UserID, "time_entry:updated", full)
	}
	return full, nil
}

// Delete removes an entry under the same rights as Update.
func (s *Service) Delete(ctx context.Context, actorID uuid.UUID, isPlatformAdmin bool, id uuid.UUID) error {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.assertCanEdit(ctx, actorID, isPlatformAdmin, e); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	payload := map[string]any{"id": e.ID, "company_id": e.CompanyID, "user_id": e.UserID}
	s.notifier.NotifyCompanyAdmins(e.CompanyID, actorID, "time_entry:deleted", payload)
	if e.UserID != actorID {
		s.notifier.NotifyUser(e.UserID, "time_entry:deleted", payload)
	}
	return nil
}

// UserSummary rolls up a member's hours for a date range. Callers may always
// summarize themselves; summarizing someone else needs Owner/Admin rights.
func (s *Service) UserSummary(ctx context.Context, actorID uuid.UUID, isPlatformAdmin bool, companyID, userID uuid.UUID, start, end time.Time) (*Summary, error) {
	if userID == actorID {
		if err := s.authz.AssertMember(ctx, actorID, companyID, isPlatformAdmin); err != nil {
			return nil, err
		}
	} else {
		ok, err := s.authz.IsOwnerOrAdmin(ctx, actorID, companyID, isPlatformAdmin)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Forbidden("only company owners or admins can view other members' summaries")
		}
	}
	return s.store.Summary(ctx, companyID, userID, start, end)
}

func (s *Service) assertCanEdit(ctx context.Context, actorID uuid.UUID, isPlatformAdmin bool, e *models.TimeEntry) error {
	if isPlatformAdmin || e.UserID == actorID {
		return nil
	}
	ok, err := s.authz.IsOwnerOrAdmin(ctx, actorID, e.CompanyID, false)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("you can only modify your own time entries")
	}
	return nil
}

// checkReferences verifies that referenced project, client, and category all
// belong to the entry's company. Nil references are skipped.
func (s *Service) checkReferences(ctx context.Context, companyID uuid.UUID, projectID, clientID, categoryID *uuid.UUID) error {
	if projectID != nil {
		ok, err := s.store.ProjectInCompany(ctx, *projectID, companyID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("project not found in this company")
		}
	}
	if clientID != nil {
		ok, err := s.store.ClientInCompany(ctx, *clientID, companyID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("client not found in this company")
		}
	}
	if categoryID != nil {
		ok, err := s.store.CategoryInCompany(ctx, *categoryID, companyID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("category not found in this company")
		}
	}
	return nil
}

// resolveBilling freezes overtime and rate. Without a client there are no
// rate rules, so the manual flag alone decides overtime and no rate applies.
func (s *Service) resolveBilling(ctx context.Context, clientID *uuid.UUID, date time.Time, startTime, endTime *string, manual *bool) (clients.Resolution, error) {
	if clientID == nil {
		return clients.Resolution{IsOvertime: manual != nil && *manual}, nil
	}
	return s.rates.ResolveOvertimeAndRate(ctx, *clientID, date, startTime, endTime, manual)
}
