// Package clients manages billable customers, their sites, rate rules and
// rule resources, and resolves overtime rates for time entries.
package clients

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

const clientColumns = `id, company_id, name, contact_name, email, phone, is_active, created_by, created_at, updated_at`

const rateRuleColumns = `id, client_id, name, base_rate_per_hour, overtime_rate_per_hour, overtime_triggers,
	workday_start_time, workday_end_time, workdays, is_active, effective_from, effective_to,
	created_by, created_at, updated_at`

// Repository handles client persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a clients repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanClient(row interface{ Scan(...any) error }) (*models.Client, error) {
	var cl models.Client
	err := row.Scan(&cl.ID, &cl.CompanyID, &cl.Name, &cl.ContactName, &cl.Email, &cl.Phone,
		&cl.IsActive, &cl.CreatedBy, &cl.CreatedAt, &cl.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("client not found")
		}
		return nil, err
	}
	return &cl, nil
}

func scanRateRule(row interface{ Scan(...any) error }) (*models.ClientRateRule, error) {
	var rr models.ClientRateRule
	err := row.Scan(&rr.ID, &rr.ClientID, &rr.Name, &rr.BaseRatePerHour, &rr.OvertimeRatePerHour,
		&rr.OvertimeTriggers, &rr.WorkdayStartTime, &rr.WorkdayEndTime, &rr.Workdays,
		&rr.IsActive, &rr.EffectiveFrom, &rr.EffectiveTo, &rr.CreatedBy, &rr.CreatedAt, &rr.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("rate rule not found")
		}
		return nil, err
	}
	return &rr, nil
}

// Create inserts a client.
func (r *Repository) Create(ctx context.Context, companyID uuid.UUID, name string, contactName, email, phone *string, createdBy uuid.UUID) (*models.Client, error) {
	return scanClient(r.pool.QueryRow(ctx,
		`INSERT INTO clients (company_id, name, contact_name, email, phone, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+clientColumns,
		companyID, name, contactName, email, phone, createdBy))
}

// List returns clients of a company with optional search and active filters.
func (r *Repository) List(ctx context.Context, companyID uuid.UUID, search string, isActive *bool, limit, offset int) ([]models.Client, int, error) {
	const base = `FROM clients
		WHERE company_id = $1
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR contact_name ILIKE '%' || $2 || '%')
		  AND ($3::boolean IS NULL OR is_active = $3)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+base, companyID, search, isActive).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+` `+base+` ORDER BY name LIMIT $4 OFFSET $5`,
		companyID, search, isActive, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []models.Client{}
	for rows.Next() {
		cl, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *cl)
	}
	return list, total, rows.Err()
}

// GetByID returns one client with sites and rate rules attached.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	cl, err := scanClient(r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	sites, err := r.Sites(ctx, id)
	if err != nil {
		return nil, err
	}
	cl.Sites = sites
	rules, err := r.RateRules(ctx, id)
	if err != nil {
		return nil, err
	}
	cl.RateRules = rules
	return cl, nil
}

// Update changes mutable client fields. Nil fields keep current values.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, contactName, email, phone *string, isActive *bool) (*models.Client, error) {
	return scanClient(r.pool.QueryRow(ctx,
		`UPDATE clients SET
			name = COALESCE($2, name),
			contact_name = COALESCE($3, contact_name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			is_active = COALESCE($6, is_active),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+clientColumns,
		id, name, contactName, email, phone, isActive))
}

// Delete removes a client. Clients with time entries refuse with Conflict.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	var entryCount int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM time_entries WHERE client_id = $1`, id).Scan(&entryCount); err != nil {
		return err
	}
	if entryCount > 0 {
		return apperr.Conflict("client has time entries and cannot be deleted")
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("client not found")
	}
	return nil
}

// CompanyOf returns the owning company of a client.
func (r *Repository) CompanyOf(ctx context.Context, clientID uuid.UUID) (uuid.UUID, error) {
	var companyID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT company_id FROM clients WHERE id = $1`, clientID).Scan(&companyID)
	if err != nil {
		if database.IsNoRows(err) {
			return uuid.Nil, apperr.NotFound("client not found")
		}
		return uuid.Nil, err
	}
	return companyID, nil
}

// Sites lists a client's sites.
func (r *Repository) Sites(ctx context.Context, clientID uuid.UUID) ([]models.ClientSite, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, client_id, name, address, is_active, created_at, updated_at
		 FROM client_sites WHERE client_id = $1 ORDER BY name`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.ClientSite{}
	for rows.Next() {
		var s models.ClientSite
		if err := rows.Scan(&s.ID, &s.ClientID, &s.Name, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CreateSite adds a site to a client.
func (r *Repository) CreateSite(ctx context.Context, clientID uuid.UUID, name string, address *string) (*models.ClientSite, error) {
	var s models.ClientSite
	err := r.pool.QueryRow(ctx,
		`INSERT INTO client_sites (client_id, name, address)
		 VALUES ($1, $2, $3)
		 RETURNING id, client_id, name, address, is_active, created_at, updated_at`,
		clientID, name, address).
		Scan(&s.ID, &s.ClientID, &s.Name, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

// UpdateSite changes a site. Nil fields keep current values.
func (r *Repository) UpdateSite(ctx context.Context, siteID uuid.UUID, name, address *string, isActive *bool) (*models.ClientSite, error) {
	var s models.ClientSite
	err := r.pool.QueryRow(ctx,
		`UPDATE client_sites SET
			name = COALESCE($2, name),
			address = COALESCE($3, address),
			is_active = COALESCE($4, is_active),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, client_id, name, address, is_active, created_at, updated_at`,
		siteID, name, address, isActive).
		Scan(&s.ID, &s.ClientID, &s.Name, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("site not found")
		}
		return nil, err
	}
	return &s, nil
}

// DeleteSite removes a site.
func (r *Repository) DeleteSite(ctx context.Context, siteID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM client_sites WHERE id = $1`, siteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("site not found")
	}
	return nil
}

// ClientOfSite returns the owning client of a site.
func (r *Repository) ClientOfSite(ctx context.Context, siteID uuid.UUID) (uuid.UUID, error) {
	var clientID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT client_id FROM client_sites WHERE id = $1`, siteID).Scan(&clientID)
	if err != nil {
		if database.IsNoRows(err) {
			return uuid.Nil, apperr.NotFound("site not found")
		}
		return uuid.Nil, err
	}
	return clientID, nil
}

// RateRules lists a client's rate rules with resources, newest window first.
func (r *Repository) RateRules(ctx context.Context, clientID uuid.UUID) ([]models.ClientRateRule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+rateRuleColumns+` FROM client_rate_rules WHERE client_id = $1 ORDER BY effective_from DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.ClientRateRule{}
	for rows.Next() {
		rr, err := scanRateRule(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		resources, err := r.Resources(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Resources = resources
	}
	return list, nil
}

// RateRuleInput carries the writable rate rule fields.
type RateRuleInput struct {
	Name                string
	BaseRatePerHour     *float64
	OvertimeRatePerHour float64
	OvertimeTriggers    []string
	WorkdayStartTime    *string
	WorkdayEndTime      *string
	Workdays            []int32
	EffectiveFrom       time.Time
	EffectiveTo         *time.Time
}

// CreateRateRule adds a rate rule to a client.
func (r *Repository) CreateRateRule(ctx context.Context, clientID uuid.UUID, in RateRuleInput, createdBy uuid.UUID) (*models.ClientRateRule, error) {
	return scanRateRule(r.pool.QueryRow(ctx,
		`INSERT INTO client_rate_rules (client_id, name, base_rate_per_hour, overtime_rate_per_hour,
			overtime_triggers, workday_start_time, workday_end_time, workdays, effective_from, effective_to, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+rateRuleColumns,
		clientID, in.Name, in.BaseRatePerHour, in.OvertimeRatePerHour, in.OvertimeTriggers,
		in.WorkdayStartTime, in.WorkdayEndTime, in.Workdays, in.EffectiveFrom, in.EffectiveTo, createdBy))
}

// UpdateRateRule replaces the writable fields of a rate rule.
func (r *Repository) UpdateRateRule(ctx context.Context, ruleID uuid.UUID, in RateRuleInput, isActive *bool) (*models.ClientRateRule, error) {
	return scanRateRule(r.pool.QueryRow(ctx,
		`UPDATE client_rate_rules SET
			name = $2, base_rate_per_hour = $3, overtime_rate_per_hour = $4, overtime_triggers = $5,
			workday_start_time = $6, workday_end_time = $7, workdays = $8,
			effective_from = $9, effective_to = $10,
			is_active = COALESCE($11, is_active),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+rateRuleColumns,
		ruleID, in.Name, in.BaseRatePerHour, in.OvertimeRatePerHour, in.OvertimeTriggers,
		in.WorkdayStartTime, in.WorkdayEndTime, in.Workdays, in.EffectiveFrom, in.EffectiveTo, isActive))
}

// DeleteRateRule removes a rate rule; resources cascade.
func (r *Repository) DeleteRateRule(ctx context.Context, ruleID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM client_rate_rules WHERE id = $1`, ruleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("rate rule not found")
	}
	return nil
}

// ClientOfRule returns the owning client of a rate rule.
func (r *Repository) ClientOfRule(ctx context.Context, ruleID uuid.UUID) (uuid.UUID, error) {
	var clientID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT client_id FROM client_rate_rules WHERE id = $1`, ruleID).Scan(&clientID)
	if err != nil {
		if database.IsNoRows(err) {
			return uuid.Nil, apperr.NotFound("rate rule not found")
		}
		return uuid.Nil, err
	}
	return clientID, nil
}

// ActiveRulesForDate loads the active rules whose validity window covers the
// date. The resolver picks the winner.
func (r *Repository) ActiveRulesForDate(ctx context.Context, clientID uuid.UUID, date time.Time) ([]models.ClientRateRule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+rateRuleColumns+` FROM client_rate_rules
		 WHERE client_id = $1 AND is_active = TRUE
		   AND effective_from <= $2
		   AND (effective_to IS NULL OR effective_to >= $2)`,
		clientID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.ClientRateRule{}
	for rows.Next() {
		rr, err := scanRateRule(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rr)
	}
	return list, rows.Err()
}

// Resources lists the resources of a rate rule.
func (r *Repository) Resources(ctx context.Context, ruleID uuid.UUID) ([]models.ClientRateRuleResource, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, rate_rule_id, name, base_rate_per_hour, is_active, created_at, updated_at
		 FROM client_rate_rule_resources WHERE rate_rule_id = $1 ORDER BY name`, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.ClientRateRuleResource{}
	for rows.Next() {
		var res models.ClientRateRuleResource
		if err := rows.Scan(&res.ID, &res.RateRuleID, &res.Name, &res.BaseRatePerHour,
			&res.IsActive, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// CreateResource adds a billable resource under a rate rule.
func (r *Repository) CreateResource(ctx context.Context, ruleID uuid.UUID, name string, baseRatePerHour float64) (*models.ClientRateRuleResource, error) {
	var res models.ClientRateRuleResource
	err := r.pool.QueryRow(ctx,
		`INSERT INTO client_rate_rule_resources (rate_rule_id, name, base_rate_per_hour)
		 VALUES ($1, $2, $3)
		 RETURNING id, rate_rule_id, name, base_rate_per_hour, is_active, created_at, updated_at`,
		ruleID, name, baseRatePerHour).
		Scan(&res.ID, &res.RateRuleID, &res.Name, &res.BaseRatePerHour, &res.IsActive, &res.CreatedAt, &res.UpdatedAt)
	return &res, err
}

// UpdateResource changes a resource. Nil fields keep current values.
func (r *Repository) UpdateResource(ctx context.Context, resourceID uuid.UUID, name *string, baseRatePerHour *float64, isActive *bool) (*models.ClientRateRuleResource, error) {
	var res models.ClientRateRuleResource
	err := r.pool.QueryRow(ctx,
		`UPDATE client_rate_rule_resources SET
			name = COALESCE($2, name),
			base_rate_per_hour = COALESCE($3, base_rate_per_hour),
			is_active = COALESCE($4, is_active),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, rate_rule_id, name, base_rate_per_hour, is_active, created_at, updated_at`,
		resourceID, name, baseRatePerHour, isActive).
		Scan(&res.ID, &res.RateRuleID, &res.Name, &res.BaseRatePerHour, &res.IsActive, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("resource not found")
		}
		return nil, err
	}
	return &res, nil
}

// DeleteResource removes a resource.
func (r *Repository) DeleteResource(ctx context.Context, resourceID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM client_rate_rule_resources WHERE id = $1`, resourceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("resource not found")
	}
	return nil
}

// RuleOfResource returns the owning rate rule of a resource.
func (r *Repository) RuleOfResource(ctx context.Context, resourceID uuid.UUID) (uuid.UUID, error) {
	var ruleID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT rate_rule_id FROM client_rate_rule_resources WHERE id = $1`, resourceID).Scan(&ruleID)
	if err != nil {
		if database.IsNoRows(err) {
			return uuid.Nil, apperr.NotFound("resource not found")
		}
		return uuid.Nil, err
	}
	return ruleID, nil
}
