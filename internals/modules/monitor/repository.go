package monitor

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type Repository struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger,
	}
}

const monitorColumns = `
	id, user_id, name, url, method, request_header, request_body,
	check_interval, timeout, active, status, last_checked_at, repo_link, created_at`

func scanMonitor(row pgx.Row) (Monitor, error) {
	var (
		m         Monitor
		headerRaw []byte
		lastCheck pgtype.Timestamptz
	)

	err := row.Scan(
		&m.ID, &m.UserID, &m.Name, &m.URL, &m.Method, &headerRaw, &m.RequestBody,
		&m.CheckIntervalSec, &m.TimeoutSec, &m.Active, &m.Status, &lastCheck,
		&m.RepoLink, &m.CreatedAt,
	)
	if err != nil {
		return Monitor{}, err
	}

	if len(headerRaw) > 0 {
		if err := json.Unmarshal(headerRaw, &m.RequestHeader); err != nil {
			return Monitor{}, err
		}
	}
	m.LastCheckedAt = utils.FromPgTimestamptz(lastCheck)

	return m, nil
}

// Create inserts the monitor inside a transaction and invokes armed (when
// non-nil) before committing. If armed returns an error the insert is rolled
// back: an active monitor row must never outlive a failed schedule attempt.
func (r *Repository) Create(ctx context.Context, cmd CreateMonitorCmd, armed func(Monitor) error) (Monitor, error) {
	const op string = "repo.monitor.create"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer tx.Rollback(ctx)

	headerRaw, err := json.Marshal(cmd.RequestHeader)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, false, r.logger)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO monitors
			(user_id, name, url, method, request_header, request_body,
			check_interval, timeout, active, status, repo_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+monitorColumns,
		cmd.UserID, cmd.Name, cmd.URL, cmd.Method, headerRaw, cmd.RequestBody,
		cmd.CheckIntervalSec, cmd.TimeoutSec, cmd.Active, StatusUnknown, cmd.RepoLink,
	)

	m, err := scanMonitor(row)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, false, r.logger)
	}

	if armed != nil {
		if err := armed(m); err != nil {
			return Monitor{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, false, r.logger)
	}

	return m, nil
}

func (r *Repository) Get(ctx context.Context, userID, monitorID uuid.UUID) (Monitor, error) {
	const op string = "repo.monitor.get"

	row := r.pool.QueryRow(ctx, `
		SELECT `+monitorColumns+`
		FROM monitors
		WHERE id = $1 AND user_id = $2`,
		monitorID, userID,
	)

	m, err := scanMonitor(row)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return m, nil
}

func (r *Repository) GetByID(ctx context.Context, monitorID uuid.UUID) (Monitor, error) {
	const op string = "repo.monitor.get_by_id"

	row := r.pool.QueryRow(ctx, `
		SELECT `+monitorColumns+`
		FROM monitors
		WHERE id = $1`,
		monitorID,
	)

	m, err := scanMonitor(row)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return m, nil
}

func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Monitor, error) {
	const op string = "repo.monitor.list"

	rows, err := r.pool.Query(ctx, `
		SELECT `+monitorColumns+`
		FROM monitors
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	monitors := make([]Monitor, 0, limit)
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		monitors = append(monitors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return monitors, nil
}

// ListActive returns every active monitor across all users. Used by the
// schedule registry at boot to reconcile timers with the store.
func (r *Repository) ListActive(ctx context.Context) ([]Monitor, error) {
	const op string = "repo.monitor.list_active"

	rows, err := r.pool.Query(ctx, `
		SELECT `+monitorColumns+`
		FROM monitors
		WHERE active = true`,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var monitors []Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		monitors = append(monitors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return monitors, nil
}

func (r *Repository) SetActive(ctx context.Context, userID, monitorID uuid.UUID, active bool) (Monitor, error) {
	const op string = "repo.monitor.set_active"

	row := r.pool.QueryRow(ctx, `
		UPDATE monitors
		SET active = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+monitorColumns,
		monitorID, userID, active,
	)

	m, err := scanMonitor(row)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return m, nil
}

func (r *Repository) Update(ctx context.Context, userID, monitorID uuid.UUID, cmd UpdateMonitorCmd) (Monitor, error) {
	const op string = "repo.monitor.update"

	sets := make([]string, 0, 8)
	args := []any{monitorID, userID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column)
	}

	if cmd.Name != nil {
		add("name", *cmd.Name)
	}
	if cmd.URL != nil {
		add("url", *cmd.URL)
	}
	if cmd.Method != nil {
		add("method", *cmd.Method)
	}
	if cmd.RequestHeader != nil {
		headerRaw, err := json.Marshal(*cmd.RequestHeader)
		if err != nil {
			return Monitor{}, utils.WrapRepoError(op, err, false, r.logger)
		}
		add("request_header", headerRaw)
	}
	if cmd.RequestBody != nil {
		add("request_body", *cmd.RequestBody)
	}
	if cmd.CheckIntervalSec != nil {
		add("check_interval", *cmd.CheckIntervalSec)
	}
	if cmd.TimeoutSec != nil {
		add("timeout", *cmd.TimeoutSec)
	}
	if cmd.RepoLink != nil {
		add("repo_link", *cmd.RepoLink)
	}

	if len(sets) == 0 {
		return Monitor{}, &apperror.Error{
			Kind:    apperror.NoFields,
			Op:      op,
			Message: "no valid fields to update",
		}
	}

	query := `UPDATE monitors SET updated_at = NOW()`
	for i, column := range sets {
		query += ", " + column + " = $" + strconv.Itoa(i+3)
	}
	query += ` WHERE id = $1 AND user_id = $2 RETURNING ` + monitorColumns

	row := r.pool.QueryRow(ctx, query, args...)

	m, err := scanMonitor(row)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return m, nil
}

func (r *Repository) Delete(ctx context.Context, userID, monitorID uuid.UUID) error {
	const op string = "repo.monitor.delete"

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM monitors
		WHERE id = $1 AND user_id = $2`,
		monitorID, userID,
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "monitor not found",
		}
	}

	return nil
}

// RecordCheck appends one check record and moves the monitor's current
// status and last-checked timestamp in the same transaction.
func (r *Repository) RecordCheck(ctx context.Context, rec CheckRecord) error {
	const op string = "repo.monitor.record_check"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	defer tx.Rollback(ctx)

	var statusCode pgtype.Int4
	if rec.StatusCode != 0 {
		statusCode = utils.ToPgInt32(rec.StatusCode)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO monitor_checks
			(monitor_id, status, status_code, response_time_ms, error_message, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.MonitorID, rec.Status, statusCode, rec.ResponseTimeMs,
		utils.ToPgText(rec.ErrorMessage), utils.ToPgTimestamptz(rec.CheckedAt),
	); err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE monitors
		SET status = $2, last_checked_at = $3
		WHERE id = $1`,
		rec.MonitorID, rec.Status, utils.ToPgTimestamptz(rec.CheckedAt),
	); err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	if err := tx.Commit(ctx); err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	return nil
}

// History returns check records for one monitor, newest first.
func (r *Repository) History(ctx context.Context, monitorID uuid.UUID, limit, offset int32) ([]CheckRecord, error) {
	const op string = "repo.monitor.history"

	rows, err := r.pool.Query(ctx, `
		SELECT id, monitor_id, status, status_code,
			response_time_ms, error_message, checked_at
		FROM monitor_checks
		WHERE monitor_id = $1
		ORDER BY checked_at DESC
		LIMIT $2 OFFSET $3`,
		monitorID, limit, offset,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	records := make([]CheckRecord, 0, limit)
	for rows.Next() {
		var (
			rec        CheckRecord
			statusCode pgtype.Int4
			errMsg     pgtype.Text
		)
		if err := rows.Scan(
			&rec.ID, &rec.MonitorID, &rec.Status, &statusCode,
			&rec.ResponseTimeMs, &errMsg, &rec.CheckedAt,
		); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		rec.StatusCode = utils.FromPgInt32(statusCode)
		rec.ErrorMessage = utils.FromPgText(errMsg)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return records, nil
}
