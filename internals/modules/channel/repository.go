package channel

import (
	"context"
	"strconv"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

const channelColumns = `id, user_id, provider, name, webhook_url, active, created_at`

func scanChannel(row pgx.Row) (NotificationChannel, error) {
	var c NotificationChannel
	err := row.Scan(
		&c.ID, &c.UserID, &c.Provider, &c.Name, &c.WebhookURL, &c.Active, &c.CreatedAt,
	)
	if err != nil {
		return NotificationChannel{}, err
	}
	return c, nil
}

func (r *Repository) Create(ctx context.Context, cmd CreateChannelCmd) (NotificationChannel, error) {
	const op string = "repo.channel.create"

	row := r.pool.QueryRow(ctx, `
		INSERT INTO notification_channels (user_id, provider, name, webhook_url, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+channelColumns,
		cmd.UserID, cmd.Provider, cmd.Name, cmd.WebhookURL, cmd.Active,
	)

	c, err := scanChannel(row)
	if err != nil {
		return NotificationChannel{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return c, nil
}

func (r *Repository) Get(ctx context.Context, userID, channelID uuid.UUID) (NotificationChannel, error) {
	const op string = "repo.channel.get"

	row := r.pool.QueryRow(ctx, `
		SELECT `+channelColumns+`
		FROM notification_channels
		WHERE id = $1 AND user_id = $2`,
		channelID, userID,
	)

	c, err := scanChannel(row)
	if err != nil {
		return NotificationChannel{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return c, nil
}

func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]NotificationChannel, error) {
	const op string = "repo.channel.list"

	rows, err := r.pool.Query(ctx, `
		SELECT `+channelColumns+`
		FROM notification_channels
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var channels []NotificationChannel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return channels, nil
}

func (r *Repository) Update(ctx context.Context, userID, channelID uuid.UUID, cmd UpdateChannelCmd) (NotificationChannel, error) {
	const op string = "repo.channel.update"

	sets := make([]string, 0, 3)
	args := []any{channelID, userID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column)
	}

	if cmd.Name != nil {
		add("name", *cmd.Name)
	}
	if cmd.WebhookURL != nil {
		add("webhook_url", *cmd.WebhookURL)
	}
	if cmd.Active != nil {
		add("active", *cmd.Active)
	}

	if len(sets) == 0 {
		return NotificationChannel{}, &apperror.Error{
			Kind:    apperror.NoFields,
			Op:      op,
			Message: "no valid fields to update",
		}
	}

	query := `UPDATE notification_channels SET updated_at = NOW()`
	for i, column := range sets {
		query += ", " + column + " = $" + strconv.Itoa(i+3)
	}
	query += ` WHERE id = $1 AND user_id = $2 RETURNING ` + channelColumns

	row := r.pool.QueryRow(ctx, query, args...)

	c, err := scanChannel(row)
	if err != nil {
		return NotificationChannel{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return c, nil
}

func (r *Repository) Delete(ctx context.Context, userID, channelID uuid.UUID) error {
	const op string = "repo.channel.delete"

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM notification_channels
		WHERE id = $1 AND user_id = $2`,
		channelID, userID,
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "channel not found",
		}
	}

	return nil
}

// Associate links a channel to a monitor. The join insert only succeeds when
// both rows belong to the caller; a duplicate pair surfaces as Conflict
// through the unique constraint.
func (r *Repository) Associate(ctx context.Context, userID, monitorID, channelID uuid.UUID) error {
	const op string = "repo.channel.associate"

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO monitor_channels (monitor_id, channel_id)
		SELECT m.id, c.id
		FROM monitors m
		JOIN notification_channels c ON c.user_id = m.user_id
		WHERE m.id = $1 AND c.id = $2 AND m.user_id = $3`,
		monitorID, channelID, userID,
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "monitor or channel not found",
		}
	}

	return nil
}

func (r *Repository) Dissociate(ctx context.Context, userID, monitorID, channelID uuid.UUID) error {
	const op string = "repo.channel.dissociate"

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM monitor_channels mc
		USING monitors m
		WHERE mc.monitor_id = m.id
			AND mc.monitor_id = $1 AND mc.channel_id = $2 AND m.user_id = $3`,
		monitorID, channelID, userID,
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "association not found",
		}
	}

	return nil
}

// ListActiveForMonitor returns the active channels associated with a monitor.
// Used by the alert dispatcher; not owner-scoped since the caller holds only
// the monitor id from a queue job.
func (r *Repository) ListActiveForMonitor(ctx context.Context, monitorID uuid.UUID) ([]NotificationChannel, error) {
	const op string = "repo.channel.list_active_for_monitor"

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.user_id, c.provider, c.name, c.webhook_url, c.active, c.created_at
		FROM notification_channels c
		JOIN monitor_channels mc ON mc.channel_id = c.id
		WHERE mc.monitor_id = $1 AND c.active = true
		ORDER BY c.created_at`,
		monitorID,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var channels []NotificationChannel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return channels, nil
}
