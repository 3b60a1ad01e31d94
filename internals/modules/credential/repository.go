package credential

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

const credentialColumns = `id, user_id, name, access_token, active, created_at`

func scanCredential(row pgx.Row) (RepoCredential, error) {
	var c RepoCredential
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.AccessToken, &c.Active, &c.CreatedAt)
	if err != nil {
		return RepoCredential{}, err
	}
	return c, nil
}

func (r *Repository) Create(ctx context.Context, cmd CreateCredentialCmd) (RepoCredential, error) {
	const op string = "repo.credential.create"

	row := r.pool.QueryRow(ctx, `
		INSERT INTO repo_credentials (user_id, name, access_token, active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+credentialColumns,
		cmd.UserID, cmd.Name, cmd.AccessToken, cmd.Active,
	)

	c, err := scanCredential(row)
	if err != nil {
		return RepoCredential{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return c, nil
}

func (r *Repository) Get(ctx context.Context, userID, credentialID uuid.UUID) (RepoCredential, error) {
	const op string = "repo.credential.get"

	row := r.pool.QueryRow(ctx, `
		SELECT `+credentialColumns+`
		FROM repo_credentials
		WHERE id = $1 AND user_id = $2`,
		credentialID, userID,
	)

	c, err := scanCredential(row)
	if err != nil {
		return RepoCredential{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return c, nil
}

func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]RepoCredential, error) {
	const op string = "repo.credential.list"

	rows, err := r.pool.Query(ctx, `
		SELECT `+credentialColumns+`
		FROM repo_credentials
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var creds []RepoCredential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		creds = append(creds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return creds, nil
}

func (r *Repository) Update(ctx context.Context, userID, credentialID uuid.UUID, cmd UpdateCredentialCmd) (RepoCredential, error) {
	const op string = "repo.credential.update"

	sets := make([]string, 0, 3)
	args := []any{credentialID, userID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column)
	}

	if cmd.Name != nil {
		add("name", *cmd.Name)
	}
	if cmd.AccessToken != nil {
		add("access_token", *cmd.AccessToken)
	}
	if cmd.Active != nil {
		add("active", *cmd.Active)
	}

	if len(sets) == 0 {
		return RepoCredential{}, &apperror.Error{
			Kind:    apperror.NoFields,
			Op:      op,
			Message: "no valid fields to update",
		}
	}

	query := `UPDATE repo_credentials SET updated_at = NOW()`
	for i, column := range sets {
		query += ", " + column + " = $" + strconv.Itoa(i+3)
	}
	query += ` WHERE id = $1 AND user_id = $2 RETURNING ` + credentialColumns

	row := r.pool.QueryRow(ctx, query, args...)

	c, err := scanCredential(row)
	if err != nil {
		return RepoCredential{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return c, nil
}

func (r *Repository) Delete(ctx context.Context, userID, credentialID uuid.UUID) error {
	const op string = "repo.credential.delete"

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM repo_credentials
		WHERE id = $1 AND user_id = $2`,
		credentialID, userID,
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "credential not found",
		}
	}

	return nil
}

// Associate links a credential to a monitor when both belong to the caller.
func (r *Repository) Associate(ctx context.Context, userID, monitorID, credentialID uuid.UUID) error {
	const op string = "repo.credential.associate"

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO monitor_credentials (monitor_id, credential_id)
		SELECT m.id, c.id
		FROM monitors m
		JOIN repo_credentials c ON c.user_id = m.user_id
		WHERE m.id = $1 AND c.id = $2 AND m.user_id = $3`,
		monitorID, credentialID, userID,
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "monitor or credential not found",
		}
	}

	return nil
}

func (r *Repository) Dissociate(ctx context.Context, userID, monitorID, credentialID uuid.UUID) error {
	const op string = "repo.credential.dissociate"

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM monitor_credentials mc
		USING monitors m
		WHERE mc.monitor_id = m.id
			AND mc.monitor_id = $1 AND mc.credential_id = $2 AND m.user_id = $3`,
		monitorID, credentialID, userID,
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

// GetActiveTokenForMonitor resolves the credential a remediation job should
// use: the active credential most recently associated with the monitor.
func (r *Repository) GetActiveTokenForMonitor(ctx context.Context, monitorID uuid.UUID) (RepoCredential, error) {
	const op string = "repo.credential.get_active_for_monitor"

	row := r.pool.QueryRow(ctx, `
		SELECT c.id, c.user_id, c.name, c.access_token, c.active, c.created_at
		FROM repo_credentials c
		JOIN monitor_credentials mc ON mc.credential_id = c.id
		WHERE mc.monitor_id = $1 AND c.active = true
		ORDER BY mc.created_at DESC
		LIMIT 1`,
		monitorID,
	)

	c, err := scanCredential(row)
	if err != nil {
		return RepoCredential{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return c, nil
}
