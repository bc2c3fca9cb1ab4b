package repositories

import (
	"context"
	"database/sql"

	"clinicdesk/internal/models"
)

type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
	Roster(ctx context.Context) ([]models.RosterEntry, error)
	Count(ctx context.Context) (int, error)
}

type clientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *models.Client) error {
	const q = `
		INSERT INTO clients (id_number, name, phone, email, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, q,
		client.IDNumber,
		client.Name,
		nullString(client.Phone),
		nullString(client.Email),
		nullString(client.Address),
	).Scan(&client.ID, &client.CreatedAt)
	return wrapErr("create client", err)
}

// Update rewrites the editable fields. id_number is fixed at creation.
func (r *clientRepository) Update(ctx context.Context, client *models.Client) error {
	const q = `
		UPDATE clients
		SET name=$1, phone=$2, email=$3, address=$4
		WHERE id=$5
	`
	res, err := r.db.ExecContext(ctx, q,
		client.Name,
		nullString(client.Phone),
		nullString(client.Email),
		nullString(client.Address),
		client.ID,
	)
	if err != nil {
		return wrapErr("update client", err)
	}
	return expectOneRow("update client", res)
}

func (r *clientRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return wrapErr("delete client", err)
	}
	return expectOneRow("delete client", res)
}

func (r *clientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	const q = `
		SELECT id, id_number, name, phone, email, address, created_at
		FROM clients
		WHERE id=$1
	`
	c, err := scanClient(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, wrapErr("get client", err)
	}
	return c, nil
}

func (r *clientRepository) List(ctx context.Context) ([]*models.Client, error) {
	const q = `
		SELECT id, id_number, name, phone, email, address, created_at
		FROM clients
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, wrapErr("list clients", err)
	}
	defer rows.Close()

	res := []*models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, wrapErr("list clients", err)
		}
		res = append(res, c)
	}
	return res, wrapErr("list clients", rows.Err())
}

func (r *clientRepository) Roster(ctx context.Context) ([]models.RosterEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id_number, name FROM clients ORDER BY name ASC`)
	if err != nil {
		return nil, wrapErr("client roster", err)
	}
	defer rows.Close()

	res := []models.RosterEntry{}
	for rows.Next() {
		var e models.RosterEntry
		if err := rows.Scan(&e.IDNumber, &e.Name); err != nil {
			return nil, wrapErr("client roster", err)
		}
		res = append(res, e)
	}
	return res, wrapErr("client roster", rows.Err())
}

func (r *clientRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return 0, wrapErr("count clients", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		c                     models.Client
		phone, email, address sql.NullString
	)
	if err := row.Scan(&c.ID, &c.IDNumber, &c.Name, &phone, &email, &address, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.Email = email.String
	c.Address = address.String
	return &c, nil
}
