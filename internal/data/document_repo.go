package data

// Package data provides document store implementations. The session
// layer only reads role/profile documents; the dashboard application
// owns the schema and all writes.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	apperrors "github.com/classboard-app/classboard/internal/errors"
	"github.com/classboard-app/classboard/internal/ports"
)

// DocumentRepo resolves role/profile documents from PostgreSQL.
type DocumentRepo struct {
	DB *sql.DB
}

// NewDocumentRepo creates a new document repository.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{DB: db}
}

const profileColumns = `identity_id, role, display_name, updated_at`

// GetRole returns the role recorded for the identity. A missing
// document maps to RoleUnrecognized with a nil error: unconfigured
// access is a terminal fallback state, not a failure.
func (r *DocumentRepo) GetRole(ctx context.Context, identityID string) (domainauth.Role, error) {
	if strings.TrimSpace(identityID) == "" {
		return domainauth.RoleUnrecognized, apperrors.Validation("identity id is required")
	}

	var role string
	err := withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := `SELECT role FROM user_documents WHERE identity_id = $1`
		return conn.QueryRow(ctx, query, identityID).Scan(&role)
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return domainauth.RoleUnrecognized, nil
		}
		return domainauth.RoleUnrecognized, mapped
	}

	return domainauth.ParseRole(role), nil
}

// GetProfile returns the identity's profile document, or a NotFound
// error when none exists.
func (r *DocumentRepo) GetProfile(ctx context.Context, identityID string) (*domainauth.Profile, error) {
	if strings.TrimSpace(identityID) == "" {
		return nil, apperrors.Validation("identity id is required")
	}

	var profile profileRow
	err := withPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := `SELECT ` + profileColumns + ` FROM user_documents WHERE identity_id = $1`
		rows, qerr := conn.Query(ctx, query, identityID)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		profile, qerr = pgx.CollectOneRow(rows, pgx.RowToStructByName[profileRow])
		return qerr
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, apperrors.NotFoundf("no profile document for identity %s", identityID)
		}
		return nil, mapped
	}

	return profile.toDomain(), nil
}

// profileRow mirrors the user_documents columns for pgx row collection.
type profileRow struct {
	IdentityID  string       `db:"identity_id"`
	Role        string       `db:"role"`
	DisplayName string       `db:"display_name"`
	UpdatedAt   sql.NullTime `db:"updated_at"`
}

func (p profileRow) toDomain() *domainauth.Profile {
	profile := &domainauth.Profile{
		IdentityID:  p.IdentityID,
		Role:        domainauth.ParseRole(p.Role),
		DisplayName: p.DisplayName,
	}
	if p.UpdatedAt.Valid {
		profile.UpdatedAt = p.UpdatedAt.Time
	}
	return profile
}

// withPgxConn acquires a *pgx.Conn via the stdlib bridge and executes fn
// with it.
func withPgxConn(ctx context.Context, db *sql.DB, fn func(*pgx.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() {
		// Connection close failure is best-effort.
		_ = conn.Close()
	}()

	return conn.Raw(func(dc any) error {
		std, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		return fn(std.Conn())
	})
}

var _ ports.DocumentStore = (*DocumentRepo)(nil)
