package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// Querier operaciones comunes a *pgxpool.Pool y pgx.Tx; los repositorios funcionan con ambos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isCheckViolation 23514: el esquema rechazó un movimiento que la validación de dominio dejó pasar.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// isNumericOverflow valor fuera del rango de NUMERIC(18,4) (22003).
func isNumericOverflow(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22003"
}

// isFrozenDocument 55000: el trigger documents_frozen rechazó cambiar un documento done o cancelled.
func isFrozenDocument(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55000"
}

// isUnavailable errores de conexión, timeouts y lock_timeout (55P03) / query_canceled (57014).
func isUnavailable(err error) bool {
	if pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "55P03" || pgErr.Code == "57014"
	}
	return false
}

// wrapErr agrega contexto a un error de PostgreSQL y lo traduce a un error de dominio cuando aplica.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), isUnavailable(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	case isFrozenDocument(err):
		return fmt.Errorf("%s: %w", op, domain.ErrDocumentLocked)
	case isNumericOverflow(err):
		return fmt.Errorf("%s: %w: cantidad fuera de rango", op, domain.ErrInvalidInput)
	case isCheckViolation(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidMovement, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullIfEmpty guarda NULL en columnas opcionales de texto.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
