package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// validID informa si id es un UUID. Un id mal formado no puede existir en columnas UUID:
// se responde como no encontrado en vez de dejar que PostgreSQL falle con 22P02.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// isForeignKeyViolation verifica si un error es una violación de FK (23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func slugsToText(list []entity.ProductSlug) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, string(s))
	}
	return out
}

func textToSlugs(list []string) []entity.ProductSlug {
	out := make([]entity.ProductSlug, 0, len(list))
	for _, s := range list {
		out = append(out, entity.ProductSlug(s))
	}
	return out
}
