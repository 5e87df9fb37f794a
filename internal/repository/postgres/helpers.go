package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/vulcanmes/scheduler/internal/repository"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint
// violation (23505).
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

func requireRowsAffected(result sql.Result, resourceType, resourceID string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &repository.NotFoundError{ResourceType: resourceType, ResourceID: resourceID}
	}
	return nil
}
