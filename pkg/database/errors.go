package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"venue-crm-backend/pkg/utils"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	pqKeyPattern      = regexp.MustCompile(`Key \(([^)]+)\)=`)
	pqTablePattern    = regexp.MustCompile(`table "([^"]+)"`)
	mysqlKeyPattern   = regexp.MustCompile(`for key '([^']+)'`)
	sqliteUniqueField = regexp.MustCompile(`UNIQUE constraint failed: [\w]+\.(\w+)`)
	sqliteNotNull     = regexp.MustCompile(`NOT NULL constraint failed: [\w]+\.(\w+)`)
)

// TranslateError maps driver and gorm errors onto application errors.
// AppErrors pass through unchanged; unknown errors become INTERNAL_ERROR
// with the cause kept for logging only.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NewNotFoundError("Record")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.NewConflictError("A record with the same value already exists")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return utils.NewInternalError(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return translatePostgres(pqErr)
	}
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		return translateMySQL(myErr)
	}
	if translated := translateSQLite(err); translated != nil {
		return translated
	}
	return utils.NewInternalError(err)
}

// NotFoundOr translates err, naming resource when the record is missing.
func NotFoundOr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NewNotFoundError(resource)
	}
	return TranslateError(err)
}

func translatePostgres(e *pq.Error) error {
	switch e.Code {
	case "23505": // unique_violation
		field := ""
		if m := pqKeyPattern.FindStringSubmatch(e.Detail); m != nil {
			field = m[1]
		} else {
			field = fieldFromIndexName(e.Table, e.Constraint)
		}
		return uniqueConflict(field, e)
	case "23503": // foreign_key_violation
		relation := e.Table
		if m := pqTablePattern.FindStringSubmatch(e.Detail); m != nil {
			relation = m[1]
		}
		return foreignKeyError(relation, e)
	case "23502": // not_null_violation
		return utils.NewValidationError(fmt.Sprintf("%s is required", toCamel(e.Column)), toCamel(e.Column))
	case "40001", "40P01":
		return &utils.AppError{Status: 409, Code: utils.CodeConflict, Message: "The record was modified concurrently, please retry", Err: e}
	}
	return utils.NewInternalError(e)
}

func translateMySQL(e *gomysql.MySQLError) error {
	switch e.Number {
	case 1062: // ER_DUP_ENTRY
		field := ""
		if m := mysqlKeyPattern.FindStringSubmatch(e.Message); m != nil {
			key := m[1]
			table := ""
			if i := strings.Index(key, "."); i >= 0 {
				table, key = key[:i], key[i+1:]
			}
			field = fieldFromIndexName(table, key)
		}
		return uniqueConflict(field, e)
	case 1451, 1452: // row is referenced / parent missing
		return foreignKeyError("", e)
	case 1048: // column cannot be null
		return utils.NewValidationError("A required field is missing", "")
	case 1213, 1205:
		return &utils.AppError{Status: 409, Code: utils.CodeConflict, Message: "The record was modified concurrently, please retry", Err: e}
	}
	return utils.NewInternalError(e)
}

func translateSQLite(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		field := ""
		if m := sqliteUniqueField.FindStringSubmatch(msg); m != nil {
			field = m[1]
		}
		return uniqueConflict(field, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return foreignKeyError("", err)
	case strings.Contains(msg, "NOT NULL constraint failed"):
		field := ""
		if m := sqliteNotNull.FindStringSubmatch(msg); m != nil {
			field = toCamel(m[1])
		}
		return utils.NewValidationError(fmt.Sprintf("%s is required", field), field)
	}
	return nil
}

func uniqueConflict(column string, cause error) error {
	field := toCamel(column)
	msg := "A record with the same value already exists"
	if field != "" {
		msg = fmt.Sprintf("A record with this %s already exists", field)
	}
	return &utils.AppError{Status: 409, Code: utils.CodeConflict, Message: msg, Field: field, Err: cause}
}

func foreignKeyError(relation string, cause error) error {
	msg := "The operation references a record that does not exist or is still in use"
	if relation != "" {
		msg = fmt.Sprintf("The operation is blocked by a related %s record", strings.TrimSuffix(relation, "s"))
	}
	return utils.NewInvalidReferenceError(msg, cause)
}

// fieldFromIndexName recovers the column from gorm's "idx_<table>_<column>" naming.
func fieldFromIndexName(table, index string) string {
	if table != "" && strings.HasPrefix(index, "idx_"+table+"_") {
		return strings.TrimPrefix(index, "idx_"+table+"_")
	}
	return strings.TrimPrefix(index, "idx_")
}

// toCamel turns a snake_case column name into its JSON field name.
func toCamel(column string) string {
	parts := strings.Split(column, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		if parts[i] == "id" {
			parts[i] = "Id"
			continue
		}
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}
