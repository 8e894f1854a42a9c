package services

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
	"github.com/ekaya-inc/sqlite-mcp/pkg/models"
	sqlutil "github.com/ekaya-inc/sqlite-mcp/pkg/sql"
)

// SafetyValidator gatekeeps every statement before it reaches the database.
//
// Rules, applied in order:
//   - the first keyword after whitespace and comments must be SELECT
//   - no statement separator outside string literals and comments, and none
//     inside an identifier
//   - every table and column the statement names must exist in the snapshot
//
// Statements are never rewritten to make them pass.
type SafetyValidator interface {
	Validate(statement string, snapshot models.SchemaSnapshot) error

	// ValidateIdentifier checks a caller-supplied table or column name
	// before it is placed into a statement.
	ValidateIdentifier(name string) error
}

type safetyValidator struct {
	logger *zap.Logger
}

// NewSafetyValidator creates a safety validator.
func NewSafetyValidator(logger *zap.Logger) SafetyValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &safetyValidator{logger: logger.Named("safety")}
}

var _ SafetyValidator = (*safetyValidator)(nil)

func (v *safetyValidator) Validate(statement string, snapshot models.SchemaSnapshot) error {
	stmt := sqlutil.NewStatement(statement)

	if err := stmt.CheckReadOnly(); err != nil {
		return err
	}
	if err := stmt.CheckSingleStatement(); err != nil {
		return err
	}
	return v.checkIdentifiers(stmt, snapshot)
}

func (v *safetyValidator) ValidateIdentifier(name string) error {
	return sqlutil.CheckIdentifier(name)
}

func (v *safetyValidator) checkIdentifiers(stmt *sqlutil.Statement, snapshot models.SchemaSnapshot) error {
	refs := stmt.References()

	// Tables in scope, keyed by lower-cased name and alias.
	scope := make(map[string]*models.TableDescriptor)
	var tables []*models.TableDescriptor

	for _, ref := range refs.Tables {
		if ref.Schema != "" && !isLocalSchema(ref.Schema) {
			return apperrors.New(apperrors.KindSafety, apperrors.CodeUnknownIdentifier,
				"unknown schema %q", ref.Schema)
		}
		table, ok := snapshot.Lookup(ref.Name)
		if !ok {
			return apperrors.New(apperrors.KindSafety, apperrors.CodeUnknownIdentifier,
				"unknown table %q", ref.Name)
		}
		tables = append(tables, table)
		scope[strings.ToLower(table.Name)] = table
		if ref.Alias != "" {
			scope[strings.ToLower(ref.Alias)] = table
		}
	}

	aliases := make(map[string]bool, len(refs.Aliases))
	for _, a := range refs.Aliases {
		aliases[strings.ToLower(a)] = true
	}

	for _, col := range refs.Columns {
		if col.Qualifier != "" {
			table, ok := scope[strings.ToLower(col.Qualifier)]
			if !ok {
				return apperrors.New(apperrors.KindSafety, apperrors.CodeUnknownIdentifier,
					"unknown table or alias %q", col.Qualifier)
			}
			if col.Name == "*" || sqlutil.IsRowIDAlias(col.Name) {
				continue
			}
			if _, ok := table.Column(col.Name); !ok {
				return apperrors.New(apperrors.KindSafety, apperrors.CodeUnknownIdentifier,
					"unknown column %q in table %q", col.Name, table.Name)
			}
			continue
		}

		if aliases[strings.ToLower(col.Name)] || sqlutil.IsRowIDAlias(col.Name) {
			continue
		}
		if !columnInScope(col.Name, tables) {
			return apperrors.New(apperrors.KindSafety, apperrors.CodeUnknownIdentifier,
				"unknown column %q", col.Name)
		}
	}
	return nil
}

func columnInScope(name string, tables []*models.TableDescriptor) bool {
	for _, t := range tables {
		if _, ok := t.Column(name); ok {
			return true
		}
	}
	return false
}

func isLocalSchema(schema string) bool {
	return strings.EqualFold(schema, "main") || strings.EqualFold(schema, "temp")
}
