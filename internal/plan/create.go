package plan

import (
	"fmt"

	"github.com/arjadhav/blocksql/internal/catalog"
	"github.com/arjadhav/blocksql/internal/sql/ast"
)

// BuildSchema lowers a CREATE TABLE statement's column list into a
// catalog.Schema, rejecting a column name used twice.
func BuildSchema(stmt *ast.CreateTableStatement) (catalog.Schema, error) {
	seen := make(map[string]bool, len(stmt.ColumnDefs))

	fields := make([]catalog.Field, len(stmt.ColumnDefs))
	for i, col := range stmt.ColumnDefs {
		if seen[col.ColumnName] {
			return catalog.Schema{}, fmt.Errorf("plan: column %q defined more than once", col.ColumnName)
		}
		seen[col.ColumnName] = true

		kind, err := fieldKindOf(col.Type)
		if err != nil {
			return catalog.Schema{}, fmt.Errorf("plan: column %q: %w", col.ColumnName, err)
		}
		field, err := catalog.NewField(kind, col.ColumnName)
		if err != nil {
			return catalog.Schema{}, err
		}
		fields[i] = field
	}
	return catalog.Schema{Name: stmt.TableName, Fields: fields}, nil
}
