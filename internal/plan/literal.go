package plan

import (
	"fmt"

	"github.com/arjadhav/blocksql/internal/catalog"
	"github.com/arjadhav/blocksql/internal/rowcodec"
	"github.com/arjadhav/blocksql/internal/sql/ast"
)

// literalToNaturalCell converts a literal appearing directly in a SELECT
// column (not coerced to any existing field) into a cell and the
// FieldKind that naturally fits it: an 8-byte Number, or a Str/Blob sized
// to the literal's own length.
func literalToNaturalCell(lit ast.LiteralValue) (rowcodec.Cell, catalog.FieldKind, error) {
	switch lit.Kind {
	case ast.LiteralNumeric:
		kind, err := catalog.Number(defaultIntegerWidth)
		if err != nil {
			return rowcodec.Cell{}, catalog.FieldKind{}, err
		}
		return rowcodec.NumberCell(lit.Numeric), kind, nil
	case ast.LiteralString:
		return rowcodec.StrCell(lit.Str), catalog.Str(uint64(len(lit.Str))), nil
	case ast.LiteralBlob:
		return rowcodec.BlobCell(lit.Blob), catalog.Blob(uint64(len(lit.Blob))), nil
	default:
		return rowcodec.Cell{}, catalog.FieldKind{}, fmt.Errorf("plan: unknown literal kind %d", lit.Kind)
	}
}
