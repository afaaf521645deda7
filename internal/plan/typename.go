// Package plan lowers parsed statements into storage mutations (CREATE
// TABLE, INSERT) and operator trees (SELECT), per the planner design:
// one SchemaMap sits at the top of a left-folded chain of CrossJoins,
// never one per table.
package plan

import (
	"fmt"

	"github.com/arjadhav/blocksql/internal/catalog"
	"github.com/arjadhav/blocksql/internal/sql/ast"
)

// defaultIntegerWidth is the width an INTEGER column gets when no
// explicit size argument is given.
const defaultIntegerWidth = 8

// defaultBlobSize is the byte length a BLOB column gets when no explicit
// size argument is given.
const defaultBlobSize = 100

// defaultStrSize is the maximum byte length a VARCHAR column gets when
// no explicit size argument is given.
const defaultStrSize = 128

// fieldKindOf converts a parsed TypeName into a storage FieldKind. Every
// column type's size argument is optional: INTEGER defaults to 8 bytes,
// BLOB to 100 bytes, VARCHAR to 128 bytes.
func fieldKindOf(tn ast.TypeName) (catalog.FieldKind, error) {
	switch tn.Name {
	case ast.TypeInteger:
		width := uint64(defaultIntegerWidth)
		if tn.Argument != nil {
			width = uint64(*tn.Argument)
		}
		return catalog.Number(width)
	case ast.TypeBlob:
		n := uint64(defaultBlobSize)
		if tn.Argument != nil {
			n = uint64(*tn.Argument)
		}
		return catalog.Blob(n), nil
	case ast.TypeVarchar:
		n := uint64(defaultStrSize)
		if tn.Argument != nil {
			n = uint64(*tn.Argument)
		}
		return catalog.Str(n), nil
	default:
		return catalog.FieldKind{}, fmt.Errorf("plan: unknown column type %d", tn.Name)
	}
}
