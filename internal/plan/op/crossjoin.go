package op

import "github.com/arjadhav/blocksql/internal/rowcodec"

// CrossJoin is the cartesian product of two child tables. Its output
// schema is the left schema followed by the right schema.
//
// Advance-first semantics are load-bearing for correct cardinality:
// every NextRow call advances the left child by one row; only once the
// left child is exhausted does the right child advance once and the
// left child reset to its own first row. This is the only advance
// discipline that yields exactly |left| * |right| rows — advancing both
// children on every call (as a naive "zip" cross-join would) instead
// yields min(|left|, |right|) rows, silently dropping the rest of the
// product.
type CrossJoin struct {
	left, right Table
	started     bool
	exhausted   bool
}

// NewCrossJoin builds a cross-join of left and right.
func NewCrossJoin(left, right Table) *CrossJoin {
	return &CrossJoin{left: left, right: right}
}

func (c *CrossJoin) Schema() []TableField {
	out := make([]TableField, 0, len(c.left.Schema())+len(c.right.Schema()))
	out = append(out, c.left.Schema()...)
	out = append(out, c.right.Schema()...)
	return out
}

func (c *CrossJoin) NextRow() error {
	if c.exhausted {
		return nil
	}
	if !c.started {
		c.started = true
		if err := c.left.NextRow(); err != nil {
			return err
		}
		if err := c.right.NextRow(); err != nil {
			return err
		}
		if c.currentlyEmpty() {
			c.exhausted = true
		}
		return nil
	}

	if err := c.left.NextRow(); err != nil {
		return err
	}
	leftRow, err := c.left.CurrentRow()
	if err != nil {
		return err
	}
	if leftRow == nil {
		if err := c.right.NextRow(); err != nil {
			return err
		}
		rightRow, err := c.right.CurrentRow()
		if err != nil {
			return err
		}
		if rightRow == nil {
			c.exhausted = true
			return nil
		}
		if err := c.left.Reset(); err != nil {
			return err
		}
		if err := c.left.NextRow(); err != nil {
			return err
		}
	}
	if c.currentlyEmpty() {
		c.exhausted = true
	}
	return nil
}

func (c *CrossJoin) currentlyEmpty() bool {
	l, _ := c.left.CurrentRow()
	r, _ := c.right.CurrentRow()
	return l == nil || r == nil
}

func (c *CrossJoin) CurrentRow() ([]rowcodec.Cell, error) {
	if c.exhausted {
		return nil, nil
	}
	leftRow, err := c.left.CurrentRow()
	if err != nil {
		return nil, err
	}
	rightRow, err := c.right.CurrentRow()
	if err != nil {
		return nil, err
	}
	if leftRow == nil || rightRow == nil {
		return nil, nil
	}
	out := make([]rowcodec.Cell, 0, len(leftRow)+len(rightRow))
	out = append(out, leftRow...)
	out = append(out, rightRow...)
	return out, nil
}

func (c *CrossJoin) Reset() error {
	c.started = false
	c.exhausted = false
	if err := c.left.Reset(); err != nil {
		return err
	}
	return c.right.Reset()
}
