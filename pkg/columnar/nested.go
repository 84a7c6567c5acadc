package columnar

import "fmt"

// BytesColumn stores raw binary values with per-value validity
type BytesColumn struct {
	values [][]byte
	valid  []bool
}

// NewBytesColumn creates a new binary column
func NewBytesColumn() *BytesColumn {
	return &BytesColumn{
		values: make([][]byte, 0, 1024),
		valid:  make([]bool, 0, 1024),
	}
}

func (c *BytesColumn) Type() ColumnType  { return ColumnTypeBytes }
func (c *BytesColumn) Len() int          { return len(c.values) }
func (c *BytesColumn) IsNull(i int) bool { return !c.valid[i] }

func (c *BytesColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

// Value returns the bytes at i; only meaningful for non-null values
func (c *BytesColumn) Value(i int) []byte {
	return c.values[i]
}

func (c *BytesColumn) Append(value interface{}) error {
	if value == nil {
		c.AppendNull()
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("expected bytes, got %T", value)
	}
	c.values = append(c.values, data)
	c.valid = append(c.valid, true)
	return nil
}

func (c *BytesColumn) AppendNull() {
	c.values = append(c.values, nil)
	c.valid = append(c.valid, false)
}

func (c *BytesColumn) Clear() {
	c.values = c.values[:0]
	c.valid = c.valid[:0]
}

func (c *BytesColumn) MemoryUsage() int64 {
	var total int64
	for _, v := range c.values {
		total += int64(len(v)) + 24
	}
	total += int64(len(c.valid))
	return total
}

// ListColumn stores variable-length lists. All element values across all
// rows live in one shared child column; each row owns a contiguous offset
// window into it. A null row contributes no elements to the child.
type ListColumn struct {
	child   Column
	offsets []int32
	valid   []bool
}

// NewListColumn creates a new list column with the given element column
func NewListColumn(child Column) *ListColumn {
	return &ListColumn{
		child:   child,
		offsets: []int32{0},
		valid:   make([]bool, 0, 1024),
	}
}

func (c *ListColumn) Type() ColumnType  { return ColumnTypeList }
func (c *ListColumn) Len() int          { return len(c.valid) }
func (c *ListColumn) IsNull(i int) bool { return !c.valid[i] }

// Child returns the shared element column
func (c *ListColumn) Child() Column { return c.child }

// Window returns the [start, end) element range of row i in the child column
func (c *ListColumn) Window(i int) (start, end int) {
	return int(c.offsets[i]), int(c.offsets[i+1])
}

func (c *ListColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	start, end := c.Window(i)
	elems := make([]interface{}, 0, end-start)
	for j := start; j < end; j++ {
		elems = append(elems, c.child.Get(j))
	}
	return elems
}

// Append accepts a []interface{} of element values (nil elements become
// null elements) or nil for a null list.
func (c *ListColumn) Append(value interface{}) error {
	if value == nil {
		c.AppendNull()
		return nil
	}
	elems, ok := value.([]interface{})
	if !ok {
		return fmt.Errorf("expected []interface{}, got %T", value)
	}
	for _, e := range elems {
		if e == nil {
			c.child.AppendNull()
			continue
		}
		if err := c.child.Append(e); err != nil {
			return err
		}
	}
	c.offsets = append(c.offsets, c.offsets[len(c.offsets)-1]+int32(len(elems)))
	c.valid = append(c.valid, true)
	return nil
}

func (c *ListColumn) AppendNull() {
	c.offsets = append(c.offsets, c.offsets[len(c.offsets)-1])
	c.valid = append(c.valid, false)
}

func (c *ListColumn) Clear() {
	c.child.Clear()
	// Columns filled from shared Arrow buffers carry a nonzero base offset
	c.offsets = c.offsets[:1]
	c.offsets[0] = 0
	c.valid = c.valid[:0]
}

func (c *ListColumn) MemoryUsage() int64 {
	return c.child.MemoryUsage() + int64(len(c.offsets)*4+len(c.valid))
}

// StructColumn stores struct values as parallel field columns. Field
// columns always have the same length as the struct column; a null struct
// row has null entries in every field column.
type StructColumn struct {
	names  []string
	fields []Column
	valid  []bool
}

// NewStructColumn creates a new struct column with named field columns
func NewStructColumn(names []string, fields []Column) *StructColumn {
	if len(names) != len(fields) {
		panic(fmt.Sprintf("struct column: %d names for %d fields", len(names), len(fields)))
	}
	return &StructColumn{
		names:  names,
		fields: fields,
		valid:  make([]bool, 0, 1024),
	}
}

func (c *StructColumn) Type() ColumnType  { return ColumnTypeStruct }
func (c *StructColumn) Len() int          { return len(c.valid) }
func (c *StructColumn) IsNull(i int) bool { return !c.valid[i] }

// Fields returns the parallel field columns
func (c *StructColumn) Fields() []Column { return c.fields }

// FieldNames returns the field names in declaration order
func (c *StructColumn) FieldNames() []string { return c.names }

func (c *StructColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	m := make(map[string]interface{}, len(c.fields))
	for f, field := range c.fields {
		m[c.names[f]] = field.Get(i)
	}
	return m
}

// Append accepts a map[string]interface{} of field values (missing or nil
// entries become null fields) or nil for a null struct.
func (c *StructColumn) Append(value interface{}) error {
	if value == nil {
		c.AppendNull()
		return nil
	}
	m, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("expected map[string]interface{}, got %T", value)
	}
	for f, field := range c.fields {
		v, present := m[c.names[f]]
		if !present || v == nil {
			field.AppendNull()
			continue
		}
		if err := field.Append(v); err != nil {
			return err
		}
	}
	c.valid = append(c.valid, true)
	return nil
}

func (c *StructColumn) AppendNull() {
	for _, field := range c.fields {
		field.AppendNull()
	}
	c.valid = append(c.valid, false)
}

func (c *StructColumn) Clear() {
	for _, field := range c.fields {
		field.Clear()
	}
	c.valid = c.valid[:0]
}

func (c *StructColumn) MemoryUsage() int64 {
	total := int64(len(c.valid))
	for _, field := range c.fields {
		total += field.MemoryUsage()
	}
	return total
}
