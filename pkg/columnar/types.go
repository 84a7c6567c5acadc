package columnar

import (
	"fmt"
	"time"
)

// ColumnType represents the data type of a column
type ColumnType int

const (
	ColumnTypeString ColumnType = iota
	ColumnTypeInt
	ColumnTypeFloat
	ColumnTypeBool
	ColumnTypeTimestamp
	ColumnTypeBytes
	ColumnTypeList
	ColumnTypeStruct
)

// String returns the type name for logging and error messages
func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "string"
	case ColumnTypeInt:
		return "int"
	case ColumnTypeFloat:
		return "float"
	case ColumnTypeBool:
		return "bool"
	case ColumnTypeTimestamp:
		return "timestamp"
	case ColumnTypeBytes:
		return "bytes"
	case ColumnTypeList:
		return "list"
	case ColumnTypeStruct:
		return "struct"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Column is the base interface for all column types. Every column carries
// a per-value validity indicator; IsNull reports it.
type Column interface {
	Type() ColumnType
	Len() int
	IsNull(i int) bool
	Get(i int) interface{}
	Append(value interface{}) error
	AppendNull()
	Clear()
	MemoryUsage() int64
}

// StringColumn stores string values with per-value validity
type StringColumn struct {
	values []string
	valid  []bool
}

// NewStringColumn creates a new string column
func NewStringColumn() *StringColumn {
	return &StringColumn{
		values: make([]string, 0, 1024),
		valid:  make([]bool, 0, 1024),
	}
}

func (c *StringColumn) Type() ColumnType { return ColumnTypeString }
func (c *StringColumn) Len() int         { return len(c.values) }
func (c *StringColumn) IsNull(i int) bool {
	return !c.valid[i]
}

func (c *StringColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

// Value returns the string at i; only meaningful for non-null values
func (c *StringColumn) Value(i int) string {
	return c.values[i]
}

// AppendString appends a non-null string without the interface{} detour
func (c *StringColumn) AppendString(s string) {
	c.values = append(c.values, s)
	c.valid = append(c.valid, true)
}

func (c *StringColumn) Append(value interface{}) error {
	if value == nil {
		c.AppendNull()
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	c.values = append(c.values, str)
	c.valid = append(c.valid, true)
	return nil
}

func (c *StringColumn) AppendNull() {
	c.values = append(c.values, "")
	c.valid = append(c.valid, false)
}

func (c *StringColumn) Clear() {
	c.values = c.values[:0]
	c.valid = c.valid[:0]
}

func (c *StringColumn) MemoryUsage() int64 {
	var total int64
	for _, v := range c.values {
		total += int64(len(v))
		total += 16 // string header overhead
	}
	total += int64(len(c.valid))
	return total
}

// IntColumn stores integer values with per-value validity
type IntColumn struct {
	values []int64
	valid  []bool
}

// NewIntColumn creates a new integer column
func NewIntColumn() *IntColumn {
	return &IntColumn{
		values: make([]int64, 0, 1024),
		valid:  make([]bool, 0, 1024),
	}
}

func (c *IntColumn) Type() ColumnType  { return ColumnTypeInt }
func (c *IntColumn) Len() int          { return len(c.values) }
func (c *IntColumn) IsNull(i int) bool { return !c.valid[i] }

func (c *IntColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

// Value returns the int64 at i; only meaningful for non-null values
func (c *IntColumn) Value(i int) int64 {
	return c.values[i]
}

func (c *IntColumn) Append(value interface{}) error {
	if value == nil {
		c.AppendNull()
		return nil
	}
	var intVal int64
	switch v := value.(type) {
	case int:
		intVal = int64(v)
	case int64:
		intVal = v
	case int32:
		intVal = int64(v)
	case string:
		_, err := fmt.Sscanf(v, "%d", &intVal)
		if err != nil {
			return fmt.Errorf("cannot parse %q as int: %w", v, err)
		}
	case float64:
		// JSON numbers decode as float64
		intVal = int64(v)
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
	c.values = append(c.values, intVal)
	c.valid = append(c.valid, true)
	return nil
}

func (c *IntColumn) AppendNull() {
	c.values = append(c.values, 0)
	c.valid = append(c.valid, false)
}

func (c *IntColumn) Clear() {
	c.values = c.values[:0]
	c.valid = c.valid[:0]
}

func (c *IntColumn) MemoryUsage() int64 {
	return int64(len(c.values)*8 + len(c.valid))
}

// FloatColumn stores floating point values with per-value validity
type FloatColumn struct {
	values []float64
	valid  []bool
}

// NewFloatColumn creates a new float column
func NewFloatColumn() *FloatColumn {
	return &FloatColumn{
		values: make([]float64, 0, 1024),
		valid:  make([]bool, 0, 1024),
	}
}

func (c *FloatColumn) Type() ColumnType  { return ColumnTypeFloat }
func (c *FloatColumn) Len() int          { return len(c.values) }
func (c *FloatColumn) IsNull(i int) bool { return !c.valid[i] }

func (c *FloatColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

// Value returns the float64 at i; only meaningful for non-null values
func (c *FloatColumn) Value(i int) float64 {
	return c.values[i]
}

func (c *FloatColumn) Append(value interface{}) error {
	if value == nil {
		c.AppendNull()
		return nil
	}
	var floatVal float64
	switch v := value.(type) {
	case float64:
		floatVal = v
	case float32:
		floatVal = float64(v)
	case int:
		floatVal = float64(v)
	case int64:
		floatVal = float64(v)
	case string:
		_, err := fmt.Sscanf(v, "%f", &floatVal)
		if err != nil {
			return fmt.Errorf("cannot parse %q as float: %w", v, err)
		}
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
	c.values = append(c.values, floatVal)
	c.valid = append(c.valid, true)
	return nil
}

func (c *FloatColumn) AppendNull() {
	c.values = append(c.values, 0)
	c.valid = append(c.valid, false)
}

func (c *FloatColumn) Clear() {
	c.values = c.values[:0]
	c.valid = c.valid[:0]
}

func (c *FloatColumn) MemoryUsage() int64 {
	return int64(len(c.values)*8 + len(c.valid))
}

// BoolColumn stores boolean values with per-value validity
type BoolColumn struct {
	values []bool
	valid  []bool
}

// NewBoolColumn creates a new boolean column
func NewBoolColumn() *BoolColumn {
	return &BoolColumn{
		values: make([]bool, 0, 1024),
		valid:  make([]bool, 0, 1024),
	}
}

func (c *BoolColumn) Type() ColumnType  { return ColumnTypeBool }
func (c *BoolColumn) Len() int          { return len(c.values) }
func (c *BoolColumn) IsNull(i int) bool { return !c.valid[i] }

func (c *BoolColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

// Value returns the bool at i; only meaningful for non-null values
func (c *BoolColumn) Value(i int) bool {
	return c.values[i]
}

func (c *BoolColumn) Append(value interface{}) error {
	if value == nil {
		c.AppendNull()
		return nil
	}
	var boolVal bool
	switch v := value.(type) {
	case bool:
		boolVal = v
	case string:
		boolVal = v == "true" || v == "1" || v == "yes" || v == "t"
	default:
		return fmt.Errorf("expected bool, got %T", value)
	}
	c.values = append(c.values, boolVal)
	c.valid = append(c.valid, true)
	return nil
}

func (c *BoolColumn) AppendNull() {
	c.values = append(c.values, false)
	c.valid = append(c.valid, false)
}

func (c *BoolColumn) Clear() {
	c.values = c.values[:0]
	c.valid = c.valid[:0]
}

func (c *BoolColumn) MemoryUsage() int64 {
	return int64(len(c.values) + len(c.valid))
}

// TimestampColumn stores timestamp values with per-value validity
type TimestampColumn struct {
	values []time.Time
	valid  []bool
}

// NewTimestampColumn creates a new timestamp column
func NewTimestampColumn() *TimestampColumn {
	return &TimestampColumn{
		values: make([]time.Time, 0, 1024),
		valid:  make([]bool, 0, 1024),
	}
}

func (c *TimestampColumn) Type() ColumnType  { return ColumnTypeTimestamp }
func (c *TimestampColumn) Len() int          { return len(c.values) }
func (c *TimestampColumn) IsNull(i int) bool { return !c.valid[i] }

func (c *TimestampColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

// Value returns the time at i; only meaningful for non-null values
func (c *TimestampColumn) Value(i int) time.Time {
	return c.values[i]
}

func (c *TimestampColumn) Append(value interface{}) error {
	if value == nil {
		c.AppendNull()
		return nil
	}
	var ts time.Time
	switch v := value.(type) {
	case time.Time:
		ts = v
	case int64:
		ts = time.Unix(v, 0).UTC()
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("cannot parse %q as timestamp: %w", v, err)
		}
		ts = t
	default:
		return fmt.Errorf("expected timestamp, got %T", value)
	}
	c.values = append(c.values, ts)
	c.valid = append(c.valid, true)
	return nil
}

func (c *TimestampColumn) AppendNull() {
	c.values = append(c.values, time.Time{})
	c.valid = append(c.valid, false)
}

func (c *TimestampColumn) Clear() {
	c.values = c.values[:0]
	c.valid = c.valid[:0]
}

func (c *TimestampColumn) MemoryUsage() int64 {
	return int64(len(c.values)*24 + len(c.valid))
}
