package awlsim

import (
	"awlsim/datatypes"

	"github.com/pkg/errors"
)

type StructField struct {
	Name   string
	Offset datatypes.Offset
	// Width in bits.
	Width int
	Type  datatypes.DataType
}

func (f *StructField) ByteSize() int { return (f.Width + 7) / 8 }

// Struct is a field layout. Consecutive BOOLs share a byte, wider fields
// start on the next free byte.
type Struct struct {
	Fields []*StructField
	byName map[string]*StructField
}

func NewStruct() *Struct {
	return &Struct{byName: make(map[string]*StructField)}
}

// Size in bytes.
func (s *Struct) Size() int {
	if len(s.Fields) == 0 {
		return 0
	}
	last := s.Fields[len(s.Fields)-1]
	return last.Offset.Byte + last.ByteSize()
}

func (s *Struct) addField(name string, width int, dt datatypes.DataType) *StructField {
	if width <= 0 {
		return nil
	}
	var off datatypes.Offset
	if n := len(s.Fields); width == 1 && n > 0 &&
		s.Fields[n-1].Width == 1 && s.Fields[n-1].Offset.Bit < 7 {
		prev := s.Fields[n-1].Offset
		off = datatypes.Offset{Byte: prev.Byte, Bit: prev.Bit + 1}
	} else {
		off = datatypes.Offset{Byte: s.Size()}
	}
	field := &StructField{Name: name, Offset: off, Width: width, Type: dt}
	s.Fields = append(s.Fields, field)
	if name != "" {
		s.byName[name] = field
	}
	return field
}

func (s *Struct) AddFieldAligned(name string, dt datatypes.DataType, byteAlignment int) *StructField {
	padding := byteAlignment - s.Size()%byteAlignment
	if padding == byteAlignment {
		padding = 0
	}
	s.addField("", padding*8, datatypes.MakeType(datatypes.TypeByte))
	return s.addField(name, dt.Width, dt)
}

// AddFieldNaturallyAligned aligns fields wider than a byte to two bytes.
func (s *Struct) AddFieldNaturallyAligned(name string, dt datatypes.DataType) (*StructField, error) {
	if dt.Width < 0 {
		return nil, errors.Errorf("Data type '%s' is not supported in data structures", dt)
	}
	if _, exists := s.byName[name]; exists {
		return nil, errors.Errorf("Data structure field '%s' is declared multiple times", name)
	}
	alignment := 1
	if dt.Width > 8 {
		alignment = 2
	}
	return s.AddFieldAligned(name, dt, alignment), nil
}

func (s *Struct) Field(name string) (*StructField, error) {
	field, ok := s.byName[name]
	if !ok {
		return nil, errors.Errorf("Data structure field '%s' not found", name)
	}
	return field, nil
}

// StructInstance is the memory of one Struct.
type StructInstance struct {
	Struct *Struct
	Data   datatypes.ByteArray
}

func NewStructInstance(s *Struct) *StructInstance {
	return &StructInstance{Struct: s, Data: make(datatypes.ByteArray, s.Size())}
}

func (si *StructInstance) Fetch(off datatypes.Offset, width int) (uint32, error) {
	return si.Data.Fetch(off, width)
}

func (si *StructInstance) Store(off datatypes.Offset, width int, value uint32) error {
	return si.Data.Store(off, width, value)
}

func (si *StructInstance) FieldData(name string) (uint32, error) {
	field, err := si.Struct.Field(name)
	if err != nil {
		return 0, err
	}
	return si.Fetch(field.Offset, field.Width)
}

func (si *StructInstance) SetFieldData(name string, value uint32) error {
	field, err := si.Struct.Field(name)
	if err != nil {
		return err
	}
	return si.Store(field.Offset, field.Width, value)
}
