package awlsim

import (
	"fmt"

	"awlsim/datatypes"
	"awlsim/shared/parser"

	"github.com/pkg/errors"
)

// DB is a data block. Instance DBs carry the layout of their FB's
// interface, FC bounce DBs use a negative index.
type DB struct {
	Index int
	FB    *Block
	*StructInstance
}

func (db *DB) IsInstanceDB() bool { return db.FB != nil }

func (db *DB) String() string {
	if db.Index < 0 {
		return fmt.Sprintf("bounce DB of FC %d", -db.Index)
	}
	return fmt.Sprintf("DB %d", db.Index)
}

func newInterfaceDB(index int, b *Block) *DB {
	db := &DB{Index: index, FB: b, StructInstance: NewStructInstance(b.Interface.Struct)}
	db.initFields()
	return db
}

func (db *DB) initFields() {
	for _, f := range db.FB.Interface.Fields {
		if f.Kind == FieldTemp || !f.HasInit {
			continue
		}
		// Layout and init value were validated with the interface.
		_ = db.Store(f.Layout.Offset, f.Layout.Width, f.Init)
	}
}

// acquireBounceDB returns the interface DB of one activation of fc.
// Nested and recursive calls of the same FC each get their own.
func (cpu *CPU) acquireBounceDB(fc *Block) *DB {
	pool := cpu.bouncePool[fc.Index]
	if n := len(pool); n > 0 {
		db := pool[n-1]
		cpu.bouncePool[fc.Index] = pool[:n-1]
		db.Data.Clear()
		db.initFields()
		return db
	}
	return newInterfaceDB(-fc.Index, fc)
}

func (cpu *CPU) releaseBounceDB(fc *Block, db *DB) {
	cpu.bouncePool[fc.Index] = append(cpu.bouncePool[fc.Index], db)
}

func (cpu *CPU) translateDB(raw *parser.RawDB) (*DB, error) {
	if raw.IsInstanceDB() {
		return cpu.translateInstanceDB(raw)
	}
	return translateGlobalDB(raw)
}

func translateGlobalDB(raw *parser.RawDB) (*DB, error) {
	s := NewStruct()
	type init struct {
		field *StructField
		value uint32
	}
	var inits []init
	for _, f := range raw.Fields {
		if f.TypeTokens == nil {
			return nil, errors.Errorf("DB %d: field '%s' has no data type", raw.Index, f.Name)
		}
		if f.ValueTokens == nil {
			return nil, errors.Errorf("DB %d: field '%s' has no initial value", raw.Index, f.Name)
		}
		dt, err := datatypes.MakeByName(f.TypeTokens)
		if err != nil {
			return nil, errors.Wrapf(err, "DB %d", raw.Index)
		}
		value, err := dt.ParseMatchingImmediate(f.ValueTokens)
		if err != nil {
			return nil, errors.Wrapf(err, "DB %d", raw.Index)
		}
		field, err := s.AddFieldNaturallyAligned(f.Name, dt)
		if err != nil {
			return nil, errors.Wrapf(err, "DB %d", raw.Index)
		}
		inits = append(inits, init{field, value})
	}
	db := &DB{Index: raw.Index, StructInstance: NewStructInstance(s)}
	for _, in := range inits {
		if err := db.Store(in.field.Offset, in.field.Width, in.value); err != nil {
			return nil, errors.Wrapf(err, "DB %d: field '%s'", raw.Index, in.field.Name)
		}
	}
	return db, nil
}

func (cpu *CPU) translateInstanceDB(raw *parser.RawDB) (*DB, error) {
	var fb *Block
	switch raw.FB.Name {
	case "FB":
		fb = cpu.fbs[raw.FB.Number]
	case "SFB":
		fb = cpu.sfbs[raw.FB.Number]
	}
	if fb == nil {
		return nil, errors.Errorf("Instance DB %d references %s %d, but %s %d does not exist",
			raw.Index, raw.FB.Name, raw.FB.Number, raw.FB.Name, raw.FB.Number)
	}
	db := newInterfaceDB(raw.Index, fb)
	for _, f := range raw.Fields {
		if f.TypeTokens != nil {
			return nil, errors.Errorf("Instance DB %d must not declare a STRUCT", raw.Index)
		}
		field, err := db.Struct.Field(f.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "Instance DB %d", raw.Index)
		}
		value, err := field.Type.ParseMatchingImmediate(f.ValueTokens)
		if err != nil {
			return nil, errors.Wrapf(err, "Instance DB %d", raw.Index)
		}
		if err := db.Store(field.Offset, field.Width, value); err != nil {
			return nil, errors.Wrapf(err, "Instance DB %d: field '%s'", raw.Index, f.Name)
		}
	}
	return db, nil
}
