// Package types implements the value universe of the source language: the
// sum of primitive, struct, array, pointer, and enum types described by
// spec §3 (Type). Types are structurally equal except structs, which are
// equal only when both the name and the ordered field list match.
package types

import "fmt"

// Kind tags which arm of the Type sum a value occupies.
type Kind int

const (
	KindInvalid Kind = iota
	KindI64
	KindI32
	KindI16
	KindU64
	KindU32
	KindU16
	KindU8
	KindF64
	KindF32
	KindF16
	KindBool
	KindString
	KindVoid
	KindStruct
	KindArray
	KindPointer
	KindEnum
)

var kindNames = map[Kind]string{
	KindI64:     "i64",
	KindI32:     "i32",
	KindI16:     "i16",
	KindU64:     "u64",
	KindU32:     "u32",
	KindU16:     "u16",
	KindU8:      "u8",
	KindF64:     "f64",
	KindF32:     "f32",
	KindF16:     "f16",
	KindBool:    "bool",
	KindString:  "string",
	KindVoid:    "void",
	KindStruct:  "struct",
	KindArray:   "array",
	KindPointer: "pointer",
	KindEnum:    "enum",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "invalid"
}

// StructField is one ordered field of a struct type. Field order is
// insertion order and fixed for the program's lifetime; it determines GEP
// indices (spec §3 Invariants).
type StructField struct {
	Name string
	Type Type
}

// EnumVariant is one named, valued member of an enum type.
type EnumVariant struct {
	Name  string
	Value int64
}

// Type is the tagged union described by spec §3. The zero Type has
// Kind == KindInvalid and must never be used as a real value's type.
type Type struct {
	Kind Kind

	// Struct-only.
	StructName string
	Fields     []StructField

	// Array-only.
	Elem   *Type
	Length int

	// Pointer-only; Pointee is nil for an untyped pointer.
	Pointee *Type

	// Enum-only.
	EnumName  string
	Discrim   *Type
	Variants  []EnumVariant
}

func Primitive(k Kind) Type { return Type{Kind: k} }

var (
	I64    = Primitive(KindI64)
	I32    = Primitive(KindI32)
	I16    = Primitive(KindI16)
	U64    = Primitive(KindU64)
	U32    = Primitive(KindU32)
	U16    = Primitive(KindU16)
	U8     = Primitive(KindU8)
	F64    = Primitive(KindF64)
	F32    = Primitive(KindF32)
	F16    = Primitive(KindF16)
	Bool   = Primitive(KindBool)
	String = Primitive(KindString)
	Void   = Primitive(KindVoid)
)

// NewStruct builds a named struct type with the given ordered fields.
func NewStruct(name string, fields []StructField) Type {
	return Type{Kind: KindStruct, StructName: name, Fields: fields}
}

// NewArray builds a fixed-length array type.
func NewArray(elem Type, length int) Type {
	return Type{Kind: KindArray, Elem: &elem, Length: length}
}

// NewPointer builds a pointer type. pointee == nil means untyped ($-typed
// but pointee-less) pointer, which is permitted per spec §3.
func NewPointer(pointee *Type) Type {
	return Type{Kind: KindPointer, Pointee: pointee}
}

// NewEnum builds an enum type with an explicit discriminant type.
func NewEnum(name string, discrim Type, variants []EnumVariant) Type {
	return Type{Kind: KindEnum, EnumName: name, Discrim: &discrim, Variants: variants}
}

// IsInteger reports whether t is one of the signed or unsigned integer
// kinds.
func (t Type) IsInteger() bool {
	switch t.Kind {
	case KindI64, KindI32, KindI16, KindU64, KindU32, KindU16, KindU8:
		return true
	}
	return false
}

// IsSignedInteger reports whether t is a signed integer kind.
func (t Type) IsSignedInteger() bool {
	switch t.Kind {
	case KindI64, KindI32, KindI16:
		return true
	}
	return false
}

// IsUnsignedInteger reports whether t is an unsigned integer kind.
func (t Type) IsUnsignedInteger() bool {
	switch t.Kind {
	case KindU64, KindU32, KindU16, KindU8:
		return true
	}
	return false
}

// IsFloat reports whether t is one of the float kinds.
func (t Type) IsFloat() bool {
	switch t.Kind {
	case KindF64, KindF32, KindF16:
		return true
	}
	return false
}

// IsNumeric reports whether t is an integer or float kind.
func (t Type) IsNumeric() bool { return t.IsInteger() || t.IsFloat() }

// BitWidth returns the bit width of integer and float kinds, else 0.
func (t Type) BitWidth() int {
	switch t.Kind {
	case KindI64, KindU64, KindF64:
		return 64
	case KindI32, KindU32, KindF32:
		return 32
	case KindI16, KindU16, KindF16:
		return 16
	case KindU8:
		return 8
	case KindBool:
		return 1
	}
	return 0
}

// Equal implements structural equality, except for structs, which compare
// by name and ordered field list (spec §3).
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindStruct:
		if t.StructName != o.StructName || len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
				return false
			}
		}
		return true
	case KindArray:
		if t.Length != o.Length {
			return false
		}
		return t.Elem.Equal(*o.Elem)
	case KindPointer:
		if t.Pointee == nil || o.Pointee == nil {
			return t.Pointee == o.Pointee
		}
		return t.Pointee.Equal(*o.Pointee)
	case KindEnum:
		if len(t.Variants) != len(o.Variants) || (t.Discrim == nil) != (o.Discrim == nil) {
			return false
		}
		if t.Discrim != nil && !t.Discrim.Equal(*o.Discrim) {
			return false
		}
		for i := range t.Variants {
			if t.Variants[i] != o.Variants[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// IsComposite reports whether t is a struct or array, which per spec §3
// are never implicitly converted: only an explicit cast to/from them is
// legal, and even that is rejected per spec §4.4.
func (t Type) IsComposite() bool {
	return t.Kind == KindStruct || t.Kind == KindArray
}

func (t Type) String() string {
	switch t.Kind {
	case KindStruct:
		return t.StructName
	case KindEnum:
		return t.EnumName
	case KindArray:
		return fmt.Sprintf("array<%s, %d>", t.Elem, t.Length)
	case KindPointer:
		if t.Pointee == nil {
			return "$void"
		}
		return "$" + t.Pointee.String()
	default:
		return t.Kind.String()
	}
}

// FieldIndex returns the GEP index of a struct field, or -1 if absent.
func (t Type) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FieldType returns the type of a struct field, or false if absent.
func (t Type) FieldType(name string) (Type, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return Type{}, false
}

// VariantValue returns the literal value of an enum variant by name.
func (t Type) VariantValue(name string) (int64, bool) {
	for _, v := range t.Variants {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}
