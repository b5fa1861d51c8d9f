package compiler

import "strings"

// TypeKind is the scalar kind underlying a Type; pointer-ness is tracked
// separately by Type.PointerLevel so "int", "int*" and "int**" all share
// KindInt.
type TypeKind int

const (
	KindVoid TypeKind = iota
	KindInt
	KindBool
	KindFloat
	KindString
)

func (k TypeKind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "?"
	}
}

// Type is a scalar kind plus a pointer depth. A pointer to anything,
// regardless of pointee kind, occupies exactly one stack slot; the pointee's
// own slot size is given by SlotSize once PointerLevel is stripped.
type Type struct {
	Kind         TypeKind
	PointerLevel int
}

func (t Type) String() string {
	if t.PointerLevel == 0 {
		return t.Kind.String()
	}
	return t.Kind.String() + strings.Repeat("*", t.PointerLevel)
}

func (t Type) IsPointer() bool { return t.PointerLevel > 0 }

// Deref returns the type one pointer level down. Callers must check
// IsPointer() first; Deref of a non-pointer type panics.
func (t Type) Deref() Type {
	if t.PointerLevel == 0 {
		panic("compiler: Deref of non-pointer type " + t.String())
	}
	return Type{Kind: t.Kind, PointerLevel: t.PointerLevel - 1}
}

// AddrOf returns the type one pointer level up (the type of &x where x has
// type t).
func (t Type) AddrOf() Type {
	return Type{Kind: t.Kind, PointerLevel: t.PointerLevel + 1}
}

func (t Type) Equal(o Type) bool {
	return t.Kind == o.Kind && t.PointerLevel == o.PointerLevel
}

// SlotSize is the number of stack slots a value of this type occupies. A
// pointer, at any level, is one slot; a bare float is two slots (whole part,
// fractional part, per spec.md's decimal-pair float representation); int,
// bool and string are one slot; void is zero.
func (t Type) SlotSize() int {
	if t.IsPointer() {
		return 1
	}
	switch t.Kind {
	case KindVoid:
		return 0
	case KindFloat:
		return 2
	default:
		return 1
	}
}

var (
	VoidType   = Type{Kind: KindVoid}
	IntType    = Type{Kind: KindInt}
	BoolType   = Type{Kind: KindBool}
	FloatType  = Type{Kind: KindFloat}
	StringType = Type{Kind: KindString}
)

// typeFromKeyword maps a type-introducing TokenType to its scalar Kind.
// Callers combine this with the parsed pointer-star count.
func typeFromKeyword(tt TokenType) (Type, bool) {
	switch tt {
	case INT:
		return IntType, true
	case BOOL:
		return BoolType, true
	case FLOAT:
		return FloatType, true
	case STRING:
		return StringType, true
	case VOID:
		return VoidType, true
	default:
		return Type{}, false
	}
}
