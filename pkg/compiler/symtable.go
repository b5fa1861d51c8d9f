package compiler

import "fmt"

// ActivationRecordSize is the three reserved slots (dynamic link, return
// address, static link) written by every callee prologue.
const ActivationRecordSize = 3

type RecordKind int

const (
	VarRecord RecordKind = iota
	FuncRecord
)

// Record is a single symbol-table entry. For a variable, Address is a slot
// offset relative to the owning scope's activation record. For a function,
// Address is the bytecode index of its entry instruction (patched once the
// function's body is generated).
type Record struct {
	Name          string
	Kind          RecordKind
	Type          Type
	IsConst       bool
	Address       int
	Assigned      bool // has this variable been given a value yet
	PointsToStack bool // meaningful only when Type.IsPointer()
	PointeeLevel   int // valid when PointsToStack: the aliased symbol's lookup level
	PointeeAddress int // valid when PointsToStack: the aliased symbol's slot address

	// Function-only fields.
	ParamTypes []Type
	ReturnType Type
	HasBody    bool

	isTemp bool
	inUse  bool
}

type scope struct {
	base            int
	offset          int
	isFunctionScope bool
	order           []string // insertion order, for TakeEmptyTemp iteration
	names           map[string]*Record
}

func newScope(base int, isFunctionScope bool) *scope {
	return &scope{base: base, isFunctionScope: isFunctionScope, names: make(map[string]*Record)}
}

// SymbolTable is a stack of scopes threaded explicitly through one analyzer
// pass or one codegen pass; it is never shared across passes or goroutines.
type SymbolTable struct {
	scopes      []*scope
	tempCounter int
}

// NewSymbolTable returns a table with a single outer, non-function scope
// seeded with every built-in signature (§4.1). Built-ins are inserted with
// Address 0; the generator patches their real entry address once their
// subroutine is emitted.
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{}
	st.scopes = append(st.scopes, newScope(0, false))
	for _, b := range builtinSignatures {
		_, _ = st.Insert(b.name, FuncRecord, b.ret, false, nil)
		rec, _, _ := st.Lookup(b.name)
		rec.ParamTypes = b.params
		rec.ReturnType = b.ret
		rec.HasBody = true
	}
	return st
}

// PushScope opens a nested scope. Per invariant 2, a non-function child's
// base is the parent's base+offset at entry; per invariant 3, a function
// scope restarts addressing at ActivationRecordSize.
func (st *SymbolTable) PushScope(isFunctionScope bool) {
	var base int
	if isFunctionScope {
		base = ActivationRecordSize
	} else {
		parent := st.top()
		base = parent.base + parent.offset
	}
	st.scopes = append(st.scopes, newScope(base, isFunctionScope))
}

func (st *SymbolTable) PopScope() {
	st.scopes = st.scopes[:len(st.scopes)-1]
}

func (st *SymbolTable) top() *scope { return st.scopes[len(st.scopes)-1] }

// Insert adds a new symbol to the current scope. For a variable, address is
// base+offset and offset advances by the type's slot size. For a function,
// explicitAddr supplies the bytecode entry index directly (no offset is
// consumed by functions declared in the global scope).
func (st *SymbolTable) Insert(name string, kind RecordKind, typ Type, isConst bool, explicitAddr *int) (*Record, error) {
	s := st.top()
	if _, exists := s.names[name]; exists {
		return nil, fmt.Errorf("%q already declared in this scope", name)
	}

	rec := &Record{Name: name, Kind: kind, Type: typ, IsConst: isConst}
	if kind == FuncRecord {
		if explicitAddr != nil {
			rec.Address = *explicitAddr
		}
	} else {
		rec.Address = s.base + s.offset
		s.offset += typ.SlotSize()
	}

	s.names[name] = rec
	s.order = append(s.order, name)
	return rec, nil
}

// Lookup walks scopes inner to outer. level is the number of enclosing
// function-scope boundaries crossed before the symbol was found (invariant
// 4) — plain block scopes do not increment it.
func (st *SymbolTable) Lookup(name string) (*Record, int, bool) {
	level := 0
	for i := len(st.scopes) - 1; i >= 0; i-- {
		s := st.scopes[i]
		if rec, ok := s.names[name]; ok {
			return rec, level, true
		}
		if s.isFunctionScope {
			level++
		}
	}
	return nil, 0, false
}

// LookupLocal reports whether name is declared in the current scope only,
// used by declaration-uniqueness checks that need a scope-local answer
// distinct from the shadow-permitting Lookup.
func (st *SymbolTable) LookupLocal(name string) (*Record, bool) {
	rec, ok := st.top().names[name]
	return rec, ok
}

// AllocateTemps reserves len(sizes) scratch slots in the current scope,
// named by a monotonically increasing internal counter so they never
// collide with user identifiers.
func (st *SymbolTable) AllocateTemps(sizes []int) []*Record {
	recs := make([]*Record, len(sizes))
	for i, size := range sizes {
		name := fmt.Sprintf("$t%d", st.tempCounter)
		st.tempCounter++
		typ := IntType
		if size == 2 {
			typ = FloatType
		}
		rec, err := st.Insert(name, VarRecord, typ, false, nil)
		if err != nil {
			devErr("temp collision allocating %s: %v", name, err)
		}
		rec.isTemp = true
		rec.inUse = true
		recs[i] = rec
	}
	return recs
}

// TakeEmptyTemp rents back a previously allocated, currently-idle temp of
// the requested slot size from the current scope, or reports false if none
// is available.
func (st *SymbolTable) TakeEmptyTemp(size int) (*Record, bool) {
	for _, name := range st.top().order {
		rec := st.top().names[name]
		if rec.isTemp && !rec.inUse && rec.Type.SlotSize() == size {
			rec.inUse = true
			return rec, true
		}
	}
	return nil, false
}

// ReleaseTemp returns a temp to the idle pool without removing it from the
// scope, so a later TakeEmptyTemp of matching size can reuse its address.
func (st *SymbolTable) ReleaseTemp(rec *Record) { rec.inUse = false }

