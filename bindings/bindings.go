// Package bindings turns a parsed IDL document into a binding table: one
// immutable (name, discriminator, codec) triple per declared account and
// instruction, in declaration order.
//
// The table is built once, is read-only afterwards, and is safe to share
// across goroutines.
package bindings

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/rpcpool/anchorbind/idl"
	"github.com/rpcpool/anchorbind/sighash"
)

// Category selects one of the two binding collections of a table.
type Category int

const (
	CategoryAccount Category = iota
	CategoryInstruction
)

func (c Category) String() string {
	switch c {
	case CategoryAccount:
		return "account"
	case CategoryInstruction:
		return "instruction"
	default:
		return fmt.Sprintf("unknown category %d", int(c))
	}
}

// TypeBinding is one declared shape: its name, discriminator, ordered field
// layout and codec. Immutable after Build.
type TypeBinding struct {
	name          string
	discriminator []byte
	fields        []idl.Field
	res           resolver
}

// Name returns the declared type name.
func (b *TypeBinding) Name() string { return b.name }

// Discriminator returns the binding's tag. Callers must not modify the
// returned slice.
func (b *TypeBinding) Discriminator() []byte { return b.discriminator }

// Fields returns the ordered field layout. Callers must not modify the
// returned slice.
func (b *TypeBinding) Fields() []idl.Field { return b.fields }

// Encode serializes the value's fields in declared order. The result does
// NOT include the discriminator; prepending it is the dispatcher's job.
func (b *TypeBinding) Encode(value *Value) ([]byte, error) {
	if value == nil {
		return nil, fmt.Errorf("%s: cannot encode nil value", b.name)
	}
	var buf bytes.Buffer
	encoder := bin.NewBorshEncoder(&buf)
	if err := encodeFields(encoder, b.name, b.fields, value, b.res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes a value from payload bytes (the buffer after the
// discriminator has been stripped). Trailing bytes beyond the declared
// layout are tolerated; truncation is an error.
func (b *TypeBinding) Decode(payload []byte) (*Value, error) {
	decoder := bin.NewBorshDecoder(payload)
	return decodeFields(decoder, b.name, b.fields, b.res)
}

// Table holds the bindings of one IDL document, one ordered collection per
// category. Built once by Build; read-only afterwards.
type Table struct {
	accounts     []*TypeBinding
	instructions []*TypeBinding
	byName       map[Category]map[string]*TypeBinding
}

// Bindings returns the category's bindings in declaration order. Callers
// must not modify the returned slice.
func (t *Table) Bindings(category Category) []*TypeBinding {
	switch category {
	case CategoryAccount:
		return t.accounts
	case CategoryInstruction:
		return t.instructions
	default:
		return nil
	}
}

// Lookup returns the named binding of the category.
func (t *Table) Lookup(category Category, name string) (*TypeBinding, bool) {
	b, ok := t.byName[category][name]
	return b, ok
}

// Load parses raw IDL JSON and builds its binding table.
func Load(data []byte) (*Table, error) {
	doc, err := idl.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	return Build(doc)
}

// LoadFile reads and parses an IDL file and builds its binding table.
func LoadFile(path string) (*Table, error) {
	doc, err := idl.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	return Build(doc)
}

// Build converts a parsed document into a Table. It is all-or-nothing: any
// duplicate name, unresolved reference or structurally unusable declaration
// fails the whole build. The table keeps no reference to the document.
func Build(doc *idl.Document) (*Table, error) {
	res, err := buildResolver(doc)
	if err != nil {
		return nil, err
	}

	table := &Table{
		byName: map[Category]map[string]*TypeBinding{
			CategoryAccount:     make(map[string]*TypeBinding, len(doc.Accounts)),
			CategoryInstruction: make(map[string]*TypeBinding, len(doc.Instructions)),
		},
	}

	for _, acc := range doc.Accounts {
		if _, ok := table.byName[CategoryAccount][acc.Name]; ok {
			return nil, &DuplicateNameError{Category: CategoryAccount, Name: acc.Name}
		}
		fields, err := accountFields(acc, res)
		if err != nil {
			return nil, err
		}
		if err := validateFields(acc.Name, fields, res); err != nil {
			return nil, err
		}
		discriminator := []byte(acc.Discriminator)
		if len(discriminator) == 0 {
			discriminator = sighash.Account(acc.Name)
		}
		binding := &TypeBinding{
			name:          acc.Name,
			discriminator: discriminator,
			fields:        fields,
			res:           res,
		}
		table.accounts = append(table.accounts, binding)
		table.byName[CategoryAccount][acc.Name] = binding
	}

	for _, ix := range doc.Instructions {
		if _, ok := table.byName[CategoryInstruction][ix.Name]; ok {
			return nil, &DuplicateNameError{Category: CategoryInstruction, Name: ix.Name}
		}
		if err := validateFields(ix.Name, ix.Args, res); err != nil {
			return nil, err
		}
		discriminator := []byte(ix.Discriminator)
		if len(discriminator) == 0 {
			discriminator = sighash.Instruction(ix.Name)
		}
		binding := &TypeBinding{
			name:          ix.Name,
			discriminator: discriminator,
			fields:        ix.Args,
			res:           res,
		}
		table.instructions = append(table.instructions, binding)
		table.byName[CategoryInstruction][ix.Name] = binding
	}

	return table, nil
}

// buildResolver collects the document's named struct layouts so defined
// references can be resolved. Non-struct kinds (enums etc.) are not
// bindable; declaring one is fine, referencing one is not.
func buildResolver(doc *idl.Document) (resolver, error) {
	res := make(resolver, len(doc.Types))
	seen := make(map[string]struct{}, len(doc.Types))
	for _, def := range doc.Types {
		if _, ok := seen[def.Name]; ok {
			return nil, fmt.Errorf("%w: type %q declared twice", ErrMalformed, def.Name)
		}
		seen[def.Name] = struct{}{}
		if def.Type.Kind != "struct" {
			continue
		}
		res[def.Name] = def.Type.Fields
	}
	// Validate the layouts themselves after all names are known, so that
	// types may reference each other regardless of declaration order.
	for _, def := range doc.Types {
		if def.Type.Kind != "struct" {
			continue
		}
		if err := validateFields(def.Name, def.Type.Fields, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// accountFields returns an account's field layout: inline under "type" for
// old-style IDLs, or the same-named entry of the "types" collection for
// new-style ones.
func accountFields(acc idl.Account, res resolver) ([]idl.Field, error) {
	if acc.Type != nil {
		if acc.Type.Kind != "struct" {
			return nil, fmt.Errorf("%w: account %q has unsupported layout kind %q", ErrMalformed, acc.Name, acc.Type.Kind)
		}
		return acc.Type.Fields, nil
	}
	if fields, ok := res[acc.Name]; ok {
		return fields, nil
	}
	return nil, &UnresolvedReferenceError{Owner: acc.Name, Field: "", Ref: acc.Name}
}

func validateFields(owner string, fields []idl.Field, res resolver) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("%w: field %q declared twice in %q", ErrMalformed, f.Name, owner)
		}
		seen[f.Name] = struct{}{}
		if err := validateType(owner, f.Name, f.Type, res); err != nil {
			return err
		}
	}
	return nil
}

func validateType(owner, field string, ty idl.Type, res resolver) error {
	switch ty.Kind {
	case idl.KindPrimitive:
		return nil
	case idl.KindVec, idl.KindArray, idl.KindOption:
		return validateType(owner, field, *ty.Elem, res)
	case idl.KindDefined:
		if _, ok := res[ty.Defined]; !ok {
			return &UnresolvedReferenceError{Owner: owner, Field: field, Ref: ty.Defined}
		}
		return nil
	default:
		return fmt.Errorf("%w: field %q of %q has unknown type kind", ErrMalformed, field, owner)
	}
}
