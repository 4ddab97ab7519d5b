// Package dispatch recovers typed values from untyped byte buffers: given
// a binding table and a category, it identifies which declared shape a
// buffer matches (by discriminator) and decodes it.
//
// A Registry is a read-only view over an immutable bindings.Table; every
// operation is a pure function of (table, category, bytes) and is safe for
// concurrent use without synchronization.
package dispatch

import (
	"bytes"

	"github.com/rpcpool/anchorbind/bindings"
)

// Variant is one decoded buffer: the matched binding's name and its value.
// At most one shape is ever live per decoded buffer.
type Variant struct {
	Name  string
	Value *bindings.Value
}

// Registry dispatches over one category of a binding table.
type Registry struct {
	table    *bindings.Table
	category bindings.Category
}

// Accounts returns the closed-variant view over the table's accounts.
func Accounts(table *bindings.Table) *Registry {
	return &Registry{table: table, category: bindings.CategoryAccount}
}

// Instructions returns the closed-variant view over the table's
// instructions.
func Instructions(table *bindings.Table) *Registry {
	return &Registry{table: table, category: bindings.CategoryInstruction}
}

// Category returns the category this registry dispatches over.
func (r *Registry) Category() bindings.Category { return r.category }

// Names returns the binding names in declaration order.
func (r *Registry) Names() []string {
	bs := r.table.Bindings(r.category)
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = b.Name()
	}
	return names
}

// IdentifyAndDecode scans the bindings in declaration order and returns the
// first whose discriminator prefixes the buffer, decoded.
//
// Declaration order is the tie-break: if two bindings carry the same
// discriminator, the earlier-declared one wins, always.
//
// A discriminator match is authoritative. If the payload then fails to
// decode, the failure is reported as *CorruptPayloadError for the matched
// name; later bindings are NOT tried, even if one of them could decode the
// same bytes. If no discriminator matches at all, ErrUnknownVariant is
// returned.
func (r *Registry) IdentifyAndDecode(data []byte) (*Variant, error) {
	for _, binding := range r.table.Bindings(r.category) {
		discriminator := binding.Discriminator()
		if len(data) < len(discriminator) || !bytes.Equal(data[:len(discriminator)], discriminator) {
			continue
		}
		value, err := binding.Decode(data[len(discriminator):])
		if err != nil {
			return nil, &CorruptPayloadError{Name: binding.Name(), Err: err}
		}
		return &Variant{Name: binding.Name(), Value: value}, nil
	}
	return nil, ErrUnknownVariant
}

// Encode serializes the named binding's value: discriminator first, then
// the field encoding. Together with IdentifyAndDecode it round-trips:
// decoding an encoded (name, value) yields the same pair back.
func (r *Registry) Encode(name string, value *bindings.Value) ([]byte, error) {
	binding, ok := r.table.Lookup(r.category, name)
	if !ok {
		return nil, &UnknownNameError{Name: name}
	}
	payload, err := binding.Encode(value)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(binding.Discriminator())+len(payload))
	out = append(out, binding.Discriminator()...)
	out = append(out, payload...)
	return out, nil
}
