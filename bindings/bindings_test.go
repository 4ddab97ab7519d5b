package bindings_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rpcpool/anchorbind/bindings"
	"github.com/rpcpool/anchorbind/sighash"
	"github.com/stretchr/testify/require"
)

const counterIdl = `{
	"name": "counter_program",
	"version": "0.1.0",
	"instructions": [
		{
			"name": "initialize",
			"accounts": [{"name": "counter", "isMut": true, "isSigner": true}],
			"args": [{"name": "initialValue", "type": "u64"}]
		},
		{
			"name": "increment",
			"accounts": [{"name": "counter", "isMut": true, "isSigner": false}],
			"args": []
		}
	],
	"accounts": [
		{
			"name": "Counter",
			"discriminator": [1, 0, 0, 0, 0, 0, 0, 0],
			"type": {"kind": "struct", "fields": [{"name": "value", "type": "u64"}]}
		},
		{
			"name": "Flag",
			"discriminator": [2, 0, 0, 0, 0, 0, 0, 0],
			"type": {"kind": "struct", "fields": [{"name": "set", "type": "bool"}]}
		}
	]
}`

func TestLoadPreservesDeclarationOrder(t *testing.T) {
	table, err := bindings.Load([]byte(counterIdl))
	require.NoError(t, err)

	accounts := table.Bindings(bindings.CategoryAccount)
	require.Len(t, accounts, 2)
	require.Equal(t, "Counter", accounts[0].Name())
	require.Equal(t, "Flag", accounts[1].Name())
	require.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, accounts[0].Discriminator())
	require.Equal(t, []byte{2, 0, 0, 0, 0, 0, 0, 0}, accounts[1].Discriminator())

	instructions := table.Bindings(bindings.CategoryInstruction)
	require.Len(t, instructions, 2)
	require.Equal(t, "initialize", instructions[0].Name())
	require.Equal(t, "increment", instructions[1].Name())
}

func TestDerivedDiscriminators(t *testing.T) {
	table, err := bindings.Load([]byte(counterIdl))
	require.NoError(t, err)

	// No explicit discriminators on the instructions: the binder derives
	// them with the Anchor sighash rule.
	init, ok := table.Lookup(bindings.CategoryInstruction, "initialize")
	require.True(t, ok)
	require.Equal(t, sighash.Instruction("initialize"), init.Discriminator())
	require.Equal(t, []byte{175, 175, 109, 31, 13, 152, 155, 237}, init.Discriminator())

	inc, ok := table.Lookup(bindings.CategoryInstruction, "increment")
	require.True(t, ok)
	require.Equal(t, []byte{11, 18, 104, 9, 104, 174, 59, 33}, inc.Discriminator())
}

func TestBindingCodecRoundTrip(t *testing.T) {
	table, err := bindings.Load([]byte(counterIdl))
	require.NoError(t, err)

	counter, ok := table.Lookup(bindings.CategoryAccount, "Counter")
	require.True(t, ok)

	value := bindings.NewValue("Counter", bindings.F("value", uint64(7)))
	payload, err := counter.Encode(value)
	require.NoError(t, err)
	require.Equal(t, []byte{7, 0, 0, 0, 0, 0, 0, 0}, payload)

	decoded, err := counter.Decode(payload)
	require.NoError(t, err)
	require.Equal(t, value, decoded)
}

func TestBindingDecodeTruncated(t *testing.T) {
	table, err := bindings.Load([]byte(counterIdl))
	require.NoError(t, err)

	counter, ok := table.Lookup(bindings.CategoryAccount, "Counter")
	require.True(t, ok)

	_, err = counter.Decode([]byte{7, 0, 0})
	require.Error(t, err)
}

func TestMarkerShape(t *testing.T) {
	table, err := bindings.Load([]byte(`{
		"name": "markers",
		"accounts": [
			{"name": "Empty", "discriminator": [9], "type": {"kind": "struct", "fields": []}}
		]
	}`))
	require.NoError(t, err)

	empty, ok := table.Lookup(bindings.CategoryAccount, "Empty")
	require.True(t, ok)

	payload, err := empty.Encode(bindings.NewValue("Empty"))
	require.NoError(t, err)
	require.Empty(t, payload)

	decoded, err := empty.Decode(nil)
	require.NoError(t, err)
	require.Equal(t, "Empty", decoded.TypeName())
	require.Empty(t, decoded.Fields())
}

func TestCompositeRoundTrip(t *testing.T) {
	table, err := bindings.Load([]byte(`{
		"name": "escrow_program",
		"accounts": [
			{
				"name": "Escrow",
				"type": {
					"kind": "struct",
					"fields": [
						{"name": "authority", "type": "publicKey"},
						{"name": "label", "type": "string"},
						{"name": "seed", "type": "bytes"},
						{"name": "amounts", "type": {"vec": "u64"}},
						{"name": "window", "type": {"array": ["u8", 4]}},
						{"name": "bump", "type": {"option": "u8"}},
						{"name": "params", "type": {"defined": "EscrowParams"}}
					]
				}
			}
		],
		"types": [
			{
				"name": "EscrowParams",
				"type": {
					"kind": "struct",
					"fields": [
						{"name": "fee", "type": "u16"},
						{"name": "active", "type": "bool"}
					]
				}
			}
		]
	}`))
	require.NoError(t, err)

	escrow, ok := table.Lookup(bindings.CategoryAccount, "Escrow")
	require.True(t, ok)

	authority := solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	bump := uint8(254)
	value := bindings.NewValue("Escrow",
		bindings.F("authority", authority),
		bindings.F("label", "main"),
		bindings.F("seed", []byte{0xde, 0xad}),
		bindings.F("amounts", []any{uint64(1), uint64(2), uint64(3)}),
		bindings.F("window", []any{uint8(1), uint8(2), uint8(3), uint8(4)}),
		bindings.F("bump", bump),
		bindings.F("params", bindings.NewValue("EscrowParams",
			bindings.F("fee", uint16(30)),
			bindings.F("active", true),
		)),
	)

	payload, err := escrow.Encode(value)
	require.NoError(t, err)

	decoded, err := escrow.Decode(payload)
	require.NoError(t, err)
	require.Equal(t, "Escrow", decoded.TypeName())

	got, ok := decoded.Get("authority")
	require.True(t, ok)
	require.Equal(t, authority, got)

	got, ok = decoded.Get("amounts")
	require.True(t, ok)
	require.Equal(t, []any{uint64(1), uint64(2), uint64(3)}, got)

	got, ok = decoded.Get("bump")
	require.True(t, ok)
	require.Equal(t, bump, got)

	got, ok = decoded.Get("params")
	require.True(t, ok)
	params, isValue := got.(*bindings.Value)
	require.True(t, isValue)
	fee, ok := params.Get("fee")
	require.True(t, ok)
	require.Equal(t, uint16(30), fee)

	// Re-encoding the decoded value yields the same bytes.
	reencoded, err := escrow.Encode(decoded)
	require.NoError(t, err)
	require.Equal(t, payload, reencoded)
}

func TestAbsentOption(t *testing.T) {
	table, err := bindings.Load([]byte(`{
		"name": "opt",
		"accounts": [
			{
				"name": "Holder",
				"type": {"kind": "struct", "fields": [{"name": "delegate", "type": {"option": "u32"}}]}
			}
		]
	}`))
	require.NoError(t, err)

	holder, ok := table.Lookup(bindings.CategoryAccount, "Holder")
	require.True(t, ok)

	payload, err := holder.Encode(bindings.NewValue("Holder", bindings.F("delegate", nil)))
	require.NoError(t, err)
	require.Equal(t, []byte{0}, payload)

	decoded, err := holder.Decode(payload)
	require.NoError(t, err)
	delegate, ok := decoded.Get("delegate")
	require.True(t, ok)
	require.Nil(t, delegate)
}

func TestDuplicateAccountName(t *testing.T) {
	_, err := bindings.Load([]byte(`{
		"name": "dup",
		"accounts": [
			{"name": "Counter", "type": {"kind": "struct", "fields": []}},
			{"name": "Counter", "type": {"kind": "struct", "fields": []}}
		]
	}`))
	require.Error(t, err)
	var dup *bindings.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, bindings.CategoryAccount, dup.Category)
	require.Equal(t, "Counter", dup.Name)
}

func TestDuplicateInstructionName(t *testing.T) {
	_, err := bindings.Load([]byte(`{
		"name": "dup",
		"instructions": [
			{"name": "go", "args": []},
			{"name": "go", "args": []}
		]
	}`))
	var dup *bindings.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, bindings.CategoryInstruction, dup.Category)
}

func TestUnresolvedReference(t *testing.T) {
	_, err := bindings.Load([]byte(`{
		"name": "dangling",
		"accounts": [
			{
				"name": "Holder",
				"type": {"kind": "struct", "fields": [{"name": "inner", "type": {"defined": "Missing"}}]}
			}
		]
	}`))
	var unresolved *bindings.UnresolvedReferenceError
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "Holder", unresolved.Owner)
	require.Equal(t, "inner", unresolved.Field)
	require.Equal(t, "Missing", unresolved.Ref)
}

func TestAccountWithoutLayout(t *testing.T) {
	_, err := bindings.Load([]byte(`{
		"name": "nolayout",
		"accounts": [{"name": "Ghost", "discriminator": [1, 2, 3]}]
	}`))
	var unresolved *bindings.UnresolvedReferenceError
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "Ghost", unresolved.Ref)
}

func TestNewStyleAccountLayoutFromTypes(t *testing.T) {
	table, err := bindings.Load([]byte(`{
		"metadata": {"name": "newstyle"},
		"accounts": [
			{"name": "Counter", "discriminator": [255, 176, 4, 245, 188, 253, 124, 25]}
		],
		"types": [
			{"name": "Counter", "type": {"kind": "struct", "fields": [{"name": "value", "type": "u64"}]}}
		]
	}`))
	require.NoError(t, err)

	counter, ok := table.Lookup(bindings.CategoryAccount, "Counter")
	require.True(t, ok)
	require.Len(t, counter.Fields(), 1)
	require.Equal(t, sighash.Account("Counter"), counter.Discriminator())
}

func TestMalformedDocument(t *testing.T) {
	_, err := bindings.Load([]byte(`{`))
	require.ErrorIs(t, err, bindings.ErrMalformed)

	_, err = bindings.Load([]byte(`{
		"name": "dupfield",
		"accounts": [
			{
				"name": "X",
				"type": {"kind": "struct", "fields": [
					{"name": "a", "type": "u8"},
					{"name": "a", "type": "u8"}
				]}
			}
		]
	}`))
	require.ErrorIs(t, err, bindings.ErrMalformed)
}

func TestDuplicateTypeNames(t *testing.T) {
	// Only struct layouts are bindable, but a name collision in "types" is
	// rejected regardless of the declarations' kinds.
	_, err := bindings.Load([]byte(`{
		"name": "duptypes",
		"types": [
			{"name": "Mode", "type": {"kind": "enum"}},
			{"name": "Mode", "type": {"kind": "struct", "fields": []}}
		]
	}`))
	require.ErrorIs(t, err, bindings.ErrMalformed)

	_, err = bindings.Load([]byte(`{
		"name": "duptypes",
		"types": [
			{"name": "Mode", "type": {"kind": "enum"}},
			{"name": "Mode", "type": {"kind": "enum"}}
		]
	}`))
	require.ErrorIs(t, err, bindings.ErrMalformed)
}

func TestValueOrderedJSON(t *testing.T) {
	value := bindings.NewValue("Counter",
		bindings.F("zulu", uint64(1)),
		bindings.F("alpha", true),
		bindings.F("mike", "hi"),
	)
	rendered, err := value.MarshalJSON()
	require.NoError(t, err)
	// Field order is declaration order, not alphabetical.
	require.Equal(t, `{"zulu":1,"alpha":true,"mike":"hi"}`, string(rendered))
}
