package dispatch_test

import (
	"testing"

	"github.com/rpcpool/anchorbind/bindings"
	"github.com/rpcpool/anchorbind/dispatch"
	"github.com/stretchr/testify/require"
)

const counterIdl = `{
	"name": "counter_program",
	"instructions": [
		{
			"name": "initialize",
			"discriminator": [10, 0, 0, 0, 0, 0, 0, 0],
			"args": [{"name": "initialValue", "type": "u64"}]
		},
		{
			"name": "setFlag",
			"discriminator": [20, 0, 0, 0, 0, 0, 0, 0],
			"args": [{"name": "set", "type": "bool"}]
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

func mustTable(t *testing.T, doc string) *bindings.Table {
	t.Helper()
	table, err := bindings.Load([]byte(doc))
	require.NoError(t, err)
	return table
}

func TestIdentifyAndDecode(t *testing.T) {
	registry := dispatch.Accounts(mustTable(t, counterIdl))

	variant, err := registry.IdentifyAndDecode([]byte{
		1, 0, 0, 0, 0, 0, 0, 0, // Counter discriminator
		7, 0, 0, 0, 0, 0, 0, 0, // value = 7
	})
	require.NoError(t, err)
	require.Equal(t, "Counter", variant.Name)
	value, ok := variant.Value.Get("value")
	require.True(t, ok)
	require.Equal(t, uint64(7), value)

	variant, err = registry.IdentifyAndDecode([]byte{2, 0, 0, 0, 0, 0, 0, 0, 1})
	require.NoError(t, err)
	require.Equal(t, "Flag", variant.Name)
	set, ok := variant.Value.Get("set")
	require.True(t, ok)
	require.Equal(t, true, set)
}

func TestIdentifyUnknownVariant(t *testing.T) {
	registry := dispatch.Accounts(mustTable(t, counterIdl))

	_, err := registry.IdentifyAndDecode(nil)
	require.ErrorIs(t, err, dispatch.ErrUnknownVariant)

	_, err = registry.IdentifyAndDecode([]byte{})
	require.ErrorIs(t, err, dispatch.ErrUnknownVariant)

	// Shorter than any discriminator.
	_, err = registry.IdentifyAndDecode([]byte{1, 0, 0})
	require.ErrorIs(t, err, dispatch.ErrUnknownVariant)

	// Full-length prefix that matches nothing.
	_, err = registry.IdentifyAndDecode([]byte{9, 9, 9, 9, 9, 9, 9, 9, 0})
	require.ErrorIs(t, err, dispatch.ErrUnknownVariant)
}

func TestIdentifyCorruptPayload(t *testing.T) {
	registry := dispatch.Accounts(mustTable(t, counterIdl))

	// Discriminator alone: identified as Counter, but the u64 payload is
	// missing. Never reported as an unknown variant.
	_, err := registry.IdentifyAndDecode([]byte{1, 0, 0, 0, 0, 0, 0, 0})
	var corrupt *dispatch.CorruptPayloadError
	require.ErrorAs(t, err, &corrupt)
	require.Equal(t, "Counter", corrupt.Name)
	require.NotErrorIs(t, err, dispatch.ErrUnknownVariant)

	// Truncated payload behaves the same.
	_, err = registry.IdentifyAndDecode([]byte{1, 0, 0, 0, 0, 0, 0, 0, 7, 0})
	require.ErrorAs(t, err, &corrupt)
	require.Equal(t, "Counter", corrupt.Name)
}

func TestDeclarationOrderTieBreak(t *testing.T) {
	// Two bindings with the same discriminator: the earlier-declared one
	// wins, and its decode failure is authoritative even though the later
	// binding could decode the same bytes.
	const colliding = `{
		"name": "colliding",
		"accounts": [
			{
				"name": "Wide",
				"discriminator": [5],
				"type": {"kind": "struct", "fields": [{"name": "value", "type": "u64"}]}
			},
			{
				"name": "Narrow",
				"discriminator": [5],
				"type": {"kind": "struct", "fields": [{"name": "set", "type": "bool"}]}
			}
		]
	}`
	registry := dispatch.Accounts(mustTable(t, colliding))

	variant, err := registry.IdentifyAndDecode([]byte{5, 1, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	require.Equal(t, "Wide", variant.Name)

	// One payload byte: decodes fine as Narrow, but Wide matched first.
	_, err = registry.IdentifyAndDecode([]byte{5, 1})
	var corrupt *dispatch.CorruptPayloadError
	require.ErrorAs(t, err, &corrupt)
	require.Equal(t, "Wide", corrupt.Name)
}

func TestVariableLengthDiscriminators(t *testing.T) {
	// A one-byte discriminator declared after an eight-byte one must not
	// shadow it: prefix matching is per-binding, in declaration order.
	const mixed = `{
		"name": "mixed",
		"accounts": [
			{
				"name": "Long",
				"discriminator": [3, 3, 3, 3, 3, 3, 3, 3],
				"type": {"kind": "struct", "fields": []}
			},
			{
				"name": "Short",
				"discriminator": [3],
				"type": {"kind": "struct", "fields": [{"name": "rest", "type": "bytes"}]}
			}
		]
	}`
	registry := dispatch.Accounts(mustTable(t, mixed))

	variant, err := registry.IdentifyAndDecode([]byte{3, 3, 3, 3, 3, 3, 3, 3})
	require.NoError(t, err)
	require.Equal(t, "Long", variant.Name)

	variant, err = registry.IdentifyAndDecode([]byte{3, 0, 0, 0, 0})
	require.NoError(t, err)
	require.Equal(t, "Short", variant.Name)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	registry := dispatch.Accounts(mustTable(t, counterIdl))

	value := bindings.NewValue("Counter", bindings.F("value", uint64(42)))
	data, err := registry.Encode("Counter", value)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 42, 0, 0, 0, 0, 0, 0, 0}, data)

	variant, err := registry.IdentifyAndDecode(data)
	require.NoError(t, err)
	require.Equal(t, "Counter", variant.Name)
	require.Equal(t, value, variant.Value)
}

func TestEncodeUnknownName(t *testing.T) {
	registry := dispatch.Accounts(mustTable(t, counterIdl))

	_, err := registry.Encode("Missing", bindings.NewValue("Missing"))
	var unknown *dispatch.UnknownNameError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "Missing", unknown.Name)
}

func TestCategoriesAreIndependent(t *testing.T) {
	table := mustTable(t, counterIdl)
	accounts := dispatch.Accounts(table)
	instructions := dispatch.Instructions(table)

	require.Equal(t, bindings.CategoryAccount, accounts.Category())
	require.Equal(t, bindings.CategoryInstruction, instructions.Category())
	require.Equal(t, []string{"Counter", "Flag"}, accounts.Names())
	require.Equal(t, []string{"initialize", "setFlag"}, instructions.Names())

	// An instruction buffer is an unknown variant to the account registry.
	data, err := instructions.Encode("setFlag", bindings.NewValue("setFlag", bindings.F("set", true)))
	require.NoError(t, err)
	_, err = accounts.IdentifyAndDecode(data)
	require.ErrorIs(t, err, dispatch.ErrUnknownVariant)
}
