// Package idl models an Anchor Interface Definition document: the named,
// ordered account and instruction declarations of an on-chain program.
//
// Parsing is structural only; whether the declared shapes make sense for a
// given program is the caller's concern.
package idl

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var fasterJson = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is a parsed IDL. Declaration order is preserved everywhere; it
// determines both binary layout (fields) and dispatch order (declarations).
type Document struct {
	// Old-style IDLs carry the program name and version at the top level;
	// new-style IDLs carry them under "metadata".
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Address  string   `json:"address"`
	Metadata Metadata `json:"metadata"`

	Instructions []Instruction `json:"instructions"`
	Accounts     []Account     `json:"accounts"`
	Types        []TypeDef     `json:"types"`
}

type Metadata struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Spec        string `json:"spec"`
	Description string `json:"description"`
}

// ProgramName returns the program name regardless of IDL vintage.
func (doc *Document) ProgramName() string {
	if doc.Metadata.Name != "" {
		return doc.Metadata.Name
	}
	return doc.Name
}

// Account declares one account shape. New-style IDLs supply the
// discriminator and keep the field layout in the top-level "types"
// collection; old-style IDLs inline the layout under "type".
type Account struct {
	Name          string        `json:"name"`
	Discriminator Discriminator `json:"discriminator"`
	Type          *TypeDesc     `json:"type"`
}

// Instruction declares one callable instruction: its argument layout plus
// the accounts it touches. The account metas do not affect the wire layout
// of the instruction data.
type Instruction struct {
	Name          string        `json:"name"`
	Discriminator Discriminator `json:"discriminator"`
	Accounts      []AccountMeta `json:"accounts"`
	Args          []Field       `json:"args"`
}

// AccountMeta describes one account an instruction touches. Both the
// old-style (isMut/isSigner) and new-style (writable/signer) spellings are
// accepted.
type AccountMeta struct {
	Name     string `json:"name"`
	IsMut    bool   `json:"isMut"`
	IsSigner bool   `json:"isSigner"`
	Writable bool   `json:"writable"`
	Signer   bool   `json:"signer"`
}

// Mutable reports whether the account is writable, whatever the spelling.
func (m AccountMeta) Mutable() bool { return m.IsMut || m.Writable }

// Signs reports whether the account must sign, whatever the spelling.
func (m AccountMeta) Signs() bool { return m.IsSigner || m.Signer }

// TypeDef is a named entry of the "types" collection.
type TypeDef struct {
	Name string   `json:"name"`
	Type TypeDesc `json:"type"`
}

// TypeDesc is the layout attached to a type definition. Only struct layouts
// participate in binding; other kinds are preserved so the loader can name
// them in errors.
type TypeDesc struct {
	Kind   string  `json:"kind"`
	Fields []Field `json:"fields"`
}

// Field is one named slot of a struct layout. Order within the owning
// declaration is significant and fixed at parse time.
type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Parse parses an IDL document from raw JSON.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := fasterJson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse IDL document: %w", err)
	}
	return &doc, nil
}

// ParseFile parses an IDL document from a file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read IDL file: %w", err)
	}
	return Parse(data)
}
