// Package codegen emits typed Go source for a bound IDL: one struct per
// declared account and instruction (plus the defined helper types), a
// discriminator constant per binding, Borsh marshal/unmarshal methods, and
// per-category parse functions implementing the same ordered first-match
// dispatch as the runtime registry.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/rpcpool/anchorbind/bindings"
	"github.com/rpcpool/anchorbind/idl"
)

type Options struct {
	// PackageName of the generated file. Defaults to the program name.
	PackageName string
}

// Generate renders one self-contained Go source file for the document. The
// table supplies the discriminators so that generated and runtime dispatch
// can never disagree.
func Generate(doc *idl.Document, table *bindings.Table, opts Options) ([]byte, error) {
	view, err := buildFileView(doc, table, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render generated code: %w", err)
	}
	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generated code does not format: %w", err)
	}
	return formatted, nil
}

type fileView struct {
	Package      string
	Program      string
	Address      string
	NeedsSolana  bool
	Accounts     []typeView
	Instructions []typeView
	Types        []typeView
}

type typeView struct {
	GoName   string
	IdlName  string
	DiscName string
	DiscLit  string // rendered []byte literal body
	Fields   []fieldView
}

type fieldView struct {
	GoName   string
	GoType   string
	Optional bool
	ElemType string // pointee type when Optional
}

func buildFileView(doc *idl.Document, table *bindings.Table, opts Options) (*fileView, error) {
	view := &fileView{
		Package: opts.PackageName,
		Program: doc.ProgramName(),
		Address: doc.Address,
	}
	if view.Package == "" {
		view.Package = strings.ToLower(strings.ReplaceAll(doc.ProgramName(), "-", "_"))
	}
	if view.Package == "" {
		return nil, fmt.Errorf("cannot derive a package name: document has no program name and no package override was given")
	}

	for _, binding := range table.Bindings(bindings.CategoryAccount) {
		tv, err := buildTypeView(binding.Name(), exportedName(binding.Name()), "AccountDiscriminator_", binding, view)
		if err != nil {
			return nil, err
		}
		view.Accounts = append(view.Accounts, tv)
	}
	for _, binding := range table.Bindings(bindings.CategoryInstruction) {
		goName := exportedName(binding.Name()) + "Instruction"
		tv, err := buildTypeView(binding.Name(), goName, "InstructionDiscriminator_", binding, view)
		if err != nil {
			return nil, err
		}
		view.Instructions = append(view.Instructions, tv)
	}
	// New-style IDLs re-declare each account's layout under "types"; the
	// account struct already covers those, so skip them here to avoid
	// emitting the same declaration twice.
	accountNames := make(map[string]struct{}, len(doc.Accounts))
	for _, acc := range doc.Accounts {
		accountNames[acc.Name] = struct{}{}
	}
	for _, def := range doc.Types {
		if def.Type.Kind != "struct" {
			continue
		}
		if _, ok := accountNames[def.Name]; ok {
			continue
		}
		fields, err := buildFieldViews(def.Type.Fields, view)
		if err != nil {
			return nil, err
		}
		view.Types = append(view.Types, typeView{
			GoName:  exportedName(def.Name),
			IdlName: def.Name,
			Fields:  fields,
		})
	}
	return view, nil
}

func buildTypeView(idlName, goName, discPrefix string, binding *bindings.TypeBinding, view *fileView) (typeView, error) {
	fields, err := buildFieldViews(binding.Fields(), view)
	if err != nil {
		return typeView{}, err
	}
	return typeView{
		GoName:   goName,
		IdlName:  idlName,
		DiscName: discPrefix + exportedName(idlName),
		DiscLit:  bytesLit(binding.Discriminator()),
		Fields:   fields,
	}, nil
}

func buildFieldViews(specs []idl.Field, view *fileView) ([]fieldView, error) {
	var out []fieldView
	for _, spec := range specs {
		goType, err := goTypeOf(spec.Type, view)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", spec.Name, err)
		}
		fv := fieldView{
			GoName: exportedName(spec.Name),
			GoType: goType,
		}
		if spec.Type.Kind == idl.KindOption {
			fv.Optional = true
			elem, err := goTypeOf(*spec.Type.Elem, view)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", spec.Name, err)
			}
			fv.ElemType = elem
		}
		out = append(out, fv)
	}
	return out, nil
}

var primitiveGoTypes = map[string]string{
	idl.TypeBool:   "bool",
	idl.TypeU8:     "uint8",
	idl.TypeI8:     "int8",
	idl.TypeU16:    "uint16",
	idl.TypeI16:    "int16",
	idl.TypeU32:    "uint32",
	idl.TypeI32:    "int32",
	idl.TypeU64:    "uint64",
	idl.TypeI64:    "int64",
	idl.TypeU128:   "ag_binary.Uint128",
	idl.TypeI128:   "ag_binary.Int128",
	idl.TypeF32:    "float32",
	idl.TypeF64:    "float64",
	idl.TypeString: "string",
	idl.TypeBytes:  "[]byte",
}

func goTypeOf(ty idl.Type, view *fileView) (string, error) {
	switch ty.Kind {
	case idl.KindPrimitive:
		if ty.Primitive == idl.TypePublicKey {
			view.NeedsSolana = true
			return "ag_solanago.PublicKey", nil
		}
		goType, ok := primitiveGoTypes[ty.Primitive]
		if !ok {
			return "", fmt.Errorf("no Go type for primitive %q", ty.Primitive)
		}
		return goType, nil
	case idl.KindVec:
		elem, err := goTypeOf(*ty.Elem, view)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case idl.KindArray:
		elem, err := goTypeOf(*ty.Elem, view)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%d]%s", ty.Len, elem), nil
	case idl.KindOption:
		elem, err := goTypeOf(*ty.Elem, view)
		if err != nil {
			return "", err
		}
		return "*" + elem, nil
	case idl.KindDefined:
		return exportedName(ty.Defined), nil
	default:
		return "", fmt.Errorf("no Go type for %s", ty)
	}
}

// exportedName converts snake_case or camelCase to an exported Go
// identifier.
func exportedName(name string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range name {
		if r == '_' || r == '-' {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteString(strings.ToUpper(string(r)))
			upperNext = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func bytesLit(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}

var fileTemplate = template.Must(template.New("file").Parse(`// Code generated by anchorbind. DO NOT EDIT.
//
// Program: {{.Program}}{{if .Address}} ({{.Address}}){{end}}

package {{.Package}}

import (
	"bytes"

	ag_binary "github.com/gagliardetto/binary"
{{- if .NeedsSolana}}
	ag_solanago "github.com/gagliardetto/solana-go"
{{- end}}
	"github.com/rpcpool/anchorbind/dispatch"
)

{{define "structType"}}
type {{.GoName}} struct {
{{- range .Fields}}
	{{.GoName}} {{.GoType}}
{{- end}}
}

func (obj {{.GoName}}) MarshalWithEncoder(encoder *ag_binary.Encoder) error {
{{- range .Fields}}
{{- if .Optional}}
	if obj.{{.GoName}} == nil {
		if err := encoder.WriteBool(false); err != nil {
			return err
		}
	} else {
		if err := encoder.WriteBool(true); err != nil {
			return err
		}
		if err := encoder.Encode(*obj.{{.GoName}}); err != nil {
			return err
		}
	}
{{- else}}
	if err := encoder.Encode(obj.{{.GoName}}); err != nil {
		return err
	}
{{- end}}
{{- end}}
	return nil
}

func (obj *{{.GoName}}) UnmarshalWithDecoder(decoder *ag_binary.Decoder) error {
{{- range .Fields}}
{{- if .Optional}}
	{
		present, err := decoder.ReadBool()
		if err != nil {
			return err
		}
		if present {
			obj.{{.GoName}} = new({{.ElemType}})
			if err := decoder.Decode(obj.{{.GoName}}); err != nil {
				return err
			}
		}
	}
{{- else}}
	if err := decoder.Decode(&obj.{{.GoName}}); err != nil {
		return err
	}
{{- end}}
{{- end}}
	return nil
}
{{end}}

{{- range .Types}}
{{template "structType" .}}
{{- end}}

{{- range .Accounts}}
var {{.DiscName}} = []byte{ {{.DiscLit}} }
{{template "structType" .}}
// Marshal serializes the account: discriminator first, then the fields.
func (obj {{.GoName}}) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.Write({{.DiscName}}); err != nil {
		return nil, err
	}
	if err := obj.MarshalWithEncoder(ag_binary.NewBorshEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
{{- end}}

{{- range .Instructions}}
var {{.DiscName}} = []byte{ {{.DiscLit}} }
{{template "structType" .}}
// Marshal serializes the instruction data: discriminator first, then the
// arguments.
func (obj {{.GoName}}) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.Write({{.DiscName}}); err != nil {
		return nil, err
	}
	if err := obj.MarshalWithEncoder(ag_binary.NewBorshEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
{{- end}}

func discriminatorMatches(data []byte, discriminator []byte) bool {
	return len(data) >= len(discriminator) && bytes.Equal(data[:len(discriminator)], discriminator)
}

// ParseAnyAccount identifies which declared account shape the buffer holds
// and decodes it. Shapes are tried in IDL declaration order; the first
// discriminator match is authoritative: a payload that then fails to decode
// is reported as corrupt, not retried against later shapes.
func ParseAnyAccount(data []byte) (string, any, error) {
	switch {
{{- range .Accounts}}
	case discriminatorMatches(data, {{.DiscName}}):
		var obj {{.GoName}}
		if err := obj.UnmarshalWithDecoder(ag_binary.NewBorshDecoder(data[len({{.DiscName}}):])); err != nil {
			return "", nil, &dispatch.CorruptPayloadError{Name: {{printf "%q" .IdlName}}, Err: err}
		}
		return {{printf "%q" .IdlName}}, &obj, nil
{{- end}}
	}
	return "", nil, dispatch.ErrUnknownVariant
}

// ParseAnyInstruction identifies which declared instruction the data
// belongs to and decodes its arguments. Same ordering and error contract
// as ParseAnyAccount.
func ParseAnyInstruction(data []byte) (string, any, error) {
	switch {
{{- range .Instructions}}
	case discriminatorMatches(data, {{.DiscName}}):
		var obj {{.GoName}}
		if err := obj.UnmarshalWithDecoder(ag_binary.NewBorshDecoder(data[len({{.DiscName}}):])); err != nil {
			return "", nil, &dispatch.CorruptPayloadError{Name: {{printf "%q" .IdlName}}, Err: err}
		}
		return {{printf "%q" .IdlName}}, &obj, nil
{{- end}}
	}
	return "", nil, dispatch.ErrUnknownVariant
}
`))
