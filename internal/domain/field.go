package domain

import "fmt"

// FieldKind identifies a syslog entry field.
type FieldKind uint8

const (
	FieldID FieldKind = iota
	FieldTimestamp
	FieldKernelTime
	FieldHostname
	FieldFacility
	FieldPriority
	FieldTag
	FieldMessage
)

// ValueType is the decoded representation of a field.
type ValueType uint8

const (
	TypeTime ValueType = iota
	TypeInteger
	TypeUnsignedInteger
	TypeString
)

func (t ValueType) String() string {
	switch t {
	case TypeTime:
		return "time"
	case TypeInteger:
		return "integer"
	case TypeUnsignedInteger:
		return "uinteger"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(t))
	}
}

// Validator reports whether a decoded string value is acceptable for a field.
type Validator func(value string) bool

// FieldInfo is the static metadata of a field kind.
type FieldInfo struct {
	Kind      FieldKind
	Type      ValueType
	Spec      byte // specifier letter, 0 when not reachable from a spec string
	ParamName string
	HumanName string
	Validator Validator
}

var fieldInfos = [...]FieldInfo{
	FieldID:         {Kind: FieldID, Type: TypeUnsignedInteger, ParamName: "id", HumanName: "ID"},
	FieldTimestamp:  {Kind: FieldTimestamp, Type: TypeTime, Spec: 'T', ParamName: "timestamp", HumanName: "Timestamp"},
	FieldKernelTime: {Kind: FieldKernelTime, Type: TypeInteger, ParamName: "ktime", HumanName: "Kernel time"},
	FieldHostname:   {Kind: FieldHostname, Type: TypeString, Spec: 'H', ParamName: "hostname", HumanName: "Hostname"},
	FieldFacility:   {Kind: FieldFacility, Type: TypeString, Spec: 'F', ParamName: "facility", HumanName: "Facility", Validator: ValidFacility},
	FieldPriority:   {Kind: FieldPriority, Type: TypeString, Spec: 'P', ParamName: "priority", HumanName: "Priority", Validator: ValidPriority},
	FieldTag:        {Kind: FieldTag, Type: TypeString, Spec: 'G', ParamName: "tag", HumanName: "Tag"},
	FieldMessage:    {Kind: FieldMessage, Type: TypeString, Spec: 'M', ParamName: "message", HumanName: "Message"},
}

// Info returns the static metadata of the kind.
func (k FieldKind) Info() *FieldInfo {
	if int(k) >= len(fieldInfos) {
		return nil
	}
	return &fieldInfos[k]
}

func (k FieldKind) String() string {
	if info := k.Info(); info != nil {
		return info.ParamName
	}
	return fmt.Sprintf("FieldKind(%d)", uint8(k))
}

// Kinds returns every known field kind in registry order.
func Kinds() []FieldKind {
	kinds := make([]FieldKind, len(fieldInfos))
	for i := range fieldInfos {
		kinds[i] = FieldKind(i)
	}
	return kinds
}

// Registry maps specifier letters to field metadata.
// The zero value is empty; use DefaultRegistry for the documented letters.
type Registry struct {
	bySpec map[byte]*FieldInfo
}

// DefaultRegistry holds the documented specifier letters T, H, F, P, G and M.
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() Registry {
	r := Registry{bySpec: make(map[byte]*FieldInfo)}
	for i := range fieldInfos {
		if fieldInfos[i].Spec != 0 {
			r.bySpec[fieldInfos[i].Spec] = &fieldInfos[i]
		}
	}
	return r
}

// Lookup returns the field metadata registered for the specifier letter.
func (r Registry) Lookup(spec byte) (*FieldInfo, bool) {
	info, ok := r.bySpec[spec]
	return info, ok
}

// With returns a copy of the registry where spec selects kind.
// It makes registry entries without a documented letter (ID, kernel time) reachable.
func (r Registry) With(spec byte, kind FieldKind) Registry {
	out := Registry{bySpec: make(map[byte]*FieldInfo, len(r.bySpec)+1)}
	for k, v := range r.bySpec {
		out.bySpec[k] = v
	}
	info := *kind.Info()
	info.Spec = spec
	out.bySpec[spec] = &info
	return out
}

// FieldFlags modify how a single field is decoded and rendered.
type FieldFlags uint8

const (
	// FlagDrop excludes the field from output and from the duplicate check.
	FlagDrop FieldFlags = 1 << iota
	// FlagNoTrim keeps leading whitespace of the value.
	FlagNoTrim
	// FlagNoValidate skips the field validator.
	FlagNoValidate
)

func (f FieldFlags) Has(flag FieldFlags) bool { return f&flag != 0 }

// FieldMask is a set of field kinds.
type FieldMask uint32

func (m FieldMask) Has(k FieldKind) bool { return m&(1<<k) != 0 }

func (m FieldMask) With(k FieldKind) FieldMask { return m | 1<<k }

// Descriptor is one compiled field of an entry specification.
// Start and Stop are 0 when absent; a zero Stop means "up to the end of the line".
type Descriptor struct {
	Info  *FieldInfo
	Flags FieldFlags
	Start byte
	Stop  byte
}

func (d Descriptor) Dropped() bool { return d.Flags.Has(FlagDrop) }
