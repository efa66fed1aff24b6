package header

import "strings"

// InnerType is the base kind of a plugin parameter type.
type InnerType string

const (
	TypeString          InnerType = "string"
	TypeMultilineString InnerType = "multiline_string"
	TypeBoolean         InnerType = "boolean"
	TypeNumber          InnerType = "number"
	TypeFile            InnerType = "file"
	TypeSelect          InnerType = "select"
	TypeCombo           InnerType = "combo"
	TypeActor           InnerType = "actor"
	TypeClass           InnerType = "class"
	TypeSkill           InnerType = "skill"
	TypeItem            InnerType = "item"
	TypeWeapon          InnerType = "weapon"
	TypeArmor           InnerType = "armor"
	TypeEnemy           InnerType = "enemy"
	TypeTroop           InnerType = "troop"
	TypeState           InnerType = "state"
	TypeAnimation       InnerType = "animation"
	TypeTileset         InnerType = "tileset"
	TypeCommonEvent     InnerType = "common_event"
	TypeSwitch          InnerType = "switch"
	TypeVariable        InnerType = "variable"
	TypeArray           InnerType = "array"
	TypeStruct          InnerType = "struct"
)

var simpleTypes = map[string]InnerType{
	"string":           TypeString,
	"multiline_string": TypeMultilineString,
	"note":             TypeMultilineString,
	"boolean":          TypeBoolean,
	"number":           TypeNumber,
	"file":             TypeFile,
	"select":           TypeSelect,
	"combo":            TypeCombo,
	"actor":            TypeActor,
	"class":            TypeClass,
	"skill":            TypeSkill,
	"item":             TypeItem,
	"weapon":           TypeWeapon,
	"armor":            TypeArmor,
	"enemy":            TypeEnemy,
	"troop":            TypeTroop,
	"state":            TypeState,
	"animation":        TypeAnimation,
	"tileset":          TypeTileset,
	"common_event":     TypeCommonEvent,
	"switch":           TypeSwitch,
	"variable":         TypeVariable,
}

// ParamType describes the type of a parameter. Elem is set for arrays, StructName for structs.
type ParamType struct {
	Kind       InnerType
	Elem       *ParamType
	StructName string
}

func (t ParamType) String() string {
	switch t.Kind {
	case TypeArray:
		if t.Elem == nil {
			return "[]"
		}
		return t.Elem.String() + "[]"
	case TypeStruct:
		return "struct<" + t.StructName + ">"
	}
	return string(t.Kind)
}

// ParseType parses a type name such as "number", "struct<Pos>[]" or "actor[][]".
// Unknown names report false and yield a string type.
func ParseType(s string) (ParamType, bool) {
	s = strings.TrimSpace(s)
	if inner, ok := strings.CutSuffix(s, "[]"); ok {
		elem, ok := ParseType(inner)
		return ParamType{Kind: TypeArray, Elem: &elem}, ok
	}
	if name, ok := strings.CutPrefix(s, "struct<"); ok {
		if name, ok = strings.CutSuffix(name, ">"); ok && name != "" {
			return ParamType{Kind: TypeStruct, StructName: name}, true
		}
		return ParamType{Kind: TypeString}, false
	}
	if kind, ok := simpleTypes[strings.ToLower(s)]; ok {
		return ParamType{Kind: kind}, true
	}
	return ParamType{Kind: TypeString}, false
}

// Option is one choice of a select or combo parameter.
type Option struct {
	Text  string
	Value string
}

// Param is a plugin parameter, a struct field or a command argument.
type Param struct {
	Name     string
	Text     string
	Desc     string
	Type     ParamType
	Default  string
	Parent   string
	Min      string
	Max      string
	Decimals string
	Dir      string
	Require  bool
	On       string
	Off      string
	Options  []Option
}

// Command is a plugin command declared with @command.
type Command struct {
	Name string
	Text string
	Desc string
	Args []Param
}

// Header is the content of one language block of a plugin.
type Header struct {
	Target      string
	PluginDesc  string
	Author      string
	URL         string
	Help        string
	Base        []string
	OrderAfter  []string
	OrderBefore []string
	Params      []Param
	Commands    []Command
}

// Result holds every header block found in a plugin source.
type Result struct {
	// Data maps a language to its header. The plain "/*:" block is stored under DefaultLanguage.
	Data map[string]*Header
	// Structs maps a struct name to its fields per language.
	Structs map[string]map[string][]Param
	// Warnings lists problems found while parsing. The blocks are still parsed.
	Warnings []string
	// RemainingContent is the source with every header block removed.
	RemainingContent string
}
