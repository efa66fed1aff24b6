// Package header parses the comment headers RPG Maker MV and MZ plugins declare their metadata in.
package header

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoHeader is returned for sources without a single header block.
var ErrNoHeader = errors.New("no plugin header found")

// DefaultLanguage keys the header declared with a bare "/*:".
const DefaultLanguage = "default"

var blockStart = regexp.MustCompile(`/\*(?::([A-Za-z_-]*)|~struct~(\w+):([A-Za-z_-]*))`)

// tags RPG Maker editors understand that carry nothing worth rendering.
var ignoredTags = map[string]bool{
	"noteParam":      true,
	"noteType":       true,
	"noteDir":        true,
	"noteData":       true,
	"noteRequire":    true,
	"requiredAssets": true,
}

// Parse extracts every header block of source. Problems inside blocks become warnings,
// the only error is ErrNoHeader.
func Parse(source string) (*Result, error) {
	res := &Result{
		Data:    make(map[string]*Header),
		Structs: make(map[string]map[string][]Param),
	}

	var remaining strings.Builder
	rest := source
	found := false
	for {
		m := blockStart.FindStringSubmatchIndex(rest)
		if m == nil {
			remaining.WriteString(rest)
			break
		}
		found = true
		remaining.WriteString(rest[:m[0]])

		lang, structName, structLang := group(rest, m, 1), group(rest, m, 2), group(rest, m, 3)
		offset := len(source) - len(rest) + m[0]

		body := rest[m[1]:]
		if end := strings.Index(body, "*/"); end >= 0 {
			rest = body[end+2:]
			body = body[:end]
		} else {
			res.warnf("unclosed header block at offset %d", offset)
			rest = ""
		}

		if structName != "" {
			if structLang == "" {
				structLang = DefaultLanguage
			}
			p := &blockParser{res: res, block: "struct " + structName}
			p.parse(body)
			if res.Structs[structName] == nil {
				res.Structs[structName] = make(map[string][]Param)
			}
			res.Structs[structName][structLang] = p.header.Params
			continue
		}

		if lang == "" {
			lang = DefaultLanguage
		}
		p := &blockParser{res: res, block: lang}
		p.parse(body)
		res.Data[lang] = &p.header
	}

	if !found {
		return nil, ErrNoHeader
	}
	res.RemainingContent = remaining.String()
	return res, nil
}

func group(s string, m []int, i int) string {
	if m[2*i] < 0 {
		return ""
	}
	return s[m[2*i]:m[2*i+1]]
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// cleanLine strips the decoration in front of a comment line: indentation, one '*' and one space.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t\r")
	line = strings.TrimLeft(line, " \t")
	if l, ok := strings.CutPrefix(line, "*"); ok {
		line = strings.TrimPrefix(l, " ")
	}
	return line
}

type blockParser struct {
	res    *Result
	block  string
	header Header

	param   *Param
	command *Command
	arg     *Param
	inHelp  bool
	help    []string
}

func (p *blockParser) parse(body string) {
	for _, raw := range strings.Split(body, "\n") {
		line := cleanLine(raw)
		if !strings.HasPrefix(line, "@") {
			if p.inHelp {
				p.help = append(p.help, line)
			}
			continue
		}

		tag, value, _ := strings.Cut(line[1:], " ")
		value = strings.TrimSpace(value)
		p.inHelp = false
		p.tag(tag, value)
	}
	p.header.Help = strings.Trim(strings.Join(p.help, "\n"), "\n")
}

func (p *blockParser) tag(tag, value string) {
	switch tag {
	case "target":
		p.header.Target = value
	case "plugindesc":
		p.header.PluginDesc = value
	case "author":
		p.header.Author = value
	case "url":
		p.header.URL = value
	case "help":
		p.inHelp = true
		if value != "" {
			p.help = append(p.help, value)
		}
	case "base":
		p.header.Base = append(p.header.Base, value)
	case "orderAfter":
		p.header.OrderAfter = append(p.header.OrderAfter, value)
	case "orderBefore":
		p.header.OrderBefore = append(p.header.OrderBefore, value)
	case "param":
		p.command, p.arg = nil, nil
		p.header.Params = append(p.header.Params, Param{Name: value, Type: ParamType{Kind: TypeString}})
		p.param = &p.header.Params[len(p.header.Params)-1]
	case "command":
		p.param, p.arg = nil, nil
		p.header.Commands = append(p.header.Commands, Command{Name: value})
		p.command = &p.header.Commands[len(p.header.Commands)-1]
	case "arg":
		if p.command == nil {
			p.res.warnf("%s: @arg %q outside of a @command", p.block, value)
			return
		}
		p.command.Args = append(p.command.Args, Param{Name: value, Type: ParamType{Kind: TypeString}})
		p.arg = &p.command.Args[len(p.command.Args)-1]
	case "text", "desc":
		if target := p.current(); target != nil {
			if tag == "text" {
				target.Text = value
			} else {
				target.Desc = value
			}
			return
		}
		if p.command != nil {
			if tag == "text" {
				p.command.Text = value
			} else {
				p.command.Desc = value
			}
			return
		}
		p.res.warnf("%s: @%s %q before any @param", p.block, tag, value)
	case "type", "default", "parent", "min", "max", "decimals", "dir", "require", "on", "off", "option", "value":
		target := p.current()
		if target == nil {
			p.res.warnf("%s: @%s %q before any @param", p.block, tag, value)
			return
		}
		p.field(target, tag, value)
	default:
		if !ignoredTags[tag] {
			p.res.warnf("%s: unknown tag @%s", p.block, tag)
		}
	}
}

// current returns the parameter or argument the next attribute tag applies to.
func (p *blockParser) current() *Param {
	if p.command != nil {
		return p.arg
	}
	return p.param
}

func (p *blockParser) field(target *Param, tag, value string) {
	switch tag {
	case "type":
		t, ok := ParseType(value)
		if !ok {
			p.res.warnf("%s: unknown type %q for %s", p.block, value, target.Name)
		}
		target.Type = t
	case "default":
		target.Default = value
	case "parent":
		target.Parent = value
	case "min":
		target.Min = value
	case "max":
		target.Max = value
	case "decimals":
		target.Decimals = value
	case "dir":
		target.Dir = value
	case "require":
		target.Require = value == "1" || strings.EqualFold(value, "true")
	case "on":
		target.On = value
	case "off":
		target.Off = value
	case "option":
		target.Options = append(target.Options, Option{Text: value, Value: value})
	case "value":
		if len(target.Options) == 0 {
			p.res.warnf("%s: @value %q before any @option of %s", p.block, value, target.Name)
			return
		}
		target.Options[len(target.Options)-1].Value = value
	}
}
