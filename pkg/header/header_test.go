package header_test

import (
	"strings"
	"testing"

	"github.com/somerandev/rpgmaker-site/pkg/header"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plugin = `//=============================================================================
// SRD_MapScroll.js
//=============================================================================

/*:
 * @target MZ
 * @plugindesc Smooth map scrolling.
 * @author SumRndmDde
 * @url http://sumrndm.site/map-scroll
 * @base PluginCommonBase
 * @orderAfter PluginCommonBase
 *
 * @param Speed
 * @text Scroll Speed
 * @desc How fast the camera moves.
 * @type number
 * @min 1
 * @max 10
 * @decimals 2
 * @default 4
 *
 * @param Mode
 * @type select
 * @option Linear
 * @value linear
 * @option Eased
 * @default linear
 *
 * @param Points
 * @type struct<Point>[]
 * @default []
 *
 * @command Scroll
 * @text Scroll To
 * @desc Scrolls the camera.
 *
 * @arg x
 * @type number
 * @desc Target x.
 *
 * @noteParam Something
 * @requiredAssets img/system/Scroll
 *
 * @help
 * ============================================================================
 * Version 1.20
 * ============================================================================
 *
 * Scrolls the map.
 */

/*:ja
 * @plugindesc マップをスクロールします。
 * @help
 * 日本語のヘルプ
 */

/*~struct~Point:
 * @param X
 * @type number
 *
 * @param Y
 * @type number
 */

var Imported = Imported || {};
Imported.SRD_MapScroll = true;
`

func TestParse(t *testing.T) {
	res, err := header.Parse(plugin)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	def := res.Data[header.DefaultLanguage]
	require.NotNil(t, def)
	assert.Equal(t, "MZ", def.Target)
	assert.Equal(t, "Smooth map scrolling.", def.PluginDesc)
	assert.Equal(t, "SumRndmDde", def.Author)
	assert.Equal(t, "http://sumrndm.site/map-scroll", def.URL)
	assert.Equal(t, []string{"PluginCommonBase"}, def.Base)
	assert.Equal(t, []string{"PluginCommonBase"}, def.OrderAfter)

	require.Len(t, def.Params, 3)
	speed := def.Params[0]
	assert.Equal(t, "Speed", speed.Name)
	assert.Equal(t, "Scroll Speed", speed.Text)
	assert.Equal(t, "How fast the camera moves.", speed.Desc)
	assert.Equal(t, header.TypeNumber, speed.Type.Kind)
	assert.Equal(t, "1", speed.Min)
	assert.Equal(t, "10", speed.Max)
	assert.Equal(t, "2", speed.Decimals)
	assert.Equal(t, "4", speed.Default)

	mode := def.Params[1]
	assert.Equal(t, header.TypeSelect, mode.Type.Kind)
	assert.Equal(t, []header.Option{{Text: "Linear", Value: "linear"}, {Text: "Eased", Value: "Eased"}}, mode.Options)

	points := def.Params[2]
	assert.Equal(t, "struct<Point>[]", points.Type.String())

	require.Len(t, def.Commands, 1)
	cmd := def.Commands[0]
	assert.Equal(t, "Scroll", cmd.Name)
	assert.Equal(t, "Scroll To", cmd.Text)
	assert.Equal(t, "Scrolls the camera.", cmd.Desc)
	require.Len(t, cmd.Args, 1)
	assert.Equal(t, "Target x.", cmd.Args[0].Desc)

	assert.True(t, strings.HasPrefix(def.Help, "============"))
	assert.Contains(t, def.Help, "\nVersion 1.20\n")
	assert.True(t, strings.HasSuffix(def.Help, "Scrolls the map."))

	ja := res.Data["ja"]
	require.NotNil(t, ja)
	assert.Equal(t, "日本語のヘルプ", ja.Help)

	require.Contains(t, res.Structs, "Point")
	fields := res.Structs["Point"][header.DefaultLanguage]
	require.Len(t, fields, 2)
	assert.Equal(t, "Y", fields[1].Name)

	assert.NotContains(t, res.RemainingContent, "@param")
	assert.Contains(t, res.RemainingContent, "Imported.SRD_MapScroll = true;")
	assert.Contains(t, res.RemainingContent, "// SRD_MapScroll.js")
}

func TestParseWarnings(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"Unknown Tag", "/*:\n * @bogus x\n */", "unknown tag @bogus"},
		{"Text Before Param", "/*:\n * @text Orphan\n */", "@text \"Orphan\" before any @param"},
		{"Unknown Type", "/*:\n * @param A\n * @type vector\n */", "unknown type \"vector\""},
		{"Unclosed", "/*:\n * @param A\n", "unclosed header block"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := header.Parse(tt.source)
			require.NoError(t, err)
			require.Len(t, res.Warnings, 1)
			assert.Contains(t, res.Warnings[0], tt.want)
		})
	}
}

func TestParseNoHeader(t *testing.T) {
	_, err := header.Parse("/* plain comment */\nvar x = 1;")
	assert.ErrorIs(t, err, header.ErrNoHeader)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"number", "number", true},
		{"note", "multiline_string", true},
		{"common_event[]", "common_event[]", true},
		{"actor[][]", "actor[][]", true},
		{"struct<Pos>", "struct<Pos>", true},
		{"struct<>", "string", false},
		{"vector", "string", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := header.ParseType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
