package site

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/header"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultVersion is shown for plugins whose help does not state a version.
const DefaultVersion = "1.00"

var (
	versionPattern = regexp.MustCompile(`(?m)^Version (\d+\.\d+)$`)
	youtubePattern = regexp.MustCompile(`embed/(.+)\?feature`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// Substitute replaces every token of values found in template in a single pass.
// Longer tokens win over tokens they start with, and replaced text is never scanned again.
func Substitute(template string, values map[string]string) string {
	tokens := make([]string, 0, len(values))
	for token := range values {
		tokens = append(tokens, token)
	}
	slices.SortFunc(tokens, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	pairs := make([]string, 0, 2*len(tokens))
	for _, token := range tokens {
		pairs = append(pairs, token, values[token])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// ExtractVersion returns the version stated on a "Version X.Y" line of help, or DefaultVersion.
func ExtractVersion(help string) string {
	if m := versionPattern.FindStringSubmatch(help); m != nil {
		return m[1]
	}
	return DefaultVersion
}

// YouTubeID returns the video id of an embed URL.
func YouTubeID(url string) (string, bool) {
	m := youtubePattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// EngineLabel returns the display name of an engine, e.g. "MZ".
func EngineLabel(engine string) string {
	return cases.Upper(language.Und).String(engine)
}

// ParamTypeLabel returns a human readable name for a parameter type.
func ParamTypeLabel(t header.ParamType) string {
	switch t.Kind {
	case header.TypeString:
		return "Text Input"
	case header.TypeMultilineString:
		return "Multi-line Text Input"
	case header.TypeBoolean:
		return "ON/OFF"
	case header.TypeCommonEvent:
		return "Common Event"
	case header.TypeArray:
		if t.Elem == nil {
			return "Array"
		}
		return "Array of " + ParamTypeLabel(*t.Elem)
	case header.TypeStruct:
		return t.StructName + " Struct"
	}
	return cases.Title(language.English).String(string(t.Kind))
}

func listEntryHTML(id, img, name, description, circled, meta string) string {
	var thumb, date string
	if img != "" {
		thumb = fmt.Sprintf(`<div class="thumb">
						<img src="%s" />
					</div>`, img)
	}
	if meta != "" {
		date = fmt.Sprintf(`<div class="date">%s</div>`, meta)
	}
	return fmt.Sprintf(`
		<li>
			<a class="item" type="button" data-id="%s">
			%s
				<div class="content">
					<div class="title">%s</div>
					<div class="desc">%s</div>
				</div>

				<div class="meta">
					<div class="version">%s</div>
					%s
				</div>
			</a>
		</li>`, id, thumb, name, description, circled, date)
}

func categoryHTML(c corpus.Category, entries string) string {
	return fmt.Sprintf(`<div class="plugin-category">
		<!--<h2>%s</h2>-->
		<div class="category-image">
			<img src="%s"></img>
		</div>
		<ul class="pretty-list" role="list">
			%s
		</ul>
	</div>`, c.Name, c.ImageURL, entries)
}

func youtubeHTML(url string) string {
	return fmt.Sprintf(`<div>
	<h2
		id="video-heading"
		style="margin: 0 0 8px 0; font-size: 1.05rem"
	>
		Video
	</h2>

	<div class="video-frame" id="video">
		<iframe
			src="%s"
			title="YouTube video player"
			frameborder="0"
			allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share"
			referrerpolicy="strict-origin-when-cross-origin"
			allowfullscreen
		></iframe>
	</div>
</div>`, url)
}

func screenshotsHTML(name string, screenshots []string) string {
	alt := whitespace.ReplaceAllString(name, "")
	imgs := make([]string, len(screenshots))
	for i, s := range screenshots {
		imgs[i] = fmt.Sprintf(`<img src="%s" alt=%s%d />`, s, alt, i)
	}
	return strings.Join(imgs, "\n")
}

func tagsHTML(tags []string) string {
	links := make([]string, len(tags))
	for i, tag := range tags {
		links[i] = fmt.Sprintf(`<a class="button-like tag">%s</a>`, tag)
	}
	return strings.Join(links, "\n")
}

func paramsHTML(params []header.Param) string {
	entries := make([]string, len(params))
	for i, p := range params {
		text := cmp.Or(p.Text, p.Name)
		desc := cmp.Or(p.Desc, "<i>No description</i>")
		entries[i] = listEntryHTML(p.Name, "", text, desc, ParamTypeLabel(p.Type), "")
	}
	return strings.Join(entries, "\n")
}

func brLines(s string) string {
	return strings.ReplaceAll(s, "\n", "<br>")
}
