package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrUnknownKind is returned when an entry carries a kind discriminant that is not recognized.
var ErrUnknownKind = errors.New("unknown entry kind")

// Kind discriminates the variants of an Entry. The numeric values are part of the corpus file format.
type Kind int

const (
	KindCategory Kind = iota
	KindPlugin
	KindDirectDownloadPlugin
)

func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindPlugin:
		return "plugin"
	case KindDirectDownloadPlugin:
		return "direct-download-plugin"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ScrapeResult holds the metadata scraped from a legacy plugin page.
type ScrapeResult struct {
	Path           string   `json:"path"`
	Title          string   `json:"title"`
	YoutubeURL     *string  `json:"youtubeUrl"`
	Date           string   `json:"date"`
	Tags           []string `json:"tags"`
	Categories     []string `json:"categories"`
	Description    string   `json:"description"`
	DownloadURL    string   `json:"downloadUrl"`
	Filename       string   `json:"filename"`
	ExtraFilenames []string `json:"extraFilenames,omitempty"`
}

// PluginData is the page metadata older corpus files stored before scrapedData existed.
type PluginData struct {
	Title       string   `json:"title"`
	YoutubeURL  *string  `json:"youtubeUrl"`
	Date        string   `json:"date"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
	Description string   `json:"description"`
	Filename    string   `json:"filename"`
}

// Category opens a group of plugins in a listing page.
type Category struct {
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
	// Engine is the engine listing the category belongs to. Older corpus files leave it empty.
	Engine string `json:"engine,omitempty"`
}

// Plugin is a plugin that has its own page on the legacy site.
type Plugin struct {
	Name                string        `json:"name"`
	URL                 string        `json:"url"`
	ScrapedData         *ScrapeResult `json:"scrapedData"`
	Engine              string        `json:"engine"`
	Screenshots         []string      `json:"screenshots"`
	OverrideDownloadURL string        `json:"overrideDownloadUrl,omitempty"`
	RequiredPlugin      string        `json:"requiredPlugin,omitempty"`
	PluginData          *PluginData   `json:"pluginData,omitempty"`
}

// DirectDownload is a plugin only available as a direct file link.
type DirectDownload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DownloadURL string   `json:"downloadUrl"`
	Filename    string   `json:"filename"`
	Engine      string   `json:"engine"`
	Screenshots []string `json:"screenshots"`
}

// Entry is one record of the corpus. Exactly one of Category, Plugin and DirectDownload is set, matching Kind.
type Entry struct {
	Kind           Kind
	Category       *Category
	Plugin         *Plugin
	DirectDownload *DirectDownload
	// Extra holds the keys of the record that none of the variants declare. They are written back unchanged.
	Extra map[string]json.RawMessage
}

// NewCategory wraps c in an Entry.
func NewCategory(c Category) Entry {
	return Entry{Kind: KindCategory, Category: &c}
}

// NewPlugin wraps p in an Entry.
func NewPlugin(p Plugin) Entry {
	return Entry{Kind: KindPlugin, Plugin: &p}
}

// NewDirectDownload wraps d in an Entry.
func NewDirectDownload(d DirectDownload) Entry {
	return Entry{Kind: KindDirectDownloadPlugin, DirectDownload: &d}
}

// Name returns the display name of whichever variant is set.
func (e Entry) Name() string {
	switch {
	case e.Category != nil:
		return e.Category.Name
	case e.Plugin != nil:
		return e.Plugin.Name
	case e.DirectDownload != nil:
		return e.DirectDownload.Name
	}
	return ""
}

// Engine returns the engine of the entry, if any.
func (e Entry) Engine() string {
	switch {
	case e.Category != nil:
		return e.Category.Engine
	case e.Plugin != nil:
		return e.Plugin.Engine
	case e.DirectDownload != nil:
		return e.DirectDownload.Engine
	}
	return ""
}

// MarshalJSON flattens the variant next to its "kind" discriminant, followed by the Extra keys.
func (e Entry) MarshalJSON() ([]byte, error) {
	data, err := e.marshalVariant()
	if err != nil || len(e.Extra) == 0 {
		return data, err
	}

	written := make(map[string]bool)
	gjson.ParseBytes(data).ForEach(func(key, _ gjson.Result) bool {
		written[key.Str] = true
		return true
	})

	var buf bytes.Buffer
	buf.Write(bytes.TrimSuffix(data, []byte("}")))
	for _, key := range slices.Sorted(maps.Keys(e.Extra)) {
		if written[key] {
			continue
		}
		k, err := marshal(key)
		if err != nil {
			return nil, err
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(e.Extra[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (e Entry) marshalVariant() ([]byte, error) {
	switch e.Kind {
	case KindCategory:
		if e.Category == nil {
			return nil, fmt.Errorf("category entry has no category data")
		}
		return marshal(struct {
			Kind Kind `json:"kind"`
			*Category
		}{e.Kind, e.Category})
	case KindPlugin:
		if e.Plugin == nil {
			return nil, fmt.Errorf("plugin entry has no plugin data")
		}
		p := *e.Plugin
		if p.Screenshots == nil {
			p.Screenshots = []string{}
		}
		if p.ScrapedData != nil && (p.ScrapedData.Tags == nil || p.ScrapedData.Categories == nil) {
			sd := *p.ScrapedData
			if sd.Tags == nil {
				sd.Tags = []string{}
			}
			if sd.Categories == nil {
				sd.Categories = []string{}
			}
			p.ScrapedData = &sd
		}
		return marshal(struct {
			Kind Kind `json:"kind"`
			*Plugin
		}{e.Kind, &p})
	case KindDirectDownloadPlugin:
		if e.DirectDownload == nil {
			return nil, fmt.Errorf("direct download entry has no direct download data")
		}
		d := *e.DirectDownload
		if d.Screenshots == nil {
			d.Screenshots = []string{}
		}
		return marshal(struct {
			Kind Kind `json:"kind"`
			*DirectDownload
		}{e.Kind, &d})
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, e.Kind)
}

// UnmarshalJSON decodes the variant selected by the "kind" discriminant.
func (e *Entry) UnmarshalJSON(data []byte) error {
	kind := gjson.GetBytes(data, "kind")
	if !kind.Exists() {
		return fmt.Errorf("%w: missing kind", ErrUnknownKind)
	}
	if kind.Type != gjson.Number {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind.Raw)
	}

	*e = Entry{Kind: Kind(kind.Int())}
	var variant any
	switch e.Kind {
	case KindCategory:
		e.Category = &Category{}
		variant = e.Category
	case KindPlugin:
		e.Plugin = &Plugin{}
		variant = e.Plugin
	case KindDirectDownloadPlugin:
		e.DirectDownload = &DirectDownload{}
		variant = e.DirectDownload
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, e.Kind)
	}
	if err := json.Unmarshal(data, variant); err != nil {
		return fmt.Errorf("failed to json.Unmarshal %s: %w", e.Kind, err)
	}

	known := jsonKeys(reflect.TypeOf(variant).Elem())
	gjson.ParseBytes(data).ForEach(func(key, value gjson.Result) bool {
		if key.Str == "kind" || known[key.Str] {
			return true
		}
		if e.Extra == nil {
			e.Extra = make(map[string]json.RawMessage)
		}
		e.Extra[key.Str] = json.RawMessage(value.Raw)
		return true
	})
	return nil
}

// jsonKeys returns the JSON object keys the struct type t declares.
func jsonKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[name] = true
	}
	return keys
}

// marshal encodes v without escaping HTML characters, which are common in plugin descriptions.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Plugins returns the plugin entries of entries, in order.
func Plugins(entries []Entry) []*Plugin {
	var plugins []*Plugin
	for _, entry := range entries {
		if entry.Plugin != nil {
			plugins = append(plugins, entry.Plugin)
		}
	}
	return plugins
}

// NormalizeEngine lower-cases and trims an engine name.
func NormalizeEngine(engine string) string {
	return strings.ToLower(strings.TrimSpace(engine))
}
