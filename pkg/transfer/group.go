// Package transfer converts the plain-text plugin lists of the legacy site into corpus entries.
package transfer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/oldsite"
)

// ErrMalformedGroup is returned for groups that cannot be turned into entries.
var ErrMalformedGroup = errors.New("malformed group")

const (
	categoryPrefix       = "Category: "
	directDownloadMarker = "Direct Download"
)

// DefaultEngine is used when an input file does not name its engine.
const DefaultEngine = "mv"

// SplitGroups normalizes line endings of an input file and splits it into blank-line separated groups.
// It returns nil for a file with no content.
func SplitGroups(contents string) []string {
	contents = strings.TrimSpace(strings.ReplaceAll(contents, "\r", ""))
	if contents == "" {
		return nil
	}
	return strings.Split(contents, "\n\n")
}

// ParseGroup turns one group into entries tagged with engine. The last line of a group is the
// description shared by the group, the lines before it are name and URL pairs.
// Plugins are returned without scraped data.
func ParseGroup(group, engine string) ([]corpus.Entry, error) {
	lines := strings.Split(group, "\n")
	description := lines[len(lines)-1]
	lines = lines[:len(lines)-1]

	if description == "" {
		return nil, fmt.Errorf("%w: no description", ErrMalformedGroup)
	}
	if len(lines)%2 != 0 {
		return nil, fmt.Errorf("%w: expected pairs of name and URL, got %d lines", ErrMalformedGroup, len(lines))
	}

	entries := make([]corpus.Entry, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		name, url := lines[i], lines[i+1]

		switch {
		case strings.HasPrefix(name, categoryPrefix):
			entries = append(entries, corpus.NewCategory(corpus.Category{
				Name:        strings.TrimPrefix(name, categoryPrefix),
				ImageURL:    url,
				Description: description,
				Engine:      engine,
			}))
		case strings.Contains(name, directDownloadMarker):
			entries = append(entries, corpus.NewDirectDownload(corpus.DirectDownload{
				Name:        strings.TrimSpace(strings.ReplaceAll(name, "(Direct Download)", "")),
				Description: description,
				DownloadURL: url,
				Filename:    oldsite.FileNameFromURL(url),
				Engine:      engine,
				Screenshots: []string{},
			}))
		default:
			entries = append(entries, corpus.NewPlugin(corpus.Plugin{
				Name:        name,
				URL:         url,
				Engine:      engine,
				Screenshots: []string{},
			}))
		}
	}
	return entries, nil
}

// EngineFromFilename infers the engine of an input file from an "MV" or "MZ" in its base name.
func EngineFromFilename(path string) string {
	base := filepath.Base(path)
	switch {
	case strings.Contains(base, "MZ"):
		return "mz"
	case strings.Contains(base, "MV"):
		return "mv"
	}
	return DefaultEngine
}

// Input is one plain-text input file and the engine its entries belong to.
type Input struct {
	Path   string
	Engine string
}

// ParseInput reads a command line input argument of the form "path" or "path=engine".
func ParseInput(arg string) Input {
	if i := strings.LastIndex(arg, "="); i > 0 && i < len(arg)-1 {
		return Input{Path: arg[:i], Engine: corpus.NormalizeEngine(arg[i+1:])}
	}
	return Input{Path: arg, Engine: EngineFromFilename(arg)}
}
