// Package flows embeds the built-in verification flows.
package flows

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/devicelab-dev/verify-runner/pkg/flow"
)

//go:embed *.yaml
var files embed.FS

// Builtin describes an embedded flow.
type Builtin struct {
	Name        string   // Flow name, e.g. collection-explorer
	Alias       string   // Short name, e.g. explorer
	File        string   // Embedded file name
	URL         string   // Base URL of the site under test
	Tags        []string // Flow tags
	Screenshots []string // Screenshot paths the flow may write
}

// Built-in flow names.
const (
	CollectionExplorer = "collection-explorer"
	CompareFeature     = "compare-feature"
)

var aliases = map[string]string{
	"explorer": "explorer.yaml",
	"compare":  "compare.yaml",
}

// Load parses the built-in flow with the given name or alias.
func Load(name string) (*flow.Flow, error) {
	file, ok := resolve(name)
	if !ok {
		return nil, fmt.Errorf("unknown built-in flow %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	data, err := files.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return flow.Parse(data, file)
}

// MustLoad is Load for callers that embed a known name.
func MustLoad(name string) *flow.Flow {
	f, err := Load(name)
	if err != nil {
		panic(err)
	}
	return f
}

// IsBuiltin reports whether name refers to a built-in flow.
func IsBuiltin(name string) bool {
	_, ok := resolve(name)
	return ok
}

// List returns every built-in flow, sorted by name.
func List() ([]Builtin, error) {
	var out []Builtin
	for alias, file := range aliases {
		data, err := files.ReadFile(file)
		if err != nil {
			return nil, err
		}
		f, err := flow.Parse(data, file)
		if err != nil {
			return nil, err
		}
		out = append(out, Builtin{
			Name:        f.Config.Name,
			Alias:       alias,
			File:        file,
			URL:         f.Config.URL,
			Tags:        f.Config.Tags,
			Screenshots: f.ScreenshotPaths(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Names returns the names of all built-in flows.
func Names() []string {
	return []string{CollectionExplorer, CompareFeature}
}

func resolve(name string) (string, bool) {
	switch name {
	case CollectionExplorer:
		return aliases["explorer"], true
	case CompareFeature:
		return aliases["compare"], true
	}
	file, ok := aliases[name]
	return file, ok
}
