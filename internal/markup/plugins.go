package markup

import (
	"slices"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
)

// RendererName names the base renderer in dependency lists.
const RendererName = "goldmark"

// Built-in plugin names.
const (
	PluginFootnote = "footnote"
	PluginTaskList = "tasklist"
	PluginEmoji    = "emoji"
	PluginDefList  = "deflist"
)

// Plugin is a resolved renderer plugin handle.
type Plugin struct {
	Name     string
	Extender goldmark.Extender
}

// builtins maps plugin names to constructors.
// Constructors return fresh extenders so renderers never share plugin state.
var builtins = map[string]func() goldmark.Extender{
	PluginFootnote: func() goldmark.Extender { return extension.Footnote },
	PluginTaskList: func() goldmark.Extender { return extension.TaskList },
	PluginEmoji:    func() goldmark.Extender { return emoji.New() },
	PluginDefList:  func() goldmark.Extender { return extension.DefinitionList },
}

// defaultOrder is the fixed attachment order of the default configuration.
var defaultOrder = []string{PluginFootnote, PluginTaskList, PluginEmoji, PluginDefList}

// Builtin returns the plugin registered under name.
func Builtin(name string) (Plugin, bool) {
	ctor, ok := builtins[name]
	if !ok {
		return Plugin{}, false
	}
	return Plugin{Name: name, Extender: ctor()}, true
}

// BuiltinNames returns the registered plugin names, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultPluginNames returns the default plugin names in attachment order.
func DefaultPluginNames() []string {
	return slices.Clone(defaultOrder)
}

// DefaultPlugins returns the default plugin handles in attachment order.
func DefaultPlugins() []Plugin {
	plugins := make([]Plugin, 0, len(defaultOrder))
	for _, name := range defaultOrder {
		p, _ := Builtin(name)
		plugins = append(plugins, p)
	}
	return plugins
}
