package deps

import (
	"fmt"

	"github.com/kb-labs/yarn/internal/manifest"
)

// Category selects which package.json section a command defaults from and
// how yarn is told where to record the packages.
type Category int

const (
	Dependencies Category = iota
	DevDependencies
	PeerDependencies
	OptionalDependencies
	Global
)

var categoryInfo = [...]struct {
	name    string
	key     string
	flag    string
	aliases []string
	sub     []string
}{
	Dependencies:         {name: "dependencies", key: manifest.KeyDependencies, sub: []string{"add"}, aliases: []string{"deps", "prod"}},
	DevDependencies:      {name: "devDependencies", key: manifest.KeyDevDependencies, flag: "-D", sub: []string{"add"}, aliases: []string{"dev"}},
	PeerDependencies:     {name: "peerDependencies", key: manifest.KeyPeerDependencies, flag: "-P", sub: []string{"add"}, aliases: []string{"peer"}},
	OptionalDependencies: {name: "optionalDependencies", key: manifest.KeyOptionalDependencies, flag: "-O", sub: []string{"add"}, aliases: []string{"optional"}},
	Global:               {name: "global", sub: []string{"global", "add"}},
}

// ManifestCategories lists the categories backed by a package.json section.
func ManifestCategories() []Category {
	return []Category{Dependencies, DevDependencies, PeerDependencies, OptionalDependencies}
}

func (c Category) valid() bool { return c >= Dependencies && c <= Global }

func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryInfo[c].name
}

// Key returns the package.json key, or "" for Global.
func (c Category) Key() string {
	if !c.valid() {
		return ""
	}
	return categoryInfo[c].key
}

// Flag returns the yarn add flag (-D, -P, -O), or "" when none applies.
func (c Category) Flag() string {
	if !c.valid() {
		return ""
	}
	return categoryInfo[c].flag
}

// Subcommand returns the leading yarn tokens: "add", or "global add".
func (c Category) Subcommand() []string {
	if !c.valid() {
		return []string{"add"}
	}
	return append([]string(nil), categoryInfo[c].sub...)
}

// CommandNames returns the CLI command for c followed by its aliases: the
// first short alias, then the category name, then any further aliases.
func (c Category) CommandNames() []string {
	if !c.valid() {
		return nil
	}
	info := categoryInfo[c]
	if len(info.aliases) == 0 {
		return []string{info.name}
	}
	out := []string{info.aliases[0], info.name}
	return append(out, info.aliases[1:]...)
}
