// Package osinfo models the operating system classification hierarchy used
// for requirement matching. Classifiers form a chain from leaf distribution
// to generic family, and a node running a specific classifier also satisfies
// any ancestor classifier (an Ubuntu node satisfies a Debian or Linux
// requirement).
package osinfo

import (
	"fmt"
	"strings"

	"github.com/arbal/LISAv2/pkg/search"
)

// OS is one classifier in the hierarchy. Classifiers are immutable values
// created at package init; comparison is by pointer identity or name.
type OS struct {
	name   string
	parent *OS
}

// Name returns the classifier's canonical lower-case name.
func (o *OS) Name() string {
	return o.name
}

// Parent returns the next more generic classifier, or nil at the root.
func (o *OS) Parent() *OS {
	return o.parent
}

// AncestorNames returns this classifier's name followed by every ancestor
// name, leaf first. The returned slice backs ancestor matching in
// requirement checks.
func (o *OS) AncestorNames() []string {
	var names []string
	for cur := o; cur != nil; cur = cur.parent {
		names = append(names, cur.name)
	}
	return names
}

// Satisfies reports whether this classifier or any of its ancestors carries
// the given name.
func (o *OS) Satisfies(name string) bool {
	name = strings.ToLower(name)
	for cur := o; cur != nil; cur = cur.parent {
		if cur.name == name {
			return true
		}
	}
	return false
}

// CapabilitySet returns the allow set a node offers for os_type checks: the
// node's own classifier plus all ancestors.
func (o *OS) CapabilitySet() *search.SetSpace[string] {
	return search.NewSetSpace(true, o.AncestorNames()...)
}

func (o *OS) String() string {
	return o.name
}

// The builtin classification hierarchy. Platform implementations may extend
// it through Register.
var (
	AnyOS   = &OS{name: "any"}
	Windows = &OS{name: "windows", parent: AnyOS}
	Posix   = &OS{name: "posix", parent: AnyOS}
	Linux   = &OS{name: "linux", parent: Posix}
	BSD     = &OS{name: "bsd", parent: Posix}
	FreeBSD = &OS{name: "freebsd", parent: BSD}
	Debian  = &OS{name: "debian", parent: Linux}
	Ubuntu  = &OS{name: "ubuntu", parent: Debian}
	Fedora  = &OS{name: "fedora", parent: Linux}
	RedHat  = &OS{name: "redhat", parent: Fedora}
	CentOS  = &OS{name: "centos", parent: RedHat}
	Oracle  = &OS{name: "oracle", parent: RedHat}
	Suse    = &OS{name: "suse", parent: Linux}
	Alpine  = &OS{name: "alpine", parent: Linux}
)

var classifiers = map[string]*OS{}

func init() {
	for _, o := range []*OS{
		AnyOS, Windows, Posix, Linux, BSD, FreeBSD,
		Debian, Ubuntu, Fedora, RedHat, CentOS, Oracle, Suse, Alpine,
	} {
		classifiers[o.name] = o
	}
}

// Register adds a classifier under the given parent and returns it. An
// already registered name keeps its first registration and is returned
// unchanged, so repeated registration stays deterministic.
func Register(name string, parent *OS) *OS {
	name = strings.ToLower(name)
	if existing, ok := classifiers[name]; ok {
		return existing
	}
	o := &OS{name: name, parent: parent}
	classifiers[name] = o
	return o
}

// Lookup resolves a classifier by name.
func Lookup(name string) (*OS, error) {
	o, ok := classifiers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown operating system classifier %q", name)
	}
	return o, nil
}
