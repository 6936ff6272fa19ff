package vm

import (
	"fmt"

	"github.com/internetimagery/donot/pkg/object"
)

// Unit is an independently executable artifact synthesized by the
// generator: the body of one map, flat_map or filter callback (or the
// top-level composition). It owns its chunk, constants and line table;
// parent units reference nested units through their constant pools.
// Units are never mutated after generation.
type Unit struct {
	Name string

	// Params is the parameter layout: ".0" (the incoming value)
	// followed by the default parameters supplying free variables
	// captured from the enclosing unit.
	Params []string

	// LocalNames is the full slot layout: Params followed by the
	// names bound inside the unit. len(LocalNames) is the frame size.
	LocalNames []string

	Chunk *Chunk
}

func (u *Unit) Type() object.ObjectType { return "UNIT" }
func (u *Unit) Inspect() string         { return fmt.Sprintf("<unit %s>", u.Name) }

// NumDefaults is the number of default parameters after ".0".
func (u *Unit) NumDefaults() int { return len(u.Params) - 1 }

// Closure pairs a unit with the default values captured at creation.
// The dispatch handler and global environment ride along so a closure
// is self-contained when a capability hands it a value.
type Closure struct {
	Unit     *Unit
	Defaults []object.Object
	Globals  map[string]object.Object
	Handler  DispatchFunc
}

func (c *Closure) Type() object.ObjectType { return "CLOSURE" }
func (c *Closure) Inspect() string         { return fmt.Sprintf("<closure %s>", c.Unit.Name) }

// DispatchFunc services one capability request from a generated unit:
// op is "map", "flat_map" or "filter", value is the carried monadic
// value, and fn re-enters the machine with the callback unit.
type DispatchFunc func(op string, value object.Object, fn func(object.Object) object.Object) (object.Object, error)

// Capability operation names emitted by the generator and consumed by
// dispatch handlers.
const (
	OpNameMap     = "map"
	OpNameFlatMap = "flat_map"
	OpNameFilter  = "filter"
)
