package task

import (
	"sort"

	"github.com/kingrea/shopsetup/internal/schema"
)

// Base provides common plumbing for tasks (identity + engine dispatch).
type Base struct {
	info     Info
	routines map[string]Routine
}

// NewBase seeds the helper with task info.
func NewBase(info Info) *Base {
	info.Pre = append([]string{}, info.Pre...)
	info.Post = append([]string{}, info.Post...)
	return &Base{info: info, routines: map[string]Routine{}}
}

// On registers the routine for engine, replacing any previous one.
func (b *Base) On(engine string, routine Routine) *Base {
	b.routines[schema.NormalizeEngine(engine)] = routine
	return b
}

// Info implements Task.Info.
func (b *Base) Info() Info {
	info := b.info
	info.Pre = append([]string{}, b.info.Pre...)
	info.Post = append([]string{}, b.info.Post...)
	return info
}

// Routine implements Task.Routine.
func (b *Base) Routine(engine string) (Routine, bool) {
	routine, ok := b.routines[schema.NormalizeEngine(engine)]
	if !ok || routine == nil {
		return nil, false
	}
	return routine, true
}

// Engines returns the engines with a registered routine, sorted.
func (b *Base) Engines() []string {
	engines := make([]string, 0, len(b.routines))
	for engine := range b.routines {
		engines = append(engines, engine)
	}
	sort.Strings(engines)
	return engines
}
