package runtime

import (
	"fmt"

	brainmodel "github.com/humanapp/mindcraft-lang-sub002/internal/brain"
	"github.com/humanapp/mindcraft-lang-sub002/internal/functions"
	"github.com/humanapp/mindcraft-lang-sub002/internal/value"
)

// PageActivated is the payload of a "page_activated" Event.
type PageActivated struct{ PageIndex int }

// PageDeactivated is the payload of a "page_deactivated" Event.
type PageDeactivated struct{ PageIndex int }

// Event is one runtime notification: page_activated/page_deactivated, plus
// arbitrary named events a host's actuator bodies may emit via Brain.Emit.
type Event struct {
	Name    string
	Payload any
}

// ErrNotStarted is returned by Think when called before Startup (Shutdown
// on a Brain that was never started simply returns).
var ErrNotStarted = fmt.Errorf("runtime: brain has not been started")

// Brain is the mutable runtime bound to one host actor: a
// compiled Program, a persistent variable store, and the single active
// page index. It is single-threaded and cooperative — Think runs to
// completion before returning, with no suspension inside a tick.
type Brain struct {
	program *Program
	env     Env

	actor      any
	vars       *varStore
	activePage int
	started    bool

	Events *brainmodel.Emitter[Event]
}

// New binds a compiled Program to env's registries. Call Initialize to
// attach the host actor, then Startup before the first Think.
func New(program *Program, env Env) *Brain {
	return &Brain{
		program: program,
		env:     env,
		vars:    newVarStore(),
		Events:  brainmodel.NewEmitter[Event](),
	}
}

// Initialize captures the opaque host actor the runtime issues actuator
// side effects against, as the execution context's data.
func (b *Brain) Initialize(actor any) { b.actor = actor }

// Startup enters page 0 and emits page_activated{0}.
func (b *Brain) Startup() {
	b.started = true
	b.activePage = 0
	b.emitActivated(0)
}

// Shutdown deactivates the current page. Think/Startup must not be called
// again on a shut-down Brain.
func (b *Brain) Shutdown() {
	if !b.started {
		return
	}
	b.emitDeactivated(b.activePage)
	b.started = false
}

// ActivePage returns the currently active page's index.
func (b *Brain) ActivePage() int { return b.activePage }

// Emit publishes an arbitrary named event.
func (b *Brain) Emit(name string, payload any) { b.Events.Emit(Event{Name: name, Payload: payload}) }

func (b *Brain) emitActivated(idx int) { b.Emit("page_activated", PageActivated{PageIndex: idx}) }
func (b *Brain) emitDeactivated(idx int) {
	b.Emit("page_deactivated", PageDeactivated{PageIndex: idx})
}

// Think is the per-tick entry point: it evaluates every
// root-level rule of the active page in source order, running each rule's
// DO statements when its WHEN predicate holds and then descending into its
// children (a rule tree is a chain of nested "when"s), stopping the tick
// immediately the first time a switchPage actuator fires.
func (b *Brain) Think(simTime, dt float64) error {
	if !b.started {
		return ErrNotStarted
	}
	if b.activePage < 0 || b.activePage >= len(b.program.Pages) {
		return fmt.Errorf("runtime: active page index %d out of range", b.activePage)
	}

	var diags []string
	ctx := &functions.Context{Data: b.actor, Time: simTime, Dt: dt, Diagnostics: &diags}
	ev := &evaluator{lookup: b.program.lookup, env: b.env, vars: b.vars, ctx: ctx}

	page := b.program.Pages[b.activePage]
	for _, r := range page.Rules {
		if b.runRule(ev, r, nil) {
			break
		}
	}
	if ev.switchFired {
		b.switchPage(ev.switchedTo)
	}
	return nil
}

// runRule evaluates r's WHEN predicate; if true, it runs r's DO statements
// (stopping immediately on a switchPage) and then recurses into r's
// children, who are only considered while r's own WHEN held. It returns true if a switchPage fired anywhere in this
// subtree, signalling the caller to stop walking further siblings too.
func (b *Brain) runRule(ev *evaluator, r *CompiledRule, parentScope *ruleScope) bool {
	scope := newRuleScope(parentScope)

	truthy := r.When == nil
	if !truthy {
		whenVal, _ := ev.eval(r.When, scope)
		truthy = value.Truthy(whenVal)
	}
	if !truthy {
		return false
	}

	for _, stmt := range r.Do {
		if _, err := ev.eval(stmt, scope); err != nil {
			continue
		}
		if ev.switchFired {
			return true
		}
	}

	for _, c := range r.Children {
		if b.runRule(ev, c, scope) {
			return true
		}
	}
	return false
}

// switchPage deactivates the current page, activates the target, and leaves
// Think's caller to simply return — the tick has already stopped walking
// rules by the time this runs.
func (b *Brain) switchPage(pageID string) {
	idx, ok := b.program.PageIndex(pageID)
	if !ok {
		return
	}
	b.emitDeactivated(b.activePage)
	b.activePage = idx
	b.emitActivated(idx)
}
