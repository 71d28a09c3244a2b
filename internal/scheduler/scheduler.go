// Package scheduler implements a deterministic, single-threaded phase
// scheduler: phases and pipelines are ordered once at insertion time,
// systems attach to phases, run-conditions gate execution, and external
// events trigger their own groups of phases. One failing system never stops
// the frame.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/phasor/internal/ordering"
	"github.com/aristath/phasor/internal/phase"
)

// SystemError describes a runtime failure caught during execution. Runtime
// failures are reported, never propagated: the rest of the current phase
// and all subsequent phases still run.
type SystemError struct {
	System string       // registration name; empty for phase-level conditions
	Phase  *phase.Phase // nil when the system ran outside a phase context
	Stage  string       // "system", "condition" or "cleanup"
	Err    error
}

// group is one trigger group: the ordered phases that run when its trigger
// fires, plus the subscription to tear down at Cleanup.
type group struct {
	graph      *ordering.Graph
	disconnect func()
}

// Scheduler composes the ordering graphs, the system registry and the
// trigger subscriptions behind one façade. The argument value given at
// construction is threaded unchanged into every system and condition call
// for the scheduler's entire lifetime.
//
// Execution is single-threaded and cooperative. The mutex only guards
// registration state; it is never held while user code runs, so systems may
// freely call registration APIs on their own scheduler (taking effect the
// next time the phase is reached).
type Scheduler[T any] struct {
	mu   sync.Mutex
	args T
	log  zerolog.Logger

	reg          *registry[T]
	defaultGroup *group
	eventGroups  map[any]*group
	eventOrder   []any // group creation order, for deterministic teardown

	errHooks []func(SystemError)

	lastRun time.Time
	delta   time.Duration
	closed  bool
}

// Option configures a Scheduler at construction.
type Option[T any] func(*Scheduler[T])

// WithLogger sets the logger runtime failures are reported through.
// The default is a no-op logger.
func WithLogger[T any](log zerolog.Logger) Option[T] {
	return func(s *Scheduler[T]) { s.log = log }
}

// New creates a scheduler around the given argument value. The builtin
// Startup pipeline and the Main pipeline are registered in the default
// trigger group, with Main pinned as the sentinel block: plain inserts land
// between the startup phases and First.
func New[T any](args T, opts ...Option[T]) *Scheduler[T] {
	s := &Scheduler[T]{
		args:         args,
		log:          zerolog.Nop(),
		reg:          newRegistry[T](),
		defaultGroup: &group{graph: ordering.New()},
		eventGroups:  make(map[any]*group),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Both builtins are fresh in a fresh graph; these cannot fail.
	if err := s.defaultGroup.graph.Insert(phase.StartupPipeline); err != nil {
		panic(fmt.Sprintf("scheduler: registering builtin startup pipeline: %v", err))
	}
	if err := s.defaultGroup.graph.Pin(phase.MainPipeline); err != nil {
		panic(fmt.Sprintf("scheduler: registering builtin main pipeline: %v", err))
	}
	return s
}

// Insert registers a phase or pipeline in the default trigger group,
// immediately before the Main block.
func (s *Scheduler[T]) Insert(node any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	if err := validateNode(node); err != nil {
		return err
	}
	if err := s.checkUnregistered(node); err != nil {
		return err
	}
	return s.defaultGroup.graph.Insert(node)
}

// InsertAfter splices a phase or pipeline immediately after anchor, in
// whichever trigger group holds the anchor.
func (s *Scheduler[T]) InsertAfter(node, anchor any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	if err := validateNode(node); err != nil {
		return err
	}
	if err := s.checkUnregistered(node); err != nil {
		return err
	}
	g, err := s.groupOf(anchor)
	if err != nil {
		return err
	}
	return g.graph.InsertAfter(node, anchor)
}

// InsertBefore splices a phase or pipeline immediately before anchor, in
// whichever trigger group holds the anchor.
func (s *Scheduler[T]) InsertBefore(node, anchor any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	if err := validateNode(node); err != nil {
		return err
	}
	if err := s.checkUnregistered(node); err != nil {
		return err
	}
	g, err := s.groupOf(anchor)
	if err != nil {
		return err
	}
	return g.graph.InsertBefore(node, anchor)
}

// AddSystem registers a system. The optional at argument overrides the
// default phase (Update); a System value's own Phase field wins over both.
// The owning phase must already be inserted into an ordering.
func (s *Scheduler[T]) AddSystem(sys any, at ...*phase.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addSystemLocked(sys, fallbackPhase(at))
}

// AddSystems registers a batch of systems; each element may carry its own
// phase via the System form.
func (s *Scheduler[T]) AddSystems(systems []any, at ...*phase.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fallback := fallbackPhase(at)
	for _, sys := range systems {
		if err := s.addSystemLocked(sys, fallback); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler[T]) addSystemLocked(sys any, fallback *phase.Phase) error {
	if s.closed {
		return ErrSchedulerClosed
	}
	e, err := resolve[T](sys, fallback)
	if err != nil {
		return err
	}
	if !s.phaseRegistered(e.phase) {
		return fmt.Errorf("system %q: phase %q: %w", e.name, e.phase, ordering.ErrDependencyNotRegistered)
	}
	s.reg.add(e)
	return nil
}

// EditSystem moves an existing registration to the end of newPhase's list.
func (s *Scheduler[T]) EditSystem(sys any, newPhase *phase.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	key, ok := keyOf[T](sys)
	if !ok {
		return fmt.Errorf("edit: %T: %w", sys, ErrUnknownDependent)
	}
	if !s.phaseRegistered(newPhase) {
		return fmt.Errorf("edit: phase %q: %w", newPhase, ordering.ErrDependencyNotRegistered)
	}
	return s.reg.move(key, newPhase)
}

// RemoveSystem removes a registration. If the system is initialized and
// carries a cleanup callable, the cleanup runs synchronously first; a panic
// in it is reported, not propagated.
func (s *Scheduler[T]) RemoveSystem(sys any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	key, ok := keyOf[T](sys)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("remove: %T: %w", sys, ErrUnknownDependent)
	}
	e, ok := s.reg.get(key)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("remove: %w", ErrUnknownSystem)
	}
	s.mu.Unlock()

	// Cleanup runs outside the lock: it is user code.
	s.runCleanup(e)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.remove(key)
	return nil
}

// ReplaceSystem swaps the callable identity of an existing registration,
// preserving its position among siblings in the phase. The old system's
// cleanup does not run; the replacement starts uninitialized if it is an
// initializer.
func (s *Scheduler[T]) ReplaceSystem(old, repl any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	oldKey, ok := keyOf[T](old)
	if !ok {
		return fmt.Errorf("replace: %T: %w", old, ErrUnknownDependent)
	}
	e, err := resolve[T](repl, phase.Update)
	if err != nil {
		return err
	}
	return s.reg.replace(oldKey, e)
}

// AddRunCondition attaches a run-condition to a system, a phase, or every
// phase of a pipeline.
func (s *Scheduler[T]) AddRunCondition(target any, cond Condition[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	switch t := target.(type) {
	case *phase.Phase:
		s.reg.addPhaseCondition(t, cond)
		return nil
	case *phase.Pipeline:
		for _, p := range t.Phases() {
			s.reg.addPhaseCondition(p, cond)
		}
		return nil
	default:
		key, ok := keyOf[T](target)
		if !ok {
			return fmt.Errorf("condition target %T: %w", target, ErrUnknownDependent)
		}
		e, ok := s.reg.get(key)
		if !ok {
			return fmt.Errorf("condition target: %w", ErrUnknownSystem)
		}
		e.conds = append(e.conds, cond)
		return nil
	}
}

// RunAll executes the default trigger group's full resolved order once and
// advances the delta-time clock.
func (s *Scheduler[T]) RunAll() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	if s.lastRun.IsZero() {
		s.delta = 0
	} else {
		s.delta = now.Sub(s.lastRun)
	}
	s.lastRun = now
	order := s.defaultGroup.graph.Ordered()
	s.mu.Unlock()

	for _, p := range order {
		s.runPhase(p)
	}
}

// Run executes exactly one target: a phase (under its conditions), a
// pipeline (its phases in order), or a single registered system (under its
// own conditions only).
func (s *Scheduler[T]) Run(target any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.mu.Unlock()

	switch t := target.(type) {
	case *phase.Phase:
		s.runPhase(t)
		return nil
	case *phase.Pipeline:
		for _, p := range t.Phases() {
			s.runPhase(p)
		}
		return nil
	default:
		key, ok := keyOf[T](target)
		if !ok {
			return fmt.Errorf("run: %T: %w", target, ErrUnknownDependent)
		}
		s.mu.Lock()
		e, found := s.reg.get(key)
		s.mu.Unlock()
		if !found {
			return fmt.Errorf("run: %w", ErrUnknownSystem)
		}
		s.runSystem(e, e.phase)
		return nil
	}
}

// DeltaTime reports the wall-clock distance between the two most recent
// RunAll invocations; zero before and during the first one. Event-triggered
// groups do not advance it.
func (s *Scheduler[T]) DeltaTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delta
}

// OnSystemError registers a hook invoked for every reported runtime
// failure, after it is logged.
func (s *Scheduler[T]) OnSystemError(hook func(SystemError)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errHooks = append(s.errHooks, hook)
}

// OrderedPhases returns the default trigger group's resolved order.
func (s *Scheduler[T]) OrderedPhases() []*phase.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultGroup.graph.Ordered()
}

// SystemsIn returns read-only views of the systems registered in p, in
// execution order.
func (s *Scheduler[T]) SystemsIn(p *phase.Phase) []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.infos(p)
}

// Cleanup disconnects every trigger subscription, runs every initialized
// system's cleanup callable (best-effort, panics reported), and discards
/// internal state. The scheduler must not be used afterwards: structural
// calls return ErrSchedulerClosed, run calls do nothing. Subscriptions are
// only ever torn down here; removing systems never tears one down early.
func (s *Scheduler[T]) Cleanup() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true

	disconnects := make([]func(), 0, len(s.eventOrder))
	for _, key := range s.eventOrder {
		if g := s.eventGroups[key]; g != nil && g.disconnect != nil {
			disconnects = append(disconnects, g.disconnect)
		}
	}
	entries := s.reg.all()
	s.eventGroups = make(map[any]*group)
	s.eventOrder = nil
	s.mu.Unlock()

	for _, disconnect := range disconnects {
		disconnect()
	}
	for _, e := range entries {
		s.runCleanup(e)
	}
}

// runPhase evaluates the phase's conditions and, if they pass, runs a
// snapshot of its systems in registration order.
func (s *Scheduler[T]) runPhase(p *phase.Phase) {
	s.mu.Lock()
	conds := append([]Condition[T](nil), s.reg.conditionsFor(p)...)
	systems := s.reg.snapshot(p)
	s.mu.Unlock()

	if !s.evalConditions(p, "", conds) {
		return
	}
	for _, e := range systems {
		s.runSystem(e, p)
	}
}

// runSystem evaluates the system's own conditions and invokes it, handling
// the once-phase bookkeeping and the initializer transition.
func (s *Scheduler[T]) runSystem(e *entry[T], p *phase.Phase) {
	if p != nil && p.Once() && e.ran {
		return
	}
	if !s.evalConditions(p, e.name, e.conds) {
		return
	}
	if p != nil && p.Once() {
		// The attempt counts: a panicking startup system does not retry.
		e.ran = true
	}
	s.invoke(e, p)
}

func (s *Scheduler[T]) invoke(e *entry[T], p *phase.Phase) {
	defer func() {
		if r := recover(); r != nil {
			s.report(SystemError{
				System: e.name,
				Phase:  p,
				Stage:  "system",
				Err:    fmt.Errorf("panic: %v", r),
			})
		}
	}()

	if !e.initialized {
		// First invocation of an initializer: run setup, capture the
		// runtime and cleanup callables, and stop. The setup logic never
		// runs again.
		run, cleanup := e.init(s.args)
		e.run, e.cleanup = run, cleanup
		e.initialized = true
		return
	}
	if e.run != nil {
		e.run(s.args)
	}
}

// evalConditions runs conditions in attachment order; a panicking condition
// is reported and counts as false.
func (s *Scheduler[T]) evalConditions(p *phase.Phase, system string, conds []Condition[T]) bool {
	for _, cond := range conds {
		pass, err := s.evalCondition(cond)
		if err != nil {
			s.report(SystemError{System: system, Phase: p, Stage: "condition", Err: err})
			return false
		}
		if !pass {
			return false
		}
	}
	return true
}

func (s *Scheduler[T]) evalCondition(cond Condition[T]) (pass bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return cond(s.args), nil
}

func (s *Scheduler[T]) runCleanup(e *entry[T]) {
	if !e.initialized || e.cleanup == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.report(SystemError{
				System: e.name,
				Phase:  e.phase,
				Stage:  "cleanup",
				Err:    fmt.Errorf("panic: %v", r),
			})
		}
	}()
	e.cleanup(s.args)
}

func (s *Scheduler[T]) report(se SystemError) {
	label := ""
	if se.Phase != nil {
		label = se.Phase.Label()
	}
	s.log.Error().
		Str("system", se.System).
		Str("phase", label).
		Str("stage", se.Stage).
		Err(se.Err).
		Msg("system failed")

	s.mu.Lock()
	hooks := append([]func(SystemError){}, s.errHooks...)
	s.mu.Unlock()
	for _, hook := range hooks {
		hook(se)
	}
}

// groupOf finds the trigger group holding the anchor.
func (s *Scheduler[T]) groupOf(anchor any) (*group, error) {
	if s.defaultGroup.graph.Contains(anchor) {
		return s.defaultGroup, nil
	}
	for _, key := range s.eventOrder {
		if g := s.eventGroups[key]; g != nil && g.graph.Contains(anchor) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("anchor %v: %w", anchor, ordering.ErrDependencyNotRegistered)
}

// checkUnregistered rejects nodes with a phase already present in any
// trigger group. A phase belongs to exactly one group for its lifetime, so
// presence anywhere is a duplicate, not just presence in the target group.
func (s *Scheduler[T]) checkUnregistered(node any) error {
	var phases []*phase.Phase
	switch n := node.(type) {
	case *phase.Phase:
		phases = []*phase.Phase{n}
	case *phase.Pipeline:
		phases = n.Phases()
	}
	for _, p := range phases {
		if s.phaseRegistered(p) {
			return fmt.Errorf("phase %q: %w", p, ordering.ErrDuplicateRegistration)
		}
	}
	return nil
}

// phaseRegistered reports whether p is in any trigger group's order.
func (s *Scheduler[T]) phaseRegistered(p *phase.Phase) bool {
	if s.defaultGroup.graph.ContainsPhase(p) {
		return true
	}
	for _, key := range s.eventOrder {
		if g := s.eventGroups[key]; g != nil && g.graph.ContainsPhase(p) {
			return true
		}
	}
	return false
}

func validateNode(node any) error {
	switch node.(type) {
	case *phase.Phase, *phase.Pipeline:
		return nil
	default:
		return fmt.Errorf("node %T: %w", node, ErrUnknownDependent)
	}
}

func fallbackPhase(at []*phase.Phase) *phase.Phase {
	if len(at) > 0 && at[0] != nil {
		return at[0]
	}
	return phase.Update
}
