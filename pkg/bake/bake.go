// Package bake orchestrates test-case generation: it decides whether a request
// still needs choices from the user, then resolves, introspects, renders and
// writes one test case per target class.
package bake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/specvital/bake/pkg/category"
	"github.com/specvital/bake/pkg/construct"
	"github.com/specvital/bake/pkg/domain"
	"github.com/specvital/bake/pkg/introspect"
	"github.com/specvital/bake/pkg/render"
	"github.com/specvital/bake/pkg/resolver"
)

// Console is the user facing output.
type Console interface {
	Out(msg string)
	Err(msg string)
}

// FileWriter writes generated files. It returns false when the file was
// deliberately left untouched, e.g. an overwrite the user declined.
type FileWriter interface {
	CreateFile(path, contents string) (bool, error)
}

// Renderer renders a named template.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// FixtureCollector derives fixture lists from the class index.
type FixtureCollector interface {
	Collect(cat category.Name, fqn string) (*domain.FixtureList, error)
}

// Discoverer lists the class names available for a category.
type Discoverer interface {
	ClassNames(cat *category.Category, plugin string) ([]string, error)
}

// Request is one invocation of the bake command.
type Request struct {
	// Type is the category as typed by the user. Empty asks for type choices.
	Type string
	// Name is the class name, optionally `Plugin.Name` or `Prefix\Name`.
	Name string
	// Plugin overrides the plugin embedded in Name.
	Plugin string
	// Prefix overrides the controller prefix embedded in Name.
	Prefix string
	// Fixtures is an explicit comma separated fixture list replacing discovery.
	Fixtures string
	// All bakes every discoverable class of the category.
	All bool
	// NoFixture suppresses the fixture list entirely.
	NoFixture bool
	// DryRun renders to the console instead of writing files.
	DryRun bool
}

// State is the orchestrator state computed for a request.
type State int

const (
	// StateChoicesPending means the request lacks a type or class and choices are listed.
	StateChoicesPending State = iota
	// StateReady means every target can be baked.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateChoicesPending:
		return "choices-pending"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Plan is the outcome of planning a request.
type Plan struct {
	State State
	// Category is nil when no type was given or the type is unknown.
	Category *category.Category
	// Choices are category names or class names while choices are pending.
	Choices []string
	// Targets are the class names to bake when ready, in discovery order.
	Targets []string
}

// Result is the outcome of one bake.
type Result struct {
	// Class is the fully-qualified class name, empty if resolution failed.
	Class string
	// Path is the test case file path.
	Path string
	// Contents is the rendered test case.
	Contents string
	// Written reports whether the file was written.
	Written bool
	// Skipped reports a bake that was not attempted.
	Skipped bool
	// Aborted reports that the user stopped the run at this bake.
	Aborted bool
	// Err is the failure that stopped this bake, always a *Error.
	Err error
	// Warnings are non-fatal discovery failures, each a *Error.
	Warnings []error
}

// Report collects the results of a request.
type Report struct {
	Plan    Plan
	Results []Result
}

// Failed returns the results whose file could not be produced.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil && !res.Skipped && !res.Aborted {
			failed = append(failed, res)
		}
	}
	return failed
}

// Aborted reports whether the user stopped the run before every target was baked.
func (r *Report) Aborted() bool {
	n := len(r.Results)
	return n > 0 && r.Results[n-1].Aborted
}

// Remaining returns the number of planned targets that were never attempted.
func (r *Report) Remaining() int {
	return len(r.Plan.Targets) - len(r.Results)
}

// Skipped returns the results that were not attempted.
func (r *Report) Skipped() []Result {
	var skipped []Result
	for _, res := range r.Results {
		if res.Skipped {
			skipped = append(skipped, res)
		}
	}
	return skipped
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Resolver   *resolver.Resolver
	Classes    introspect.ClassLookup
	Discoverer Discoverer
	Fixtures   FixtureCollector
	Renderer   Renderer
	Writer     FileWriter
	Console    Console
}

// Orchestrator runs bake requests. It holds no per-request state.
type Orchestrator struct {
	deps      Deps
	lifecycle introspect.LifecyclePolicy
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLifecyclePolicy sets whether lifecycle hooks get test stubs.
func WithLifecyclePolicy(p introspect.LifecyclePolicy) Option {
	return func(o *Orchestrator) {
		o.lifecycle = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an Orchestrator.
func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deps:      deps,
		lifecycle: introspect.LifecycleInclude,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan computes the state of a request without side effects.
func (o *Orchestrator) Plan(req Request) (Plan, error) {
	if req.Type == "" {
		return Plan{State: StateChoicesPending, Choices: category.Names()}, nil
	}

	cat, err := category.Lookup(req.Type)
	if err != nil {
		// Unknown categories are reported per target as skipped bakes.
		return Plan{State: StateReady, Targets: []string{req.Name}}, nil
	}

	if req.Name != "" && !req.All {
		return Plan{State: StateReady, Category: cat, Targets: []string{req.Name}}, nil
	}

	names, err := o.deps.Discoverer.ClassNames(cat, req.Plugin)
	if err != nil {
		return Plan{}, fmt.Errorf("bake: discover %s classes: %w", cat.Name, err)
	}
	if req.All {
		return Plan{State: StateReady, Category: cat, Targets: names}, nil
	}
	return Plan{State: StateChoicesPending, Category: cat, Choices: names}, nil
}

// Run plans the request and either lists choices or bakes every target.
// Individual bake failures are reported in the results; the returned error
// is only set when planning fails or ctx is done. A bake the user aborted
// ends the batch.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	plan, err := o.Plan(req)
	if err != nil {
		return nil, err
	}
	report := &Report{Plan: plan}

	if plan.State == StateChoicesPending {
		if plan.Category == nil {
			o.OutputTypeChoices()
		} else {
			o.outputClassChoices(plan.Category, plan.Choices)
		}
		return report, nil
	}

	for _, name := range plan.Targets {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		target := req
		target.Name = name
		result := o.Bake(ctx, target)
		report.Results = append(report.Results, result)
		if result.Aborted {
			break
		}
	}
	return report, nil
}

// OutputTypeChoices lists the categories a test can be baked for.
func (o *Orchestrator) OutputTypeChoices() []string {
	names := category.Names()
	o.deps.Console.Out("You must provide a class type to bake a test for. Some possible options are:")
	o.numbered(names)
	o.deps.Console.Out("")
	o.deps.Console.Out("Re-run your command as `bake test <type> <classname>`")
	return names
}

// OutputClassChoices lists the classes of a category and returns them.
func (o *Orchestrator) OutputClassChoices(typ, plugin string) ([]string, error) {
	cat, err := category.Lookup(typ)
	if err != nil {
		return nil, newError(ErrUnknownCategory, "", err)
	}
	names, err := o.deps.Discoverer.ClassNames(cat, plugin)
	if err != nil {
		return nil, fmt.Errorf("bake: discover %s classes: %w", cat.Name, err)
	}
	o.outputClassChoices(cat, names)
	return names, nil
}

func (o *Orchestrator) outputClassChoices(cat *category.Category, names []string) {
	o.deps.Console.Out("You must provide a class to bake a test for. Some possible options are:")
	o.numbered(names)
	o.deps.Console.Out("")
	o.deps.Console.Out(fmt.Sprintf("Re-run your command as `bake test %s <classname>`", cat.Name))
}

func (o *Orchestrator) numbered(items []string) {
	for i, item := range items {
		o.deps.Console.Out(fmt.Sprintf("%d. %s", i+1, item))
	}
}

// Bake generates the test case for one class.
//
// The steps are resolve, fixtures, methods, constructor, render and write.
// Discovery failures degrade to empty lists and are recorded as warnings;
// the file is still produced.
func (o *Orchestrator) Bake(ctx context.Context, req Request) Result {
	cat, err := category.Lookup(req.Type)
	if err != nil {
		o.logger.Warn("unsupported category", "type", req.Type, "class", req.Name)
		return Result{Skipped: true, Err: newError(ErrUnknownCategory, req.Name, err)}
	}

	ref, err := o.deps.Resolver.Resolve(string(cat.Name), req.Name, req.Plugin, req.Prefix)
	if err != nil {
		return Result{Skipped: true, Err: newError(ErrUnresolvableClass, req.Name, err)}
	}
	result := Result{Class: ref.Name}
	log := o.logger.With("class", ref.Name)

	path, err := o.deps.Resolver.TestCaseFileName(string(cat.Name), ref.Name, ref.Plugin)
	if err != nil {
		result.Err = newError(ErrFileWrite, ref.Name, err)
		return result
	}
	result.Path = path

	o.deps.Console.Out("")
	o.deps.Console.Out(fmt.Sprintf("Baking test case for %s ...", ref.Name))

	resolvable := true
	if _, ok := o.deps.Classes.Lookup(ref.Name); !ok {
		resolvable = false
		warn := newError(ErrUnresolvableClass, ref.Name, nil)
		log.Debug("class not found in index", "error", warn)
		result.Warnings = append(result.Warnings, warn)
	}

	fixtures := o.fixtures(cat, ref, req, resolvable, &result)

	methods := []string{}
	if resolvable {
		methods, err = introspect.ListOwnMethods(o.deps.Classes, ref.Name, o.lifecycle)
		if err != nil {
			log.Debug("method discovery failed", "error", err)
		}
	}

	ctor := construct.BuildConstructor(string(cat.Name), ref.Name)
	namespace, err := o.deps.Resolver.TestNamespace(string(cat.Name), ref)
	if err != nil {
		result.Err = newError(ErrFileWrite, ref.Name, err)
		return result
	}

	data := render.TestCase{
		Namespace:     namespace,
		ClassName:     ref.ShortName(),
		FullClassName: ref.Name,
		Imports:       construct.BuildImports(string(cat.Name), ref.Name),
		Traits:        construct.TestTraits(string(cat.Name)),
		Fixtures:      fixtures,
		Methods:       methods,
		Setup:         ctor.Setup,
		Construct:     ctor.Construct,
		Teardown:      ctor.Teardown,
		Mock:          construct.HasMockClass(string(cat.Name)),
	}
	if ctor.Construct != "" {
		data.Subject = subjectName(cat, ref)
	}

	contents, err := o.deps.Renderer.Render(render.TestCaseTemplate, data)
	if err != nil {
		result.Err = newError(ErrFileWrite, ref.Name, err)
		return result
	}
	result.Contents = contents

	if req.DryRun {
		o.deps.Console.Out(contents)
		return result
	}
	if err := ctx.Err(); err != nil {
		result.Err = newError(ErrFileWrite, ref.Name, err)
		return result
	}

	written, err := o.deps.Writer.CreateFile(path, contents)
	if errors.Is(err, ErrAborted) {
		log.Info("stopped by user", "path", path)
		result.Aborted = true
		result.Err = newError(ErrAborted, ref.Name, err)
		return result
	}
	if err != nil {
		log.Error("failed to write test case", "path", path, "error", err)
		o.deps.Console.Err(fmt.Sprintf("Could not write %s: %v", path, err))
		result.Err = newError(ErrFileWrite, ref.Name, err)
		return result
	}
	result.Written = written
	return result
}

// fixtures returns the fixture identifiers for the test case, nil when none are rendered.
func (o *Orchestrator) fixtures(cat *category.Category, ref domain.ClassRef, req Request, resolvable bool, result *Result) []string {
	if req.NoFixture {
		return nil
	}
	if req.Fixtures != "" {
		return domain.ParseFixtureOverride(req.Fixtures).Items()
	}
	if !resolvable {
		return nil
	}

	list, err := o.deps.Fixtures.Collect(cat.Name, ref.Name)
	if err != nil {
		warn := newError(ErrFixtureDiscovery, ref.Name, err)
		o.logger.Debug("fixture discovery failed", "class", ref.Name, "error", err)
		result.Warnings = append(result.Warnings, warn)
	}
	return list.Items()
}

// subjectName is the test property holding the instance under test:
// the table alias for tables, the short class name otherwise.
func subjectName(cat *category.Category, ref domain.ClassRef) string {
	if cat.Name == category.Table {
		return cat.Alias(ref.ShortName())
	}
	return ref.ShortName()
}
