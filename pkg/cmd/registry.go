package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
)

// Registry maps case-insensitive aliases to descriptors. It is filled at
// startup and frozen before the first dispatch; after that lookups take no
// lock.
type Registry struct {
	mu       sync.Mutex
	frozen   atomic.Bool
	commands map[string]*Descriptor

	log          zerolog.Logger
	matchTimeout time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used by RegisterAll.
func WithRegistryLogger(l zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// WithMatchTimeout bounds each grammar match of the registered commands.
func WithMatchTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.matchTimeout = d }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		commands:     make(map[string]*Descriptor),
		log:          zerolog.Nop(),
		matchTimeout: DefaultMatchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds every declaration of src and its parents. The whole source is
// validated first, so a failing source leaves the registry unchanged. Aliases
// already bound are overwritten: the last registration wins.
func (r *Registry) Register(src Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return &SourceError{Source: sourceName(src), Err: ErrRegistryFrozen}
	}

	descs, err := r.build(src)
	if err != nil {
		return err
	}
	for _, d := range descs {
		for _, alias := range d.Aliases {
			r.commands[alias] = d
		}
	}
	return nil
}

// RegisterAll registers each source, logging failures and carrying on with
// the rest. The returned error joins every failure.
func (r *Registry) RegisterAll(srcs ...Source) error {
	var errs []error
	for _, src := range srcs {
		if err := r.Register(src); err != nil {
			r.log.Error().Err(err).Str("source", sourceName(src)).Msg("failed to register command source")
			errs = append(errs, err)
			continue
		}
		r.log.Debug().Str("source", sourceName(src)).Msg("registered command source")
	}
	return errors.Join(errs...)
}

// Freeze stops further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Lookup returns the descriptor bound to alias.
func (r *Registry) Lookup(alias string) (*Descriptor, bool) {
	key := fold(alias)
	if r.frozen.Load() {
		d, ok := r.commands[key]
		return d, ok
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.commands[key]
	return d, ok
}

// Has reports whether alias is registered.
func (r *Registry) Has(alias string) bool {
	_, ok := r.Lookup(alias)
	return ok
}

// All returns every descriptor still reachable by an alias, sorted by name.
func (r *Registry) All() []*Descriptor {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}

	seen := make(map[*Descriptor]bool, len(r.commands))
	list := make([]*Descriptor, 0, len(r.commands))
	for _, d := range r.commands {
		if seen[d] {
			continue
		}
		seen[d] = true
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

// Aliases returns the aliases currently bound to d. Overwritten aliases are
// not included.
func (r *Registry) Aliases(d *Descriptor) []string {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	out := make([]string, 0, len(d.Aliases))
	for _, a := range d.Aliases {
		if r.commands[a] == d {
			out = append(out, a)
		}
	}
	return out
}

func (r *Registry) build(src Source) ([]*Descriptor, error) {
	name := sourceName(src)

	decls, err := collect(src)
	if err != nil {
		return nil, &SourceError{Source: name, Err: err}
	}

	type pending struct {
		decl    Declaration
		aliases []string
		grammar *Grammar
	}
	rows := make([]pending, 0, len(decls))
	needsOwner := false

	for i, decl := range decls {
		aliases := foldAliases(decl.Aliases)
		if len(aliases) == 0 {
			return nil, &SourceError{Source: name, Err: fmt.Errorf("%w: declaration %d has no aliases", ErrInvalidDeclaration, i)}
		}
		if (decl.Run == nil) == (decl.Method == nil) {
			return nil, &SourceError{Source: name, Alias: aliases[0], Err: fmt.Errorf("%w: exactly one of Run or Method must be set", ErrInvalidDeclaration)}
		}
		if decl.Method != nil {
			if src.New == nil {
				return nil, &SourceError{Source: name, Alias: aliases[0], Err: fmt.Errorf("%w: method handler in a source without a constructor", ErrInvalidDeclaration)}
			}
			needsOwner = true
		}

		var g *Grammar
		if decl.Pattern != "" {
			g, err = CompileGrammar(decl.Pattern, r.matchTimeout)
			if err != nil {
				return nil, &SourceError{Source: name, Alias: aliases[0], Err: err}
			}
		}
		rows = append(rows, pending{decl: decl, aliases: aliases, grammar: g})
	}

	var owner any
	if needsOwner {
		owner, err = instantiate(src.New)
		if err != nil {
			return nil, &SourceError{Source: name, Err: err}
		}
	}

	descs := make([]*Descriptor, 0, len(rows))
	for _, row := range rows {
		d := &Descriptor{
			Aliases:     row.aliases,
			Usage:       orNotAvailable(row.decl.Usage),
			Description: orNotAvailable(row.decl.Description),
			Permission:  strings.TrimSpace(row.decl.Permission),
			Grammar:     row.grammar,
			Source:      name,
		}
		if row.decl.Method != nil {
			d.Handler = BoundHandler{Owner: owner, Method: row.decl.Method}
		} else {
			d.Handler = StaticHandler{Fn: row.decl.Run}
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// collect flattens the declarations of src and its parent chain, child first.
func collect(src Source) ([]Declaration, error) {
	var out []Declaration
	seen := map[*Source]bool{}
	out = append(out, src.Commands...)
	for p := src.Parent; p != nil; p = p.Parent {
		if seen[p] {
			return nil, fmt.Errorf("%w: parent chain of %s has a cycle", ErrInvalidDeclaration, sourceName(src))
		}
		seen[p] = true
		out = append(out, p.Commands...)
	}
	return out, nil
}

func instantiate(newFn func() (any, error)) (owner any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			owner, err = nil, fmt.Errorf("%w: constructor panicked: %v", ErrInstantiation, rec)
		}
	}()
	owner, err = newFn()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInstantiation, err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: constructor returned nil", ErrInstantiation)
	}
	return owner, nil
}

func foldAliases(aliases []string) []string {
	out := make([]string, 0, len(aliases))
	seen := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" || strings.ContainsRune(a, ' ') {
			continue
		}
		f := fold(a)
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func sourceName(src Source) string {
	if src.Name == "" {
		return "unnamed"
	}
	return src.Name
}

func orNotAvailable(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
