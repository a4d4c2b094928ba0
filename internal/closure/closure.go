// Package closure computes the set of entries and assets that must travel
// with a set of root entries when content is moved between environments.
//
// The traversal follows every Entry and Asset link reachable from the roots,
// fetching each identifier at most once. It runs on a single goroutine with
// an explicit worklist, so deep link chains do not grow the call stack and
// cycles terminate as soon as a node is revisited.
package closure

import (
	"context"
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/debug"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/types"
)

var (
	// ErrNoRoots is returned when Resolve is called without root identifiers.
	ErrNoRoots = errors.New("closure: at least one root identifier is required")

	// ErrEmptyIdentifier is returned when a root identifier is "".
	ErrEmptyIdentifier = errors.New("closure: root identifier must not be empty")

	// ErrUnresolved is reported by a NodeResolver lookup that found neither
	// an entry nor an asset.
	ErrUnresolved = errors.New("not found as entry or asset")
)

// Environment is read access to one environment of a content store.
// Both methods fail when id does not name a record of that type.
type Environment interface {
	GetEntry(ctx context.Context, id string) (*types.Entry, error)
	GetAsset(ctx context.Context, id string) (*types.Asset, error)
}

// NodeResolver is an optional capability of an Environment that can resolve
// an identifier of unknown type in a single call.
type NodeResolver interface {
	ResolveNode(ctx context.Context, id string) (Node, error)
}

// Kind is the resolved type of a node.
type Kind int

const (
	KindUnresolved Kind = iota
	KindEntry
	KindAsset
)

func (k Kind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindAsset:
		return "asset"
	default:
		return "unresolved"
	}
}

// Node is a looked-up identifier. Exactly one of Entry and Asset is set
// unless Kind is KindUnresolved.
type Node struct {
	ID    string
	Kind  Kind
	Entry *types.Entry
	Asset *types.Asset
}

// valid reports whether the record matching Kind is present.
func (n Node) valid() bool {
	switch n.Kind {
	case KindEntry:
		return n.Entry != nil
	case KindAsset:
		return n.Asset != nil
	}
	return false
}

// LookupError reports an identifier that resolved to neither an entry nor an
// asset. It aborts the whole resolution.
type LookupError struct {
	ID  string
	Err error
}

func (e *LookupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%q does not exist as an entry or asset", e.ID)
	}
	return fmt.Sprintf("%q does not exist as an entry or asset: %v", e.ID, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Result holds the identifiers that make up a closure. Entries always starts
// with the roots; the rest of both lists is in discovery order.
type Result struct {
	Entries []string `json:"entries" yaml:"entries"`
	Assets  []string `json:"assets" yaml:"assets"`
}

// VisitFunc is called once for every identifier the traversal fetches.
type VisitFunc func(id string, kind Kind)

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the printf-style sink for skipped malformed links.
func WithLogger(logf func(format string, args ...interface{})) Option {
	return func(r *Resolver) {
		if logf != nil {
			r.logf = logf
		}
	}
}

// WithVisitFunc registers a callback invoked after each successful lookup.
func WithVisitFunc(fn VisitFunc) Option {
	return func(r *Resolver) {
		r.visit = fn
	}
}

// Resolver computes closures against one environment.
type Resolver struct {
	env   Environment
	logf  func(format string, args ...interface{})
	visit VisitFunc
}

// NewResolver returns a Resolver reading from env.
func NewResolver(env Environment, opts ...Option) *Resolver {
	r := &Resolver{
		env:  env,
		logf: debug.Logf,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve is shorthand for NewResolver(env, opts...).Resolve(ctx, roots).
func Resolve(ctx context.Context, env Environment, roots []string, opts ...Option) (*Result, error) {
	return NewResolver(env, opts...).Resolve(ctx, roots)
}

// task is a pending identifier. hint is the link type it was discovered
// through; roots carry KindUnresolved.
type task struct {
	id   string
	hint Kind
}

// traversal is the state of one Resolve call.
type traversal struct {
	visited mapset.Set[string]
	entries *idSet
	assets  *idSet
}

// Resolve returns every entry and asset reachable from roots. Any identifier
// that resolves to neither an entry nor an asset fails the whole call with a
// *LookupError and no partial result.
func (r *Resolver) Resolve(ctx context.Context, roots []string) (*Result, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	st := &traversal{
		visited: mapset.NewThreadUnsafeSet[string](),
		entries: newIDSet(),
		assets:  newIDSet(),
	}
	for _, id := range roots {
		if id == "" {
			return nil, ErrEmptyIdentifier
		}
		st.entries.Add(id)
	}

	for _, id := range roots {
		if err := r.expand(ctx, st, id); err != nil {
			return nil, err
		}
	}

	return &Result{
		Entries: st.entries.Slice(),
		Assets:  st.assets.Slice(),
	}, nil
}

// expand walks everything reachable from root that has not been visited yet.
// Children are pushed in reverse so they are expanded in link order.
func (r *Resolver) expand(ctx context.Context, st *traversal, root string) error {
	stack := []task{{id: root}}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !st.visited.Add(t.id) {
			continue
		}

		node, err := r.lookup(ctx, t)
		if err != nil {
			return err
		}
		if r.visit != nil {
			r.visit(t.id, node.Kind)
		}

		if node.Kind == KindAsset {
			st.assets.Add(t.id)
			continue
		}

		scan := node.Entry.ScanLinks()
		for _, m := range scan.Malformed {
			r.logf("closure: skipping malformed link in %s field %s (%s): %s\n", t.id, m.Field, m.Locale, m.Reason)
		}

		var children []task
		for _, link := range scan.Links {
			id := link.Sys.ID
			if st.visited.Contains(id) {
				continue
			}
			switch link.Sys.LinkType {
			case types.LinkTypeEntry:
				st.entries.Add(id)
				children = append(children, task{id: id, hint: KindEntry})
			case types.LinkTypeAsset:
				st.assets.Add(id)
				children = append(children, task{id: id, hint: KindAsset})
			}
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}

// lookup fetches t.id. Identifiers reached through an Asset link are fetched
// as assets only; everything else tries the entry first.
func (r *Resolver) lookup(ctx context.Context, t task) (Node, error) {
	if t.hint == KindAsset {
		asset, err := r.env.GetAsset(ctx, t.id)
		if err == nil && asset != nil {
			return Node{ID: t.id, Kind: KindAsset, Asset: asset}, nil
		}
		return Node{}, r.lookupFailed(ctx, t.id, err)
	}

	if nr, ok := r.env.(NodeResolver); ok {
		node, err := nr.ResolveNode(ctx, t.id)
		if err != nil {
			return Node{}, r.lookupFailed(ctx, t.id, err)
		}
		if !node.valid() {
			return Node{}, &LookupError{ID: t.id, Err: ErrUnresolved}
		}
		node.ID = t.id
		return node, nil
	}

	entry, entryErr := r.env.GetEntry(ctx, t.id)
	if entryErr == nil && entry != nil {
		return Node{ID: t.id, Kind: KindEntry, Entry: entry}, nil
	}
	if err := ctx.Err(); err != nil {
		return Node{}, err
	}

	asset, assetErr := r.env.GetAsset(ctx, t.id)
	if assetErr == nil && asset != nil {
		return Node{ID: t.id, Kind: KindAsset, Asset: asset}, nil
	}
	return Node{}, r.lookupFailed(ctx, t.id, errors.Join(entryErr, assetErr))
}

// lookupFailed reports a cancelled context as itself rather than as an
// unresolved identifier.
func (r *Resolver) lookupFailed(ctx context.Context, id string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &LookupError{ID: id, Err: err}
}
