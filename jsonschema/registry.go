package jsonschema

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/oarkflow/oasschema/jsonschema/specs"
	"github.com/oarkflow/oasschema/logger"
	"github.com/oarkflow/oasschema/unmarshaler"
)

// Retriever loads the document behind an absolute URI without fragment.
type Retriever func(uri string) (any, error)

var remoteClient = &http.Client{Timeout: 10 * time.Second}

// FetchRemote is the retriever of the default registry: http and https
// through a shared client, file through the filesystem. Tests replace it to
// observe fetches.
var FetchRemote Retriever = fetchRemote

func fetchRemote(uri string) (any, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", uri)
	}
	var data []byte
	switch u.Scheme {
	case "http", "https":
		ctx, cancel := context.WithTimeout(context.Background(), remoteClient.Timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, err
		}
		resp, err := remoteClient.Do(req)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching %s", uri)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("fetching %s: status %d", uri, resp.StatusCode)
		}
		if data, err = io.ReadAll(resp.Body); err != nil {
			return nil, errors.Wrapf(err, "reading %s", uri)
		}
	case "file":
		if data, err = os.ReadFile(u.Path); err != nil {
			return nil, errors.Wrapf(err, "reading %s", uri)
		}
	default:
		return nil, errors.Errorf("no retriever for scheme %q", u.Scheme)
	}
	var doc any
	if err := unmarshaler.Instance()(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", uri)
	}
	logger.Instance().Debug("retrieved remote schema", "uri", uri)
	return doc, nil
}

type anchor struct {
	contents any
	dynamic  bool
}

type resource struct {
	uri      string
	contents any
	anchors  map[string]anchor
}

// Registry stores schema resources by absolute URI. A registry may have a
// parent it falls back to, and a retriever for URIs nobody registered.
type Registry struct {
	parent   *Registry
	retrieve Retriever

	mu        sync.RWMutex
	resources map[string]*resource
}

type RegistryOption func(*Registry)

// WithRetriever lets the registry load unknown URIs.
func WithRetriever(r Retriever) RegistryOption {
	return func(reg *Registry) {
		reg.retrieve = r
	}
}

// WithParent makes lookups fall back to parent.
func WithParent(parent *Registry) RegistryOption {
	return func(reg *Registry) {
		reg.parent = parent
	}
}

// NewRegistry returns an empty registry. Without WithRetriever it never
// performs I/O.
func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{resources: map[string]*resource{}}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// Add registers contents under uri together with every embedded resource
// and anchor it declares.
func (r *Registry) Add(uri string, contents any) {
	r.add(uri, contents, specFor(contents, draft202012Spec))
}

func (r *Registry) add(uri string, contents any, spec *specification) {
	found := map[string]*resource{}
	crawl(specs.Normalize(stripFragment(uri)), contents, spec, found, nil)
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, res := range found {
		r.resources[k] = res
	}
}

// Len returns the number of resources stored directly in r.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources)
}

// Retrieves reports whether r or one of its parents can load unknown URIs.
func (r *Registry) Retrieves() bool {
	for reg := r; reg != nil; reg = reg.parent {
		if reg.retrieve != nil {
			return true
		}
	}
	return false
}

func (r *Registry) local(uri string) (*resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resources[uri]
	return res, ok
}

func (r *Registry) lookup(uri string) (*resource, error) {
	uri = specs.Normalize(uri)
	for reg := r; reg != nil; reg = reg.parent {
		if res, ok := reg.local(uri); ok {
			return res, nil
		}
	}
	for reg := r; reg != nil; reg = reg.parent {
		if reg.retrieve == nil {
			continue
		}
		contents, err := reg.retrieve(uri)
		if err != nil {
			return nil, errors.Wrapf(ErrUnresolvable, "retrieving %q: %v", uri, err)
		}
		reg.add(uri, contents, specFor(contents, draft202012Spec))
		if res, ok := reg.local(uri); ok {
			return res, nil
		}
		return nil, errors.Wrapf(ErrUnresolvable, "retrieved %q has no resource", uri)
	}
	return nil, errors.Wrapf(ErrUnresolvable, "no resource registered for %q", uri)
}

var (
	specsOnce     sync.Once
	specsRegistry *Registry
	defaultOnce   sync.Once
	defaultReg    *Registry
)

// Specifications is the local registry of bundled metaschemas. It never
// retrieves anything.
func Specifications() *Registry {
	specsOnce.Do(func() {
		specsRegistry = NewRegistry()
		for _, uri := range specs.URIs() {
			doc := specs.MustLookup(uri)
			specsRegistry.add(uri, doc, specFor(doc, draft202012Spec))
		}
	})
	return specsRegistry
}

// DefaultRegistry is used by validators built without WithRegistry. It knows
// the bundled metaschemas and retrieves anything else through FetchRemote.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry(
			WithParent(Specifications()),
			WithRetriever(func(uri string) (any, error) { return FetchRemote(uri) }),
		)
	})
	return defaultReg
}

// Resolved is the target of a reference and the resolver to continue with.
type Resolved struct {
	Contents any
	Resolver *Resolver
}

// Resolver resolves references relative to a base URI and remembers the
// dynamic scope for $dynamicRef.
type Resolver struct {
	base     string
	registry *Registry
	scopes   []string
}

func newResolver(base string, registry *Registry) *Resolver {
	return &Resolver{base: base, registry: registry, scopes: []string{base}}
}

func (r *Resolver) Base() string {
	return r.base
}

func (r *Resolver) Registry() *Registry {
	return r.registry
}

func (r *Resolver) enter(uri string) *Resolver {
	scopes := r.scopes
	if len(scopes) == 0 || scopes[len(scopes)-1] != uri {
		scopes = append(append(make([]string, 0, len(scopes)+1), scopes...), uri)
	}
	return &Resolver{base: uri, registry: r.registry, scopes: scopes}
}

// InSubresource returns a resolver whose base is id resolved against the
// current base.
func (r *Resolver) InSubresource(id string) *Resolver {
	uri, err := joinURI(r.base, id)
	if err != nil {
		return r
	}
	return r.enter(specs.Normalize(stripFragment(uri)))
}

// Lookup resolves ref against the current base.
func (r *Resolver) Lookup(ref string) (Resolved, error) {
	uri, err := joinURI(r.base, ref)
	if err != nil {
		return Resolved{}, &ReferenceError{Ref: ref, Cause: errors.Wrap(ErrUnresolvable, err.Error())}
	}
	docURI, fragment := splitFragment(uri)
	res, err := r.registry.lookup(docURI)
	if err != nil {
		return Resolved{}, &ReferenceError{Ref: ref, Cause: err}
	}
	next := r.enter(res.uri)
	switch {
	case fragment == "":
		return Resolved{Contents: res.contents, Resolver: next}, nil
	case strings.HasPrefix(fragment, "/"):
		contents, base, err := walkPointer(res.contents, fragment, res.uri)
		if err != nil {
			return Resolved{}, &ReferenceError{Ref: ref, Cause: err}
		}
		if base != res.uri {
			next = next.enter(base)
		}
		return Resolved{Contents: contents, Resolver: next}, nil
	default:
		a, ok := res.anchors[fragment]
		if !ok {
			return Resolved{}, &ReferenceError{Ref: ref, Cause: errors.Wrapf(ErrUnresolvable, "no anchor %q in %q", fragment, res.uri)}
		}
		return Resolved{Contents: a.contents, Resolver: next}, nil
	}
}

// LookupDynamic resolves a $dynamicRef: when the static target declares a
// matching $dynamicAnchor, the outermost resource in scope declaring the
// same dynamic anchor wins.
func (r *Resolver) LookupDynamic(ref string) (Resolved, error) {
	resolved, err := r.Lookup(ref)
	if err != nil {
		return resolved, err
	}
	_, fragment := splitFragment(ref)
	if fragment == "" || strings.HasPrefix(fragment, "/") {
		return resolved, nil
	}
	target, ok := resolved.Contents.(map[string]any)
	if !ok || target["$dynamicAnchor"] != fragment {
		return resolved, nil
	}
	for _, scope := range r.scopes {
		res, err := r.registry.lookup(scope)
		if err != nil {
			continue
		}
		if a, ok := res.anchors[fragment]; ok && a.dynamic {
			return Resolved{Contents: a.contents, Resolver: r.enter(res.uri)}, nil
		}
	}
	return resolved, nil
}

func stripFragment(uri string) string {
	if i := strings.IndexByte(uri, '#'); i >= 0 {
		return uri[:i]
	}
	return uri
}

func splitFragment(uri string) (string, string) {
	i := strings.IndexByte(uri, '#')
	if i < 0 {
		return uri, ""
	}
	fragment := uri[i+1:]
	if unescaped, err := url.PathUnescape(fragment); err == nil {
		fragment = unescaped
	}
	return uri[:i], fragment
}

func joinURI(base, ref string) (string, error) {
	if base == "" {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(u).String(), nil
}

func walkPointer(doc any, pointer, base string) (any, string, error) {
	node := doc
	for _, raw := range strings.Split(pointer[1:], "/") {
		seg := strings.ReplaceAll(strings.ReplaceAll(raw, "~1", "/"), "~0", "~")
		if m, ok := AsObject(node); ok {
			next, ok := m[seg]
			if !ok {
				return nil, "", errors.Wrapf(ErrUnresolvable, "pointer %q: no member %q", pointer, seg)
			}
			node = next
		} else if a, ok := AsArray(node); ok {
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(a) {
				return nil, "", errors.Wrapf(ErrUnresolvable, "pointer %q: bad index %q", pointer, seg)
			}
			node = a[idx]
		} else {
			return nil, "", errors.Wrapf(ErrUnresolvable, "pointer %q: cannot descend into %q", pointer, seg)
		}
		if m, ok := node.(map[string]any); ok {
			if id, ok := m["$id"].(string); ok && id != "" && !strings.HasPrefix(id, "#") {
				if joined, err := joinURI(base, id); err == nil {
					base = specs.Normalize(stripFragment(joined))
				}
			}
		}
	}
	return node, base, nil
}
