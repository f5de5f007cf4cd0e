package router

import (
	"sort"
	"strings"

	"github.com/NVIDIA/rgwcore/envelope"
)

// Handler resolves and executes an operation for a matched request.
type Handler interface {
	Handle(e *envelope.Envelope) error
}

// node is one registered prefix in the resource tree, mirroring
// RGWRESTMgr's resources_by_size index.
type node struct {
	prefix  string
	handler Handler
}

// Router is the top-level dispatch tree: a default handler plus
// prefix-keyed children, mirroring RGWRESTMgr's default_mgr and
// resource_mgrs/resources_by_size.
type Router struct {
	defaultHandler Handler
	nodes          []node // kept sorted longest-prefix-first
}

func New() *Router {
	return &Router{}
}

// RegisterDefault sets the fallback handler used when no prefix matches -
// mirrors register_default_mgr.
func (r *Router) RegisterDefault(h Handler) {
	r.defaultHandler = h
}

// Register adds a prefix-keyed child handler - mirrors register_resource.
// Re-registering an existing prefix replaces its handler.
func (r *Router) Register(prefix string, h Handler) {
	prefix = strings.Trim(prefix, "/")
	for i := range r.nodes {
		if r.nodes[i].prefix == prefix {
			r.nodes[i].handler = h
			return
		}
	}
	r.nodes = append(r.nodes, node{prefix: prefix, handler: h})
	// Sort longest-prefix-first so Resolve's linear scan finds the most
	// specific match first. This is the fix for the Open Question bug in
	// RGWRESTMgr::get_resource_mgr, which iterated its size-keyed index
	// from smallest to largest and used map::end() (one past the largest
	// key) as its starting iterator without decrementing it first -
	// effectively always missing the single largest-size bucket and
	// silently falling through. Here the list is simply sorted descending
	// by prefix length and scanned from the front, so the longest match
	// always wins and no bucket is ever skipped.
	sort.SliceStable(r.nodes, func(i, j int) bool {
		return len(r.nodes[i].prefix) > len(r.nodes[j].prefix)
	})
}

// Resolve finds the handler registered for the longest prefix of path that
// matches, falling back to the default handler. Mirrors
// RGWRESTMgr::get_resource_mgr / RGWREST::get_handler.
func (r *Router) Resolve(path Path) (Handler, string) {
	trimmed := strings.Join(path.L, "/")
	for _, n := range r.nodes {
		if n.prefix == "" {
			continue
		}
		if trimmed == n.prefix || strings.HasPrefix(trimmed, n.prefix+"/") {
			rest := strings.TrimPrefix(trimmed, n.prefix)
			rest = strings.TrimPrefix(rest, "/")
			return n.handler, rest
		}
	}
	if r.defaultHandler != nil {
		return r.defaultHandler, trimmed
	}
	return nil, trimmed
}
