package strategy

// Registry maps strategy type identifiers to their handlers. It is built
// once at startup and handed to the runner; there is no global table, so
// nothing depends on package import order.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler, replacing any previous handler for its type.
func (r *Registry) Register(h Handler) {
	r.handlers[h.Type()] = h
}

// Handler looks up the handler for a strategy type. A miss is a normal
// outcome: the runner turns it into a failed execution, not a crash.
func (r *Registry) Handler(strategyType string) (Handler, bool) {
	h, ok := r.handlers[strategyType]
	return h, ok
}

// Types returns the registered type identifiers.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}

// DefaultRegistry builds the registry with every implemented handler.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&OutOfStockHandler{})
	return r
}
