package services

// View is read-only introspection over the service map. It never
// instantiates services.
type View struct {
	c        Binder
	services *Map
	catalog  *Catalog
}

// Has reports whether name is registered.
func (v *View) Has(name string) bool {
	_, ok := v.services.Lookup(name)
	return ok
}

// HasBound reports whether name is registered and bound in the container.
func (v *View) HasBound(name string) bool {
	return v.Has(name) && v.c.Bound(v.Key(name))
}

// Names returns registered names in map order.
func (v *View) Names() []string {
	return v.services.Names()
}

// Key returns the container key for name.
func (v *View) Key(name string) string {
	return Key(name)
}

// Entries returns the registered (name, class) pairs in map order.
func (v *View) Entries() []Entry {
	return v.services.Entries()
}

// Inspect reports how far name gets without resolving it: NotFound,
// MissingClass, Unbound or Bound, with the matching error.
func (v *View) Inspect(name string) Result {
	return inspect(v.c, v.services, v.catalog, name)
}
