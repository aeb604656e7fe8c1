package properties

// Namespace is a view of a Manager with the namespace filled in. It holds no state of its own.
type Namespace struct {
	manager *Manager
	name    string
}

// Namespace returns a view resolving keys under name.
func (m *Manager) Namespace(name string) Namespace {
	return Namespace{manager: m, name: name}
}

func (n Namespace) Name() string {
	return n.name
}

func (n Namespace) Get(key, def string) string {
	return n.manager.Get(n.name, key, def)
}

func (n Namespace) Lookup(key string) (string, bool, error) {
	return n.manager.Lookup(n.name, key)
}

func (n Namespace) GetLocalized(key, def string) string {
	return n.manager.GetLocalized(n.name, key, def)
}

// Binder starts a typed binding over this namespace.
func (n Namespace) Binder() *Binder {
	return NewBinder(n.manager, n.name)
}
