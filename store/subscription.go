package store

type Subscription interface {
	Unsubscribe()
}

type subs struct {
	store *Store
	fn    Listener
}

func (s *subs) Unsubscribe() {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	listeners := make([]*subs, 0, len(st.listeners))
	for _, l := range st.listeners {
		if l != s {
			listeners = append(listeners, l)
		}
	}

	st.listeners = listeners
}
