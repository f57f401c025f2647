package cluster

// monitorTable tracks monitored processes (writers/replicas) and
// subscribers as two disjoint maps instead of one dynamically-typed
// registry, so a down event's handling never has to ask "what kind of
// thing was this handle" at runtime — the lookup itself tells you.
type monitorTable struct {
	// processes maps a monitored writer/replica Handle to the stream and
	// role it plays, so a down event can find its stream in O(1).
	processes map[Handle]processEntry

	// subscribers maps a subscriber Handle to the set of streams it is
	// currently subscribed to, so a down event unsubscribes it everywhere
	// and a QueueDeleted/LeaderUp/LeaderDown fan-out can be targeted.
	subscribers map[Handle]map[StreamID]struct{}
}

type processEntry struct {
	Stream StreamID
	Role   Role
	Node   Node
}

func newMonitorTable() *monitorTable {
	return &monitorTable{
		processes:   make(map[Handle]processEntry),
		subscribers: make(map[Handle]map[StreamID]struct{}),
	}
}

func (t *monitorTable) addProcess(h Handle, stream StreamID, node Node, role Role) {
	t.processes[h] = processEntry{Stream: stream, Role: role, Node: node}
}

func (t *monitorTable) removeProcess(h Handle) {
	delete(t.processes, h)
}

func (t *monitorTable) lookupProcess(h Handle) (processEntry, bool) {
	e, ok := t.processes[h]
	return e, ok
}

func (t *monitorTable) addSubscriber(h Handle, stream StreamID) {
	set, ok := t.subscribers[h]
	if !ok {
		set = make(map[StreamID]struct{})
		t.subscribers[h] = set
	}
	set[stream] = struct{}{}
}

func (t *monitorTable) removeSubscription(h Handle, stream StreamID) {
	set, ok := t.subscribers[h]
	if !ok {
		return
	}
	delete(set, stream)
	if len(set) == 0 {
		delete(t.subscribers, h)
	}
}

// removeSubscriber drops h entirely, returning the streams it had been
// subscribed to (used when h goes down).
func (t *monitorTable) removeSubscriber(h Handle) []StreamID {
	set, ok := t.subscribers[h]
	if !ok {
		return nil
	}
	delete(t.subscribers, h)
	streams := make([]StreamID, 0, len(set))
	for s := range set {
		streams = append(streams, s)
	}
	return streams
}

// subscribersOf returns every Handle currently subscribed to stream.
func (t *monitorTable) subscribersOf(stream StreamID) []Handle {
	var out []Handle
	for h, set := range t.subscribers {
		if _, ok := set[stream]; ok {
			out = append(out, h)
		}
	}
	return out
}

// isSubscriber reports whether h has any subscription at all, which is how
// a down event decides whether to treat h as a subscriber or as a process:
// a handle can be in at most one of the two tables, per invariant 6.
func (t *monitorTable) isSubscriber(h Handle) bool {
	_, ok := t.subscribers[h]
	return ok
}

// hasSubscription reports whether h is already subscribed to stream
// specifically, so subscribe can be made idempotent.
func (t *monitorTable) hasSubscription(h Handle, stream StreamID) bool {
	set, ok := t.subscribers[h]
	if !ok {
		return false
	}
	_, ok = set[stream]
	return ok
}
