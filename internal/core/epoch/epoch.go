package epoch

// An Epoch is a monotonic validity token: a node checked at epoch E does not need to be checked
// again at any epoch <= E.
type Epoch uint64

const First Epoch = 1

func (e Epoch) Next() Epoch {
	return e + 1
}

func (e Epoch) IsOlderThan(other Epoch) bool {
	return e < other
}

// A Memo records the epoch at which a node was last checked. The zero value is stale.
type Memo struct {
	epoch Epoch
	set   bool
}

// Fresh returns true if the node was checked at an epoch that is not older than e.
func (m *Memo) Fresh(e Epoch) bool {
	return m.set && !m.epoch.IsOlderThan(e)
}

// Commit records that the node was checked at e, the stored epoch never decreases.
func (m *Memo) Commit(e Epoch) {
	if m.set && e < m.epoch {
		return
	}
	m.epoch = e
	m.set = true
}

// Invalidate makes the memo stale whatever the epoch of the next query.
func (m *Memo) Invalidate() {
	m.set = false
}

func (m *Memo) Epoch() (Epoch, bool) {
	return m.epoch, m.set
}

// A Cached is a result memoized per epoch.
type Cached[T any] struct {
	memo  Memo
	value T
}

func (c *Cached[T]) Get(e Epoch) (T, bool) {
	if c.memo.Fresh(e) {
		return c.value, true
	}
	var zero T
	return zero, false
}

// Set stores the value and the epoch together.
func (c *Cached[T]) Set(e Epoch, value T) {
	c.value = value
	c.memo.Commit(e)
}

func (c *Cached[T]) Invalidate() {
	c.memo.Invalidate()
}
