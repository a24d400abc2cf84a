package device

// Stream is a single ordered work queue. Submitted tasks run one at a time
// on a dedicated goroutine in submission order; submission itself never
// waits for execution, so kernel launches are asynchronous with respect to
// the host. Ordering between tasks is guaranteed only by issue order on
// the same stream.
type Stream struct {
	tasks chan func()
	done  chan struct{}
}

// NewStream starts an empty stream.
func NewStream() *Stream {
	s := &Stream{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Stream) loop() {
	for fn := range s.tasks {
		fn()
	}
	close(s.done)
}

// Submit enqueues fn behind every previously submitted task.
func (s *Stream) Submit(fn func()) {
	s.tasks <- fn
}

// Synchronize blocks the host until every task submitted before the call
// has completed.
func (s *Stream) Synchronize() {
	fence := make(chan struct{})
	s.tasks <- func() { close(fence) }
	<-fence
}

// Close drains all pending tasks and stops the worker. The stream must not
// be used afterwards.
func (s *Stream) Close() {
	close(s.tasks)
	<-s.done
}
