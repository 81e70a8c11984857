package sim

import "github.com/avolkov/termlink/terminal"

// Op names a terminal operation for failure scripting.
type Op string

const (
	OpSpec        Op = "spec"
	OpQuote       Op = "quote"
	OpSubmit      Op = "submit"
	OpCancel      Op = "cancel"
	OpClose       Op = "close"
	OpOpenTickets Op = "open_tickets"
)

// FailNext queues err to be returned by the next call of the given
// operation. Queued failures are consumed in order, one per call, before
// the operation's normal behavior.
func (t *Terminal) FailNext(op Op, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[op] = append(t.failures[op], err)
}

// RejectNext queues a definitive rejection for the next SubmitOrder.
func (t *Terminal) RejectNext(code int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rejections = append(t.rejections, terminal.RejectError{Code: code, Message: message})
}

func (t *Terminal) popFailureLocked(op Op) error {
	queue := t.failures[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	t.failures[op] = queue[1:]
	return err
}
