// Package telegramtest provides an in-memory telegram.Sender for tests.
package telegramtest

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"life-planner/internal/telegram"
)

// Call is one recorded Send attempt.
type Call struct {
	Message telegram.Message
	At      time.Time
	ID      int
	Err     error
}

// Sender records every call. Scripted errors are returned by the next Send
// calls in order; once they run out, sends succeed.
type Sender struct {
	Clock clockwork.Clock

	mu     sync.Mutex
	calls  []Call
	acks   []string
	script []error
	ackErr error
	nextID int
}

// New returns a Sender that stamps calls with clock. A nil clock uses the real one.
func New(clock clockwork.Clock) *Sender {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sender{Clock: clock, nextID: 1000}
}

// FailNext queues errors for the following Send calls. A nil entry succeeds.
func (s *Sender) FailNext(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, errs...)
}

// FailAcks makes every AnswerCallback return err.
func (s *Sender) FailAcks(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ackErr = err
}

func (s *Sender) Send(ctx context.Context, msg telegram.Message) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := Call{Message: msg, At: s.Clock.Now()}
	if len(s.script) > 0 {
		call.Err = s.script[0]
		s.script = s.script[1:]
	}
	if call.Err == nil {
		s.nextID++
		call.ID = s.nextID
	}
	s.calls = append(s.calls, call)
	return call.ID, call.Err
}

func (s *Sender) AnswerCallback(ctx context.Context, callbackID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acks = append(s.acks, callbackID)
	return s.ackErr
}

// Calls returns every Send attempt including failed ones.
func (s *Sender) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Delivered returns the messages that were accepted.
func (s *Sender) Delivered() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Err == nil {
			out = append(out, c)
		}
	}
	return out
}

// DeliveredTo returns the accepted messages for one chat.
func (s *Sender) DeliveredTo(chatID int64) []telegram.Message {
	var out []telegram.Message
	for _, c := range s.Delivered() {
		if c.Message.ChatID == chatID {
			out = append(out, c.Message)
		}
	}
	return out
}

// Acks returns the acknowledged callback ids.
func (s *Sender) Acks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.acks...)
}
