package state

import "time"

// Feedback and banner durations.
const (
	ButtonFeedback = 2000 * time.Millisecond
	InlineFeedback = 1000 * time.Millisecond
	BannerDuration = 5000 * time.Millisecond
)

// CopiedText replaces an inline box's text while it shows feedback.
const CopiedText = "Copied!"

// Feedback is the copy feedback of one button: Idle -> Copied -> Idle.
//
// Every Trigger returns a sequence number; only the Expire call carrying
// the latest one returns the instance to Idle, so a timer started by an
// earlier click cannot cut a later one short.
type Feedback struct {
	Hold time.Duration

	seq    uint64
	copied bool
}

// NewFeedback creates an idle Feedback held for hold after each trigger.
func NewFeedback(hold time.Duration) Feedback {
	return Feedback{Hold: hold}
}

// Trigger enters Copied and returns the sequence to pass to Expire.
func (f *Feedback) Trigger() uint64 {
	f.seq++
	f.copied = true
	return f.seq
}

// Expire returns to Idle if seq is the latest trigger.
func (f *Feedback) Expire(seq uint64) bool {
	if seq != f.seq || !f.copied {
		return false
	}
	f.copied = false
	return true
}

// Copied reports whether the feedback is showing.
func (f *Feedback) Copied() bool {
	return f.copied
}

// Reset returns to Idle and invalidates outstanding expirations.
func (f *Feedback) Reset() {
	f.seq++
	f.copied = false
}

// FeedbackSet is inline copy feedback for a row of elements. Each element
// has its own Copied state and its own hold; triggering one never shortens
// another.
type FeedbackSet struct {
	Hold time.Duration

	seq    uint64
	copied map[int]uint64 // element -> sequence of its latest trigger
}

// NewFeedbackSet creates a FeedbackSet with every element idle.
func NewFeedbackSet(hold time.Duration) FeedbackSet {
	return FeedbackSet{Hold: hold}
}

// Trigger puts element i into Copied and returns the sequence to pass to
// Expire.
func (s *FeedbackSet) Trigger(i int) uint64 {
	if s.copied == nil {
		s.copied = make(map[int]uint64)
	}
	s.seq++
	s.copied[i] = s.seq
	return s.seq
}

// Expire returns element i to Idle if seq is its latest trigger.
func (s *FeedbackSet) Expire(i int, seq uint64) bool {
	if cur, ok := s.copied[i]; !ok || cur != seq {
		return false
	}
	delete(s.copied, i)
	return true
}

// Copied reports whether element i is showing feedback.
func (s *FeedbackSet) Copied(i int) bool {
	_, ok := s.copied[i]
	return ok
}

// Len returns the number of elements showing feedback.
func (s *FeedbackSet) Len() int {
	return len(s.copied)
}

// Reset returns every element to Idle. Sequences keep increasing, so
// timers started before the reset expire nothing.
func (s *FeedbackSet) Reset() {
	s.copied = nil
}

// Banner is a transient message that dismisses itself after a delay.
type Banner struct {
	Duration time.Duration

	seq     uint64
	message string
}

// NewBanner creates an empty Banner.
func NewBanner(d time.Duration) Banner {
	return Banner{Duration: d}
}

// Show displays msg, replacing any current message, and returns the
// sequence to pass to Dismiss.
func (b *Banner) Show(msg string) uint64 {
	b.seq++
	b.message = msg
	return b.seq
}

// Dismiss clears the banner if seq is the latest Show.
func (b *Banner) Dismiss(seq uint64) bool {
	if seq != b.seq || b.message == "" {
		return false
	}
	b.message = ""
	return true
}

// Message returns the visible message, or "".
func (b *Banner) Message() string {
	return b.message
}

// Visible reports whether a message is showing.
func (b *Banner) Visible() bool {
	return b.message != ""
}
