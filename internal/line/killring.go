package line

// killRingMax mirrors the teacher's kill_ring.go constant.
const killRingMax = 10

// KillRing implements a fixed-size kill ring (spec §3: "A kill ring of
// N=10 most recent deletions with a rotating index"), moved out of the
// teacher's kill_ring.go into its own type operating on a Buffer rather
// than directly on a screen.
type KillRing struct {
	entries []string
	killing bool
	yanking bool
}

// NewKillRing returns an empty kill ring.
func NewKillRing() *KillRing {
	return &KillRing{entries: make([]string, 0, killRingMax)}
}

// Append appends text to the current kill-ring entry, starting a new entry
// if the previous command was not a kill.
func (r *KillRing) Append(s string) {
	r.maybeBeginKill()
	head := len(r.entries) - 1
	r.entries[head] += s
}

// Prepend prepends text to the current kill-ring entry, starting a new
// entry if the previous command was not a kill.
func (r *KillRing) Prepend(s string) {
	r.maybeBeginKill()
	head := len(r.entries) - 1
	r.entries[head] = s + r.entries[head]
}

// Yank returns the current kill-ring entry, or nil if empty.
func (r *KillRing) Yank() []rune {
	if len(r.entries) == 0 {
		return nil
	}
	r.yanking = true
	return []rune(r.entries[len(r.entries)-1])
}

// Rotate cycles the kill ring so the current entry becomes the oldest and
// the next entry becomes current, for yank-pop.
func (r *KillRing) Rotate() {
	if len(r.entries) == 0 {
		return
	}
	last := r.entries[len(r.entries)-1]
	copy(r.entries[1:], r.entries)
	r.entries[0] = last
}

// Yanking reports whether the most recent command was a yank, for
// yank-pop to check before rotating.
func (r *KillRing) Yanking() bool { return r.yanking }

// EndCommand clears the killing/yanking flags for any command that is
// neither a kill nor a yank, separating future kills into a fresh entry.
func (r *KillRing) EndCommand(wasKill, wasYank bool) {
	if !wasKill {
		r.killing = false
	}
	if !wasYank {
		r.yanking = false
	}
}

func (r *KillRing) maybeBeginKill() {
	if r.killing {
		return
	}
	r.killing = true
	if len(r.entries) < cap(r.entries) {
		r.entries = append(r.entries, "")
		return
	}
	copy(r.entries, r.entries[1:])
	r.entries[len(r.entries)-1] = ""
}

// KillWord deletes the word (UAX #29 segment) starting at point, pushing
// it onto the kill ring, matching the teacher's cmdKillWord.
func (b *Buffer) KillWord(r *KillRing) {
	if e := b.EraseTo(b.NextWordEnd(b.Point)); len(e) > 0 {
		r.Append(string(e))
	}
}

// BackwardKillWord deletes the word ending at point, prepending it onto
// the kill ring, matching the teacher's cmdBackwardKillWord.
func (b *Buffer) BackwardKillWord(r *KillRing) {
	if e := b.EraseTo(b.PrevWordStart(b.Point)); len(e) > 0 {
		r.Prepend(string(e))
	}
}

// KillLine deletes from point to end of line, appending to the kill ring,
// matching the teacher's cmdKillLine.
func (b *Buffer) KillLine(r *KillRing) {
	if e := b.EraseTo(b.End()); len(e) > 0 {
		r.Append(string(e))
	}
}

// BackwardKillLine deletes from the beginning of the line to point,
// prepending to the kill ring, matching the teacher's cmdBackwardKillLine.
func (b *Buffer) BackwardKillLine(r *KillRing) {
	if e := b.EraseTo(0); len(e) > 0 {
		r.Prepend(string(e))
	}
}

// Yank inserts the current kill-ring entry at point.
func (b *Buffer) Yank(r *KillRing) {
	b.Insert(r.Yank()...)
}

// YankPop replaces the just-yanked text with the next entry in the kill
// ring, matching the teacher's cmdYankPop (a no-op unless the previous
// command was itself a yank).
func (b *Buffer) YankPop(r *KillRing) {
	if !r.Yanking() {
		return
	}
	yanked := r.Yank()
	b.EraseTo(b.Point - len(yanked))
	r.Rotate()
	b.Insert(r.Yank()...)
}
