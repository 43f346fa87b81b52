package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aidanjensen/goline/internal/keymap"
)

// fakeSource is a ByteSource backed by an in-memory queue, used to drive the
// dispatcher deterministically without a real terminal. A queue entry of -1
// simulates a keyseq-timeout expiring instead of a byte arriving.
const timeoutEntry = -1

type fakeSource struct {
	queue []int
}

func (s *fakeSource) ReadByte(_ time.Duration) (byte, bool, error) {
	if len(s.queue) == 0 {
		return 0, false, errors.New("eof")
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	if next == timeoutEntry {
		return 0, false, nil
	}
	return byte(next), true, nil
}

func (s *fakeSource) Unread(b byte) {
	s.queue = append([]int{int(b)}, s.queue...)
}

func (s *fakeSource) Feed(bs []byte) {
	ints := make([]int, len(bs))
	for i, b := range bs {
		ints[i] = int(b)
	}
	s.queue = append(ints, s.queue...)
}

func bytesQueue(bs ...byte) []int {
	q := make([]int, len(bs))
	for i, b := range bs {
		q[i] = int(b)
	}
	return q
}

// fakeInvoker records every invocation and ding for assertions.
type fakeInvoker struct {
	invoked []keymap.Command
	seqs    [][]byte
	dings   int
}

func (f *fakeInvoker) Invoke(fn keymap.Command, seq []byte) error {
	f.invoked = append(f.invoked, fn)
	f.seqs = append(f.seqs, seq)
	return nil
}

func (f *fakeInvoker) Ding() { f.dings++ }

func TestDispatchSimpleFunction(t *testing.T) {
	root := keymap.New("test")
	root.BindKey('a', "self-insert")

	src := &fakeSource{queue: bytesQueue('a')}
	inv := &fakeInvoker{}
	d := New(root, src, inv, Config{})

	cmd, err := d.Step()
	require.NoError(t, err)
	require.Equal(t, keymap.Command("self-insert"), cmd)
	require.Equal(t, []keymap.Command{"self-insert"}, inv.invoked)
	require.Equal(t, 0, inv.dings)
}

func TestDispatchUnboundKeyDings(t *testing.T) {
	root := keymap.New("test")
	src := &fakeSource{queue: bytesQueue('z')}
	inv := &fakeInvoker{}
	d := New(root, src, inv, Config{})

	cmd, err := d.Step()
	require.NoError(t, err)
	require.Equal(t, keymap.Command(""), cmd)
	require.Equal(t, 1, inv.dings)
}

func TestDispatchMultiByteSequence(t *testing.T) {
	root := keymap.New("test")
	root.BindKeySeq([]byte{0x18, 'r'}, keymap.Entry{Kind: keymap.KindFunction, Func: "reverse-search-history"})

	src := &fakeSource{queue: bytesQueue(0x18, 'r')}
	inv := &fakeInvoker{}
	d := New(root, src, inv, Config{})

	cmd, err := d.Step()
	require.NoError(t, err)
	require.Equal(t, keymap.Command("reverse-search-history"), cmd)
	require.Equal(t, []byte{0x18, 'r'}, d.LastSequence())
}

// TestDispatchTimeoutFallsThroughToShadow exercises testable property row 6
// of spec §8: a keymap binds C-x r, and if the completing byte does not
// arrive within keyseq-timeout, the dispatcher falls through to whatever was
// shadowed at that prefix (or dings if nothing was).
func TestDispatchTimeoutFallsThroughToShadow(t *testing.T) {
	root := keymap.New("test")
	root.BindKey(0x18, "exchange-point-and-mark") // shadowed when \C-xr is bound
	root.BindKeySeq([]byte{0x18, 'r'}, keymap.Entry{Kind: keymap.KindFunction, Func: "reverse-search-history"})

	src := &fakeSource{queue: append(bytesQueue(0x18), timeoutEntry)}
	inv := &fakeInvoker{}
	d := New(root, src, inv, Config{KeyseqTimeout: time.Millisecond})

	cmd, err := d.Step()
	require.NoError(t, err)
	require.Equal(t, keymap.Command("exchange-point-and-mark"), cmd)
}

func TestDispatchUnboundSubmapDings(t *testing.T) {
	root := keymap.New("test")
	root.BindKeySeq([]byte{0x18, 'r'}, keymap.Entry{Kind: keymap.KindFunction, Func: "reverse-search-history"})

	src := &fakeSource{queue: bytesQueue(0x18, 'z')}
	inv := &fakeInvoker{}
	d := New(root, src, inv, Config{})

	cmd, err := d.Step()
	require.NoError(t, err)
	require.Equal(t, keymap.Command(""), cmd)
	require.Equal(t, 1, inv.dings)
}

func TestDispatchDoLowercaseVersion(t *testing.T) {
	root := keymap.New("test")
	root.BindKey('a', "self-insert")
	root.BindKey('A', keymap.DoLowercaseVersion)

	src := &fakeSource{queue: bytesQueue('A')}
	inv := &fakeInvoker{}
	d := New(root, src, inv, Config{})

	cmd, err := d.Step()
	require.NoError(t, err)
	require.Equal(t, keymap.Command("self-insert"), cmd)
}

func TestDispatchMacroPlayback(t *testing.T) {
	root := keymap.New("test")
	root.BindKey(0x18, "self-insert")
	root.Entries['m'] = keymap.Entry{Kind: keymap.KindMacro, Macro: []byte{0x18}}

	src := &fakeSource{queue: bytesQueue('m')}
	inv := &fakeInvoker{}
	d := New(root, src, inv, Config{})

	cmd, err := d.Step()
	require.NoError(t, err)
	require.Equal(t, keymap.Command(""), cmd)

	cmd, err = d.Step()
	require.NoError(t, err)
	require.Equal(t, keymap.Command("self-insert"), cmd)
}

func TestDispatchMetaConversion(t *testing.T) {
	root := keymap.New("emacs")
	metaMap := keymap.New("emacs-meta")
	metaMap.BindKey('f', "forward-word")
	root.Entries[0x1b] = keymap.Entry{Kind: keymap.KindSubmap, Submap: metaMap}

	src := &fakeSource{queue: bytesQueue(0x80 | 'f')}
	inv := &fakeInvoker{}
	d := New(root, src, inv, Config{MetaConversion: true})

	cmd, err := d.Step()
	require.NoError(t, err)
	require.Equal(t, keymap.Command("forward-word"), cmd)
}

// TestDispatchDeterminism exercises testable property #1 of spec §8: for a
// fixed keymap and input byte stream, the sequence of invoked commands is a
// deterministic function of the bytes (the timeout never fires here, since
// every sequence in the stream is complete).
func TestDispatchDeterminism(t *testing.T) {
	root := keymap.New("test")
	root.BindKey('a', "self-insert")
	root.BindKeySeq([]byte{0x18, 'r'}, keymap.Entry{Kind: keymap.KindFunction, Func: "reverse-search-history"})

	run := func() []keymap.Command {
		src := &fakeSource{queue: bytesQueue('a', 0x18, 'r', 'a')}
		inv := &fakeInvoker{}
		d := New(root, src, inv, Config{})
		for i := 0; i < 3; i++ {
			_, err := d.Step()
			require.NoError(t, err)
		}
		return inv.invoked
	}

	first := run()
	second := run()
	require.Equal(t, first, second)
	require.Equal(t, []keymap.Command{"self-insert", "reverse-search-history", "self-insert"}, first)
}
