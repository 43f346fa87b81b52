package line

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferInsertAndErase(t *testing.T) {
	b := New()
	b.Insert([]rune("hello")...)
	require.Equal(t, "hello", string(b.Text))
	require.Equal(t, 5, b.Point)

	b.MoveTo(0)
	deleted := b.EraseTo(5)
	require.Equal(t, "hello", string(deleted))
	require.Equal(t, "", string(b.Text))
}

func TestBufferUndoInsert(t *testing.T) {
	b := New()
	b.Insert([]rune("abc")...)
	require.True(t, b.Undo())
	require.Equal(t, "", string(b.Text))
	require.Equal(t, 0, b.Point)
	require.False(t, b.Undo())
}

func TestBufferUndoDelete(t *testing.T) {
	b := New()
	b.Insert([]rune("abcdef")...)
	b.MoveTo(2)
	b.EraseTo(4)
	require.Equal(t, "abef", string(b.Text))

	require.True(t, b.Undo())
	require.Equal(t, "abcdef", string(b.Text))
	require.Equal(t, 4, b.Point)
}

func TestBufferUndoGroup(t *testing.T) {
	b := New()
	b.Insert([]rune("abcdef")...)

	b.BeginUndoGroup()
	b.MoveTo(6)
	b.EraseTo(3)
	b.Insert([]rune("XYZ")...)
	b.EndUndoGroup()
	require.Equal(t, "abcXYZ", string(b.Text))

	require.True(t, b.Undo())
	require.Equal(t, "abcdef", string(b.Text))
}

func TestBufferMarkExchange(t *testing.T) {
	b := New()
	b.Insert([]rune("hello world")...)
	b.MoveTo(5)
	b.SetMark()
	b.MoveTo(0)
	b.ExchangePointAndMark()
	require.Equal(t, 5, b.Point)
	mark, ok := b.Mark()
	require.True(t, ok)
	require.Equal(t, 0, mark)
}

func TestBufferWordMotion(t *testing.T) {
	b := New()
	b.Insert([]rune("hello world foo")...)
	b.MoveTo(0)

	end := b.NextWordEnd(b.Point)
	require.Equal(t, 5, end)

	b.MoveTo(len(b.Text))
	start := b.PrevWordStart(b.Point)
	require.Equal(t, 12, start)
}

func TestKillRingAppendAndYank(t *testing.T) {
	b := New()
	kr := NewKillRing()
	b.Insert([]rune("hello world")...)
	b.MoveTo(0)

	b.KillWord(kr)
	require.Equal(t, " world", string(b.Text))

	b.MoveTo(len(b.Text))
	b.Yank(kr)
	require.Equal(t, " worldhello", string(b.Text))
}

func TestKillRingConsecutiveKillsAccumulate(t *testing.T) {
	b := New()
	kr := NewKillRing()
	b.Insert([]rune("one two three")...)
	b.MoveTo(0)

	b.KillWord(kr)
	b.KillWord(kr)
	require.Equal(t, " three", string(b.Text))

	b.MoveTo(len(b.Text))
	b.Yank(kr)
	require.Equal(t, " threeone two", string(b.Text))
}

func TestPendingInputQueue(t *testing.T) {
	b := New()
	b.QueuePending([]byte("ab"))
	c, ok := b.NextPending()
	require.True(t, ok)
	require.Equal(t, byte('a'), c)
	c, ok = b.NextPending()
	require.True(t, ok)
	require.Equal(t, byte('b'), c)
	_, ok = b.NextPending()
	require.False(t, ok)
}
