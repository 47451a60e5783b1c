package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoop_RunsPostedFunctionsInOrder(t *testing.T) {
	l := NewLoop()
	var got []int

	for i := 1; i <= 3; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Post(func() { l.Quit(7) })

	status := l.Run(context.Background())

	assert.Equal(t, 7, status)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestLoop_QuitTakesEffectAfterCurrentFunction(t *testing.T) {
	l := NewLoop()
	ranAfterQuit := false
	ranNext := false

	l.Post(func() {
		l.Quit(1)
		ranAfterQuit = true
	})
	l.Post(func() { ranNext = true })

	status := l.Run(context.Background())

	assert.Equal(t, 1, status)
	assert.True(t, ranAfterQuit)
	assert.False(t, ranNext)
}

func TestLoop_FirstQuitWins(t *testing.T) {
	l := NewLoop()
	l.Post(func() {
		l.Quit(1)
		l.Quit(0)
	})

	assert.Equal(t, 1, l.Run(context.Background()))
}

func TestLoop_PostAfterExitIsDropped(t *testing.T) {
	l := NewLoop()
	l.Post(func() { l.Quit(0) })
	l.Run(context.Background())

	select {
	case <-l.done:
	default:
		t.Fatal("done not closed after Run returned")
	}
	assert.False(t, l.Post(func() {}))
}

func TestLoop_CancelledContextReturnsZero(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, 0, l.Run(ctx))
}

func TestLoop_PostFromOtherGoroutines(t *testing.T) {
	l := NewLoop()
	const n = 200
	count := 0

	for i := 0; i < n; i++ {
		go l.Post(func() {
			count++
			if count == n {
				l.Quit(0)
			}
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	l.Run(ctx)

	assert.Equal(t, n, count)
}

func TestOnLoop_DefersUntilLoopRuns(t *testing.T) {
	l := NewLoop()
	var got string

	cb := onLoop2(l, func(s string, err error) { got = s })
	cb("hello", nil)
	assert.Empty(t, got)

	l.Post(func() { l.Quit(0) })
	l.Run(context.Background())
	assert.Equal(t, "hello", got)
}
