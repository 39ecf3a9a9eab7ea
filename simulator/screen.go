package main

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	awlsim "awlsim/shared"

	"github.com/gdamore/tcell/v2"
)

const redrawInterval = 100 * time.Millisecond

// screen is a full terminal view of the CPU state. It is redrawn from
// the CPU hooks; the key reader only raises the quit flag.
type screen struct {
	term     tcell.Screen
	cpu      *awlsim.CPU
	quit     atomic.Bool
	lastDraw time.Time
	style    tcell.Style
	title    tcell.Style
}

func newScreen(cpu *awlsim.CPU) (*screen, error) {
	term, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := term.Init(); err != nil {
		return nil, err
	}
	s := &screen{
		term:  term,
		cpu:   cpu,
		style: tcell.StyleDefault,
		title: tcell.StyleDefault.Bold(true).Reverse(true),
	}
	go s.readKeys()
	return s, nil
}

func (s *screen) readKeys() {
	for {
		switch ev := s.term.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				s.quit.Store(true)
			}
		case *tcell.EventResize:
			s.term.Sync()
		}
	}
}

// Quit reports whether the user asked to stop.
func (s *screen) Quit() bool { return s.quit.Load() }

func (s *screen) puts(x, y int, style tcell.Style, text string) {
	w, _ := s.term.Size()
	for _, r := range text {
		if x >= w {
			return
		}
		s.term.SetContent(x, y, r, nil, style)
		x++
	}
}

// update redraws when the last frame is older than redrawInterval, or
// always with force set.
func (s *screen) update(force bool) {
	now := time.Now()
	if !force && now.Sub(s.lastDraw) < redrawInterval {
		return
	}
	s.lastDraw = now
	s.term.Clear()
	st := s.cpu.Stats
	s.puts(0, 0, s.title, fmt.Sprintf(" awlsim  cycle %d  insns %d  %.0f insn/s  (q: quit) ",
		st.CycleCount, st.InsnCount, st.InsnPerSecond))
	_, h := s.term.Size()
	for i, line := range strings.Split(s.cpu.Dump(), "\n") {
		if i+2 >= h {
			break
		}
		s.puts(0, i+2, s.style, line)
	}
	s.term.Show()
}

func (s *screen) hook() awlsim.Hook {
	return awlsim.Hook{Fn: func(any) { s.update(false) }}
}

func (s *screen) Close() { s.term.Fini() }
