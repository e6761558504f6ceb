package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	toastTTL  = 4 * time.Second
	maxToasts = 3
)

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastError
)

type toast struct {
	id    int
	level toastLevel
	text  string
}

type toastExpiredMsg struct {
	id int
}

// Toasts is the transient notification queue. It implements the download
// notifier, so it exists before the model that renders it.
type Toasts struct {
	items   []toast
	nextID  int
	pending []int
}

func NewToasts() *Toasts {
	return &Toasts{}
}

func (t *Toasts) Info(message string) {
	t.push(toastInfo, message)
}

func (t *Toasts) Error(err error) {
	t.push(toastError, err.Error())
}

func (t *Toasts) push(level toastLevel, text string) {
	t.nextID++
	t.items = append(t.items, toast{id: t.nextID, level: level, text: text})
	if len(t.items) > maxToasts {
		t.items = t.items[len(t.items)-maxToasts:]
	}
	t.pending = append(t.pending, t.nextID)
}

func (t *Toasts) expire(id int) {
	for i, item := range t.items {
		if item.id == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return
		}
	}
}

// schedule returns one expiry timer per toast pushed since the last call.
func (t *Toasts) schedule(ttl time.Duration) []tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range t.pending {
		cmds = append(cmds, tea.Tick(ttl, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: id}
		}))
	}
	t.pending = nil
	return cmds
}
