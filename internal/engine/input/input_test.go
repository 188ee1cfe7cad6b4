package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestDragging(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{"left held", Event{Type: EventMouseMove, Buttons: sdl.ButtonLMask()}, true},
		{"left and right held", Event{Type: EventMouseMove, Buttons: sdl.ButtonLMask() | sdl.ButtonRMask()}, true},
		{"right held", Event{Type: EventMouseMove, Buttons: sdl.ButtonRMask()}, false},
		{"hover", Event{Type: EventMouseMove}, false},
		{"not a move", Event{Type: EventMouseDown, Buttons: sdl.ButtonLMask()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Dragging())
		})
	}
}

func TestIsKeyPressed(t *testing.T) {
	i := New()
	i.events = append(i.events,
		Event{Type: EventKeyUp, Key: sdl.SCANCODE_TAB},
		Event{Type: EventKeyDown, Key: sdl.SCANCODE_SPACE},
	)

	assert.True(t, i.IsKeyPressed(sdl.SCANCODE_SPACE))
	assert.False(t, i.IsKeyPressed(sdl.SCANCODE_TAB))
	assert.Len(t, i.Events(), 2)
}
