package reactor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject(t *testing.T) {
	t.Run("get and set", func(t *testing.T) {
		state := NewObject(map[string]any{"b": 2, "a": 1})

		assert.Equal(t, 1, state.Get("a"))
		assert.Nil(t, state.Get("missing"))
		assert.True(t, state.Has("a"))
		assert.False(t, state.Has("missing"))

		state.Set("c", 3)
		assert.Equal(t, []string{"a", "b", "c"}, state.Keys())
		assert.Equal(t, 3, state.Len())

		state.Delete("b")
		state.Delete("missing")
		assert.Equal(t, []string{"a", "c"}, state.Keys())
		assert.Equal(t, "map[a:1 c:3]", state.String())
	})

	t.Run("nested maps become objects", func(t *testing.T) {
		state := NewObject(map[string]any{
			"user": map[string]any{"name": "ada"},
		})

		user, ok := state.Get("user").(*Object)
		require.True(t, ok)
		assert.Equal(t, "ada", user.Get("name"))

		state.Set("settings", map[string]any{"theme": "dark"})
		_, ok = state.Get("settings").(*Object)
		assert.True(t, ok)

		assert.Equal(t, map[string]any{
			"user":     map[string]any{"name": "ada"},
			"settings": map[string]any{"theme": "dark"},
		}, state.Snapshot())
	})

	t.Run("nil object reads as empty", func(t *testing.T) {
		var state *Object

		assert.Nil(t, state.Get("a"))
		assert.Nil(t, state.Peek("a"))
		assert.False(t, state.Has("a"))
		assert.Empty(t, state.Keys())
		assert.Nil(t, state.Snapshot())
	})

	t.Run("keys are tracked one by one", func(t *testing.T) {
		log := []string{}

		state := NewObject(map[string]any{"a": 1, "b": 2})
		NewEffect(func() {
			log = append(log, fmt.Sprintf("a %v", state.Get("a")))
		})

		state.Set("b", 20)
		state.Set("a", 1)
		state.Set("a", 10)

		assert.Equal(t, []string{"a 1", "a 10"}, log)
	})

	t.Run("new and deleted keys notify shape readers", func(t *testing.T) {
		log := []string{}

		state := NewObject(map[string]any{"a": 1})
		NewEffect(func() {
			log = append(log, fmt.Sprintf("keys %v", state.Keys()))
		})

		state.Set("a", 10)
		state.Set("b", 2)
		state.Delete("a")

		assert.Equal(t, []string{
			"keys [a]",
			"keys [a b]",
			"keys [b]",
		}, log)
	})

	t.Run("deleting a key notifies its readers once", func(t *testing.T) {
		log := []string{}

		state := NewObject(map[string]any{"a": 1})
		NewEffect(func() {
			log = append(log, fmt.Sprintf("a %v %v", state.Has("a"), state.Get("a")))
		})

		state.Delete("a")
		state.Set("a", 2)

		assert.Equal(t, []string{
			"a true 1",
			"a false <nil>",
			"a true 2",
		}, log)
	})

	t.Run("peek does not track", func(t *testing.T) {
		log := []string{}

		state := NewObject(map[string]any{"a": 1})
		NewEffect(func() {
			log = append(log, fmt.Sprintf("a %v", state.Peek("a")))
		})

		state.Set("a", 2)

		assert.Equal(t, []string{"a 1"}, log)
	})
}
