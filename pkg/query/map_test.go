package query_test

import (
	"testing"

	"github.com/jaxron/urlview/pkg/query"
	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	t.Parallel()

	t.Run("Set keeps first position", func(t *testing.T) {
		t.Parallel()

		m := query.Of("b", "1", "a", "2")
		m.Set("b", query.Scalar("3"))
		m.Set("c", query.Scalar("4"))

		assert.Equal(t, []string{"b", "a", "c"}, m.Keys())
		v, _ := m.Get("b")
		assert.Equal(t, "3", v.String())
	})

	t.Run("Delete leaves siblings", func(t *testing.T) {
		t.Parallel()

		m := query.Of("a", "1", "b", "2", "c", "3")
		m.Delete("b")
		m.Delete("missing")

		assert.Equal(t, []string{"a", "c"}, m.Keys())
		assert.False(t, m.Has("b"))
	})

	t.Run("Clone is independent", func(t *testing.T) {
		t.Parallel()

		m := query.NewMap()
		m.Set("tags", query.List("a", "b"))
		c := m.Clone()
		c.Set("tags", query.List("x"))
		c.Set("more", query.Scalar("y"))

		v, _ := m.Get("tags")
		assert.Equal(t, []string{"a", "b"}, v.Strings())
		assert.Equal(t, 1, m.Len())
	})

	t.Run("Nil map reads as empty", func(t *testing.T) {
		t.Parallel()

		var m *query.Map
		assert.Equal(t, 0, m.Len())
		assert.False(t, m.Has("a"))
		assert.Nil(t, m.Keys())
		assert.True(t, m.Equal(query.NewMap()))
		assert.Equal(t, 0, m.Clone().Len())
	})

	t.Run("Equal ignores order", func(t *testing.T) {
		t.Parallel()

		assert.True(t, query.Of("a", "1", "b", "2").Equal(query.Of("b", "2", "a", "1")))
		assert.False(t, query.Of("a", "1").Equal(query.Of("a", "2")))
	})
}

func TestValue(t *testing.T) {
	t.Parallel()

	t.Run("Scalar", func(t *testing.T) {
		t.Parallel()

		v := query.Scalar("x")
		assert.Equal(t, query.KindScalar, v.Kind())
		assert.Equal(t, []string{"x"}, v.Strings())
		assert.Nil(t, v.Index())
	})

	t.Run("List copies its input", func(t *testing.T) {
		t.Parallel()

		items := []string{"a", "b"}
		v := query.List(items...)
		items[0] = "changed"

		assert.Equal(t, []string{"a", "b"}, v.Strings())
		assert.Equal(t, "a,b", v.String())
	})

	t.Run("Indexed orders numerically", func(t *testing.T) {
		t.Parallel()

		v := query.Indexed(map[string]string{"10": "c", "9": "b", "1": "a"})
		assert.Equal(t, []string{"a", "b", "c"}, v.Strings())
		assert.Equal(t, map[string]string{"10": "c", "9": "b", "1": "a"}, v.Index())
	})

	t.Run("Equal requires the same kind", func(t *testing.T) {
		t.Parallel()

		assert.False(t, query.Scalar("a").Equal(query.List("a")))
		assert.True(t, query.List("a", "b").Equal(query.List("a", "b")))
		assert.False(t, query.List("a", "b").Equal(query.List("b", "a")))
	})
}
