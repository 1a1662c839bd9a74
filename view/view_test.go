package view

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/refview/api"
)

func get(t *testing.T, v any, key string) any {
	t.Helper()
	vw, ok := v.(*View)
	require.True(t, ok, "not a view: %#v", v)
	out, ok := vw.Get(key)
	require.True(t, ok, "missing key %q", key)
	return out
}

func asView(t *testing.T, v any) *View {
	t.Helper()
	vw, ok := v.(*View)
	require.True(t, ok, "not a view: %#v", v)
	return vw
}

func TestRawRoundTrip(t *testing.T) {
	doc := map[string]any{"a": "hello"}
	v := New(doc)
	assert.Equal(t, reflect.ValueOf(doc).Pointer(), reflect.ValueOf(Raw(v)).Pointer())
	assert.Equal(t, "x", Raw("x"))

	list := []any{1, 2}
	raw := Raw(New(list)).([]any)
	assert.Same(t, &list[0], &raw[0])

	assert.Equal(t, 42, Raw(New(42)))
}

func TestTransparency(t *testing.T) {
	doc := map[string]any{
		"a": "hello",
		"b": map[string]any{"$ref": "#/a"},
	}
	v := New(doc)
	b := asView(t, get(t, v, "b"))

	assert.True(t, b.IsRef())
	assert.Equal(t, "#/a", get(t, b, "$ref"))
	assert.Equal(t, "hello", get(t, b, api.RefValueKey))
	assert.Equal(t, map[string]any{"$ref": "#/a", "$ref-value": "hello"}, b.Snapshot())

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"$ref":"#/a","$ref-value":"hello"}`, string(out))

	// resolution is never materialized
	_, stored := doc["b"].(map[string]any)[api.RefValueKey]
	assert.False(t, stored)
}

func TestLiveTarget(t *testing.T) {
	doc := map[string]any{
		"a": "hello",
		"b": map[string]any{"$ref": "#/a"},
	}
	b := asView(t, get(t, New(doc), "b"))
	doc["a"] = "changed"
	assert.Equal(t, "changed", get(t, b, api.RefValueKey))
}

func TestChainedReferences(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": map[string]any{"prop": "hello"}}},
		"e": map[string]any{"f": map[string]any{"$ref": "#/a/b/c/prop"}},
		"d": map[string]any{"$ref": "#/e/f"},
	}
	v := New(doc)

	got, ok := v.At("/d/$ref-value/$ref-value")
	require.True(t, ok)
	assert.Equal(t, "hello", got)

	resolved, ok := Resolve(get(t, v, "d"))
	require.True(t, ok)
	assert.Equal(t, "hello", resolved)

	assert.Equal(t, "hello", ResolveDeep(get(t, v, "d")))
}

func TestWriteThrough(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"b": map[string]any{"hello": "hi"}},
		"c": map[string]any{"$ref": "#/a/b"},
	}
	v := New(doc)
	target := asView(t, get(t, get(t, v, "c"), api.RefValueKey))
	require.NoError(t, target.Set("hello", "new"))

	assert.Equal(t, "new", doc["a"].(map[string]any)["b"].(map[string]any)["hello"])
	assert.Equal(t, map[string]any{"$ref": "#/a/b"}, doc["c"])

	t.Run("replace target", func(t *testing.T) {
		c := asView(t, get(t, v, "c"))
		require.NoError(t, c.Set(api.RefValueKey, map[string]any{"hello": "replaced"}))
		assert.Equal(t, map[string]any{"hello": "replaced"}, doc["a"].(map[string]any)["b"])
		assert.Equal(t, map[string]any{"$ref": "#/a/b"}, doc["c"])
	})
}

func TestRootWriteFails(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"$ref": "#"}}
	a := asView(t, get(t, New(doc), "a"))

	err := a.Set(api.RefValueKey, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRootWrite)
	assert.ErrorIs(t, err, ErrInvalidWriteTarget)
	assert.Equal(t, map[string]any{"$ref": "#"}, doc["a"])
}

func TestAutoVivification(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"$ref": "#/missing/path"},
		"b": map[string]any{"c": map[string]any{"hello": "world"}},
	}
	var logs bytes.Buffer
	v := New(doc, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	a := asView(t, get(t, v, "a"))

	_, ok := a.Get(api.RefValueKey)
	assert.False(t, ok)

	require.NoError(t, a.Set(api.RefValueKey, "value"))
	assert.Equal(t, map[string]any{"path": "value"}, doc["missing"])
	assert.Equal(t, "value", get(t, a, api.RefValueKey))
	assert.Contains(t, logs.String(), "created missing path")
}

func TestWriteThroughScalarIntermediate(t *testing.T) {
	doc := map[string]any{
		"s": "scalar",
		"a": map[string]any{"$ref": "#/s/x"},
	}
	a := asView(t, get(t, New(doc), "a"))
	err := a.Set(api.RefValueKey, 1)
	assert.ErrorIs(t, err, ErrInvalidWriteTarget)
	assert.NotErrorIs(t, err, ErrRootWrite)
	assert.Equal(t, "scalar", doc["s"])
}

func TestExternalReference(t *testing.T) {
	for _, ref := range []string{"https://example.com/doc#", "", "definitions/a"} {
		t.Run(fmt.Sprintf("%q", ref), func(t *testing.T) {
			doc := map[string]any{
				"a":           "hello",
				"b":           map[string]any{"$ref": ref},
				"definitions": map[string]any{"a": "def"},
			}
			var logs bytes.Buffer
			v := New(doc, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
			b := asView(t, get(t, v, "b"))

			got, ok := b.Get(api.RefValueKey)
			assert.False(t, ok)
			assert.Nil(t, got)
			assert.True(t, b.Has(api.RefValueKey))
			assert.Equal(t, []string{"$ref", "$ref-value"}, b.Keys())

			require.NoError(t, b.Set(api.RefValueKey, "x"))
			assert.Equal(t, "hello", doc["a"])
			assert.Equal(t, map[string]any{"$ref": ref}, doc["b"])
			assert.Equal(t, map[string]any{"a": "def"}, doc["definitions"])
			assert.Contains(t, logs.String(), "unresolvable reference")

			_, ok = Resolve(b)
			assert.False(t, ok)
			assert.Equal(t, map[string]any{"$ref": ref}, ResolveDeep(b))
		})
	}
}

func TestDanglingReference(t *testing.T) {
	doc := map[string]any{"b": map[string]any{"$ref": "#/nope"}}
	b := asView(t, get(t, New(doc), "b"))
	_, ok := b.Get(api.RefValueKey)
	assert.False(t, ok)
	assert.True(t, b.Has(api.RefValueKey))
	assert.Equal(t, map[string]any{"$ref": "#/nope"}, b.Snapshot())
}

func TestCycleSafety(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{
			"name": "a",
			"b":    map[string]any{"$ref": "#/a"},
		},
	}
	v := New(doc)
	a := asView(t, get(t, v, "a"))

	got, ok := v.At("/a/b/$ref-value/b/$ref-value/b/$ref-value/name")
	require.True(t, ok)
	assert.Equal(t, "a", got)

	again, ok := v.At("/a/b/$ref-value")
	require.True(t, ok)
	assert.Same(t, a, again)

	assert.Equal(t, map[string]any{
		"a": map[string]any{"name": "a", "b": map[string]any{"$ref": "#/a"}},
	}, v.Snapshot())
	assert.Equal(t, map[string]any{
		"a": map[string]any{"name": "a", "b": map[string]any{"$ref": "#/a"}},
	}, ResolveDeep(v))
}

func TestRootCycle(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"$ref": "#"}}
	v := New(doc)
	root, ok := v.At("/a/$ref-value")
	require.True(t, ok)
	assert.Same(t, v, root)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"$ref":"#"}}`, string(out))
}

func TestSelfReference(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"$ref": "#/a"}}
	a := asView(t, get(t, New(doc), "a"))

	got, ok := Resolve(a)
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, map[string]any{"$ref": "#/a"}, ResolveDeep(a))
}

func TestKeys(t *testing.T) {
	doc := map[string]any{
		"a": "hello",
		"b": map[string]any{"$ref": "#/a"},
		"c": map[string]any{"$ref": "#/a", "extraProp": true},
		"d": map[string]any{"$ref": "#/a", "$ref-value": "stored"},
	}
	v := New(doc)
	assert.Equal(t, []string{"a", "b", "c", "d"}, v.Keys())
	assert.Equal(t, []string{"$ref", "$ref-value"}, asView(t, get(t, v, "b")).Keys())
	assert.Equal(t, []string{"$ref", "extraProp", "$ref-value"}, asView(t, get(t, v, "c")).Keys())
	assert.Equal(t, []string{"$ref", "$ref-value"}, asView(t, get(t, v, "d")).Keys())
	assert.Equal(t, 2, asView(t, get(t, v, "b")).Len())
}

func TestHas(t *testing.T) {
	doc := map[string]any{
		"a": "hello",
		"b": map[string]any{"$ref": "#/a"},
	}
	v := New(doc)
	assert.True(t, v.Has("a"))
	assert.False(t, v.Has("z"))
	assert.False(t, v.Has(api.RefValueKey))
	assert.True(t, asView(t, get(t, v, "b")).Has(api.RefValueKey))
}

func redactionDoc() map[string]any {
	return map[string]any{
		"_private": "root secret",
		"public":   "visible",
		"ref":      map[string]any{"$ref": "#/target"},
		"target":   map[string]any{"_private": "secret", "ok": true},
	}
}

func TestRedaction(t *testing.T) {
	t.Run("off by default", func(t *testing.T) {
		v := New(redactionDoc())
		assert.True(t, v.Has("_private"))
		assert.Equal(t, "root secret", get(t, v, "_private"))
	})

	t.Run("hides internal keys", func(t *testing.T) {
		v := New(redactionDoc(), WithRedaction(true))
		_, ok := v.Get("_private")
		assert.False(t, ok)
		assert.False(t, v.Has("_private"))
		assert.Equal(t, []string{"public", "ref", "target"}, v.Keys())
	})

	t.Run("through references", func(t *testing.T) {
		v := New(redactionDoc(), WithRedaction(true))
		target := asView(t, get(t, get(t, v, "ref"), api.RefValueKey))
		_, ok := target.Get("_private")
		assert.False(t, ok)
		assert.False(t, target.Has("_private"))
		assert.Equal(t, []string{"ok"}, target.Keys())
		assert.Equal(t, map[string]any{"ok": true}, ResolveDeep(get(t, v, "ref")))
	})

	t.Run("custom prefix", func(t *testing.T) {
		doc := map[string]any{"__scalar_x": 1, "_kept": 2}
		v := New(doc, WithOptions(api.Options{Redact: true, InternalPrefix: "__scalar_"}))
		assert.Equal(t, []string{"_kept"}, v.Keys())
		assert.False(t, v.Has("__scalar_x"))
	})

	t.Run("writes pass through", func(t *testing.T) {
		doc := redactionDoc()
		v := New(doc, WithRedaction(true))
		require.NoError(t, v.Set("_private", "updated"))
		assert.Equal(t, "updated", doc["_private"])
		_, ok := v.Get("_private")
		assert.False(t, ok)

		v.Delete("_private")
		_, ok = doc["_private"]
		assert.False(t, ok)
	})
}

func TestSequences(t *testing.T) {
	doc := map[string]any{
		"list": []any{"x", map[string]any{"$ref": "#/target"}},
		"target": "t",
	}
	v := New(doc)
	list := asView(t, get(t, v, "list"))

	assert.True(t, list.IsArray())
	assert.Equal(t, []string{"0", "1"}, list.Keys())
	assert.Equal(t, "x", get(t, list, "0"))
	assert.Equal(t, "t", get(t, get(t, list, "1"), api.RefValueKey))
	_, ok := list.Get("2")
	assert.False(t, ok)

	t.Run("append rebinds", func(t *testing.T) {
		require.NoError(t, list.Set("2", "y"))
		require.NoError(t, list.Set("-", "z"))
		assert.Equal(t, []any{"x", map[string]any{"$ref": "#/target"}, "y", "z"}, doc["list"])
		assert.Equal(t, 4, list.Len())
		assert.Same(t, list, get(t, v, "list"))
	})

	t.Run("out of range", func(t *testing.T) {
		assert.ErrorIs(t, list.Set("9", "no"), ErrInvalidWriteTarget)
		assert.ErrorIs(t, list.Set("name", "no"), ErrInvalidWriteTarget)
	})

	t.Run("delete leaves a hole", func(t *testing.T) {
		list.Delete("0")
		assert.Len(t, doc["list"], 4)
		assert.Nil(t, doc["list"].([]any)[0])
	})

	t.Run("root sequence cannot grow", func(t *testing.T) {
		root := New([]any{"a"})
		assert.ErrorIs(t, root.Set("1", "b"), ErrInvalidWriteTarget)
		require.NoError(t, root.Set("0", "b"))
		assert.Equal(t, []any{"b"}, root.Raw())
	})
}

func TestWriteThroughIntoSequence(t *testing.T) {
	doc := map[string]any{
		"items": []any{"a"},
		"next":  map[string]any{"$ref": "#/items/1"},
	}
	next := asView(t, get(t, New(doc), "next"))
	require.NoError(t, next.Set(api.RefValueKey, "b"))
	assert.Equal(t, []any{"a", "b"}, doc["items"])
	assert.Equal(t, "b", get(t, next, api.RefValueKey))
}

func TestSequenceViewAfterWriteThroughGrowth(t *testing.T) {
	t.Run("in place", func(t *testing.T) {
		items := make([]any, 1, 4)
		items[0] = "a"
		doc := map[string]any{
			"items": items,
			"next":  map[string]any{"$ref": "#/items/1"},
		}
		v := New(doc)
		list := asView(t, get(t, v, "items"))
		next := asView(t, get(t, v, "next"))

		require.NoError(t, next.Set(api.RefValueKey, "b"))
		assert.Equal(t, 2, list.Len())
		assert.Equal(t, "b", get(t, list, "1"))
		assert.Same(t, list, get(t, v, "items"))

		require.NoError(t, list.Set("-", "c"))
		assert.Equal(t, []any{"a", "b", "c"}, doc["items"])
	})

	t.Run("reallocated", func(t *testing.T) {
		doc := map[string]any{
			"items": []any{"a"},
			"next":  map[string]any{"$ref": "#/items/1"},
		}
		v := New(doc)
		list := asView(t, get(t, v, "items"))
		next := asView(t, get(t, v, "next"))

		require.NoError(t, next.Set(api.RefValueKey, "b"))
		assert.Equal(t, []string{"0", "1"}, list.Keys())
		require.NoError(t, list.Set("-", "c"))
		assert.Equal(t, []any{"a", "b", "c"}, doc["items"])
	})

	t.Run("children follow the grown parent", func(t *testing.T) {
		doc := map[string]any{
			"outer": []any{[]any{"a"}},
			"next":  map[string]any{"$ref": "#/outer/1"},
		}
		v := New(doc)
		inner := asView(t, get(t, get(t, v, "outer"), "0"))
		next := asView(t, get(t, v, "next"))

		require.NoError(t, next.Set(api.RefValueKey, "x"))
		require.NoError(t, inner.Set("-", "b"))
		assert.Equal(t, []any{[]any{"a", "b"}, "x"}, doc["outer"])
	})
}

func TestDelete(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"b": map[string]any{"x": 1, "y": 2}},
		"c": map[string]any{"$ref": "#/a/b/x"},
		"r": map[string]any{"$ref": "#"},
		"e": map[string]any{"$ref": "https://example.com/doc#"},
	}
	v := New(doc)
	c := asView(t, get(t, v, "c"))

	c.Delete(api.RefValueKey)
	assert.Equal(t, map[string]any{"y": 2}, doc["a"].(map[string]any)["b"])
	assert.Equal(t, map[string]any{"$ref": "#/a/b/x"}, doc["c"])

	assert.NotPanics(t, func() {
		c.Delete(api.RefValueKey)
		c.Delete("nope")
		asView(t, get(t, v, "r")).Delete(api.RefValueKey)
		asView(t, get(t, v, "e")).Delete(api.RefValueKey)
	})
	assert.Len(t, doc, 4)

	t.Run("through resolved view", func(t *testing.T) {
		b := asView(t, get(t, get(t, v, "a"), "b"))
		b.Delete("y")
		assert.Empty(t, doc["a"].(map[string]any)["b"])
	})
}

func TestIdentityCache(t *testing.T) {
	shared := map[string]any{"type": "string"}
	doc := map[string]any{
		"defs": map[string]any{"s": shared},
		"p":    map[string]any{"$ref": "#/defs/s"},
		"q":    map[string]any{"$ref": "#/defs/s"},
	}
	v := New(doc)

	assert.Same(t, get(t, v, "defs"), get(t, v, "defs"))
	viaP := get(t, get(t, v, "p"), api.RefValueKey)
	viaQ := get(t, get(t, v, "q"), api.RefValueKey)
	assert.Same(t, viaP, viaQ)
	assert.Same(t, get(t, get(t, v, "defs"), "s"), viaP)

	t.Run("in-place edits keep the view", func(t *testing.T) {
		shared["format"] = "uuid"
		assert.Same(t, viaP, get(t, get(t, v, "p"), api.RefValueKey))
		assert.Equal(t, "uuid", get(t, viaP, "format"))
	})

	t.Run("replaced subtree gets a fresh view", func(t *testing.T) {
		doc["defs"].(map[string]any)["s"] = map[string]any{"type": "integer"}
		fresh := get(t, get(t, v, "p"), api.RefValueKey)
		assert.NotSame(t, viaP, fresh)
		assert.Equal(t, "integer", get(t, fresh, "type"))
	})
}

func TestSetUnwrapsViews(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"k": "v"}}
	v := New(doc)
	require.NoError(t, v.Set("copy", get(t, v, "a")))
	assert.Equal(t, reflect.ValueOf(doc["a"]).Pointer(), reflect.ValueOf(doc["copy"]).Pointer())
}

func TestEmbeddedSchemas(t *testing.T) {
	doc := map[string]any{
		"$id": "urn:root",
		"defs": map[string]any{
			"user": map[string]any{
				"$id": "urn:user",
				"props": map[string]any{
					"name": map[string]any{"$anchor": "nm", "type": "string"},
				},
				"self":   map[string]any{"$ref": "#/props/name"},
				"anchor": map[string]any{"$ref": "#nm"},
			},
		},
		"use": map[string]any{"$ref": "urn:user#/props/name"},
		"all": map[string]any{"$ref": "urn:user"},
	}
	v := New(doc)

	for _, path := range []string{
		"/use/$ref-value/type",
		"/defs/user/self/$ref-value/type",
		"/defs/user/anchor/$ref-value/type",
		"/all/$ref-value/props/name/type",
		"/all/$ref-value/self/$ref-value/type",
	} {
		got, ok := v.At(path)
		if assert.True(t, ok, path) {
			assert.Equal(t, "string", got, path)
		}
	}

	self := asView(t, get(t, get(t, get(t, v, "defs"), "user"), "self"))
	require.NoError(t, self.Set(api.RefValueKey, map[string]any{"type": "integer"}))
	name := doc["defs"].(map[string]any)["user"].(map[string]any)["props"].(map[string]any)["name"]
	assert.Equal(t, map[string]any{"type": "integer"}, name)
}

func TestAt(t *testing.T) {
	doc := map[string]any{"a/b": map[string]any{"c": []any{"zero"}}}
	v := New(doc)

	got, ok := v.At("/a~1b/c/0")
	require.True(t, ok)
	assert.Equal(t, "zero", got)

	self, ok := v.At("")
	require.True(t, ok)
	assert.Same(t, v, self)

	_, ok = v.At("/a~1b/c/0/deeper")
	assert.False(t, ok)
}

func TestString(t *testing.T) {
	doc := map[string]any{"b": map[string]any{"$ref": "#/a"}, "a": 1}
	assert.JSONEq(t, `{"a":1,"b":{"$ref":"#/a","$ref-value":1}}`, New(doc).String())
}
