package openapi

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/typeschema/catalog"
	"github.com/vitalvas/typeschema/typeexpr"
)

type failingSource struct {
	err error
}

func (f failingSource) Lookup(string) (*catalog.Type, error) {
	return nil, f.err
}

// mapSource looks names up verbatim, without the id checks of a Catalog.
type mapSource map[string]*catalog.Type

func (m mapSource) Lookup(name string) (*catalog.Type, error) {
	if t, ok := m[name]; ok {
		return t, nil
	}
	return nil, errors.Wrapf(catalog.ErrUnknownType, "%s", name)
}

func TestResolvePrimitives(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"int", `{"type":"integer","format":"int32"}`},
		{"integer", `{"type":"integer","format":"int32"}`},
		{"int32", `{"type":"integer","format":"int32"}`},
		{"int64", `{"type":"integer","format":"int64"}`},
		{"long", `{"type":"integer","format":"int64"}`},
		{"float", `{"type":"number","format":"float"}`},
		{"float32", `{"type":"number","format":"float"}`},
		{"float64", `{"type":"number","format":"double"}`},
		{"double", `{"type":"number","format":"double"}`},
		{"number", `{"type":"number"}`},
		{"bool", `{"type":"boolean"}`},
		{"boolean", `{"type":"boolean"}`},
		{"string", `{"type":"string"}`},
		{"String", `{"type":"string"}`},
		{"mixed", `{}`},
		{"any", `{}`},
		{"int|null", `{"type":"integer","format":"int32","nullable":true}`},
		{"?string", `{"type":"string","nullable":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			r := testEngine().NewResolver()

			s, err := r.Resolve(tt.expr)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, toJSON(t, s))

			schemas, _ := r.Registry().Len()
			assert.Zero(t, schemas, "primitives are never stored")
		})
	}
}

func TestResolveDateTime(t *testing.T) {
	for _, name := range []string{"DateTime", `\DateTimeImmutable`, "DateTimeInterface", "Carbon", "CarbonImmutable", "time.Time", stampType} {
		t.Run(name, func(t *testing.T) {
			r := testEngine().NewResolver()

			s, err := r.Resolve(name)
			require.NoError(t, err)
			assert.JSONEq(t, `{"type":"string","format":"date-time"}`, toJSON(t, s))
		})
	}

	t.Run("nullable", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve("DateTime|null")
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"string","format":"date-time","nullable":true}`, toJSON(t, s))
	})
}

func TestResolveEmpty(t *testing.T) {
	r := testEngine().NewResolver()

	for _, expr := range []string{"", "  ", "null"} {
		s, err := r.Resolve(expr)
		require.NoError(t, err)
		assert.Nil(t, s, "expr %q", expr)
	}

	s, err := r.ResolveDescriptor(typeexpr.Descriptor{})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestResolveFallback(t *testing.T) {
	t.Run("unknown name", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve(`Vendor\Thing`)
		require.NoError(t, err)
		assert.Equal(t, "string", s.Type)
		assert.Equal(t, `["Vendor\\Thing"]`, s.Pattern)
	})

	t.Run("malformed expression", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve("array<int")
		require.NoError(t, err)
		assert.Equal(t, "string", s.Type)
		assert.Equal(t, `["array<int"]`, s.Pattern)
	})
}

func TestResolveContainers(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"suffix array", "int[]", `{"type":"array","items":{"type":"integer","format":"int32"}}`},
		{"list", "list<string>", `{"type":"array","items":{"type":"string"}}`},
		{"bare array", "array", `{"type":"array","items":{}}`},
		{"keyed array", "array<string, bool>", `{"type":"array","items":{"type":"boolean"}}`},
		{"dict", "map<string, int>", `{"type":"object","additionalProperties":{"type":"integer","format":"int32"}}`},
		{"nullable array", "string[]|null", `{"type":"array","items":{"type":"string"},"nullable":true}`},
		{"nullable items", "(string|null)[]", `{"type":"array","items":{"type":"string","nullable":true}}`},
		{"union items", "(int|string)[]", `{"type":"array","items":{"oneOf":[{"type":"integer","format":"int32"},{"type":"string"}]}}`},
		{"nested", "int[][]", `{"type":"array","items":{"type":"array","items":{"type":"integer","format":"int32"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testEngine().NewResolver()

			s, err := r.Resolve(tt.expr)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, toJSON(t, s))
		})
	}
}

func TestResolveUnions(t *testing.T) {
	t.Run("oneOf", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve("int|string")
		require.NoError(t, err)
		assert.JSONEq(t, `{"oneOf":[{"type":"integer","format":"int32"},{"type":"string"}]}`, toJSON(t, s))
	})

	t.Run("nullable oneOf", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve("int|string|null")
		require.NoError(t, err)
		assert.JSONEq(t, `{"oneOf":[{"type":"integer","format":"int32"},{"type":"string"}],"nullable":true}`, toJSON(t, s))
	})

	t.Run("container alternative", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve("int[]|string")
		require.NoError(t, err)
		assert.JSONEq(t, `{"oneOf":[{"type":"array","items":{"type":"integer","format":"int32"}},{"type":"string"}]}`, toJSON(t, s))
	})

	t.Run("references", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve(userType + "|" + postType)
		require.NoError(t, err)
		assert.JSONEq(t, `{"oneOf":[{"$ref":"`+userRef+`"},{"$ref":"`+postRef+`"}]}`, toJSON(t, s))
	})
}

func TestResolveModelReference(t *testing.T) {
	t.Run("reference", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve(userType)
		require.NoError(t, err)
		assert.Equal(t, userRef, s.Ref)
		assert.True(t, r.Registry().HasSchema(userID))
	})

	t.Run("leading separator", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve(`\` + userType)
		require.NoError(t, err)
		assert.Equal(t, userRef, s.Ref)
	})

	t.Run("nullable wraps reference", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve(userType + "|null")
		require.NoError(t, err)
		assert.JSONEq(t, `{"anyOf":[{"$ref":"`+userRef+`"},{"nullable":true}]}`, toJSON(t, s))
		assert.Same(t, r.Registry().NullSchema(), s.AnyOf[1])

		stored, ok := r.Registry().Schema(userID)
		require.True(t, ok)
		assert.False(t, stored.Nullable, "definitions are stored non-nullable")
	})

	t.Run("request model", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve(createType)
		require.NoError(t, err)
		assert.Equal(t, "#/components/schemas/"+createID, s.Ref)
		assert.JSONEq(t, `{"type":"object","properties":{"name":{"type":"string"},"email":{"type":"string"}}}`, storedJSON(t, r, createID))
	})

	t.Run("definition built once", func(t *testing.T) {
		r := testEngine().NewResolver()

		_, err := r.Resolve(userType)
		require.NoError(t, err)
		first, _ := r.Registry().Schema(userID)

		_, err = r.Resolve(userType + "[]")
		require.NoError(t, err)
		second, _ := r.Registry().Schema(userID)

		assert.Same(t, first, second)
	})
}

func TestResolveObjectDefinition(t *testing.T) {
	r := testEngine().NewResolver()

	_, err := r.Resolve(userType)
	require.NoError(t, err)

	want := `{
		"type": "object",
		"description": "A registered user.",
		"properties": {
			"id": {"type":"integer","format":"int32"},
			"name": {"type":"string","minLength":1,"maxLength":100},
			"email": {"type":"string","nullable":true,"description":"Primary email."},
			"created_at": {"type":"string","format":"date-time"},
			"status": {"$ref":"` + statusRef + `"},
			"level": {"anyOf":[{"$ref":"` + levelRef + `"},{"nullable":true}]},
			"manager": {"anyOf":[{"$ref":"` + userRef + `"},{"nullable":true}]},
			"posts": {"type":"array","items":{"$ref":"` + postRef + `"}},
			"tags": {"type":"array","items":{"type":"string"}},
			"meta": {"type":"object","additionalProperties":{}},
			"avatar_url": {"type":"string","format":"uri"}
		}
	}`
	assert.JSONEq(t, want, storedJSON(t, r, userID))

	stored, _ := r.Registry().Schema(userID)
	assert.Equal(t,
		[]string{"id", "name", "email", "created_at", "status", "level", "manager", "posts", "tags", "meta", "avatar_url"},
		stored.PropertyNames(),
	)
}

func TestResolveCycles(t *testing.T) {
	t.Run("self reference", func(t *testing.T) {
		r := testEngine().NewResolver()

		_, err := r.Resolve(userType)
		require.NoError(t, err)

		stored, _ := r.Registry().Schema(userID)
		manager, ok := stored.Property("manager")
		require.True(t, ok)
		assert.Equal(t, userRef, manager.AnyOf[0].Ref)
	})

	t.Run("mutual reference", func(t *testing.T) {
		r := testEngine().NewResolver()

		_, err := r.Resolve(postType)
		require.NoError(t, err)

		assert.JSONEq(t,
			`{"type":"object","properties":{"title":{"type":"string"},"author":{"$ref":"`+userRef+`"}}}`,
			storedJSON(t, r, postID),
		)
		assert.True(t, r.Registry().HasSchema(userID))
		assert.False(t, r.Registry().Pending(userID))
		assert.False(t, r.Registry().Pending(postID))
	})
}

func TestResolveRecursiveContainers(t *testing.T) {
	const (
		nodeType = `App\Tree\Node`
		peerType = `App\Tree\Peer`
		treeType = `App\Tree\Branch`
		nodeRef  = "#/components/schemas/App.Tree.Node"
		peerRef  = "#/components/schemas/App.Tree.Peer"
		treeRef  = "#/components/schemas/App.Tree.Branch"
	)

	types := catalog.New().MustAdd(
		&catalog.Type{
			Name: nodeType,
			Kind: catalog.KindObject,
			Members: []catalog.Member{
				{Name: "children", Type: "array<string, " + nodeType + ">"},
				{Name: "peers", Type: "array<int, " + peerType + ">"},
			},
		},
		&catalog.Type{
			Name:    peerType,
			Kind:    catalog.KindObject,
			Members: []catalog.Member{{Name: "name", Type: "string"}},
		},
		&catalog.Type{
			Name:         treeType,
			Kind:         catalog.KindObject,
			Serializable: true,
			Shape: []catalog.ShapeEntry{
				{Key: "kids", Type: "array<string, " + treeType + ">"},
				{Key: "parent", Type: treeType + "|null"},
			},
		},
	)

	t.Run("keyed array members reference classes", func(t *testing.T) {
		r := NewEngine(types).NewResolver()

		s, err := r.Resolve(nodeType)
		require.NoError(t, err)
		assert.Equal(t, nodeRef, s.Ref)

		want := `{
			"type": "object",
			"properties": {
				"children": {"type":"array","items":{"$ref":"` + nodeRef + `"}},
				"peers": {"type":"array","items":{"$ref":"` + peerRef + `"}}
			}
		}`
		assert.JSONEq(t, want, storedJSON(t, r, "App.Tree.Node"))
		assert.False(t, r.Registry().Pending("App.Tree.Node"))
		assert.True(t, r.Registry().HasSchema("App.Tree.Peer"))
	})

	t.Run("self referencing shape", func(t *testing.T) {
		r := NewEngine(types).NewResolver()

		s, err := r.Resolve(treeType)
		require.NoError(t, err)
		assert.Equal(t, treeRef, s.Ref)

		want := `{
			"type": "object",
			"properties": {
				"kids": {"type":"array","items":{"$ref":"` + treeRef + `"}},
				"parent": {"anyOf":[{"$ref":"` + treeRef + `"},{"nullable":true}]}
			}
		}`
		assert.JSONEq(t, want, storedJSON(t, r, "App.Tree.Branch"))
		assert.False(t, r.Registry().Pending("App.Tree.Branch"))

		schemas, _ := r.Registry().Len()
		assert.Equal(t, 1, schemas)
	})
}

func TestResolveSchemaIDCollision(t *testing.T) {
	source := mapSource{
		"acme/api.User": {
			Name:    "acme/api.User",
			Kind:    catalog.KindObject,
			Members: []catalog.Member{{Name: "a", Type: "int"}},
		},
		"acme.api.User": {
			Name:    "acme.api.User",
			Kind:    catalog.KindObject,
			Members: []catalog.Member{{Name: "b", Type: "int"}},
		},
	}
	r := NewEngine(source).NewResolver()

	s, err := r.Reference("acme/api.User", false)
	require.NoError(t, err)
	assert.Equal(t, "#/components/schemas/acme.api.User", s.Ref)

	_, err = r.Reference("acme.api.User", false)
	require.Error(t, err)

	var ie *IntrospectionError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "acme.api.User", ie.Type)
	assert.True(t, errors.Is(err, catalog.ErrDuplicateType))

	_, err = r.Resolve("acme.api.User|null")
	assert.True(t, errors.Is(err, catalog.ErrDuplicateType))

	stored, _ := r.Registry().Schema("acme.api.User")
	assert.Equal(t, []string{"a"}, stored.PropertyNames())
}

func TestResolveEnums(t *testing.T) {
	t.Run("string backed", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve(statusType)
		require.NoError(t, err)
		assert.Equal(t, statusRef, s.Ref)
		assert.JSONEq(t, `{"type":"string","description":"Account status.","enum":["active","inactive"]}`, storedJSON(t, r, statusID))
	})

	t.Run("int backed", func(t *testing.T) {
		r := testEngine().NewResolver()

		_, err := r.Resolve(levelType)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"integer","enum":[1,2]}`, storedJSON(t, r, levelID))
	})

	t.Run("nullable use", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve(levelType + "|null")
		require.NoError(t, err)
		assert.JSONEq(t, `{"anyOf":[{"$ref":"`+levelRef+`"},{"nullable":true}]}`, toJSON(t, s))
		assert.JSONEq(t, `{"type":"integer","enum":[1,2]}`, storedJSON(t, r, levelID))
	})

	t.Run("no cases", func(t *testing.T) {
		types := catalog.New().MustAdd(&catalog.Type{Name: "Empty", Kind: catalog.KindEnum})
		r := NewEngine(types).NewResolver()

		_, err := r.Resolve("Empty")
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"string"}`, storedJSON(t, r, "Empty"))
	})
}

func TestResolveStringable(t *testing.T) {
	r := testEngine().NewResolver()

	s, err := r.Resolve(slugType + "|null")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"string","nullable":true,"description":"URL slug."}`, toJSON(t, s))
}

func TestResolveShape(t *testing.T) {
	t.Run("entries", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve(moneyType)
		require.NoError(t, err)
		assert.Equal(t, moneyRef, s.Ref)

		want := `{
			"type": "object",
			"properties": {
				"amount": {"type":"integer"},
				"currency": {"type":"string"},
				"rate": {"type":"number","nullable":true},
				"parts": {"type":"array","items":{"type":"integer"}},
				"owner": {"$ref":"` + userRef + `"},
				"failure": {"type":"string"},
				"choice": {"oneOf":[{"type":"integer"},{"type":"string"}]}
			}
		}`
		assert.JSONEq(t, want, storedJSON(t, r, moneyID))

		stored, _ := r.Registry().Schema(moneyID)
		assert.Equal(t, []string{"amount", "currency", "rate", "parts", "owner", "failure", "choice"}, stored.PropertyNames())
	})

	t.Run("empty shape", func(t *testing.T) {
		r := testEngine().NewResolver()

		_, err := r.Resolve(emptyShape)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"object"}`, storedJSON(t, r, "App.Value.Opaque"))
	})

	t.Run("nullable use", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Resolve(moneyType + "|null")
		require.NoError(t, err)
		assert.JSONEq(t, `{"anyOf":[{"$ref":"`+moneyRef+`"},{"nullable":true}]}`, toJSON(t, s))
	})

	t.Run("custom failure markers", func(t *testing.T) {
		r := testEngine(WithFailureMarkers("string")).NewResolver()

		_, err := r.Resolve(moneyType)
		require.NoError(t, err)

		stored, _ := r.Registry().Schema(moneyID)
		assert.Equal(t, []string{"amount", "rate", "parts", "owner", "choice"}, stored.PropertyNames())

		choice, _ := stored.Property("choice")
		assert.JSONEq(t, `{"type":"integer"}`, toJSON(t, choice))
	})
}

func TestReference(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		r := testEngine().NewResolver()

		s, err := r.Reference(`Vendor\Thing`, false)
		require.Error(t, err)
		assert.Nil(t, s)

		var ie *IntrospectionError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, `Vendor\Thing`, ie.Type)
		assert.True(t, errors.Is(err, catalog.ErrUnknownType))
		assert.False(t, r.Registry().HasSchema("Vendor.Thing"))
	})

	t.Run("cached", func(t *testing.T) {
		r := testEngine().NewResolver()

		first, err := r.Reference(pointType, false)
		require.NoError(t, err)
		second, err := r.Reference(pointType, true)
		require.NoError(t, err)

		assert.JSONEq(t, `{"$ref":"#/components/schemas/App.Value.Point"}`, toJSON(t, first))
		assert.JSONEq(t, `{"anyOf":[{"$ref":"#/components/schemas/App.Value.Point"},{"nullable":true}]}`, toJSON(t, second))
	})

	t.Run("stringable definition", func(t *testing.T) {
		r := testEngine().NewResolver()

		_, err := r.Reference(slugType, false)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"string","description":"URL slug."}`, storedJSON(t, r, "App.Value.Slug"))
	})
}

func TestResolveIntrospectionFailure(t *testing.T) {
	boom := errors.New("boom")
	r := NewEngine(failingSource{err: boom}).NewResolver()

	_, err := r.Resolve("Anything")
	require.Error(t, err)

	var ie *IntrospectionError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "Anything", ie.Type)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "introspect Anything")
}

func TestResolveMemberOverrideError(t *testing.T) {
	types := catalog.New().MustAdd(&catalog.Type{
		Name: "Bad",
		Kind: catalog.KindObject,
		Members: []catalog.Member{
			{Name: "x", Override: map[string]any{"type": 5}},
		},
	})
	r := NewEngine(types).NewResolver()

	_, err := r.Resolve("Bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad.x: override")
	assert.False(t, r.Registry().HasSchema("Bad"), "failed definitions are released")
}

func TestResolverSnapshot(t *testing.T) {
	r := testEngine().NewResolver()

	_, err := r.Resolve(userType)
	require.NoError(t, err)

	snap := r.Snapshot()
	var ids []string
	for pair := snap.Schemas.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}
	assert.Equal(t, []string{levelID, statusID, postID, userID}, ids)
	assert.Zero(t, snap.Responses.Len())
}

func TestResolversAreIndependent(t *testing.T) {
	e := testEngine()
	a := e.NewResolver()
	b := e.NewResolver()

	_, err := a.Resolve(userType)
	require.NoError(t, err)

	assert.True(t, a.Registry().HasSchema(userID))
	assert.False(t, b.Registry().HasSchema(userID))
}
