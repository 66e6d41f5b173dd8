package openapi

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/typeschema/catalog"
)

func testSpec() *Spec {
	spec := NewSpec(Info{Title: "Test API", Version: "1.0.0"}).
		AddServer(Server{URL: "https://api.example.com"}).
		AddTag(Tag{Name: "users", Description: "User operations"}).
		AddTag(Tag{Name: "admin"}).
		AddSecurityScheme("bearer", &SecurityScheme{Type: "http", Scheme: "bearer"}).
		SetSecurity(SecurityRequirement{"bearer": {}})

	spec.Endpoint(http.MethodGet, "/users").
		Summary("List users").
		Tags("users").
		OperationID("listUsers").
		TypedParameter(&Parameter{Name: "page", In: "query"}, "int").
		Response(http.StatusOK, ResponseSpec{Model: "Paginated", Generic: userType})

	spec.Endpoint(http.MethodPost, "/users").
		Summary("Create user").
		Tags("users").
		Request(createType).
		RequestDescription("The user to create").
		Response(http.StatusCreated, ResponseSpec{Model: userType}).
		Response(http.StatusUnprocessableEntity, ResponseSpec{})

	spec.Endpoint("get", "/users/{id:int}").
		Tags("users").
		Response(http.StatusOK, ResponseSpec{Model: userType}).
		Response(http.StatusNotFound, ResponseSpec{Description: "Missing"})

	spec.Endpoint(http.MethodDelete, "/users/$id").
		Hidden().
		Response(http.StatusNoContent, ResponseSpec{})

	spec.Endpoint(http.MethodGet, "/health").
		Security().
		Deprecated()

	return spec
}

func TestSpecBuild(t *testing.T) {
	doc, err := testSpec().Build(testEngine())
	require.NoError(t, err)

	assert.Equal(t, Version, doc.OpenAPI)
	assert.Equal(t, "Test API", doc.Info.Title)
	assert.Len(t, doc.Servers, 1)
	assert.Equal(t, []SecurityRequirement{{"bearer": {}}}, doc.Security)

	require.Len(t, doc.Paths, 3)
	assert.Contains(t, doc.Paths, "/users")
	assert.Contains(t, doc.Paths, "/users/{id}")
	assert.Contains(t, doc.Paths, "/health")

	t.Run("paginated response", func(t *testing.T) {
		op := doc.Paths["/users"].Get
		require.NotNil(t, op)
		assert.Equal(t, "listUsers", op.OperationID)

		resp := op.Responses["200"]
		require.NotNil(t, resp)
		assert.Equal(t, "OK", resp.Description)

		items, ok := resp.JSONContent().Property("items")
		require.True(t, ok)
		assert.Equal(t, userRef, items.Items.Ref)
	})

	t.Run("typed parameter", func(t *testing.T) {
		params := doc.Paths["/users"].Get.Parameters
		require.Len(t, params, 1)
		assert.Equal(t, "page", params[0].Name)
		assert.JSONEq(t, `{"type":"integer","format":"int32"}`, toJSON(t, params[0].Schema))
	})

	t.Run("request body", func(t *testing.T) {
		op := doc.Paths["/users"].Post
		require.NotNil(t, op)
		require.NotNil(t, op.RequestBody)

		assert.Equal(t, "The user to create", op.RequestBody.Description)
		assert.True(t, op.RequestBody.Required)
		assert.Equal(t, "#/components/schemas/"+createID, op.RequestBody.Content["application/json"].Schema.Ref)
	})

	t.Run("component responses", func(t *testing.T) {
		created := doc.Paths["/users"].Post.Responses["201"]
		assert.Equal(t, userRespRef, created.Ref)
		assert.Equal(t, userRespRef, doc.Paths["/users/{id}"].Get.Responses["200"].Ref)

		assert.Equal(t, "Unprocessable Entity", doc.Paths["/users"].Post.Responses["422"].Description)
		assert.Equal(t, "Missing", doc.Paths["/users/{id}"].Get.Responses["404"].Description)
	})

	t.Run("path parameters", func(t *testing.T) {
		item := doc.Paths["/users/{id}"]
		require.Len(t, item.Parameters, 1)
		assert.Equal(t, "id", item.Parameters[0].Name)
		assert.Equal(t, "path", item.Parameters[0].In)
		assert.True(t, item.Parameters[0].Required)
		assert.Equal(t, "integer", item.Parameters[0].Schema.Type)
	})

	t.Run("hidden endpoint", func(t *testing.T) {
		assert.Nil(t, doc.Paths["/users/{id}"].Delete)
	})

	t.Run("default response", func(t *testing.T) {
		op := doc.Paths["/health"].Get
		require.NotNil(t, op)
		assert.True(t, op.Deprecated)
		assert.NotNil(t, op.Security)
		assert.Empty(t, op.Security)
		assert.Equal(t, "Default response", op.Responses["default"].Description)
	})

	t.Run("components", func(t *testing.T) {
		require.NotNil(t, doc.Components)

		var schemas []string
		for pair := doc.Components.Schemas.Oldest(); pair != nil; pair = pair.Next() {
			schemas = append(schemas, pair.Key)
		}
		assert.Equal(t, []string{levelID, statusID, postID, userID, createID}, schemas)

		_, ok := doc.Components.Responses.Get(userID)
		assert.True(t, ok)
		assert.Contains(t, doc.Components.SecuritySchemes, "bearer")
	})

	t.Run("tags", func(t *testing.T) {
		require.Len(t, doc.Tags, 2)
		assert.Equal(t, "admin", doc.Tags[0].Name)
		assert.Equal(t, "users", doc.Tags[1].Name)
		assert.Equal(t, "User operations", doc.Tags[1].Description)
	})
}

func TestSpecBuildIsRepeatable(t *testing.T) {
	spec := testSpec()
	engine := testEngine()

	first, err := spec.Build(engine)
	require.NoError(t, err)
	second, err := spec.Build(engine)
	require.NoError(t, err)

	a, err := first.JSON()
	require.NoError(t, err)
	b, err := second.JSON()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSpecEndpointReuse(t *testing.T) {
	spec := NewSpec(Info{Title: "T", Version: "1"})

	a := spec.Endpoint("post", "/x")
	b := spec.Endpoint(http.MethodPost, "/x")
	c := spec.Endpoint(http.MethodGet, "/x")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestSpecBuildErrors(t *testing.T) {
	t.Run("unsupported method", func(t *testing.T) {
		spec := NewSpec(Info{Title: "T", Version: "1"})
		spec.Endpoint("FETCH", "/x")

		_, err := spec.Build(testEngine())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported method")
	})

	t.Run("introspection failure", func(t *testing.T) {
		spec := NewSpec(Info{Title: "T", Version: "1"})
		spec.Endpoint(http.MethodGet, "/x").Response(http.StatusOK, ResponseSpec{Model: "Thing"})

		_, err := spec.Build(NewEngine(failingSource{err: errors.New("boom")}))
		require.Error(t, err)

		var ie *IntrospectionError
		assert.True(t, errors.As(err, &ie))
		assert.Contains(t, err.Error(), "GET /x")
	})
}

func TestSpecBuildWithoutEngine(t *testing.T) {
	spec := NewSpec(Info{Title: "T", Version: "1"})
	spec.Endpoint(http.MethodGet, "/ping/{n:int}").
		Response(http.StatusOK, ResponseSpec{Model: "string"})

	doc, err := spec.Build(nil)
	require.NoError(t, err)

	item := doc.Paths["/ping/{n}"]
	require.NotNil(t, item)
	require.Len(t, item.Parameters, 1)
	assert.Equal(t, "integer", item.Parameters[0].Schema.Type)
	assert.Equal(t, "string", item.Get.Responses["200"].JSONContent().Type)
}

func TestSpecPathMetadata(t *testing.T) {
	spec := NewSpec(Info{Title: "T", Version: "1"}).
		SetPathSummary("/items/{id}", "Item").
		SetPathDescription("/items/{id}", "A single item").
		SetPathSummary("/missing", "ignored").
		SetExternalDocs("https://docs.example.com", "Docs")
	spec.Endpoint(http.MethodGet, "/items/{id}")

	doc, err := spec.Build(testEngine())
	require.NoError(t, err)

	assert.Equal(t, "Item", doc.Paths["/items/{id}"].Summary)
	assert.Equal(t, "A single item", doc.Paths["/items/{id}"].Description)
	assert.NotContains(t, doc.Paths, "/missing")
	assert.Equal(t, "https://docs.example.com", doc.ExternalDocs.URL)
	assert.Nil(t, doc.Components)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		tpl    string
		path   string
		params []string
		types  []string
	}{
		{"/users", "/users", nil, nil},
		{"/users/{id}", "/users/{id}", []string{"id"}, []string{"string"}},
		{"/users/{id:uuid}/posts/{n:int}", "/users/{id}/posts/{n}", []string{"id", "n"}, []string{"string", "integer"}},
		{"/users/$id", "/users/{id}", []string{"id"}, []string{"string"}},
		{"/files/{name:unknown}", "/files/{name}", []string{"name"}, []string{"string"}},
	}

	for _, tt := range tests {
		t.Run(tt.tpl, func(t *testing.T) {
			path, params := parsePath(tt.tpl)
			assert.Equal(t, tt.path, path)

			var names, types []string
			for _, p := range params {
				names = append(names, p.Name)
				types = append(types, p.Schema.Type)
				assert.True(t, p.Required)
				assert.Equal(t, "path", p.In)
			}
			assert.Equal(t, tt.params, names)
			assert.Equal(t, tt.types, types)
		})
	}

	_, params := parsePath("/users/{id:uuid}")
	assert.Equal(t, "uuid", params[0].Schema.Format)
}

func TestResponseDescription(t *testing.T) {
	assert.Equal(t, "OK", responseDescription("200"))
	assert.Equal(t, "Default response", responseDescription("default"))
	assert.Equal(t, "299", responseDescription("299"))
}

func TestRequestBodyWithoutModel(t *testing.T) {
	spec := NewSpec(Info{Title: "T", Version: "1"})
	spec.Endpoint(http.MethodPost, "/upload").RequestRequired(false)

	doc, err := spec.Build(testEngine())
	require.NoError(t, err)

	body := doc.Paths["/upload"].Post.RequestBody
	require.NotNil(t, body)
	assert.False(t, body.Required)
	assert.NotNil(t, body.Content)
	assert.Empty(t, body.Content)
}

func TestSpecFromFile(t *testing.T) {
	f := &catalog.File{
		Info:    &catalog.FileInfo{Title: "Shop", Version: "2.0.0"},
		Servers: []catalog.Server{{URL: "https://shop.example.com"}},
		Endpoints: []catalog.Endpoint{
			{
				Method:  "GET",
				Path:    "/users/{id}",
				Summary: "Get user",
				Tags:    []string{"users"},
				Parameters: []catalog.EndpointParameter{
					{Name: "id", In: "path", Type: "int"},
					{Name: "expand", In: "query"},
				},
				Responses: []catalog.EndpointResponse{
					{Code: "200", Model: userType},
					{Code: "default", Description: "Error"},
				},
			},
			{
				Method:     "POST",
				Path:       "/users",
				Request:    createType,
				Deprecated: true,
				Responses:  []catalog.EndpointResponse{{Code: "201", Model: "ArrayList", Generic: userType}},
			},
			{Method: "DELETE", Path: "/users/{id}", Hidden: true},
		},
	}

	spec, err := SpecFromFile(f)
	require.NoError(t, err)

	doc, err := spec.Build(testEngine())
	require.NoError(t, err)

	assert.Equal(t, "Shop", doc.Info.Title)
	assert.Equal(t, "https://shop.example.com", doc.Servers[0].URL)

	get := doc.Paths["/users/{id}"].Get
	require.NotNil(t, get)
	require.Len(t, get.Parameters, 2)
	assert.True(t, get.Parameters[0].Required)
	assert.Equal(t, "integer", get.Parameters[0].Schema.Type)
	assert.False(t, get.Parameters[1].Required)
	assert.Equal(t, "string", get.Parameters[1].Schema.Type)
	assert.Equal(t, userRespRef, get.Responses["200"].Ref)
	assert.Equal(t, "Error", get.Responses["default"].Description)
	assert.Nil(t, doc.Paths["/users/{id}"].Delete)

	post := doc.Paths["/users"].Post
	require.NotNil(t, post)
	assert.True(t, post.Deprecated)
	assert.Equal(t, userRef, post.Responses["201"].JSONContent().Items.Ref)

	t.Run("default info", func(t *testing.T) {
		spec, err := SpecFromFile(&catalog.File{})
		require.NoError(t, err)
		assert.Equal(t, "API", spec.info.Title)
	})

	t.Run("invalid code", func(t *testing.T) {
		_, err := SpecFromFile(&catalog.File{Endpoints: []catalog.Endpoint{
			{Method: "GET", Path: "/", Responses: []catalog.EndpointResponse{{Code: "ok"}}},
		}})
		assert.Error(t, err)
	})
}

func TestSpecAddSchemas(t *testing.T) {
	spec := NewSpec(Info{Title: "T", Version: "1"}).AddSchemas(statusType, pointType)

	doc, err := spec.Build(testEngine())
	require.NoError(t, err)
	require.NotNil(t, doc.Components)

	_, ok := doc.Components.Schemas.Get(statusID)
	assert.True(t, ok)
	_, ok = doc.Components.Schemas.Get("App.Value.Point")
	assert.True(t, ok)
	assert.Empty(t, doc.Paths)

	_, err = NewSpec(Info{Title: "T", Version: "1"}).AddSchemas("Missing").Build(testEngine())
	assert.Error(t, err)
}
