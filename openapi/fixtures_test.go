package openapi

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/typeschema/catalog"
)

const (
	userType    = `App\Model\User`
	postType    = `App\Model\Post`
	statusType  = `App\Enum\Status`
	levelType   = `App\Enum\Level`
	createType  = `App\Request\CreateUser`
	moneyType   = `App\Value\Money`
	slugType    = `App\Value\Slug`
	stampType   = `App\Value\Stamp`
	pointType   = `App\Value\Point`
	emptyShape  = `App\Value\Opaque`
	userID      = "App.Model.User"
	postID      = "App.Model.Post"
	statusID    = "App.Enum.Status"
	levelID     = "App.Enum.Level"
	createID    = "App.Request.CreateUser"
	moneyID     = "App.Value.Money"
	userRef     = "#/components/schemas/App.Model.User"
	postRef     = "#/components/schemas/App.Model.Post"
	statusRef   = "#/components/schemas/App.Enum.Status"
	levelRef    = "#/components/schemas/App.Enum.Level"
	moneyRef    = "#/components/schemas/App.Value.Money"
	userRespRef = "#/components/responses/App.Model.User"
)

func testCatalog() *catalog.Catalog {
	return catalog.New().MustAdd(
		&catalog.Type{
			Name:        userType,
			Kind:        catalog.KindObject,
			Description: "A registered user.",
			Members: []catalog.Member{
				{Name: "id", Type: "int"},
				{Name: "name", Type: "string", Tag: "minLength=1,maxLength=100"},
				{Name: "email", Type: "string|null", Description: "Primary email."},
				{Name: "createdAt", Column: "created_at", Type: "DateTime"},
				{Name: "status", Type: statusType},
				{Name: "level", Type: levelType + "|null"},
				{Name: "manager", Type: userType + "|null"},
				{Name: "posts", Type: postType + "[]"},
				{Name: "tags", Type: "string[]"},
				{Name: "meta", Type: "map<string, mixed>"},
				{Name: "password", Type: "string", Hidden: true},
				{Name: "avatar", Alias: "avatar_url", Type: "string", Override: map[string]any{"type": "string", "format": "uri"}},
				{Name: "callback", Type: ""},
			},
		},
		&catalog.Type{
			Name: postType,
			Kind: catalog.KindObject,
			Members: []catalog.Member{
				{Name: "title", Type: "string"},
				{Name: "author", Type: userType},
			},
		},
		&catalog.Type{
			Name:        statusType,
			Kind:        catalog.KindEnum,
			Description: "Account status.",
			Cases: []catalog.Case{
				{Name: "Active", Value: "active"},
				{Name: "Inactive", Value: "inactive"},
			},
		},
		&catalog.Type{
			Name: levelType,
			Kind: catalog.KindEnum,
			Cases: []catalog.Case{
				{Name: "Low", Value: 1},
				{Name: "High", Value: 2},
			},
		},
		&catalog.Type{
			Name: createType,
			Kind: catalog.KindObject,
			Role: catalog.RoleRequest,
			Members: []catalog.Member{
				{Name: "name", Type: "string"},
				{Name: "email", Type: "string"},
			},
		},
		&catalog.Type{
			Name:         moneyType,
			Kind:         catalog.KindObject,
			Serializable: true,
			Shape: []catalog.ShapeEntry{
				{Key: "amount", Type: "int"},
				{Key: "currency", Type: "string"},
				{Key: "rate", Type: "float|null"},
				{Key: "parts", Type: "array<string, int>"},
				{Key: "owner", Type: userType},
				{Key: "failure", Type: "Throwable|string"},
				{Key: "unknown", Type: `Vendor\Thing`},
				{Key: "broken", Type: "array<"},
				{Key: "choice", Type: "int|string"},
			},
		},
		&catalog.Type{
			Name:         emptyShape,
			Kind:         catalog.KindObject,
			Serializable: true,
			Shape:        []catalog.ShapeEntry{},
		},
		&catalog.Type{Name: slugType, Kind: catalog.KindStringable, Description: "URL slug."},
		&catalog.Type{Name: stampType, Kind: catalog.KindDateTime},
		&catalog.Type{
			Name: pointType,
			Kind: catalog.KindObject,
			Members: []catalog.Member{
				{Name: "x", Type: "float"},
				{Name: "y", Type: "float"},
			},
		},
	)
}

func testEngine(opts ...Option) *Engine {
	return NewEngine(testCatalog(), opts...)
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func storedJSON(t *testing.T, r *Resolver, id string) string {
	t.Helper()
	s, ok := r.Registry().Schema(id)
	require.True(t, ok, "schema %s not stored", id)
	return toJSON(t, s)
}
