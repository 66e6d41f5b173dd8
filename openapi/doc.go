// Package openapi generates OpenAPI v3.0.3 documents from a catalog of type
// descriptions.
//
// Type expressions such as "int", "App\Model\User|null" or
// "array<string, Tag>" are resolved into Schema objects or into References
// to schemas stored once under components/schemas. Nullability uses the
// 3.0 "nullable" keyword.
//
// See: https://spec.openapis.org/oas/v3.0.3
//
// # Engine and Resolver
//
// An Engine holds the type source, the shape builders and the logger. It is
// immutable and safe to share. Every document build uses its own Resolver:
//
//	types := catalog.New()
//	types.MustAdd(&catalog.Type{Name: "App\\Model\\User", Kind: catalog.KindObject, ...})
//
//	engine := openapi.NewEngine(types, openapi.WithLogger(logger))
//	r := engine.NewResolver()
//
//	s, err := r.Resolve("App\\Model\\User|null")
//	// s: {anyOf: [{$ref: "#/components/schemas/App.Model.User"}, {nullable: true}]}
//
// # Dispatch
//
// A single alternative is offered to the builders tier by tier; the first
// matching builder of the first matching tier wins:
//
//	TierDirect      date-times, model and request-model references
//	TierReferenced  enums and types with a documented JSON shape; the result
//	                is stored and a Reference is returned
//	TierPrimitive   number, integer, boolean, string, mixed
//
// Names no builder accepts produce a string schema whose pattern lists the
// unresolved names. Unions of several alternatives produce a oneOf. Custom
// builders are added with WithBuilder and run after the builtin builders of
// their tier.
//
// # Cycles
//
// Definitions are built behind a placeholder reserved under the type's
// SchemaID. A type reaching itself through its members finds the
// placeholder and receives a Reference, so self-referential and mutually
// referential types terminate.
//
// # Member Tags
//
// The tag of a catalog member uses the `openapi` tag grammar of struct
// tags and applies to inline member schemas:
//
//	Tag: "minLength=1,maxLength=100,example=alice"
//	Tag: "minimum=0,exclusiveMaximum=10"
//	Tag: "enum=active|inactive,readOnly"
//
// References are left untouched.
//
// # Spec Builder
//
// Describe endpoints with type expressions and build the document:
//
//	spec := openapi.NewSpec(openapi.Info{Title: "My API", Version: "1.0.0"})
//
//	spec.Endpoint(http.MethodGet, "/users/{id:int}").
//	    Summary("Get a user").
//	    Tags("users").
//	    Response(http.StatusOK, openapi.ResponseSpec{Model: "App\\Model\\User"})
//
//	spec.Endpoint(http.MethodGet, "/users").
//	    Response(http.StatusOK, openapi.ResponseSpec{Model: "Paginated", Generic: "App\\Model\\User"})
//
//	doc, err := spec.Build(engine)
//
// Catalog objects used as responses are stored under components/responses.
// The builtin models ArrayList, ArrayListInterface and list describe arrays;
// Paginated describes a page with items, page, page_size, pages and total.
//
// # Serving the Document
//
// Handle registers the JSON and YAML documents and an interactive docs page
// on a ServeMux:
//
//	mux := http.NewServeMux()
//	spec.Handle(mux, engine, "/swagger", nil)
//	// /swagger/              -> Swagger UI
//	// /swagger/schema.json   -> JSON document
//	// /swagger/schema.yaml   -> YAML document
//
// The document is built on first request and cached. Responses carry an
// ETag, honor If-None-Match and are gzip-compressed for clients that accept
// it.
//
// # Validation
//
// Document.Validate loads the generated document with kin-openapi and runs
// its validator.
package openapi
