// Package typeexpr parses type expressions as they appear in declared member
// types and documented output shapes into a Descriptor: the alternative type
// names, whether null is allowed, and the container wrapping the whole set.
//
// Grammar (whitespace is insignificant):
//
//	expr    := union
//	union   := term ( '|' term )*
//	term    := primary ( '[' ']' )*
//	primary := ( 'array' | 'list' | 'map' ) ( '<' expr ( ',' expr )? '>' )?
//	         | '?' primary
//	         | '(' expr ')'
//	         | NAME
//
// Container forms:
//
//	Foo[]                 array of Foo
//	array, list           array of anything
//	array<Foo>, list<Foo> array of Foo
//	array<string, Foo>    keyed array of Foo (Map)
//	map<string, Foo>      dictionary of Foo (Dict)
//
// A "null" alternative sets Nullable and is removed from the alternatives.
// When the union holds a single non-null container, the descriptor takes the
// container shape and the element alternatives; otherwise every alternative is
// kept in canonical form and callers parse container alternatives again.
//
//	d, err := typeexpr.Parse(`App\Model\User[]|null`)
//	// d.Container == typeexpr.Array
//	// d.Types == []string{`App\Model\User`}
//	// d.Nullable == true
package typeexpr
