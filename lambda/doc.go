// Package lambda implements the Lambda typed item model.
//
// Every runtime value is an Item: a tagged word whose top byte is the TypeID
// and whose remaining bits carry either an inline payload (null, bool, small
// int) or, for boxed variants, a pointer to a payload owned by a Document.
//
// A Document owns the memory behind its items: a byte arena (see package
// pool) for characters and binary payloads, a NamePool for interned names,
// and typed slabs for descriptors and containers. Closing the Document frees
// everything at once.
//
// # Text form
//
// Items have a literal text notation ("Mark") used for fixtures, debugging
// and the mark input/output format:
//
//	null true false 42 3.5 12.5n "text" 'symbol' b'AQID' t'2024-01-02'
//	[1, 2, 3]                  // array
//	(1, "two", 'three')        // list
//	{name: "Ada", age: 36}     // map
//	<a href: "x"; "child" <b; "bold">>  // element
//
// # Reading
//
// Read wraps an Item in an ItemReader; ArrayReader, MapReader and
// ElementReader provide zero-copy iteration in source order (shape order
// for map entries) using range-over-func iterators.
package lambda
