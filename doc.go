// Package tellatale is an interactive-fiction engine: it turns a genre,
// protagonist and setting into a branching story, generated one segment at a
// time, while a five-trait "soul" profile evolves with every choice the
// reader makes.
//
// The root package offers the high-level Engine facade. Generation backends
// implement ports.Generator (see pkg/adapters/gemini), persistence backends
// implement ports.HistoryStore (memory, file and redis adapters are
// provided), and pkg/runner hosts an interactive terminal session.
package tellatale
