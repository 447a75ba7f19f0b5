// Package domain contains the pure types of the TellATale core: the trait
// vector and personality profile, story segments and choices, saved stories,
// identities and the story phase enum.
//
// Types here have no dependencies on adapters or the runtime. They are the
// vocabulary shared by the ports (driven interfaces) and the engine.
package domain
