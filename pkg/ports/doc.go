// Package ports declares the driven interfaces of the TellATale core.
//
// The engine never talks to a model provider or a database directly; it talks
// to a Generator and a HistoryStore. Adapters under pkg/adapters implement
// these ports (Gemini, memory, file, Redis), and tests stub them.
package ports
