// Package logging keeps the tree of named log channels used by the engine.
//
// # Channels
//
// Every channel is identified by a dotted name below the root channel
// "cocomud". The registry creates a channel the first time it is acquired
// and returns the cached instance afterwards:
//
//	reg, err := logging.NewRegistry("logs")
//	root, _ := reg.Acquire("")       // cocomud -> logs/main.log + console
//	sharp, _ := reg.Acquire("sharp") // cocomud.sharp -> logs/sharp.log
//
// Only the root channel writes to the console (INFO and above). Every
// channel owns one file sink that receives DEBUG and above.
//
// # Propagation
//
// A record logged on "cocomud.a.b" is written to its own sinks and then to
// the sinks of the nearest registered ancestor, up to the root. Each sink
// applies its own severity floor.
//
// # Format
//
// Lines are rendered as
//
//	HH:MM [LEVEL] message key=value ...
//
// with the hour and minute taken when the line is formatted.
//
// # Thread Safety
//
// Acquire serializes channel creation behind the registry lock, so two
// concurrent calls for the same name never attach duplicate sinks. Writes to
// a sink are serialized by the sink itself.
package logging
