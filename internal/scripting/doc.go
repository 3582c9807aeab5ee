// Package scripting runs user scripts for a world session on a Lua state.
//
// Each opened world gets its own Engine with a private lua.State, so scripts
// of different sessions never share globals. Scripts see:
//
//	world        -- the world name
//	send(text)   -- send a line through the session's client
//	log(text)    -- write to the "scripting" log channel
//	tts()        -- whether text-to-speech is enabled
//
// A script that defines a global on_line(line) function receives every line
// read by the client.
package scripting
