// Package engine is the orchestration core of the client.
//
// # Overview
//
// One Engine exists per running process. It owns the log channel registry
// and the settings store, and it keeps the set of configured worlds. The
// graphical shell talks to the engine; the engine talks to everything else.
//
//	e, err := engine.New(engine.Config{
//	    LogDir:             "logs",
//	    DocDir:             "doc",
//	    Backend:            settings.NewFileBackend("settings"),
//	    NewClient:          client.Factory(client.TCPDialer{}),
//	    NewScriptingEngine: scripting.Factory,
//	})
//	e.AddWorld(w)
//	err = e.Load(ctx)
//	c, err := e.Open("mud.example.org", 4000, w)
//
// # Initialization
//
// New always runs the same steps: create the log registry (and the log
// directory), acquire the root channel, build the settings store, start with
// an empty world map and the Engine feature level.
//
// # Sessions
//
// Open builds a Client and a ScriptingEngine for a world and cross-links
// them:
//
//	world.Client()                    == client
//	client.ScriptingEngine()          == scripting engine
//	world.ScriptingEngine()           == scripting engine
//	scriptingEngine.Client(), World() == client, world
//
// Construction is atomic from the caller's point of view: if either factory
// fails, nothing is wired and the world keeps its previous state. Each world
// moves through
//
//	Unopened -> Opening -> Open -> Closed
//
// and a closed world may be opened again.
//
// # Back-references
//
// After Load, every world known to the engine has a non-nil Engine(). Worlds
// added after Load receive the reference immediately.
//
// # Thread Safety
//
// Engine and World are safe for concurrent use. Open on a world that is
// already Opening or Open fails with ErrSessionActive.
package engine
