// Package client implements the network session the engine opens for a world.
//
// A Client is built unconnected by the engine's Open call, then connected by
// the caller:
//
//	c, err := e.Open(w.Hostname, w.Port, w)
//	cl := c.(*client.Client)
//	cl.OnLine(func(line string) { fmt.Println(line) })
//	err = cl.Connect(ctx)
//	err = cl.Send(ctx, "look")
//
// The transport is chosen from the world's protocol: plain TCP for "telnet"
// (the default) and WebSocket for "ws" or "wss". Protocol negotiation and
// output rendering belong to the layers above; the client only moves lines.
//
// Every received line is logged on the "client" channel at DEBUG, passed to
// the OnLine handler and, when the scripting engine wants it, to the
// scripting engine.
package client
