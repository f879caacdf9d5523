// Package ws streams store change events to websocket clients.
//
// New(bus, checkOrigin) creates a Hub. Hub.Run(ctx) subscribes to the event
// bus and forwards every event to all connected clients until ctx is
// cancelled, then closes them. Hub.ServeHTTP upgrades a request and keeps the
// connection open until the client goes away.
//
// Message format:
//
//	{
//	  "event": "task.upserted",
//	  "data":  { "id": "...", "kind": "task.upserted", "entity_id": 1, "at": "...", "task": {...} }
//	}
//
// User events carry the id and username only. A client whose outgoing buffer
// fills up is disconnected. The server mounts the hub at /ws/events.
package ws
