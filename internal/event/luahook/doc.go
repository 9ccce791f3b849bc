// Package luahook runs Lua scripts as event bus handlers.
//
// A script defines a global function handle(evt). The event arrives as a
// table with the fields id, topic, payload, metadata and timestamp (Unix
// seconds as a number). Payloads are converted to Lua values: structs and
// other Go values go through their JSON encoding, and []byte payloads holding
// JSON are decoded.
//
// The handler fails when handle raises an error or returns false, optionally
// followed by a message:
//
//	function handle(evt)
//	  if evt.payload.total > 1000 then
//	    return false, "order too large"
//	  end
//	  bus.publish("orders.approved", { id = evt.payload.id })
//	end
//
// Scripts run in a sandbox without the io, os, debug and package libraries.
// The globals bus.publish(topic, payload) and log(level, msg) are available
// when the script is created with WithBus and WithLogger respectively;
// bus.publish never waits for the published event's handlers.
package luahook
