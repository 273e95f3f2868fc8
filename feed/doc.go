// Package feed carries parsed market-data messages from a transport to the
// order books. A Feed owns the transport, a Registry routes messages to the
// book registered for their symbol, and a fixed-size ring decouples the
// transport goroutine from dispatch.
package feed
