// Package engine is the composition root of quantumcore. It builds the
// configured model adapter, resolves secrets, and hands out Sessions that
// aggregate a streamed reply into the conversation history one turn at a
// time. Frontends observe progress through the EventBus or by waiting on
// the Session's chat.
package engine
