// Package modeladapter is the transport layer between a Session and a hosted
// model.
//
// [Opener] and [Conversation] are what the engine drives. Stateless REST APIs
// implement [TurnStreamer] and get a [HistoryConversation] that replays the
// completed turns on every request. [ModelAdapter] is embedded by every
// provider and carries auth, headers, the server-sent event reader and the
// websocket dialer. Token accounting lives in
// [github.com/tjkj/quantumcore/pkg/modeladapter/usage].
package modeladapter
