// Package chats holds the conversation model shared by the engine, the
// adapters and the console.
//
// Sub-packages:
//   - [github.com/tjkj/quantumcore/pkg/chats/message]: a sender role and its text
//   - [github.com/tjkj/quantumcore/pkg/chats/chat]: the append-only history a session writes and frontends watch
package chats
