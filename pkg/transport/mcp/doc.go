// Package mcp exposes the note operations as MCP (Model Context Protocol)
// tools over the streamable HTTP transport.
//
// The endpoint is stateless. Every HTTP request builds a fresh server whose
// tools are bound to the account authenticated by the surrounding auth
// middleware, so a tool call can only see and change the caller's notes.
// Tools: list_notes, search_notes, add_note, set_note_pinned, delete_note.
package mcp
