// Command parley runs the chat orchestrator as a terminal chat, an HTTP
// server or an MCP server.
package main

func main() {
	Execute()
}
