// Command quill runs the note-taking API server.
//
//	quill serve     start the HTTP server
//	quill migrate   apply database schema migrations
//	quill version   print the build version
//
// Configuration is read from --config, QUILL_CONFIG, ./config.yaml or
// /etc/quill/config.yaml, then overridden by QUILL_* environment variables.
// The legacy PORT, ACCESS_TOKEN_SECRET and MONGO_URI variables are honored.
package main

func main() {
	Execute()
}
