// Command megamente is a terminal chat client for Google Gemini.
package main

import "github.com/diogo/megamente/internal/commands"

func main() {
	commands.Execute()
}
