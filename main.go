package main

import "github.com/justin7251/ai-code-fixer/src/handler/cli"

func main() {
	cli.Run()
}
