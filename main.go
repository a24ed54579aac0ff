package main

import "github.com/josephlewis42/forkshell/cmd"

func main() {
	cmd.Execute()
}
