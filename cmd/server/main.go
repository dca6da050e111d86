package main

import "github.com/eventhall/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
