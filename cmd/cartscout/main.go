package main

import "github.com/cartscout/backend/cmd/cartscout/cmd"

func main() {
	cmd.Execute()
}
