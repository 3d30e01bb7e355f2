package main

import (
	server "github.com/mercury-im/mercury/cmd/server"
)

func main() {
	server.NewServer().Run()
}
