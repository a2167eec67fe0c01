package main

import (
	"chatrelay/server"
)

func main() {
	server.Main()
}
