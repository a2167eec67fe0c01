package main

import (
	"chatrelay/console"
)

func main() {
	console.Main()
}
