package main

import "ewa/internal/app/server"

func main() {
	server.Run()
}
