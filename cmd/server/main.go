package main

import "timekeep/internal/app/server"

func main() {
	server.Run()
}
