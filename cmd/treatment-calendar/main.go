package main

import "github.com/klabast/wb-services/treatment-calendar/internal/commands"

func main() {
	commands.Execute()
}
