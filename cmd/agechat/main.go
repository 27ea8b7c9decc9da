package main

import (
	"os"

	"github.com/adamgoose/age-chat/cmd/agechat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
