package main

import "github.com/KaramelBytes/oncoreport-cli/cmd"

func main() {
	cmd.Execute()
}
