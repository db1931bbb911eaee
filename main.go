package main

import "github.com/nyantunes/nyantunes/cmd"

func main() {
	cmd.Execute()
}
