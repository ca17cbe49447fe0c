package main

import "github.com/tunnelhub/tunnelhub/cmd/tunnelhub/cmd"

func main() {
	cmd.Execute()
}
