package main

import "github.com/MeKo-Tech/pitchmap/cmd/pitchmap/cmd"

func main() {
	cmd.Execute()
}
