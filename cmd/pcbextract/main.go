package main

import "github.com/gopcb/pcbextract/cmd/pcbextract/cmd"

func main() {
	cmd.Execute()
}
