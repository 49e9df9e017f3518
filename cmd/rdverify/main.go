package main

import "github.com/OpenTraceLab/OpenTraceFabric/cmd/rdverify/cmd"

func main() {
	cmd.Execute()
}
