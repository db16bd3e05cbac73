package main

import "github.com/mselser95/parimutuel-house/cmd"

func main() {
	cmd.Execute()
}
