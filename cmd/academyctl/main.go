package main

import "github.com/wallacemaster800-spec/acameria-academy/cmd/academyctl/cmd"

func main() {
	cmd.Execute()
}
