package main

import "github.com/wallacemaster800-spec/acameria-academy/cmd/academyapi/cmd"

func main() {
	cmd.Execute()
}
