package main

import "github.com/comedorlabs/suministro/cmd"

func main() {
	cmd.Execute()
}
