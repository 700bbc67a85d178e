package main

import "github.com/Manu343726/clamp-config/cmd"

func main() {
	cmd.Execute()
}
