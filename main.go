package main

import "example.com/dosepoint/services/device/cmd"

func main() {
	cmd.Execute()
}
