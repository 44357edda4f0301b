package main

import "github.com/yorozuya-cybersecurity/csafcheck/pkg/cli"

func main() {
	cli.Execute()
}
