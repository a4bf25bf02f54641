package main

import (
	"portfolio-risk-alerts/internal/cli"
)

func main() {
	cli.Execute()
}
