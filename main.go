package main

import (
	"github.com/milechy/ultra-autotrade-project/internal/cli"
)

func main() {
	cli.Execute()
}
