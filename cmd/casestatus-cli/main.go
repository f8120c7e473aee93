package main

import (
	"context"

	"ecourts-casestatus/cmd/casestatus-cli/commands"
	"ecourts-casestatus/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(context.Background())
}
