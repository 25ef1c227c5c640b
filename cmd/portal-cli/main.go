package main

import (
	"context"
	"titechportal/cmd/portal-cli/commands"
	"titechportal/internal/components/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext(context.Background())
	defer cancel()
	commands.ExecuteContext(ctx)
}
