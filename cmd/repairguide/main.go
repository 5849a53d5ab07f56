// Command repairguide serves step-by-step car repair instructions generated by
// Gemini with Google Search grounding, over a web page, a JSON API and
// optionally a Telegram bot.
package main

import (
	"fmt"
	"os"

	"repairguide/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "repairguide:", err)
		os.Exit(1)
	}
	if err := application.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "repairguide:", err)
		os.Exit(1)
	}
}
