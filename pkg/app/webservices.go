package app

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// dataResponse is the live snapshot served under /data.
type dataResponse struct {
	TimeStamp      time.Time     `json:"timestamp"`
	Classification string        `json:"classification"`
	States         uint16        `json:"states"`
	Counters       []uint32      `json:"counters"`
	MilliVolt      int           `json:"millivolt"`
	Lines          []linePayload `json:"lines"`
}

// runWebServer starts the application's web server and listens for web
// requests. It is designed to run in a separate go function to not block
// the main go function. See app.Run().
func (app *App) runWebServer() {
	err := app.web.Listen(app.urlParsed.Host)
	debug.ErrorLog.Print(err)
}

// HandleData is the get current data web handler.
func (app *App) HandleData() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request data")

		app.last.RLock()
		snap := app.last.snapshot
		mv := app.last.milliVolt
		app.last.RUnlock()

		return ctx.JSON(dataResponse{
			TimeStamp:      snap.Time,
			Classification: snap.Classification.String(),
			States:         snap.Levels,
			Counters:       snap.Counts,
			MilliVolt:      mv,
			Lines:          app.linePayloads(),
		})
	}
}
