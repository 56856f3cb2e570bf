package api

import (
	"context"
	"net/http"

	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/command"
	"github.com/remoshock/remoshock/internal/randomizer"
	"github.com/remoshock/remoshock/internal/telemetry"
)

// DispatcherPort defines the minimal interface the API needs from the dispatcher.
type DispatcherPort interface {
	Dispatch(ctx context.Context, index int, action codec.Action, power, durationMs int) error
	GetConfig() command.Config
	ReceiverCount() int
}

// RandomizerPort defines the randomizer controls exposed over REST.
type RandomizerPort interface {
	Start(cfg randomizer.Config) error
	Stop()
	Status() randomizer.Status
}

// TelemetryPort defines the minimal interface the API needs from the telemetry hub.
type TelemetryPort interface {
	Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	PublishRandomizer(status string)
}

// Compile-time assertions for port conformance
var _ DispatcherPort = (*command.Dispatcher)(nil)
var _ RandomizerPort = (*randomizer.Randomizer)(nil)
var _ TelemetryPort = (*telemetry.Hub)(nil)
