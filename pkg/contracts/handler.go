package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Worker is a background task bound to the application lifecycle.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
