package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every module that mounts routes on the
// application router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
